package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness and store connectivity.
type HealthHandler struct {
	store   Pinger
	driver  string
	started time.Time
	logger  logrus.FieldLogger
}

// NewHealthHandler creates a new HealthHandler. driver names the store
// backend in responses.
func NewHealthHandler(store Pinger, driver string, logger logrus.FieldLogger) *HealthHandler {
	return &HealthHandler{store: store, driver: driver, started: time.Now(), logger: logger}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Store     string    `json:"store"`
	Driver    string    `json:"driver"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

// Health answers 200 when the store responds to a ping and 503 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Store:     "up",
		Driver:    h.driver,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}
	status := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		h.logger.WithError(err).Warn("health check: store unreachable")
		resp.Status = "degraded"
		resp.Store = "down"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
