package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/config"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/handler"
	mw "github.com/roobiinpandey/Qahwat-Al-Emarat/internal/middleware"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/ws"
	"github.com/sirupsen/logrus"
)

// Services are the application services the router exposes.
type Services struct {
	Menu      handler.MenuServicer
	Orders    handler.OrderServicer
	Inventory handler.InventoryServicer
	Store     handler.Pinger
}

// New creates a Chi router with all application routes wired up. The API is
// served under /api/v1 and, for older clients, under /api.
func New(cfg *config.Config, svc Services, hub *ws.Hub, logger *logrus.Logger) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	health := handler.NewHealthHandler(svc.Store, cfg.StoreDriver, logger)
	menuHandler := handler.NewMenuHandler(svc.Menu, logger)
	orderHandler := handler.NewOrderHandler(svc.Orders, logger)
	inventoryHandler := handler.NewInventoryHandler(svc.Inventory, logger)

	admin := mw.AdminOnly(cfg.JWTSecret)

	api := func(r chi.Router) {
		r.Get("/health", health.Health)
		r.Route("/menu", func(r chi.Router) { menuHandler.RegisterRoutes(r, admin) })
		r.Route("/order", func(r chi.Router) { orderHandler.RegisterRoutes(r, admin) })
		r.Route("/inventory", func(r chi.Router) {
			r.Use(admin)
			inventoryHandler.RegisterRoutes(r)
		})
	}

	r.Get("/health", health.Health)
	r.Route("/api/v1", api)
	r.Route("/api", api)

	// WebSocket routes (handle auth internally via query param)
	r.Get("/ws/orders", ws.Handler(hub, cfg.JWTSecret, ws.TopicOrders))
	r.Get("/ws/inventory", ws.Handler(hub, cfg.JWTSecret, ws.TopicInventory))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Route not found"})
	})

	return r
}
