package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/inventory"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// InventoryServicer defines the ledger methods needed by inventory handlers.
// Satisfied by *inventory.Ledger; narrow interface for testability.
type InventoryServicer interface {
	List(ctx context.Context) ([]model.InventoryRecord, error)
	GetByItem(ctx context.Context, menuItemID string) (*model.InventoryRecord, error)
	Alerts(ctx context.Context) (inventory.Alerts, error)
	Summary(ctx context.Context) (inventory.Summary, error)
	Upsert(ctx context.Context, in inventory.UpsertInput) (model.InventoryRecord, bool, error)
	Adjust(ctx context.Context, id string, delta decimal.Decimal, reason string) (inventory.AdjustResult, error)
	BulkUpdate(ctx context.Context, entries []inventory.BulkEntry) ([]inventory.BulkResult, error)
	Delete(ctx context.Context, id string) error
}

// InventoryHandler handles inventory endpoints. All of them are admin only.
type InventoryHandler struct {
	ledger InventoryServicer
	logger logrus.FieldLogger
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(ledger InventoryServicer, logger logrus.FieldLogger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, logger: logger}
}

// RegisterRoutes registers inventory endpoints on an admin-only router.
func (h *InventoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/item/{itemId}", h.GetByItem)
	r.Get("/alerts/low-stock", h.Alerts)
	r.Get("/stats/summary", h.Summary)
	r.Post("/", h.Upsert)
	r.Post("/bulk-update", h.BulkUpdate)
	r.Patch("/{id}/stock", h.Adjust)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type adjustStockRequest struct {
	Adjustment *decimal.Decimal `json:"adjustment"`
	Reason     string           `json:"reason"`
}

type bulkUpdateRequest struct {
	Updates []inventory.BulkEntry `json:"updates"`
}

type inventoryItemResponse struct {
	ID       string            `json:"id"`
	Name     bilingualResponse `json:"name"`
	Category string            `json:"category"`
}

type inventoryResponse struct {
	ID            string                `json:"id"`
	Item          inventoryItemResponse `json:"item"`
	CurrentStock  json.Number           `json:"currentStock"`
	MinStock      json.Number           `json:"minStock"`
	Unit          string                `json:"unit"`
	AutoReorder   bool                  `json:"autoReorder"`
	Supplier      string                `json:"supplier,omitempty"`
	CostPerUnit   *json.Number          `json:"costPerUnit,omitempty"`
	StockValue    json.Number           `json:"stockValue"`
	StockStatus   string                `json:"stockStatus"`
	LastRestocked time.Time             `json:"lastRestocked"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

type adjustStockResponse struct {
	Inventory  inventoryResponse `json:"inventory"`
	Adjustment json.Number       `json:"adjustment"`
	NewStock   json.Number       `json:"newStock"`
	Reason     string            `json:"reason"`
}

type alertsResponse struct {
	LowStock    []inventoryResponse `json:"lowStock"`
	OutOfStock  []inventoryResponse `json:"outOfStock"`
	TotalAlerts int                 `json:"totalAlerts"`
}

type summaryResponse struct {
	TotalItems      int         `json:"totalItems"`
	TotalValue      json.Number `json:"totalValue"`
	LowStockCount   int         `json:"lowStockCount"`
	OutOfStockCount int         `json:"outOfStockCount"`
}

type bulkResultResponse struct {
	Item      string             `json:"item"`
	Success   bool               `json:"success"`
	Inventory *inventoryResponse `json:"inventory,omitempty"`
	Error     string             `json:"error,omitempty"`
}

type bulkUpdateResponse struct {
	Message      string               `json:"message"`
	Results      []bulkResultResponse `json:"results"`
	SuccessCount int                  `json:"successCount"`
	FailureCount int                  `json:"failureCount"`
}

func toInventoryResponse(rec model.InventoryRecord) inventoryResponse {
	resp := inventoryResponse{
		ID:            rec.ID,
		Item:          inventoryItemResponse{ID: rec.MenuItemID},
		CurrentStock:  number(rec.CurrentStock),
		MinStock:      number(rec.MinStock),
		Unit:          rec.Unit,
		AutoReorder:   rec.AutoReorder,
		Supplier:      rec.Supplier,
		CostPerUnit:   optionalNumber(rec.CostPerUnit),
		StockValue:    number(rec.StockValue()),
		StockStatus:   rec.StockStatus(),
		LastRestocked: rec.LastRestocked,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
	if rec.Item != nil {
		resp.Item.Name = bilingualResponse(rec.Item.Name)
		resp.Item.Category = rec.Item.Category
	}
	return resp
}

func toInventoryResponses(recs []model.InventoryRecord) []inventoryResponse {
	out := make([]inventoryResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toInventoryResponse(rec))
	}
	return out
}

// --- Handlers ---

// List returns every stock record, lowest stock first.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.ledger.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err, "Inventory item not found")
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponses(recs))
}

// GetByItem returns the stock record of one menu item, 404 when untracked.
func (h *InventoryHandler) GetByItem(w http.ResponseWriter, r *http.Request) {
	rec, err := h.ledger.GetByItem(r.Context(), chi.URLParam(r, "itemId"))
	if err != nil {
		writeError(w, r, h.logger, err, "Inventory item not found")
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Inventory item not found"})
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponse(*rec))
}

// Alerts returns low and out of stock records.
func (h *InventoryHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	a, err := h.ledger.Alerts(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err, "Inventory item not found")
		return
	}
	writeJSON(w, http.StatusOK, alertsResponse{
		LowStock:    toInventoryResponses(a.LowStock),
		OutOfStock:  toInventoryResponses(a.OutOfStock),
		TotalAlerts: a.TotalAlerts,
	})
}

// Summary returns ledger totals.
func (h *InventoryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.ledger.Summary(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err, "Inventory item not found")
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		TotalItems:      s.TotalItems,
		TotalValue:      number(s.TotalValue),
		LowStockCount:   s.LowStockCount,
		OutOfStockCount: s.OutOfStockCount,
	})
}

// Upsert creates or replaces the stock record of a menu item. It answers 201
// when a record was created.
func (h *InventoryHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req inventory.UpsertInput
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, created, err := h.ledger.Upsert(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err, "Inventory item not found")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toInventoryResponse(rec))
}

// Adjust adds a signed amount to a record's stock.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Adjustment == nil {
		verr := &validation.Error{}
		verr.Add("adjustment", "Stock adjustment is required")
		writeError(w, r, h.logger, verr, "")
		return
	}

	res, err := h.ledger.Adjust(r.Context(), chi.URLParam(r, "id"), *req.Adjustment, req.Reason)
	if err != nil {
		writeError(w, r, h.logger, err, "Inventory item not found")
		return
	}
	writeJSON(w, http.StatusOK, adjustStockResponse{
		Inventory:  toInventoryResponse(res.Record),
		Adjustment: number(res.Adjustment),
		NewStock:   number(res.NewStock),
		Reason:     res.Reason,
	})
}

// BulkUpdate applies several partial updates and reports each outcome.
func (h *InventoryHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	results, err := h.ledger.BulkUpdate(r.Context(), req.Updates)
	if err != nil {
		writeError(w, r, h.logger, err, "Inventory item not found")
		return
	}

	resp := bulkUpdateResponse{
		Message: "Bulk update completed",
		Results: make([]bulkResultResponse, 0, len(results)),
	}
	for _, res := range results {
		out := bulkResultResponse{Item: res.MenuItemID, Success: res.Err == nil}
		if res.Err != nil {
			out.Error = h.bulkErrorMessage(res.Err)
			resp.FailureCount++
		} else {
			rec := toInventoryResponse(*res.Record)
			out.Inventory = &rec
			resp.SuccessCount++
		}
		resp.Results = append(resp.Results, out)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *InventoryHandler) bulkErrorMessage(err error) string {
	if errors.Is(err, inventory.ErrMenuItemNotFound) {
		return "Menu item not found"
	}
	h.logger.WithError(err).Warn("bulk inventory entry failed")
	return "Failed to update inventory"
}

// Delete removes a stock record; the item becomes untracked.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err, "Inventory item not found")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Inventory item deleted successfully"})
}
