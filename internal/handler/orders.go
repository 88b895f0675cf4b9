package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/service"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/validation"
	"github.com/sirupsen/logrus"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, f model.OrderFilter) (service.OrderPage, error)
	UpdateStatus(ctx context.Context, id, status string) (*model.Order, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc    OrderServicer
	logger logrus.FieldLogger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, logger logrus.FieldLogger) *OrderHandler {
	return &OrderHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers order endpoints. Placing an order is public;
// everything else goes through admin.
func (h *OrderHandler) RegisterRoutes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Post("/", h.Place)
	r.With(admin).Get("/", h.List)
	r.With(admin).Get("/{id}", h.Get)
	r.With(admin).Patch("/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type updateStatusRequest struct {
	Status string `json:"status"`
}

type placedOrderResponse struct {
	ID           string      `json:"id"`
	OrderNumber  int64       `json:"orderNumber"`
	CustomerName string      `json:"customerName"`
	Total        json.Number `json:"total"`
	Status       string      `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
}

type placeOrderResponse struct {
	Message string              `json:"message"`
	Order   placedOrderResponse `json:"order"`
}

type orderResponse struct {
	ID                  string              `json:"id"`
	OrderNumber         int64               `json:"orderNumber"`
	CustomerName        string              `json:"customerName"`
	CustomerPhone       string              `json:"customerPhone"`
	OrderType           string              `json:"orderType"`
	TableNumber         string              `json:"tableNumber,omitempty"`
	DeliveryAddress     string              `json:"deliveryAddress,omitempty"`
	SpecialInstructions string              `json:"specialInstructions,omitempty"`
	Items               []orderItemResponse `json:"items"`
	Total               json.Number         `json:"total"`
	Status              string              `json:"status"`
	PaymentMethod       string              `json:"paymentMethod"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

type orderItemResponse struct {
	MenuItem     string            `json:"menuItem"`
	ItemName     bilingualResponse `json:"itemName"`
	SelectedSize *sizeResponse     `json:"selectedSize,omitempty"`
	Quantity     int               `json:"quantity"`
	PriceAtOrder json.Number       `json:"priceAtOrder"`
	Subtotal     json.Number       `json:"subtotal"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func toOrderResponse(o model.Order) orderResponse {
	resp := orderResponse{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		CustomerName:        o.CustomerName,
		CustomerPhone:       o.CustomerPhone,
		OrderType:           o.OrderType,
		TableNumber:         o.TableNumber,
		DeliveryAddress:     o.DeliveryAddress,
		SpecialInstructions: o.SpecialInstructions,
		Items:               make([]orderItemResponse, 0, len(o.Lines)),
		Total:               number(o.Total),
		Status:              o.Status,
		PaymentMethod:       o.PaymentMethod,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	for _, l := range o.Lines {
		item := orderItemResponse{
			MenuItem:     l.MenuItemID,
			ItemName:     bilingualResponse(l.ItemName),
			Quantity:     l.Quantity,
			PriceAtOrder: number(l.PriceAtOrder),
			Subtotal:     number(l.Subtotal()),
		}
		if l.SelectedSize != nil {
			size := toSizeResponse(*l.SelectedSize)
			item.SelectedSize = &size
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

// --- Handlers ---

// Place records a customer's order.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req service.PlaceOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.svc.PlaceOrder(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err, "Order not found")
		return
	}

	writeJSON(w, http.StatusOK, placeOrderResponse{
		Message: "Order placed successfully!",
		Order: placedOrderResponse{
			ID:           order.ID,
			OrderNumber:  order.OrderNumber,
			CustomerName: order.CustomerName,
			Total:        number(order.Total),
			Status:       order.Status,
			CreatedAt:    order.CreatedAt,
		},
	})
}

// List returns orders newest first.
// Query: status, start_date, end_date (YYYY-MM-DD), limit, offset.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	f, verr := parseOrderFilter(r)
	if err := verr.OrNil(); err != nil {
		writeError(w, r, h.logger, err, "")
		return
	}

	page, err := h.svc.ListOrders(r.Context(), f)
	if err != nil {
		writeError(w, r, h.logger, err, "Order not found")
		return
	}

	resp := orderListResponse{
		Orders: make([]orderResponse, 0, len(page.Orders)),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for _, o := range page.Orders {
		resp.Orders = append(resp.Orders, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseOrderFilter(r *http.Request) (model.OrderFilter, *validation.Error) {
	q := r.URL.Query()
	verr := &validation.Error{}
	f := model.OrderFilter{Status: q.Get("status")}

	if s := q.Get("start_date"); s != "" {
		d, err := parseDay(s)
		if err != nil {
			verr.Add("start_date", "Invalid date format, expected YYYY-MM-DD")
		}
		f.StartDate = d
	}
	if s := q.Get("end_date"); s != "" {
		d, err := parseDay(s)
		if err != nil {
			verr.Add("end_date", "Invalid date format, expected YYYY-MM-DD")
		}
		f.EndDate = d
	}
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.EndDate.Before(f.StartDate) {
		verr.Add("end_date", "End date must not be before start date")
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			verr.Add("limit", "Limit must be a positive integer")
		}
		f.Limit = n
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			verr.Add("offset", "Offset must be a non-negative integer")
		}
		f.Offset = n
	}
	return f, verr
}

// Get returns one order with its lines.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// UpdateStatus moves an order forward in its lifecycle.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, h.logger, err, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}
