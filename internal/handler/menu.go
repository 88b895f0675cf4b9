package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/catalog"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"github.com/sirupsen/logrus"
)

// MenuServicer defines the catalog methods needed by menu handlers.
// Satisfied by *catalog.Service; narrow interface for testability.
type MenuServicer interface {
	Get(ctx context.Context, id string) (model.MenuItem, error)
	List(ctx context.Context, f model.MenuFilter) (catalog.Page, error)
	Create(ctx context.Context, item model.MenuItem) (model.MenuItem, error)
	Update(ctx context.Context, id string, item model.MenuItem) (model.MenuItem, error)
	Delete(ctx context.Context, id string) error
}

// MenuHandler handles menu endpoints.
type MenuHandler struct {
	svc    MenuServicer
	logger logrus.FieldLogger
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(svc MenuServicer, logger logrus.FieldLogger) *MenuHandler {
	return &MenuHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers menu endpoints. Reads are public; writes go
// through admin.
func (h *MenuHandler) RegisterRoutes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(admin).Post("/", h.Create)
	r.With(admin).Put("/{id}", h.Update)
	r.With(admin).Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type menuItemRequest struct {
	Name        model.Bilingual   `json:"name"`
	Description model.Description `json:"description"`
	Price       model.Price       `json:"price"`
	Category    string            `json:"category"`
	Image       string            `json:"image"`
	Sizes       []model.Size      `json:"sizes"`
}

func (req menuItemRequest) model() model.MenuItem {
	return model.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Image:       req.Image,
		Sizes:       req.Sizes,
	}
}

type menuItemResponse struct {
	ID          string            `json:"id"`
	Name        bilingualResponse `json:"name"`
	Description bilingualResponse `json:"description"`
	Price       priceResponse     `json:"price"`
	Category    string            `json:"category"`
	Image       string            `json:"image"`
	Sizes       []sizeResponse    `json:"sizes"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type menuPagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

type menuListResponse struct {
	Items      []menuItemResponse `json:"items"`
	Pagination menuPagination     `json:"pagination"`
}

func toMenuItemResponse(m model.MenuItem) menuItemResponse {
	resp := menuItemResponse{
		ID:          m.ID,
		Name:        bilingualResponse(m.Name),
		Description: bilingualResponse(m.Description),
		Price:       priceResponse{EN: number(m.Price.EN), AR: m.Price.AR},
		Category:    m.Category,
		Image:       m.Image,
		Sizes:       make([]sizeResponse, 0, len(m.Sizes)),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for _, s := range m.Sizes {
		resp.Sizes = append(resp.Sizes, toSizeResponse(s))
	}
	return resp
}

// --- Handlers ---

// List returns one page of the menu. Query: category, search, page, limit.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.MenuFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.Limit, _ = strconv.Atoi(q.Get("limit"))

	page, err := h.svc.List(r.Context(), f)
	if err != nil {
		writeError(w, r, h.logger, err, "Menu item not found")
		return
	}

	resp := menuListResponse{
		Items: make([]menuItemResponse, 0, len(page.Items)),
		Pagination: menuPagination{
			CurrentPage:  page.Page,
			TotalItems:   page.Total,
			ItemsPerPage: page.Limit,
		},
	}
	if page.Limit > 0 {
		resp.Pagination.TotalPages = (page.Total + page.Limit - 1) / page.Limit
	}
	for _, m := range page.Items {
		resp.Items = append(resp.Items, toMenuItemResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one menu item.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err, "Menu item not found")
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Create adds a menu item.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := h.svc.Create(r.Context(), req.model())
	if err != nil {
		writeError(w, r, h.logger, err, "Menu item not found")
		return
	}
	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update replaces a menu item.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req.model())
	if err != nil {
		writeError(w, r, h.logger, err, "Menu item not found")
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Delete removes a menu item together with its stock record.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err, "Menu item not found")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Menu item deleted successfully"})
}
