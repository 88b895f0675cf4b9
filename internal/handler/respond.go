// Package handler exposes the HTTP API. Handlers decode requests, call the
// services and map their errors onto status codes.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/inventory"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/service"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Errors []validation.FieldError `json:"errors"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("failed to encode JSON response")
	}
}

// decodeJSON reads a JSON body into v. It writes a 400 and returns false when
// the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// writeError maps service errors to responses. notFound is the message used
// when the requested resource does not exist.
func writeError(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, err error, notFound string) {
	var (
		verr     *validation.Error
		stockErr *service.InsufficientStockError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, validationResponse{Errors: verr.Fields})
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: stockErr.Error()})
	case errors.Is(err, service.ErrItemsNotFound),
		errors.Is(err, service.ErrSizeNotFound),
		errors.Is(err, inventory.ErrInvalidAdjustment):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorMessage(err)})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrStatusChanged),
		errors.Is(err, inventory.ErrAlreadyTracked):
		writeJSON(w, http.StatusConflict, errorResponse{Error: errorMessage(err)})
	case errors.Is(err, inventory.ErrMenuItemNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Menu item not found"})
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: notFound})
	default:
		logger.WithFields(logrus.Fields{
			"request_id": chimw.GetReqID(r.Context()),
			"path":       r.URL.Path,
		}).WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// errorMessage returns the client-facing text of a known error.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrItemsNotFound):
		return "One or more menu items not found"
	case errors.Is(err, service.ErrSizeNotFound):
		return "Selected size not found"
	case errors.Is(err, inventory.ErrInvalidAdjustment):
		return "Stock cannot go below zero"
	case errors.Is(err, inventory.ErrAlreadyTracked):
		return "Inventory already exists for this menu item"
	case errors.Is(err, service.ErrStatusChanged):
		return "Order status was changed by another request"
	}
	return err.Error()
}

// number renders a decimal as a bare JSON number.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func optionalNumber(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := number(*d)
	return &n
}

type bilingualResponse struct {
	EN string `json:"EN"`
	AR string `json:"AR"`
}

type priceResponse struct {
	EN json.Number `json:"EN"`
	AR string      `json:"AR"`
}

type sizeResponse struct {
	Name      bilingualResponse `json:"name"`
	Price     priceResponse     `json:"price"`
	IsDefault bool              `json:"isDefault"`
}

func toSizeResponse(s model.Size) sizeResponse {
	return sizeResponse{
		Name:      bilingualResponse(s.Name),
		Price:     priceResponse{EN: number(s.Price.EN), AR: s.Price.AR},
		IsDefault: s.IsDefault,
	}
}

// parseDay parses a YYYY-MM-DD query value as a UTC midnight.
func parseDay(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}
