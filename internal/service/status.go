package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/enum"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/events"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/validation"
	"github.com/sirupsen/logrus"
)

const (
	defaultOrderLimit = 20
	maxOrderLimit     = 100
)

// allowedTransitions defines valid status transitions.
// Key is current status, value is the set of statuses it can move to.
var allowedTransitions = map[string][]string{
	enum.OrderStatusNew:     {enum.OrderStatusPending, enum.OrderStatusCompleted},
	enum.OrderStatusPending: {enum.OrderStatusCompleted},
}

func validateTransition(current, next string) error {
	for _, s := range allowedTransitions[current] {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, current, next)
}

// StatusChange is the payload of order.status_changed events.
type StatusChange struct {
	PlacedOrder
	PreviousStatus string `json:"previousStatus"`
}

// UpdateStatus moves an order forward in its lifecycle. Setting the current
// status again is a no-op.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*model.Order, error) {
	if !enum.IsOrderStatus(status) {
		verr := &validation.Error{}
		verr.Add("status", "Invalid status")
		return nil, verr
	}

	current, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, storageErr("get order", err)
	}
	if current.Status == status {
		return &current, nil
	}
	if err := validateTransition(current.Status, status); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateOrderStatus(ctx, id, current.Status, status)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrConflict):
			return nil, ErrStatusChanged
		case errors.Is(err, model.ErrNotFound):
			return nil, err
		}
		return nil, storageErr("update order status", err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"order_id":     updated.ID,
		"order_number": updated.OrderNumber,
		"from":         current.Status,
		"to":           updated.Status,
	})
	log.Info("order status updated")

	change := StatusChange{PlacedOrder: summarize(updated), PreviousStatus: current.Status}
	if err := s.publisher.Publish(ctx, events.New(events.TypeOrderStatusChanged, change)); err != nil {
		log.WithError(err).Error("publish status change failed")
	}
	return &updated, nil
}

// GetOrder returns one order with its lines.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, storageErr("get order", err)
	}
	return &o, nil
}

// OrderPage is one page of orders, newest first.
type OrderPage struct {
	Orders []model.Order
	Total  int
	Limit  int
	Offset int
}

// ListOrders returns orders matching f. Limit defaults to 20 and is capped
// at 100.
func (s *OrderService) ListOrders(ctx context.Context, f model.OrderFilter) (OrderPage, error) {
	if f.Status != "" && !enum.IsOrderStatus(f.Status) {
		verr := &validation.Error{}
		verr.Add("status", "Invalid status")
		return OrderPage{}, verr
	}
	if f.Limit <= 0 {
		f.Limit = defaultOrderLimit
	}
	if f.Limit > maxOrderLimit {
		f.Limit = maxOrderLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	orders, total, err := s.store.ListOrders(ctx, f)
	if err != nil {
		return OrderPage{}, storageErr("list orders", err)
	}
	return OrderPage{Orders: orders, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}
