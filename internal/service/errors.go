package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errors returned by the order service. Input problems are reported as
// *validation.Error.
var (
	ErrItemsNotFound     = errors.New("one or more menu items not found")
	ErrSizeNotFound      = errors.New("selected size not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStatusChanged     = errors.New("order status was changed by another request")
)

// InsufficientStockError reports a line that asks for more than is in stock.
type InsufficientStockError struct {
	MenuItemID string
	ItemName   string
	Available  decimal.Decimal
	Required   int
	Unit       string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %s, Required: %d (%s)",
		e.ItemName, e.Available.String(), e.Required, e.Unit)
}

// StorageError wraps a failure of the backing store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
