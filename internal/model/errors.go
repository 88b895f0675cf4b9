package model

import "errors"

// Store-agnostic errors. Each backend maps its driver errors onto these.
var (
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a unique constraint violation.
	ErrConflict = errors.New("conflict")
	// ErrStockConflict reports a conditional stock update that matched no row
	// because the stock had already moved.
	ErrStockConflict = errors.New("stock changed concurrently")
)
