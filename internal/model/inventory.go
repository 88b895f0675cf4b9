package model

import (
	"time"

	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/enum"
	"github.com/shopspring/decimal"
)

// InventoryRecord tracks stock for exactly one menu item.
type InventoryRecord struct {
	ID            string
	MenuItemID    string
	CurrentStock  decimal.Decimal
	MinStock      decimal.Decimal
	Unit          string
	AutoReorder   bool
	Supplier      string
	CostPerUnit   *decimal.Decimal
	LastRestocked time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Item is a read-side projection of the referenced menu item. Stores fill
	// it on list/get queries; it is ignored on writes.
	Item *ItemSummary
}

// ItemSummary is the subset of a menu item shown next to stock rows.
type ItemSummary struct {
	Name     Bilingual
	Category string
}

// StockStatus classifies the record against its minimum threshold.
func (r InventoryRecord) StockStatus() string {
	switch {
	case r.CurrentStock.Sign() <= 0:
		return enum.StockStatusOutOfStock
	case r.CurrentStock.LessThanOrEqual(r.MinStock):
		return enum.StockStatusLowStock
	default:
		return enum.StockStatusInStock
	}
}

// StockValue is currentStock × costPerUnit, zero when no cost is recorded.
func (r InventoryRecord) StockValue() decimal.Decimal {
	if r.CostPerUnit == nil {
		return decimal.Zero
	}
	return r.CurrentStock.Mul(*r.CostPerUnit)
}
