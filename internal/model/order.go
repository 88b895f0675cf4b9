package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a placed order. Lines and Total never change after creation.
type Order struct {
	ID                  string
	OrderNumber         int64
	CustomerName        string
	CustomerPhone       string
	OrderType           string
	TableNumber         string
	DeliveryAddress     string
	SpecialInstructions string
	Lines               []OrderLine
	Total               decimal.Decimal
	Status              string
	PaymentMethod       string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// OrderLine is one priced entry of an order.
type OrderLine struct {
	MenuItemID   string
	ItemName     Bilingual
	SelectedSize *Size
	Quantity     int
	PriceAtOrder decimal.Decimal
}

// Subtotal is priceAtOrder × quantity.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.PriceAtOrder.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderFilter narrows an order listing. StartDate and EndDate are inclusive
// calendar days; zero values mean unbounded.
type OrderFilter struct {
	Status    string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Offset    int
}
