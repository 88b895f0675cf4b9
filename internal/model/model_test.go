package model

import (
	"testing"

	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/enum"
	"github.com/shopspring/decimal"
)

func TestDefaultSize(t *testing.T) {
	small := Size{Name: Bilingual{EN: "250g"}, Price: Price{EN: decimal.NewFromInt(20)}}
	large := Size{Name: Bilingual{EN: "500g"}, Price: Price{EN: decimal.NewFromInt(35)}, IsDefault: true}

	tests := []struct {
		name  string
		sizes []Size
		want  string
	}{
		{"no sizes", nil, ""},
		{"explicit default", []Size{small, large}, "500g"},
		{"first size when none flagged", []Size{small, {Name: Bilingual{EN: "1kg"}}}, "250g"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MenuItem{Sizes: tt.sizes}.DefaultSize()
			if tt.want == "" {
				if got != nil {
					t.Fatalf("expected nil default size, got %q", got.Name.EN)
				}
				return
			}
			if got == nil || got.Name.EN != tt.want {
				t.Fatalf("default size: got %v, want %s", got, tt.want)
			}
		})
	}
}

func TestFindSize(t *testing.T) {
	item := MenuItem{Sizes: []Size{
		{Name: Bilingual{EN: "250g", AR: "٢٥٠ غ"}, Price: Price{EN: decimal.NewFromInt(20)}},
	}}

	if s, ok := item.FindSize("250g"); !ok || !s.Price.EN.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected 250g size with price 20, got %v %v", s, ok)
	}
	if _, ok := item.FindSize("1kg"); ok {
		t.Fatal("expected 1kg to be missing")
	}
}

func TestStockStatus(t *testing.T) {
	tests := []struct {
		current, min int64
		want         string
	}{
		{0, 2, enum.StockStatusOutOfStock},
		{1, 2, enum.StockStatusLowStock},
		{2, 2, enum.StockStatusLowStock},
		{3, 2, enum.StockStatusInStock},
		{0, 0, enum.StockStatusOutOfStock},
	}

	for _, tt := range tests {
		rec := InventoryRecord{
			CurrentStock: decimal.NewFromInt(tt.current),
			MinStock:     decimal.NewFromInt(tt.min),
		}
		if got := rec.StockStatus(); got != tt.want {
			t.Errorf("stock %d / min %d: got %s, want %s", tt.current, tt.min, got, tt.want)
		}
	}
}

func TestStockValue(t *testing.T) {
	rec := InventoryRecord{CurrentStock: decimal.RequireFromString("2.5")}
	if !rec.StockValue().IsZero() {
		t.Fatalf("expected zero value without cost, got %s", rec.StockValue())
	}

	cost := decimal.RequireFromString("4.00")
	rec.CostPerUnit = &cost
	if !rec.StockValue().Equal(decimal.NewFromInt(10)) {
		t.Fatalf("stock value: got %s, want 10", rec.StockValue())
	}
}

func TestOrderLineSubtotal(t *testing.T) {
	line := OrderLine{Quantity: 3, PriceAtOrder: decimal.RequireFromString("15.00")}
	if !line.Subtotal().Equal(decimal.NewFromInt(45)) {
		t.Fatalf("subtotal: got %s, want 45", line.Subtotal())
	}
}

func TestMenuFilterOffset(t *testing.T) {
	if got := (MenuFilter{Page: 3, Limit: 50}).Offset(); got != 100 {
		t.Fatalf("offset: got %d, want 100", got)
	}
	if got := (MenuFilter{Page: 0, Limit: 50}).Offset(); got != 0 {
		t.Fatalf("offset for page 0: got %d, want 0", got)
	}
}
