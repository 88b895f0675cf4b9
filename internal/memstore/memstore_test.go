package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"github.com/shopspring/decimal"
)

func addItem(t *testing.T, s *Store, nameEN, category string) model.MenuItem {
	t.Helper()
	item, err := s.CreateMenuItem(context.Background(), model.MenuItem{
		Name:        model.Bilingual{EN: nameEN, AR: nameEN + " ar"},
		Description: model.Description{EN: nameEN + " description", AR: "وصف"},
		Price:       model.Price{EN: decimal.NewFromInt(10), AR: "١٠"},
		Category:    category,
	})
	if err != nil {
		t.Fatalf("create menu item: %v", err)
	}
	return item
}

func TestListMenuItemsFiltersSortsAndPages(t *testing.T) {
	s := New()
	ctx := context.Background()
	addItem(t, s, "Karak", "tea")
	addItem(t, s, "Turkish Coffee", "coffee")
	addItem(t, s, "Arabic Coffee", "coffee")
	addItem(t, s, "Luqaimat", "pastries")

	items, total, err := s.ListMenuItems(ctx, model.MenuFilter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 4 {
		t.Fatalf("total: got %d, want 4", total)
	}
	want := []string{"Arabic Coffee", "Turkish Coffee", "Luqaimat", "Karak"}
	for i, name := range want {
		if items[i].Name.EN != name {
			t.Errorf("position %d: got %s, want %s", i, items[i].Name.EN, name)
		}
	}

	items, total, _ = s.ListMenuItems(ctx, model.MenuFilter{Search: "COFFEE", Page: 2, Limit: 1})
	if total != 2 || len(items) != 1 || items[0].Name.EN != "Turkish Coffee" {
		t.Fatalf("search page 2: got %d items of %d: %v", len(items), total, items)
	}

	items, _, _ = s.ListMenuItems(ctx, model.MenuFilter{Category: "tea", Page: 1, Limit: 10})
	if len(items) != 1 || items[0].Name.EN != "Karak" {
		t.Fatalf("category filter: got %v", items)
	}
}

func TestOrderNumbersStartAt1001(t *testing.T) {
	s := New()
	for want := int64(1001); want <= 1003; want++ {
		o, err := s.CreateOrder(context.Background(), model.Order{Status: "new"})
		if err != nil {
			t.Fatalf("create order: %v", err)
		}
		if o.OrderNumber != want {
			t.Fatalf("order number: got %d, want %d", o.OrderNumber, want)
		}
	}
}

func TestDecrementStockIsConditional(t *testing.T) {
	s := New()
	ctx := context.Background()
	item := addItem(t, s, "Arabic Coffee", "coffee")
	if _, err := s.CreateInventory(ctx, model.InventoryRecord{
		MenuItemID:   item.ID,
		CurrentStock: decimal.NewFromInt(2),
		MinStock:     decimal.NewFromInt(1),
		Unit:         "pieces",
	}); err != nil {
		t.Fatalf("create inventory: %v", err)
	}

	if _, err := s.DecrementStock(ctx, item.ID, decimal.NewFromInt(3)); !errors.Is(err, model.ErrStockConflict) {
		t.Fatalf("expected ErrStockConflict, got %v", err)
	}
	rec, err := s.DecrementStock(ctx, item.ID, decimal.NewFromInt(2))
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if !rec.CurrentStock.IsZero() {
		t.Fatalf("stock: got %s, want 0", rec.CurrentStock)
	}
	if _, err := s.DecrementStock(ctx, "untracked", decimal.NewFromInt(1)); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for untracked item, got %v", err)
	}
}

func TestCreateInventoryRejectsDuplicates(t *testing.T) {
	s := New()
	ctx := context.Background()
	item := addItem(t, s, "Karak", "tea")
	rec := model.InventoryRecord{MenuItemID: item.ID, Unit: "cups"}

	if _, err := s.CreateInventory(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateInventory(ctx, rec); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestDeleteMenuItemRemovesStock(t *testing.T) {
	s := New()
	ctx := context.Background()
	item := addItem(t, s, "Karak", "tea")
	s.CreateInventory(ctx, model.InventoryRecord{MenuItemID: item.ID, Unit: "cups"})

	if err := s.DeleteMenuItem(ctx, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetInventoryByItem(ctx, item.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected stock record to be gone, got %v", err)
	}
}

func TestListOrdersDateRangeIsInclusive(t *testing.T) {
	s := New()
	ctx := context.Background()
	day := func(d, h int) time.Time { return time.Date(2024, 3, d, h, 0, 0, 0, time.UTC) }

	for _, ts := range []time.Time{day(1, 9), day(2, 23), day(3, 8)} {
		ts := ts
		s.Now = func() time.Time { return ts }
		s.CreateOrder(ctx, model.Order{Status: "new"})
	}

	orders, total, err := s.ListOrders(ctx, model.OrderFilter{StartDate: day(1, 0), EndDate: day(2, 0), Limit: 20})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Fatalf("total: got %d, want 2", total)
	}
	if !orders[0].CreatedAt.Equal(day(2, 23)) {
		t.Fatalf("expected newest first, got %v", orders[0].CreatedAt)
	}
}

func TestUpdateOrderStatusChecksCurrentStatus(t *testing.T) {
	s := New()
	ctx := context.Background()
	o, _ := s.CreateOrder(ctx, model.Order{Status: "new"})

	if _, err := s.UpdateOrderStatus(ctx, o.ID, "pending", "completed"); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	updated, err := s.UpdateOrderStatus(ctx, o.ID, "new", "pending")
	if err != nil || updated.Status != "pending" {
		t.Fatalf("update: got %v, %v", updated.Status, err)
	}
	if _, err := s.UpdateOrderStatus(ctx, "nope", "new", "pending"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
