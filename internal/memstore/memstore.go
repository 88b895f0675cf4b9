// Package memstore is an in-process backend holding the menu, stock and
// orders in maps. It backs STORE_DRIVER=memory and the unit tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"github.com/shopspring/decimal"
)

const firstOrderNumber = 1001

// Store implements every store interface of the application.
type Store struct {
	mu         sync.RWMutex
	menu       map[string]model.MenuItem
	inventory  map[string]model.InventoryRecord
	orders     map[string]model.Order
	nextNumber int64

	// Now stamps created and updated times. Tests may replace it.
	Now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		menu:       make(map[string]model.MenuItem),
		inventory:  make(map[string]model.InventoryRecord),
		orders:     make(map[string]model.Order),
		nextNumber: firstOrderNumber,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// ── Menu ──

func (s *Store) GetMenuItem(_ context.Context, id string) (model.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.menu[id]
	if !ok {
		return model.MenuItem{}, model.ErrNotFound
	}
	return cloneItem(item), nil
}

func (s *Store) GetMenuItemsByIDs(_ context.Context, ids []string) ([]model.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.MenuItem, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if item, ok := s.menu[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, cloneItem(item))
		}
	}
	return out, nil
}

func (s *Store) ListMenuItems(_ context.Context, f model.MenuFilter) ([]model.MenuItem, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var matched []model.MenuItem
	for _, item := range s.menu {
		if f.Category != "" && item.Category != f.Category {
			continue
		}
		if search != "" && !matchesSearch(item, search) {
			continue
		}
		matched = append(matched, cloneItem(item))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Category != matched[j].Category {
			return matched[i].Category < matched[j].Category
		}
		return matched[i].Name.EN < matched[j].Name.EN
	})

	total := len(matched)
	start := f.Offset()
	if start > total {
		start = total
	}
	end := total
	if f.Limit > 0 && start+f.Limit < total {
		end = start + f.Limit
	}
	return matched[start:end], total, nil
}

func matchesSearch(item model.MenuItem, search string) bool {
	for _, text := range []string{item.Name.EN, item.Name.AR, item.Description.EN, item.Description.AR} {
		if strings.Contains(strings.ToLower(text), search) {
			return true
		}
	}
	return false
}

func (s *Store) CreateMenuItem(_ context.Context, item model.MenuItem) (model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	item.ID = uuid.NewString()
	item.CreatedAt, item.UpdatedAt = now, now
	s.menu[item.ID] = cloneItem(item)
	return item, nil
}

func (s *Store) UpdateMenuItem(_ context.Context, item model.MenuItem) (model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.menu[item.ID]
	if !ok {
		return model.MenuItem{}, model.ErrNotFound
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = s.Now()
	s.menu[item.ID] = cloneItem(item)
	return item, nil
}

// DeleteMenuItem removes the item and its stock record.
func (s *Store) DeleteMenuItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menu[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.menu, id)
	for invID, rec := range s.inventory {
		if rec.MenuItemID == id {
			delete(s.inventory, invID)
		}
	}
	return nil
}

func (s *Store) MenuItemExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.menu[id]
	return ok, nil
}

// ── Inventory ──

func (s *Store) GetInventory(_ context.Context, id string) (model.InventoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.inventory[id]
	if !ok {
		return model.InventoryRecord{}, model.ErrNotFound
	}
	return s.withItem(rec), nil
}

func (s *Store) GetInventoryByItem(_ context.Context, menuItemID string) (model.InventoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byItem(menuItemID)
	if !ok {
		return model.InventoryRecord{}, model.ErrNotFound
	}
	return s.withItem(rec), nil
}

func (s *Store) ListInventoryByItems(_ context.Context, menuItemIDs []string) ([]model.InventoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[string]bool, len(menuItemIDs))
	for _, id := range menuItemIDs {
		want[id] = true
	}
	var out []model.InventoryRecord
	for _, rec := range s.inventory {
		if want[rec.MenuItemID] {
			out = append(out, s.withItem(rec))
		}
	}
	return out, nil
}

// ListInventory returns every record, lowest stock first, then by item name.
func (s *Store) ListInventory(_ context.Context) ([]model.InventoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.InventoryRecord, 0, len(s.inventory))
	for _, rec := range s.inventory {
		out = append(out, s.withItem(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].CurrentStock.Cmp(out[j].CurrentStock); c != 0 {
			return c < 0
		}
		return out[i].Item.Name.EN < out[j].Item.Name.EN
	})
	return out, nil
}

func (s *Store) CreateInventory(_ context.Context, rec model.InventoryRecord) (model.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menu[rec.MenuItemID]; !ok {
		return model.InventoryRecord{}, model.ErrNotFound
	}
	if _, ok := s.byItem(rec.MenuItemID); ok {
		return model.InventoryRecord{}, model.ErrConflict
	}
	now := s.Now()
	rec.ID = uuid.NewString()
	rec.CreatedAt, rec.UpdatedAt = now, now
	if rec.LastRestocked.IsZero() {
		rec.LastRestocked = now
	}
	rec.Item = nil
	s.inventory[rec.ID] = rec
	return s.withItem(rec), nil
}

func (s *Store) UpdateInventory(_ context.Context, rec model.InventoryRecord) (model.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.inventory[rec.ID]
	if !ok {
		return model.InventoryRecord{}, model.ErrNotFound
	}
	rec.MenuItemID = existing.MenuItemID
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = s.Now()
	rec.Item = nil
	s.inventory[rec.ID] = rec
	return s.withItem(rec), nil
}

func (s *Store) AdjustStock(_ context.Context, id string, delta decimal.Decimal) (model.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.inventory[id]
	if !ok {
		return model.InventoryRecord{}, model.ErrNotFound
	}
	next := rec.CurrentStock.Add(delta)
	if next.IsNegative() {
		return model.InventoryRecord{}, model.ErrStockConflict
	}
	now := s.Now()
	rec.CurrentStock = next
	if delta.IsPositive() {
		rec.LastRestocked = now
	}
	rec.UpdatedAt = now
	s.inventory[id] = rec
	return s.withItem(rec), nil
}

func (s *Store) DecrementStock(_ context.Context, menuItemID string, qty decimal.Decimal) (model.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byItem(menuItemID)
	if !ok {
		return model.InventoryRecord{}, model.ErrNotFound
	}
	if rec.CurrentStock.LessThan(qty) {
		return model.InventoryRecord{}, model.ErrStockConflict
	}
	rec.CurrentStock = rec.CurrentStock.Sub(qty)
	rec.UpdatedAt = s.Now()
	s.inventory[rec.ID] = rec
	return s.withItem(rec), nil
}

func (s *Store) DeleteInventory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inventory[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.inventory, id)
	return nil
}

// byItem must be called with s.mu held.
func (s *Store) byItem(menuItemID string) (model.InventoryRecord, bool) {
	for _, rec := range s.inventory {
		if rec.MenuItemID == menuItemID {
			return rec, true
		}
	}
	return model.InventoryRecord{}, false
}

// withItem must be called with s.mu held.
func (s *Store) withItem(rec model.InventoryRecord) model.InventoryRecord {
	if item, ok := s.menu[rec.MenuItemID]; ok {
		rec.Item = &model.ItemSummary{Name: item.Name, Category: item.Category}
	} else {
		rec.Item = &model.ItemSummary{}
	}
	return rec
}

// ── Orders ──

// CreateOrder assigns the next order number and stores the order.
func (s *Store) CreateOrder(_ context.Context, o model.Order) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	o.ID = uuid.NewString()
	o.OrderNumber = s.nextNumber
	s.nextNumber++
	o.CreatedAt, o.UpdatedAt = now, now
	o.Lines = cloneLines(o.Lines)
	s.orders[o.ID] = o
	return o, nil
}

func (s *Store) GetOrder(_ context.Context, id string) (model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return model.Order{}, model.ErrNotFound
	}
	o.Lines = cloneLines(o.Lines)
	return o, nil
}

// ListOrders returns matching orders newest first.
func (s *Store) ListOrders(_ context.Context, f model.OrderFilter) ([]model.Order, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []model.Order
	for _, o := range s.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if !f.StartDate.IsZero() && o.CreatedAt.Before(f.StartDate) {
			continue
		}
		if !f.EndDate.IsZero() && !o.CreatedAt.Before(f.EndDate.AddDate(0, 0, 1)) {
			continue
		}
		o.Lines = cloneLines(o.Lines)
		matched = append(matched, o)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].OrderNumber > matched[j].OrderNumber
	})

	total := len(matched)
	start := f.Offset
	if start > total {
		start = total
	}
	end := total
	if f.Limit > 0 && start+f.Limit < total {
		end = start + f.Limit
	}
	return matched[start:end], total, nil
}

// UpdateOrderStatus moves an order from one status to another. It returns
// model.ErrConflict when the order is no longer in status from.
func (s *Store) UpdateOrderStatus(_ context.Context, id, from, to string) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return model.Order{}, model.ErrNotFound
	}
	if o.Status != from {
		return model.Order{}, model.ErrConflict
	}
	o.Status = to
	o.UpdatedAt = s.Now()
	s.orders[id] = o
	o.Lines = cloneLines(o.Lines)
	return o, nil
}

func cloneItem(item model.MenuItem) model.MenuItem {
	if item.Sizes != nil {
		item.Sizes = append([]model.Size(nil), item.Sizes...)
	}
	return item
}

func cloneLines(lines []model.OrderLine) []model.OrderLine {
	out := make([]model.OrderLine, len(lines))
	for i, l := range lines {
		if l.SelectedSize != nil {
			size := *l.SelectedSize
			l.SelectedSize = &size
		}
		out[i] = l
	}
	return out
}
