// Package inventory is the stock ledger. Each menu item has at most one
// record; an item without a record is untracked and never runs out.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/enum"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/events"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultReason = "Manual adjustment"

var defaultMinStock = decimal.NewFromInt(10)

// Errors returned by the ledger.
var (
	ErrInvalidAdjustment = errors.New("stock cannot go below zero")
	ErrMenuItemNotFound  = errors.New("menu item not found")
	ErrAlreadyTracked    = errors.New("inventory already exists for this menu item")
)

// Store is the persistence the ledger needs. Stock changes are single
// conditional updates: AdjustStock and DecrementStock return
// model.ErrStockConflict instead of taking stock below zero.
type Store interface {
	GetInventory(ctx context.Context, id string) (model.InventoryRecord, error)
	GetInventoryByItem(ctx context.Context, menuItemID string) (model.InventoryRecord, error)
	ListInventoryByItems(ctx context.Context, menuItemIDs []string) ([]model.InventoryRecord, error)
	ListInventory(ctx context.Context) ([]model.InventoryRecord, error)
	CreateInventory(ctx context.Context, rec model.InventoryRecord) (model.InventoryRecord, error)
	UpdateInventory(ctx context.Context, rec model.InventoryRecord) (model.InventoryRecord, error)
	AdjustStock(ctx context.Context, id string, delta decimal.Decimal) (model.InventoryRecord, error)
	DecrementStock(ctx context.Context, menuItemID string, qty decimal.Decimal) (model.InventoryRecord, error)
	DeleteInventory(ctx context.Context, id string) error
	MenuItemExists(ctx context.Context, id string) (bool, error)
}

// Ledger reads and mutates stock records.
type Ledger struct {
	store     Store
	publisher events.Publisher
	validate  *validation.Validator
	logger    logrus.FieldLogger
	now       func() time.Time
}

// NewLedger creates a ledger. Threshold crossings are published to pub.
func NewLedger(store Store, pub events.Publisher, logger logrus.FieldLogger) *Ledger {
	return &Ledger{
		store:     store,
		publisher: pub,
		validate:  validation.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// GetByItem returns the record for a menu item, or nil when the item is not
// tracked.
func (l *Ledger) GetByItem(ctx context.Context, menuItemID string) (*model.InventoryRecord, error) {
	rec, err := l.store.GetInventoryByItem(ctx, menuItemID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory for item %s: %w", menuItemID, err)
	}
	return &rec, nil
}

// ForItems returns the records of the tracked items among ids, keyed by menu
// item id.
func (l *Ledger) ForItems(ctx context.Context, menuItemIDs []string) (map[string]model.InventoryRecord, error) {
	recs, err := l.store.ListInventoryByItems(ctx, menuItemIDs)
	if err != nil {
		return nil, fmt.Errorf("list inventory for items: %w", err)
	}
	out := make(map[string]model.InventoryRecord, len(recs))
	for _, r := range recs {
		out[r.MenuItemID] = r
	}
	return out, nil
}

// List returns every record, lowest stock first.
func (l *Ledger) List(ctx context.Context) ([]model.InventoryRecord, error) {
	recs, err := l.store.ListInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return recs, nil
}

// AdjustResult echoes an applied stock adjustment.
type AdjustResult struct {
	Record     model.InventoryRecord
	Adjustment decimal.Decimal
	NewStock   decimal.Decimal
	Reason     string
}

// Adjust adds delta (which may be negative) to a record's stock.
func (l *Ledger) Adjust(ctx context.Context, id string, delta decimal.Decimal, reason string) (AdjustResult, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > 200 {
		verr := &validation.Error{}
		verr.Add("reason", "Reason too long")
		return AdjustResult{}, verr
	}
	if reason == "" {
		reason = defaultReason
	}

	before, err := l.store.GetInventory(ctx, id)
	if err != nil {
		return AdjustResult{}, fmt.Errorf("get inventory %s: %w", id, err)
	}
	if before.CurrentStock.Add(delta).IsNegative() {
		return AdjustResult{}, ErrInvalidAdjustment
	}

	after, err := l.store.AdjustStock(ctx, id, delta)
	if errors.Is(err, model.ErrStockConflict) {
		// Stock moved between the read and the update.
		return AdjustResult{}, ErrInvalidAdjustment
	}
	if err != nil {
		return AdjustResult{}, fmt.Errorf("adjust inventory %s: %w", id, err)
	}

	l.logger.WithFields(logrus.Fields{
		"inventory_id": id,
		"adjustment":   delta.String(),
		"new_stock":    after.CurrentStock.String(),
		"reason":       reason,
	}).Info("stock adjusted")
	l.notifyThreshold(ctx, before.StockStatus(), after)

	return AdjustResult{Record: after, Adjustment: delta, NewStock: after.CurrentStock, Reason: reason}, nil
}

// DecrementForOrder takes qty units of a menu item out of stock after an
// order was recorded. Untracked items are ignored. It fails with
// model.ErrStockConflict when less than qty is left.
func (l *Ledger) DecrementForOrder(ctx context.Context, menuItemID string, qty int) error {
	q := decimal.NewFromInt(int64(qty))
	after, err := l.store.DecrementStock(ctx, menuItemID, q)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("decrement stock for item %s by %d: %w", menuItemID, qty, err)
	}

	before := after
	before.CurrentStock = after.CurrentStock.Add(q)
	l.notifyThreshold(ctx, before.StockStatus(), after)
	return nil
}

// UpsertInput sets a menu item's stock record, creating it when missing.
type UpsertInput struct {
	MenuItemID   string           `json:"item" validate:"required"`
	CurrentStock *decimal.Decimal `json:"currentStock" validate:"required"`
	MinStock     *decimal.Decimal `json:"minStock" validate:"required"`
	Unit         string           `json:"unit" validate:"required,oneof=pieces kg liters cups packs"`
	AutoReorder  *bool            `json:"autoReorder"`
	Supplier     *string          `json:"supplier" validate:"omitempty,max=100"`
	CostPerUnit  *decimal.Decimal `json:"costPerUnit"`
}

// Upsert creates or replaces the record of one menu item. It reports whether
// a new record was created.
func (l *Ledger) Upsert(ctx context.Context, in UpsertInput) (model.InventoryRecord, bool, error) {
	in.MenuItemID = strings.TrimSpace(in.MenuItemID)
	if in.Supplier != nil {
		s := strings.TrimSpace(*in.Supplier)
		in.Supplier = &s
	}
	verr := &validation.Error{}
	verr.Merge(l.validate.Struct(in))
	checkNonNegative(verr, "currentStock", in.CurrentStock)
	checkNonNegative(verr, "minStock", in.MinStock)
	checkNonNegative(verr, "costPerUnit", in.CostPerUnit)
	if err := verr.OrNil(); err != nil {
		return model.InventoryRecord{}, false, err
	}

	if err := l.requireMenuItem(ctx, in.MenuItemID); err != nil {
		return model.InventoryRecord{}, false, err
	}

	existing, err := l.store.GetInventoryByItem(ctx, in.MenuItemID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		rec := model.InventoryRecord{
			MenuItemID:    in.MenuItemID,
			CurrentStock:  *in.CurrentStock,
			MinStock:      *in.MinStock,
			Unit:          in.Unit,
			LastRestocked: l.now(),
		}
		applyOptional(&rec, in.AutoReorder, in.Supplier, in.CostPerUnit)
		created, err := l.create(ctx, rec)
		return created, err == nil, err
	case err != nil:
		return model.InventoryRecord{}, false, fmt.Errorf("get inventory for item %s: %w", in.MenuItemID, err)
	}

	rec := existing
	rec.CurrentStock = *in.CurrentStock
	rec.MinStock = *in.MinStock
	rec.Unit = in.Unit
	rec.LastRestocked = l.now()
	applyOptional(&rec, in.AutoReorder, in.Supplier, in.CostPerUnit)

	updated, err := l.update(ctx, existing, rec)
	return updated, false, err
}

// BulkEntry is one partial update of a bulk request. Nil fields keep their
// current value; a missing record is created with defaults.
type BulkEntry struct {
	MenuItemID   string           `json:"item" validate:"required"`
	CurrentStock *decimal.Decimal `json:"currentStock"`
	MinStock     *decimal.Decimal `json:"minStock"`
	Unit         string           `json:"unit" validate:"omitempty,oneof=pieces kg liters cups packs"`
	AutoReorder  *bool            `json:"autoReorder"`
	Supplier     *string          `json:"supplier" validate:"omitempty,max=100"`
	CostPerUnit  *decimal.Decimal `json:"costPerUnit"`
}

// BulkResult is the outcome of one bulk entry.
type BulkResult struct {
	MenuItemID string
	Record     *model.InventoryRecord
	Err        error
}

type bulkRequest struct {
	Updates []BulkEntry `json:"updates" validate:"required,dive"`
}

// BulkUpdate applies entries one by one. Input errors reject the whole
// request; store errors are reported per entry and do not stop the rest.
func (l *Ledger) BulkUpdate(ctx context.Context, entries []BulkEntry) ([]BulkResult, error) {
	verr := &validation.Error{}
	verr.Merge(l.validate.Struct(bulkRequest{Updates: entries}))
	for i, e := range entries {
		checkNonNegative(verr, fmt.Sprintf("updates[%d].currentStock", i), e.CurrentStock)
		checkNonNegative(verr, fmt.Sprintf("updates[%d].minStock", i), e.MinStock)
		checkNonNegative(verr, fmt.Sprintf("updates[%d].costPerUnit", i), e.CostPerUnit)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	results := make([]BulkResult, 0, len(entries))
	for _, e := range entries {
		rec, err := l.applyBulkEntry(ctx, e)
		res := BulkResult{MenuItemID: e.MenuItemID, Err: err}
		if err == nil {
			res.Record = &rec
		}
		results = append(results, res)
	}
	return results, nil
}

func (l *Ledger) applyBulkEntry(ctx context.Context, e BulkEntry) (model.InventoryRecord, error) {
	existing, err := l.store.GetInventoryByItem(ctx, e.MenuItemID)
	if errors.Is(err, model.ErrNotFound) {
		if err := l.requireMenuItem(ctx, e.MenuItemID); err != nil {
			return model.InventoryRecord{}, err
		}
		rec := model.InventoryRecord{
			MenuItemID:    e.MenuItemID,
			CurrentStock:  decimal.Zero,
			MinStock:      defaultMinStock,
			Unit:          enum.UnitPieces,
			LastRestocked: l.now(),
		}
		if e.CurrentStock != nil {
			rec.CurrentStock = *e.CurrentStock
		}
		if e.MinStock != nil {
			rec.MinStock = *e.MinStock
		}
		if e.Unit != "" {
			rec.Unit = e.Unit
		}
		applyOptional(&rec, e.AutoReorder, e.Supplier, e.CostPerUnit)
		return l.create(ctx, rec)
	}
	if err != nil {
		return model.InventoryRecord{}, fmt.Errorf("get inventory for item %s: %w", e.MenuItemID, err)
	}

	rec := existing
	if e.CurrentStock != nil {
		rec.CurrentStock = *e.CurrentStock
	}
	if e.MinStock != nil {
		rec.MinStock = *e.MinStock
	}
	if e.Unit != "" {
		rec.Unit = e.Unit
	}
	applyOptional(&rec, e.AutoReorder, e.Supplier, e.CostPerUnit)
	return l.update(ctx, existing, rec)
}

// Delete removes a record; the item becomes untracked.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	if err := l.store.DeleteInventory(ctx, id); err != nil {
		return fmt.Errorf("delete inventory %s: %w", id, err)
	}
	l.logger.WithField("inventory_id", id).Info("inventory record deleted")
	return nil
}

// Alerts lists records at or below their minimum.
type Alerts struct {
	LowStock    []model.InventoryRecord
	OutOfStock  []model.InventoryRecord
	TotalAlerts int
}

// Alerts returns low stock records (lowest first) and out of stock records
// (by English item name).
func (l *Ledger) Alerts(ctx context.Context) (Alerts, error) {
	recs, err := l.List(ctx)
	if err != nil {
		return Alerts{}, err
	}
	a := Alerts{LowStock: []model.InventoryRecord{}, OutOfStock: []model.InventoryRecord{}}
	for _, r := range recs {
		switch r.StockStatus() {
		case enum.StockStatusLowStock:
			a.LowStock = append(a.LowStock, r)
		case enum.StockStatusOutOfStock:
			a.OutOfStock = append(a.OutOfStock, r)
		}
	}
	sort.SliceStable(a.LowStock, func(i, j int) bool {
		return a.LowStock[i].CurrentStock.LessThan(a.LowStock[j].CurrentStock)
	})
	sort.SliceStable(a.OutOfStock, func(i, j int) bool {
		return itemName(a.OutOfStock[i]) < itemName(a.OutOfStock[j])
	})
	a.TotalAlerts = len(a.LowStock) + len(a.OutOfStock)
	return a, nil
}

// Summary aggregates the whole ledger. LowStockCount includes records that
// are out of stock.
type Summary struct {
	TotalItems      int
	TotalValue      decimal.Decimal
	LowStockCount   int
	OutOfStockCount int
}

// Summary computes totals over every record.
func (l *Ledger) Summary(ctx context.Context) (Summary, error) {
	recs, err := l.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{TotalItems: len(recs), TotalValue: decimal.Zero}
	for _, r := range recs {
		s.TotalValue = s.TotalValue.Add(r.StockValue())
		if r.CurrentStock.LessThanOrEqual(r.MinStock) {
			s.LowStockCount++
		}
		if r.CurrentStock.IsZero() {
			s.OutOfStockCount++
		}
	}
	return s, nil
}

func (l *Ledger) requireMenuItem(ctx context.Context, menuItemID string) error {
	ok, err := l.store.MenuItemExists(ctx, menuItemID)
	if err != nil {
		return fmt.Errorf("check menu item %s: %w", menuItemID, err)
	}
	if !ok {
		return ErrMenuItemNotFound
	}
	return nil
}

func (l *Ledger) create(ctx context.Context, rec model.InventoryRecord) (model.InventoryRecord, error) {
	created, err := l.store.CreateInventory(ctx, rec)
	if errors.Is(err, model.ErrConflict) {
		return model.InventoryRecord{}, ErrAlreadyTracked
	}
	if err != nil {
		return model.InventoryRecord{}, fmt.Errorf("create inventory for item %s: %w", rec.MenuItemID, err)
	}
	l.notifyThreshold(ctx, enum.StockStatusInStock, created)
	return created, nil
}

func (l *Ledger) update(ctx context.Context, before, rec model.InventoryRecord) (model.InventoryRecord, error) {
	updated, err := l.store.UpdateInventory(ctx, rec)
	if err != nil {
		return model.InventoryRecord{}, fmt.Errorf("update inventory %s: %w", rec.ID, err)
	}
	l.notifyThreshold(ctx, before.StockStatus(), updated)
	return updated, nil
}

// notifyThreshold logs and publishes when a record moves into low or out of
// stock. Publishing failures are logged only.
func (l *Ledger) notifyThreshold(ctx context.Context, prev string, rec model.InventoryRecord) {
	status := rec.StockStatus()
	if status == prev || status == enum.StockStatusInStock {
		return
	}

	eventType := events.TypeInventoryLowStock
	if status == enum.StockStatusOutOfStock {
		eventType = events.TypeInventoryOutOfStock
	}

	log := l.logger.WithFields(logrus.Fields{
		"menu_item_id":  rec.MenuItemID,
		"current_stock": rec.CurrentStock.String(),
		"min_stock":     rec.MinStock.String(),
		"unit":          rec.Unit,
	})
	log.Warnf("stock alert: %s", status)

	err := l.publisher.Publish(ctx, events.New(eventType, StockAlert{
		InventoryID:  rec.ID,
		MenuItemID:   rec.MenuItemID,
		CurrentStock: rec.CurrentStock,
		MinStock:     rec.MinStock,
		Unit:         rec.Unit,
		Status:       status,
	}))
	if err != nil {
		log.WithError(err).Error("publish stock alert failed")
	}
}

// StockAlert is the payload of low and out of stock events.
type StockAlert struct {
	InventoryID  string          `json:"inventoryId"`
	MenuItemID   string          `json:"menuItemId"`
	CurrentStock decimal.Decimal `json:"currentStock"`
	MinStock     decimal.Decimal `json:"minStock"`
	Unit         string          `json:"unit"`
	Status       string          `json:"status"`
}

func applyOptional(rec *model.InventoryRecord, autoReorder *bool, supplier *string, cost *decimal.Decimal) {
	if autoReorder != nil {
		rec.AutoReorder = *autoReorder
	}
	if supplier != nil {
		rec.Supplier = *supplier
	}
	if cost != nil {
		c := *cost
		rec.CostPerUnit = &c
	}
}

func checkNonNegative(verr *validation.Error, field string, d *decimal.Decimal) {
	if d != nil && d.IsNegative() {
		verr.Add(field, field+" must be a positive number")
	}
}

func itemName(r model.InventoryRecord) string {
	if r.Item == nil {
		return ""
	}
	return r.Item.Name.EN
}
