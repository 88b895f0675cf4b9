package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"github.com/shopspring/decimal"
)

// inventorySelect reads a stock row aliased i joined with its menu item m.
const inventorySelect = `SELECT i.id, i.menu_item_id, i.current_stock, i.min_stock, i.unit,
	i.auto_reorder, i.supplier, i.cost_per_unit, i.last_restocked, i.created_at, i.updated_at,
	m.name_en, m.name_ar, m.category`

const inventoryFrom = ` FROM i JOIN menu_items m ON m.id = i.menu_item_id`

func scanInventory(row pgx.Row) (model.InventoryRecord, error) {
	var (
		r                model.InventoryRecord
		id, itemID       uuid.UUID
		current, minimum pgtype.Numeric
		cost             pgtype.Numeric
		item             model.ItemSummary
	)
	err := row.Scan(
		&id,
		&itemID,
		&current,
		&minimum,
		&r.Unit,
		&r.AutoReorder,
		&r.Supplier,
		&cost,
		&r.LastRestocked,
		&r.CreatedAt,
		&r.UpdatedAt,
		&item.Name.EN,
		&item.Name.AR,
		&item.Category,
	)
	if err != nil {
		return model.InventoryRecord{}, err
	}
	r.ID = id.String()
	r.MenuItemID = itemID.String()
	r.CurrentStock = numericToDecimal(current)
	r.MinStock = numericToDecimal(minimum)
	r.CostPerUnit = numericPtr(cost)
	r.Item = &item
	return r, nil
}

func collectInventory(rows pgx.Rows) ([]model.InventoryRecord, error) {
	defer rows.Close()
	var out []model.InventoryRecord
	for rows.Next() {
		r, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const getInventory = `WITH i AS (SELECT * FROM inventory WHERE id = $1) ` + inventorySelect + inventoryFrom

func (q *Queries) GetInventory(ctx context.Context, id string) (model.InventoryRecord, error) {
	uid, err := parseID(id)
	if err != nil {
		return model.InventoryRecord{}, err
	}
	r, err := scanInventory(q.db.QueryRow(ctx, getInventory, uid))
	return r, mapErr(err)
}

const getInventoryByItem = `WITH i AS (SELECT * FROM inventory WHERE menu_item_id = $1) ` + inventorySelect + inventoryFrom

func (q *Queries) GetInventoryByItem(ctx context.Context, menuItemID string) (model.InventoryRecord, error) {
	uid, err := parseID(menuItemID)
	if err != nil {
		return model.InventoryRecord{}, err
	}
	r, err := scanInventory(q.db.QueryRow(ctx, getInventoryByItem, uid))
	return r, mapErr(err)
}

const listInventoryByItems = `WITH i AS (SELECT * FROM inventory WHERE menu_item_id = ANY($1::uuid[])) ` +
	inventorySelect + inventoryFrom

func (q *Queries) ListInventoryByItems(ctx context.Context, menuItemIDs []string) ([]model.InventoryRecord, error) {
	uids := parseIDs(menuItemIDs)
	if len(uids) == 0 {
		return nil, nil
	}
	rows, err := q.db.Query(ctx, listInventoryByItems, uids)
	if err != nil {
		return nil, mapErr(err)
	}
	return collectInventory(rows)
}

const listInventory = `WITH i AS (SELECT * FROM inventory) ` + inventorySelect + inventoryFrom + `
	ORDER BY i.current_stock, m.name_en`

// ListInventory returns every record, lowest stock first.
func (q *Queries) ListInventory(ctx context.Context) ([]model.InventoryRecord, error) {
	rows, err := q.db.Query(ctx, listInventory)
	if err != nil {
		return nil, mapErr(err)
	}
	return collectInventory(rows)
}

const createInventory = `WITH i AS (
	INSERT INTO inventory (
		menu_item_id, current_stock, min_stock, unit, auto_reorder, supplier, cost_per_unit, last_restocked
	) VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8::timestamptz, now()))
	RETURNING *
) ` + inventorySelect + inventoryFrom

// CreateInventory inserts a record. A missing menu item is reported as
// model.ErrNotFound and an existing record for the item as model.ErrConflict.
func (q *Queries) CreateInventory(ctx context.Context, rec model.InventoryRecord) (model.InventoryRecord, error) {
	itemID, err := parseID(rec.MenuItemID)
	if err != nil {
		return model.InventoryRecord{}, err
	}
	var restocked pgtype.Timestamptz
	if !rec.LastRestocked.IsZero() {
		restocked = pgtype.Timestamptz{Time: rec.LastRestocked, Valid: true}
	}
	r, err := scanInventory(q.db.QueryRow(ctx, createInventory,
		itemID,
		decimalToNumeric(rec.CurrentStock),
		decimalToNumeric(rec.MinStock),
		rec.Unit,
		rec.AutoReorder,
		rec.Supplier,
		optionalNumeric(rec.CostPerUnit),
		restocked,
	))
	return r, mapErr(err)
}

const updateInventory = `WITH i AS (
	UPDATE inventory SET
		current_stock = $2, min_stock = $3, unit = $4, auto_reorder = $5,
		supplier = $6, cost_per_unit = $7, last_restocked = $8, updated_at = now()
	WHERE id = $1
	RETURNING *
) ` + inventorySelect + inventoryFrom

func (q *Queries) UpdateInventory(ctx context.Context, rec model.InventoryRecord) (model.InventoryRecord, error) {
	uid, err := parseID(rec.ID)
	if err != nil {
		return model.InventoryRecord{}, err
	}
	r, err := scanInventory(q.db.QueryRow(ctx, updateInventory,
		uid,
		decimalToNumeric(rec.CurrentStock),
		decimalToNumeric(rec.MinStock),
		rec.Unit,
		rec.AutoReorder,
		rec.Supplier,
		optionalNumeric(rec.CostPerUnit),
		rec.LastRestocked,
	))
	return r, mapErr(err)
}

const adjustStock = `WITH i AS (
	UPDATE inventory SET
		current_stock = current_stock + $2::numeric,
		last_restocked = CASE WHEN $2::numeric > 0 THEN now() ELSE last_restocked END,
		updated_at = now()
	WHERE id = $1 AND current_stock + $2::numeric >= 0
	RETURNING *
) ` + inventorySelect + inventoryFrom

const inventoryExists = `SELECT EXISTS(SELECT 1 FROM inventory WHERE id = $1)`

// AdjustStock adds delta to the current stock. It returns
// model.ErrStockConflict when the result would go negative.
func (q *Queries) AdjustStock(ctx context.Context, id string, delta decimal.Decimal) (model.InventoryRecord, error) {
	uid, err := parseID(id)
	if err != nil {
		return model.InventoryRecord{}, err
	}
	r, err := scanInventory(q.db.QueryRow(ctx, adjustStock, uid, decimalToNumeric(delta)))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.InventoryRecord{}, q.missOrConflict(ctx, inventoryExists, uid)
	}
	return r, mapErr(err)
}

const decrementStock = `WITH i AS (
	UPDATE inventory SET current_stock = current_stock - $2, updated_at = now()
	WHERE menu_item_id = $1 AND current_stock >= $2
	RETURNING *
) ` + inventorySelect + inventoryFrom

const inventoryExistsForItem = `SELECT EXISTS(SELECT 1 FROM inventory WHERE menu_item_id = $1)`

// DecrementStock subtracts qty from the item's stock only while enough stock
// remains. It returns model.ErrStockConflict otherwise.
func (q *Queries) DecrementStock(ctx context.Context, menuItemID string, qty decimal.Decimal) (model.InventoryRecord, error) {
	uid, err := parseID(menuItemID)
	if err != nil {
		return model.InventoryRecord{}, err
	}
	r, err := scanInventory(q.db.QueryRow(ctx, decrementStock, uid, decimalToNumeric(qty)))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.InventoryRecord{}, q.missOrConflict(ctx, inventoryExistsForItem, uid)
	}
	return r, mapErr(err)
}

// missOrConflict tells apart a conditional update that found no row from one
// whose condition failed.
func (q *Queries) missOrConflict(ctx context.Context, existsQuery string, id uuid.UUID) error {
	var exists bool
	if err := q.db.QueryRow(ctx, existsQuery, id).Scan(&exists); err != nil {
		return mapErr(err)
	}
	if exists {
		return model.ErrStockConflict
	}
	return model.ErrNotFound
}

const deleteInventory = `DELETE FROM inventory WHERE id = $1`

func (q *Queries) DeleteInventory(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := q.db.Exec(ctx, deleteInventory, uid)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
