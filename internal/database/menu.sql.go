package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
)

const menuItemColumns = `id, name_en, name_ar, description_en, description_ar, price_en, price_ar,
	category, image, sizes, created_at, updated_at`

func scanMenuItem(row pgx.Row) (model.MenuItem, error) {
	var (
		m       model.MenuItem
		id      uuid.UUID
		priceEN pgtype.Numeric
		sizes   []byte
	)
	err := row.Scan(
		&id,
		&m.Name.EN,
		&m.Name.AR,
		&m.Description.EN,
		&m.Description.AR,
		&priceEN,
		&m.Price.AR,
		&m.Category,
		&m.Image,
		&sizes,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return model.MenuItem{}, err
	}
	m.ID = id.String()
	m.Price.EN = numericToDecimal(priceEN)
	if len(sizes) > 0 {
		if err := json.Unmarshal(sizes, &m.Sizes); err != nil {
			return model.MenuItem{}, fmt.Errorf("decode sizes of %s: %w", m.ID, err)
		}
	}
	if len(m.Sizes) == 0 {
		m.Sizes = nil
	}
	return m, nil
}

func collectMenuItems(rows pgx.Rows) ([]model.MenuItem, error) {
	defer rows.Close()
	var items []model.MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func encodeSizes(sizes []model.Size) ([]byte, error) {
	if sizes == nil {
		sizes = []model.Size{}
	}
	return json.Marshal(sizes)
}

const getMenuItem = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1`

func (q *Queries) GetMenuItem(ctx context.Context, id string) (model.MenuItem, error) {
	uid, err := parseID(id)
	if err != nil {
		return model.MenuItem{}, err
	}
	m, err := scanMenuItem(q.db.QueryRow(ctx, getMenuItem, uid))
	return m, mapErr(err)
}

const getMenuItemsByIDs = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = ANY($1::uuid[])`

// GetMenuItemsByIDs returns the items that exist among ids. Unknown and
// malformed ids are skipped.
func (q *Queries) GetMenuItemsByIDs(ctx context.Context, ids []string) ([]model.MenuItem, error) {
	uids := parseIDs(ids)
	if len(uids) == 0 {
		return nil, nil
	}
	rows, err := q.db.Query(ctx, getMenuItemsByIDs, uids)
	if err != nil {
		return nil, mapErr(err)
	}
	return collectMenuItems(rows)
}

const menuFilterClause = ` WHERE ($1::text = '' OR category = $1)
	AND ($2::text = '' OR name_en ILIKE $2 OR name_ar ILIKE $2
		OR description_en ILIKE $2 OR description_ar ILIKE $2)`

const countMenuItems = `SELECT count(*) FROM menu_items` + menuFilterClause

const listMenuItems = `SELECT ` + menuItemColumns + ` FROM menu_items` + menuFilterClause + `
	ORDER BY category, name_en
	LIMIT $3 OFFSET $4`

// ListMenuItems returns one page of matching items and the total match count.
// A non-positive limit returns every match.
func (q *Queries) ListMenuItems(ctx context.Context, f model.MenuFilter) ([]model.MenuItem, int, error) {
	pattern := ""
	if f.Search != "" {
		pattern = "%" + escapeLike(f.Search) + "%"
	}

	var total int
	if err := q.db.QueryRow(ctx, countMenuItems, f.Category, pattern).Scan(&total); err != nil {
		return nil, 0, mapErr(err)
	}

	var limit pgtype.Int8
	if f.Limit > 0 {
		limit = pgtype.Int8{Int64: int64(f.Limit), Valid: true}
	}
	rows, err := q.db.Query(ctx, listMenuItems, f.Category, pattern, limit, f.Offset())
	if err != nil {
		return nil, 0, mapErr(err)
	}
	items, err := collectMenuItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

const createMenuItem = `INSERT INTO menu_items (
	name_en, name_ar, description_en, description_ar, price_en, price_ar, category, image, sizes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + menuItemColumns

func (q *Queries) CreateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	sizes, err := encodeSizes(item.Sizes)
	if err != nil {
		return model.MenuItem{}, err
	}
	m, err := scanMenuItem(q.db.QueryRow(ctx, createMenuItem,
		item.Name.EN,
		item.Name.AR,
		item.Description.EN,
		item.Description.AR,
		decimalToNumeric(item.Price.EN),
		item.Price.AR,
		item.Category,
		item.Image,
		sizes,
	))
	return m, mapErr(err)
}

const updateMenuItem = `UPDATE menu_items SET
	name_en = $2, name_ar = $3, description_en = $4, description_ar = $5,
	price_en = $6, price_ar = $7, category = $8, image = $9, sizes = $10, updated_at = $11
WHERE id = $1
RETURNING ` + menuItemColumns

func (q *Queries) UpdateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	uid, err := parseID(item.ID)
	if err != nil {
		return model.MenuItem{}, err
	}
	sizes, err := encodeSizes(item.Sizes)
	if err != nil {
		return model.MenuItem{}, err
	}
	m, err := scanMenuItem(q.db.QueryRow(ctx, updateMenuItem,
		uid,
		item.Name.EN,
		item.Name.AR,
		item.Description.EN,
		item.Description.AR,
		decimalToNumeric(item.Price.EN),
		item.Price.AR,
		item.Category,
		item.Image,
		sizes,
		time.Now(),
	))
	return m, mapErr(err)
}

const deleteMenuItem = `DELETE FROM menu_items WHERE id = $1`

// DeleteMenuItem removes the item. Its stock record goes with it through the
// foreign key cascade.
func (q *Queries) DeleteMenuItem(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := q.db.Exec(ctx, deleteMenuItem, uid)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

const menuItemExists = `SELECT EXISTS(SELECT 1 FROM menu_items WHERE id = $1)`

func (q *Queries) MenuItemExists(ctx context.Context, id string) (bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	var exists bool
	if err := q.db.QueryRow(ctx, menuItemExists, uid).Scan(&exists); err != nil {
		return false, mapErr(err)
	}
	return exists, nil
}
