package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
)

const orderColumns = `id, order_number, customer_name, customer_phone, order_type, table_number,
	delivery_address, special_instructions, total, status, payment_method, created_at, updated_at`

func scanOrder(row pgx.Row) (model.Order, error) {
	var (
		o     model.Order
		id    uuid.UUID
		total pgtype.Numeric
	)
	err := row.Scan(
		&id,
		&o.OrderNumber,
		&o.CustomerName,
		&o.CustomerPhone,
		&o.OrderType,
		&o.TableNumber,
		&o.DeliveryAddress,
		&o.SpecialInstructions,
		&total,
		&o.Status,
		&o.PaymentMethod,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return model.Order{}, err
	}
	o.ID = id.String()
	o.Total = numericToDecimal(total)
	return o, nil
}

const nextOrderNumber = `INSERT INTO order_counters (name, value) VALUES ('orders', 1001)
ON CONFLICT (name) DO UPDATE SET value = order_counters.value + 1
RETURNING value`

// nextOrderNumber increments the order counter. The counter row stays locked
// until the surrounding transaction ends.
func (q *Queries) nextOrderNumber(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, nextOrderNumber).Scan(&n)
	return n, mapErr(err)
}

const insertOrder = `INSERT INTO orders (
	order_number, customer_name, customer_phone, order_type, table_number,
	delivery_address, special_instructions, total, status, payment_method
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + orderColumns

func (q *Queries) insertOrder(ctx context.Context, o model.Order) (model.Order, error) {
	created, err := scanOrder(q.db.QueryRow(ctx, insertOrder,
		o.OrderNumber,
		o.CustomerName,
		o.CustomerPhone,
		o.OrderType,
		o.TableNumber,
		o.DeliveryAddress,
		o.SpecialInstructions,
		decimalToNumeric(o.Total),
		o.Status,
		o.PaymentMethod,
	))
	return created, mapErr(err)
}

const insertOrderItem = `INSERT INTO order_items (
	order_id, position, menu_item_id, item_name_en, item_name_ar, selected_size, quantity, price_at_order
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (q *Queries) insertOrderItem(ctx context.Context, orderID uuid.UUID, position int, l model.OrderLine) error {
	itemID, err := uuid.Parse(l.MenuItemID)
	if err != nil {
		return fmt.Errorf("line %d: %w", position, model.ErrNotFound)
	}
	var size []byte
	if l.SelectedSize != nil {
		if size, err = json.Marshal(l.SelectedSize); err != nil {
			return fmt.Errorf("encode size of line %d: %w", position, err)
		}
	}
	_, err = q.db.Exec(ctx, insertOrderItem,
		orderID,
		position,
		itemID,
		l.ItemName.EN,
		l.ItemName.AR,
		size,
		l.Quantity,
		decimalToNumeric(l.PriceAtOrder),
	)
	return mapErr(err)
}

const listOrderItems = `SELECT order_id, menu_item_id, item_name_en, item_name_ar, selected_size,
	quantity, price_at_order
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, position`

// attachLines loads the lines of every order in orders.
func (q *Queries) attachLines(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	rows, err := q.db.Query(ctx, listOrderItems, parseIDs(ids))
	if err != nil {
		return mapErr(err)
	}
	defer rows.Close()

	lines := make(map[string][]model.OrderLine, len(orders))
	for rows.Next() {
		var (
			l               model.OrderLine
			orderID, itemID uuid.UUID
			size            []byte
			price           pgtype.Numeric
		)
		if err := rows.Scan(&orderID, &itemID, &l.ItemName.EN, &l.ItemName.AR, &size, &l.Quantity, &price); err != nil {
			return err
		}
		l.MenuItemID = itemID.String()
		l.PriceAtOrder = numericToDecimal(price)
		if len(size) > 0 {
			var s model.Size
			if err := json.Unmarshal(size, &s); err != nil {
				return fmt.Errorf("decode size of order %s: %w", orderID, err)
			}
			l.SelectedSize = &s
		}
		key := orderID.String()
		lines[key] = append(lines[key], l)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
	}
	return nil
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id string) (model.Order, error) {
	uid, err := parseID(id)
	if err != nil {
		return model.Order{}, err
	}
	o, err := scanOrder(q.db.QueryRow(ctx, getOrder, uid))
	if err != nil {
		return model.Order{}, mapErr(err)
	}
	orders := []model.Order{o}
	if err := q.attachLines(ctx, orders); err != nil {
		return model.Order{}, err
	}
	return orders[0], nil
}

const orderFilterClause = ` WHERE ($1::text = '' OR status = $1)
	AND ($2::timestamptz IS NULL OR created_at >= $2)
	AND ($3::timestamptz IS NULL OR created_at < $3)`

const countOrders = `SELECT count(*) FROM orders` + orderFilterClause

const listOrders = `SELECT ` + orderColumns + ` FROM orders` + orderFilterClause + `
	ORDER BY created_at DESC, order_number DESC
	LIMIT $4 OFFSET $5`

// ListOrders returns matching orders newest first with the total match count.
func (q *Queries) ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, int, error) {
	var start, end pgtype.Timestamptz
	if !f.StartDate.IsZero() {
		start = pgtype.Timestamptz{Time: f.StartDate, Valid: true}
	}
	if !f.EndDate.IsZero() {
		end = pgtype.Timestamptz{Time: f.EndDate.AddDate(0, 0, 1), Valid: true}
	}

	var total int
	if err := q.db.QueryRow(ctx, countOrders, f.Status, start, end).Scan(&total); err != nil {
		return nil, 0, mapErr(err)
	}

	var limit pgtype.Int8
	if f.Limit > 0 {
		limit = pgtype.Int8{Int64: int64(f.Limit), Valid: true}
	}
	rows, err := q.db.Query(ctx, listOrders, f.Status, start, end, limit, f.Offset)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := q.attachLines(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

const updateOrderStatus = `UPDATE orders SET status = $3, updated_at = $4
WHERE id = $1 AND status = $2
RETURNING ` + orderColumns

const orderExists = `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`

// UpdateOrderStatus moves an order from one status to another. It returns
// model.ErrConflict when the order is no longer in status from.
func (q *Queries) UpdateOrderStatus(ctx context.Context, id, from, to string) (model.Order, error) {
	uid, err := parseID(id)
	if err != nil {
		return model.Order{}, err
	}
	o, err := scanOrder(q.db.QueryRow(ctx, updateOrderStatus, uid, from, to, time.Now()))
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := q.db.QueryRow(ctx, orderExists, uid).Scan(&exists); err != nil {
			return model.Order{}, mapErr(err)
		}
		if exists {
			return model.Order{}, model.ErrConflict
		}
		return model.Order{}, model.ErrNotFound
	}
	if err != nil {
		return model.Order{}, mapErr(err)
	}
	orders := []model.Order{o}
	if err := q.attachLines(ctx, orders); err != nil {
		return model.Order{}, err
	}
	return orders[0], nil
}
