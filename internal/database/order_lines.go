package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrderLine = `
INSERT INTO order_lines (order_id, menu_item_id, quantity, unit_price, total_price, status, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, order_id, menu_item_id, quantity, unit_price, total_price, status, notes, created_at, updated_at
`

type CreateOrderLineParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	UnitPrice  pgtype.Numeric
	TotalPrice pgtype.Numeric
	Status     string
	Notes      pgtype.Text
}

func (q *Queries) CreateOrderLine(ctx context.Context, arg CreateOrderLineParams) (OrderLine, error) {
	row := q.db.QueryRow(ctx, createOrderLine,
		arg.OrderID,
		arg.MenuItemID,
		arg.Quantity,
		arg.UnitPrice,
		arg.TotalPrice,
		arg.Status,
		arg.Notes,
	)
	var l OrderLine
	err := row.Scan(&l.ID, &l.OrderID, &l.MenuItemID, &l.Quantity, &l.UnitPrice, &l.TotalPrice, &l.Status, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

const getOrderLine = `
SELECT id, order_id, menu_item_id, quantity, unit_price, total_price, status, notes, created_at, updated_at
FROM order_lines
WHERE id = $1
`

func (q *Queries) GetOrderLine(ctx context.Context, id uuid.UUID) (OrderLine, error) {
	row := q.db.QueryRow(ctx, getOrderLine, id)
	var l OrderLine
	err := row.Scan(&l.ID, &l.OrderID, &l.MenuItemID, &l.Quantity, &l.UnitPrice, &l.TotalPrice, &l.Status, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

const getOrderLineForUpdate = `
SELECT id, order_id, menu_item_id, quantity, unit_price, total_price, status, notes, created_at, updated_at
FROM order_lines
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetOrderLineForUpdate(ctx context.Context, id uuid.UUID) (OrderLine, error) {
	row := q.db.QueryRow(ctx, getOrderLineForUpdate, id)
	var l OrderLine
	err := row.Scan(&l.ID, &l.OrderID, &l.MenuItemID, &l.Quantity, &l.UnitPrice, &l.TotalPrice, &l.Status, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// GetOpenLineByOrderAndItem finds an existing non-cancelled line for the
// item so AddItem increments instead of duplicating.
const getOpenLineByOrderAndItem = `
SELECT id, order_id, menu_item_id, quantity, unit_price, total_price, status, notes, created_at, updated_at
FROM order_lines
WHERE order_id = $1
  AND menu_item_id = $2
  AND status <> 'CANCELLED'
LIMIT 1
`

type GetOpenLineByOrderAndItemParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
}

func (q *Queries) GetOpenLineByOrderAndItem(ctx context.Context, arg GetOpenLineByOrderAndItemParams) (OrderLine, error) {
	row := q.db.QueryRow(ctx, getOpenLineByOrderAndItem, arg.OrderID, arg.MenuItemID)
	var l OrderLine
	err := row.Scan(&l.ID, &l.OrderID, &l.MenuItemID, &l.Quantity, &l.UnitPrice, &l.TotalPrice, &l.Status, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

const listOrderLines = `
SELECT id, order_id, menu_item_id, quantity, unit_price, total_price, status, notes, created_at, updated_at
FROM order_lines
WHERE order_id = $1
ORDER BY created_at
`

func (q *Queries) ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]OrderLine, error) {
	rows, err := q.db.Query(ctx, listOrderLines, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderLine
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.MenuItemID, &l.Quantity, &l.UnitPrice, &l.TotalPrice, &l.Status, &l.Notes, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

const updateOrderLineQuantity = `
UPDATE order_lines
SET quantity = $2, total_price = $3, updated_at = now()
WHERE id = $1
RETURNING id, order_id, menu_item_id, quantity, unit_price, total_price, status, notes, created_at, updated_at
`

type UpdateOrderLineQuantityParams struct {
	ID         uuid.UUID
	Quantity   int32
	TotalPrice pgtype.Numeric
}

func (q *Queries) UpdateOrderLineQuantity(ctx context.Context, arg UpdateOrderLineQuantityParams) (OrderLine, error) {
	row := q.db.QueryRow(ctx, updateOrderLineQuantity, arg.ID, arg.Quantity, arg.TotalPrice)
	var l OrderLine
	err := row.Scan(&l.ID, &l.OrderID, &l.MenuItemID, &l.Quantity, &l.UnitPrice, &l.TotalPrice, &l.Status, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

const updateOrderLineStatus = `
UPDATE order_lines
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING id, order_id, menu_item_id, quantity, unit_price, total_price, status, notes, created_at, updated_at
`

type UpdateOrderLineStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateOrderLineStatus(ctx context.Context, arg UpdateOrderLineStatusParams) (OrderLine, error) {
	row := q.db.QueryRow(ctx, updateOrderLineStatus, arg.ID, arg.Status)
	var l OrderLine
	err := row.Scan(&l.ID, &l.OrderID, &l.MenuItemID, &l.Quantity, &l.UnitPrice, &l.TotalPrice, &l.Status, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

const deleteOrderLine = `
DELETE FROM order_lines
WHERE id = $1
`

func (q *Queries) DeleteOrderLine(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrderLine, id)
	return err
}

// ListKitchenQueue returns active kitchen lines oldest order first,
// optionally filtered by the category's printer target.
const listKitchenQueue = `
SELECT ol.id, ol.order_id, ol.menu_item_id, ol.quantity, ol.unit_price, ol.total_price, ol.status, ol.notes, ol.created_at, ol.updated_at,
       o.order_number, mi.name, c.printer_target
FROM order_lines ol
JOIN orders o ON o.id = ol.order_id
JOIN menu_items mi ON mi.id = ol.menu_item_id
JOIN categories c ON c.id = mi.category_id
WHERE ol.status IN ('PENDING', 'COOKING')
  AND o.status = 'COOKING'
  AND ($1::text IS NULL OR c.printer_target = $1)
ORDER BY o.created_at, ol.created_at
`

type ListKitchenQueueRow struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	MenuItemID    uuid.UUID
	Quantity      int32
	UnitPrice     pgtype.Numeric
	TotalPrice    pgtype.Numeric
	Status        string
	Notes         pgtype.Text
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
	OrderNumber   string
	MenuItemName  string
	PrinterTarget string
}

func (q *Queries) ListKitchenQueue(ctx context.Context, printerTarget pgtype.Text) ([]ListKitchenQueueRow, error) {
	rows, err := q.db.Query(ctx, listKitchenQueue, printerTarget)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListKitchenQueueRow
	for rows.Next() {
		var r ListKitchenQueueRow
		if err := rows.Scan(&r.ID, &r.OrderID, &r.MenuItemID, &r.Quantity, &r.UnitPrice, &r.TotalPrice, &r.Status, &r.Notes, &r.CreatedAt, &r.UpdatedAt, &r.OrderNumber, &r.MenuItemName, &r.PrinterTarget); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
