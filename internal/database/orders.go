package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrder = `
INSERT INTO orders (order_number, table_id, status, total_amount, source, external_id, needs_review, notes, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, order_number, table_id, status, total_amount, source, external_id, needs_review, notes, created_by, created_at, updated_at
`

type CreateOrderParams struct {
	OrderNumber string
	TableID     pgtype.UUID
	Status      string
	TotalAmount pgtype.Numeric
	Source      string
	ExternalID  pgtype.Text
	NeedsReview bool
	Notes       pgtype.Text
	CreatedBy   uuid.UUID
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber,
		arg.TableID,
		arg.Status,
		arg.TotalAmount,
		arg.Source,
		arg.ExternalID,
		arg.NeedsReview,
		arg.Notes,
		arg.CreatedBy,
	)
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.TableID, &o.Status, &o.TotalAmount, &o.Source, &o.ExternalID, &o.NeedsReview, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const getOrder = `
SELECT id, order_number, table_id, status, total_amount, source, external_id, needs_review, notes, created_by, created_at, updated_at
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.TableID, &o.Status, &o.TotalAmount, &o.Source, &o.ExternalID, &o.NeedsReview, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const getOrderForUpdate = `
SELECT id, order_number, table_id, status, total_amount, source, external_id, needs_review, notes, created_by, created_at, updated_at
FROM orders
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, id)
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.TableID, &o.Status, &o.TotalAmount, &o.Source, &o.ExternalID, &o.NeedsReview, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const getOrderByExternalID = `
SELECT id, order_number, table_id, status, total_amount, source, external_id, needs_review, notes, created_by, created_at, updated_at
FROM orders
WHERE external_id = $1
`

func (q *Queries) GetOrderByExternalID(ctx context.Context, externalID string) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderByExternalID, externalID)
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.TableID, &o.Status, &o.TotalAmount, &o.Source, &o.ExternalID, &o.NeedsReview, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// GetPendingOrderByTable finds the table's open cart. FOR UPDATE so two
// concurrent AddItem calls against the same table serialize.
const getPendingOrderByTable = `
SELECT id, order_number, table_id, status, total_amount, source, external_id, needs_review, notes, created_by, created_at, updated_at
FROM orders
WHERE table_id = $1
  AND status = 'PENDING'
FOR UPDATE
`

func (q *Queries) GetPendingOrderByTable(ctx context.Context, tableID uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getPendingOrderByTable, tableID)
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.TableID, &o.Status, &o.TotalAmount, &o.Source, &o.ExternalID, &o.NeedsReview, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const listOrders = `
SELECT id, order_number, table_id, status, total_amount, source, external_id, needs_review, notes, created_by, created_at, updated_at
FROM orders
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at < $3)
ORDER BY created_at DESC
LIMIT $4 OFFSET $5
`

type ListOrdersParams struct {
	Status    pgtype.Text
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	Limit     int32
	Offset    int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders, arg.Status, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.TableID, &o.Status, &o.TotalAmount, &o.Source, &o.ExternalID, &o.NeedsReview, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

// UpdateOrderStatus is a compare-and-set: the row only changes when it is
// still in the expected status, so a lost race surfaces as pgx.ErrNoRows.
const updateOrderStatus = `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1
  AND status = $3
RETURNING id, order_number, table_id, status, total_amount, source, external_id, needs_review, notes, created_by, created_at, updated_at
`

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	Status     string
	FromStatus string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.FromStatus)
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.TableID, &o.Status, &o.TotalAmount, &o.Source, &o.ExternalID, &o.NeedsReview, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const updateOrderTotal = `
UPDATE orders
SET total_amount = $2, updated_at = now()
WHERE id = $1
RETURNING id, order_number, table_id, status, total_amount, source, external_id, needs_review, notes, created_by, created_at, updated_at
`

type UpdateOrderTotalParams struct {
	ID          uuid.UUID
	TotalAmount pgtype.Numeric
}

func (q *Queries) UpdateOrderTotal(ctx context.Context, arg UpdateOrderTotalParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderTotal, arg.ID, arg.TotalAmount)
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.TableID, &o.Status, &o.TotalAmount, &o.Source, &o.ExternalID, &o.NeedsReview, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const getNextOrderSequence = `
SELECT count(*) + 1
FROM orders
WHERE order_number LIKE $1
`

func (q *Queries) GetNextOrderSequence(ctx context.Context, prefix string) (int64, error) {
	row := q.db.QueryRow(ctx, getNextOrderSequence, prefix+"%")
	var n int64
	err := row.Scan(&n)
	return n, err
}
