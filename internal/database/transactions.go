package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createTransaction = `
INSERT INTO transactions (order_id, amount, tendered_amount, change_amount, payment_method, status, reference_number, promotion_id, discount_amount, processed_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, order_id, amount, tendered_amount, change_amount, payment_method, status, reference_number, promotion_id, discount_amount, processed_by, created_at
`

type CreateTransactionParams struct {
	OrderID         uuid.UUID
	Amount          pgtype.Numeric
	TenderedAmount  pgtype.Numeric
	ChangeAmount    pgtype.Numeric
	PaymentMethod   string
	Status          string
	ReferenceNumber pgtype.Text
	PromotionID     pgtype.UUID
	DiscountAmount  pgtype.Numeric
	ProcessedBy     uuid.UUID
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, createTransaction,
		arg.OrderID,
		arg.Amount,
		arg.TenderedAmount,
		arg.ChangeAmount,
		arg.PaymentMethod,
		arg.Status,
		arg.ReferenceNumber,
		arg.PromotionID,
		arg.DiscountAmount,
		arg.ProcessedBy,
	)
	var t Transaction
	err := row.Scan(&t.ID, &t.OrderID, &t.Amount, &t.TenderedAmount, &t.ChangeAmount, &t.PaymentMethod, &t.Status, &t.ReferenceNumber, &t.PromotionID, &t.DiscountAmount, &t.ProcessedBy, &t.CreatedAt)
	return t, err
}

const listTransactionsByOrder = `
SELECT id, order_id, amount, tendered_amount, change_amount, payment_method, status, reference_number, promotion_id, discount_amount, processed_by, created_at
FROM transactions
WHERE order_id = $1
ORDER BY created_at
`

func (q *Queries) ListTransactionsByOrder(ctx context.Context, orderID uuid.UUID) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactionsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.OrderID, &t.Amount, &t.TenderedAmount, &t.ChangeAmount, &t.PaymentMethod, &t.Status, &t.ReferenceNumber, &t.PromotionID, &t.DiscountAmount, &t.ProcessedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const createInvoice = `
INSERT INTO invoices (invoice_number, order_id, original_total, discount_amount, final_total, promotion_id, payment_method, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, invoice_number, order_id, original_total, discount_amount, final_total, promotion_id, payment_method, created_by, created_at
`

type CreateInvoiceParams struct {
	InvoiceNumber  string
	OrderID        uuid.UUID
	OriginalTotal  pgtype.Numeric
	DiscountAmount pgtype.Numeric
	FinalTotal     pgtype.Numeric
	PromotionID    pgtype.UUID
	PaymentMethod  string
	CreatedBy      uuid.UUID
}

func (q *Queries) CreateInvoice(ctx context.Context, arg CreateInvoiceParams) (Invoice, error) {
	row := q.db.QueryRow(ctx, createInvoice,
		arg.InvoiceNumber,
		arg.OrderID,
		arg.OriginalTotal,
		arg.DiscountAmount,
		arg.FinalTotal,
		arg.PromotionID,
		arg.PaymentMethod,
		arg.CreatedBy,
	)
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.OrderID, &inv.OriginalTotal, &inv.DiscountAmount, &inv.FinalTotal, &inv.PromotionID, &inv.PaymentMethod, &inv.CreatedBy, &inv.CreatedAt)
	return inv, err
}

const getInvoiceByOrder = `
SELECT id, invoice_number, order_id, original_total, discount_amount, final_total, promotion_id, payment_method, created_by, created_at
FROM invoices
WHERE order_id = $1
`

func (q *Queries) GetInvoiceByOrder(ctx context.Context, orderID uuid.UUID) (Invoice, error) {
	row := q.db.QueryRow(ctx, getInvoiceByOrder, orderID)
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.OrderID, &inv.OriginalTotal, &inv.DiscountAmount, &inv.FinalTotal, &inv.PromotionID, &inv.PaymentMethod, &inv.CreatedBy, &inv.CreatedAt)
	return inv, err
}

const getNextInvoiceSequence = `
SELECT count(*) + 1
FROM invoices
WHERE invoice_number LIKE $1
`

func (q *Queries) GetNextInvoiceSequence(ctx context.Context, prefix string) (int64, error) {
	row := q.db.QueryRow(ctx, getNextInvoiceSequence, prefix+"%")
	var n int64
	err := row.Scan(&n)
	return n, err
}
