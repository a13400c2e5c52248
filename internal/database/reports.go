package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Sales reports only count PAID orders.

const getDailySales = `
SELECT o.created_at::date AS day,
       count(*) AS order_count,
       coalesce(sum(o.total_amount), 0) AS revenue,
       coalesce(sum(i.discount_amount), 0) AS discount_total
FROM orders o
LEFT JOIN invoices i ON i.order_id = o.id
WHERE o.status = 'PAID'
  AND o.created_at >= $1
  AND o.created_at < $2
GROUP BY day
ORDER BY day
`

type GetDailySalesParams struct {
	StartDate time.Time
	EndDate   time.Time
}

type GetDailySalesRow struct {
	Day           time.Time
	OrderCount    int64
	Revenue       pgtype.Numeric
	DiscountTotal pgtype.Numeric
}

func (q *Queries) GetDailySales(ctx context.Context, arg GetDailySalesParams) ([]GetDailySalesRow, error) {
	rows, err := q.db.Query(ctx, getDailySales, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetDailySalesRow
	for rows.Next() {
		var r GetDailySalesRow
		if err := rows.Scan(&r.Day, &r.OrderCount, &r.Revenue, &r.DiscountTotal); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const getProductSales = `
SELECT ol.menu_item_id,
       mi.name,
       mi.sku,
       sum(ol.quantity) AS quantity_sold,
       coalesce(sum(ol.total_price), 0) AS revenue
FROM order_lines ol
JOIN orders o ON o.id = ol.order_id
JOIN menu_items mi ON mi.id = ol.menu_item_id
WHERE o.status = 'PAID'
  AND ol.status <> 'CANCELLED'
  AND o.created_at >= $1
  AND o.created_at < $2
GROUP BY ol.menu_item_id, mi.name, mi.sku
ORDER BY quantity_sold DESC
`

type GetProductSalesParams struct {
	StartDate time.Time
	EndDate   time.Time
}

type GetProductSalesRow struct {
	MenuItemID   uuid.UUID
	Name         string
	Sku          string
	QuantitySold int64
	Revenue      pgtype.Numeric
}

func (q *Queries) GetProductSales(ctx context.Context, arg GetProductSalesParams) ([]GetProductSalesRow, error) {
	rows, err := q.db.Query(ctx, getProductSales, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetProductSalesRow
	for rows.Next() {
		var r GetProductSalesRow
		if err := rows.Scan(&r.MenuItemID, &r.Name, &r.Sku, &r.QuantitySold, &r.Revenue); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const getPaymentMethodSummary = `
SELECT payment_method,
       count(*) AS transaction_count,
       coalesce(sum(amount), 0) AS total_amount
FROM transactions
WHERE status = 'SUCCESS'
  AND created_at >= $1
  AND created_at < $2
GROUP BY payment_method
ORDER BY payment_method
`

type GetPaymentMethodSummaryParams struct {
	StartDate time.Time
	EndDate   time.Time
}

type GetPaymentMethodSummaryRow struct {
	PaymentMethod    string
	TransactionCount int64
	TotalAmount      pgtype.Numeric
}

func (q *Queries) GetPaymentMethodSummary(ctx context.Context, arg GetPaymentMethodSummaryParams) ([]GetPaymentMethodSummaryRow, error) {
	rows, err := q.db.Query(ctx, getPaymentMethodSummary, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetPaymentMethodSummaryRow
	for rows.Next() {
		var r GetPaymentMethodSummaryRow
		if err := rows.Scan(&r.PaymentMethod, &r.TransactionCount, &r.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const getWasteSummary = `
SELECT rc.code,
       rc.description,
       count(*) AS report_count,
       coalesce(sum(w.loss_value), 0) AS loss_total
FROM waste_reports w
JOIN reason_codes rc ON rc.id = w.reason_code_id
WHERE w.created_at >= $1
  AND w.created_at < $2
GROUP BY rc.code, rc.description
ORDER BY loss_total DESC
`

type GetWasteSummaryParams struct {
	StartDate time.Time
	EndDate   time.Time
}

type GetWasteSummaryRow struct {
	Code        string
	Description string
	ReportCount int64
	LossTotal   pgtype.Numeric
}

func (q *Queries) GetWasteSummary(ctx context.Context, arg GetWasteSummaryParams) ([]GetWasteSummaryRow, error) {
	rows, err := q.db.Query(ctx, getWasteSummary, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetWasteSummaryRow
	for rows.Next() {
		var r GetWasteSummaryRow
		if err := rows.Scan(&r.Code, &r.Description, &r.ReportCount, &r.LossTotal); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
