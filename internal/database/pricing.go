package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createMenuPricing = `
INSERT INTO menu_pricing (menu_item_id, selling_price, effective_date)
VALUES ($1, $2, $3)
RETURNING id, menu_item_id, selling_price, effective_date, created_at
`

type CreateMenuPricingParams struct {
	MenuItemID    uuid.UUID
	SellingPrice  pgtype.Numeric
	EffectiveDate time.Time
}

func (q *Queries) CreateMenuPricing(ctx context.Context, arg CreateMenuPricingParams) (MenuPricing, error) {
	row := q.db.QueryRow(ctx, createMenuPricing, arg.MenuItemID, arg.SellingPrice, arg.EffectiveDate)
	var p MenuPricing
	err := row.Scan(&p.ID, &p.MenuItemID, &p.SellingPrice, &p.EffectiveDate, &p.CreatedAt)
	return p, err
}

const listMenuPricing = `
SELECT id, menu_item_id, selling_price, effective_date, created_at
FROM menu_pricing
WHERE menu_item_id = $1
ORDER BY effective_date DESC
`

func (q *Queries) ListMenuPricing(ctx context.Context, menuItemID uuid.UUID) ([]MenuPricing, error) {
	rows, err := q.db.Query(ctx, listMenuPricing, menuItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuPricing
	for rows.Next() {
		var p MenuPricing
		if err := rows.Scan(&p.ID, &p.MenuItemID, &p.SellingPrice, &p.EffectiveDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// GetEffectivePrice returns the most recent pricing row whose effective date
// is not in the future. Returns pgx.ErrNoRows when the item has no pricing
// history; callers fall back to the display price.
const getEffectivePrice = `
SELECT id, menu_item_id, selling_price, effective_date, created_at
FROM menu_pricing
WHERE menu_item_id = $1
  AND effective_date <= $2
ORDER BY effective_date DESC
LIMIT 1
`

type GetEffectivePriceParams struct {
	MenuItemID uuid.UUID
	AsOf       time.Time
}

func (q *Queries) GetEffectivePrice(ctx context.Context, arg GetEffectivePriceParams) (MenuPricing, error) {
	row := q.db.QueryRow(ctx, getEffectivePrice, arg.MenuItemID, arg.AsOf)
	var p MenuPricing
	err := row.Scan(&p.ID, &p.MenuItemID, &p.SellingPrice, &p.EffectiveDate, &p.CreatedAt)
	return p, err
}

const deleteMenuPricing = `
DELETE FROM menu_pricing
WHERE id = $1
`

func (q *Queries) DeleteMenuPricing(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteMenuPricing, id)
	return err
}
