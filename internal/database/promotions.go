package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createPromotion = `
INSERT INTO promotions (code, name, discount_type, discount_value, start_date, end_date, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, code, name, discount_type, discount_value, start_date, end_date, is_active, created_at, updated_at
`

type CreatePromotionParams struct {
	Code          string
	Name          string
	DiscountType  string
	DiscountValue pgtype.Numeric
	StartDate     time.Time
	EndDate       time.Time
	IsActive      bool
}

func (q *Queries) CreatePromotion(ctx context.Context, arg CreatePromotionParams) (Promotion, error) {
	row := q.db.QueryRow(ctx, createPromotion,
		arg.Code,
		arg.Name,
		arg.DiscountType,
		arg.DiscountValue,
		arg.StartDate,
		arg.EndDate,
		arg.IsActive,
	)
	var p Promotion
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.DiscountType, &p.DiscountValue, &p.StartDate, &p.EndDate, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const getPromotion = `
SELECT id, code, name, discount_type, discount_value, start_date, end_date, is_active, created_at, updated_at
FROM promotions
WHERE id = $1
`

func (q *Queries) GetPromotion(ctx context.Context, id uuid.UUID) (Promotion, error) {
	row := q.db.QueryRow(ctx, getPromotion, id)
	var p Promotion
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.DiscountType, &p.DiscountValue, &p.StartDate, &p.EndDate, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const getPromotionByCode = `
SELECT id, code, name, discount_type, discount_value, start_date, end_date, is_active, created_at, updated_at
FROM promotions
WHERE code = $1
`

func (q *Queries) GetPromotionByCode(ctx context.Context, code string) (Promotion, error) {
	row := q.db.QueryRow(ctx, getPromotionByCode, code)
	var p Promotion
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.DiscountType, &p.DiscountValue, &p.StartDate, &p.EndDate, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const listPromotions = `
SELECT id, code, name, discount_type, discount_value, start_date, end_date, is_active, created_at, updated_at
FROM promotions
ORDER BY created_at DESC
`

func (q *Queries) ListPromotions(ctx context.Context) ([]Promotion, error) {
	rows, err := q.db.Query(ctx, listPromotions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Promotion
	for rows.Next() {
		var p Promotion
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.DiscountType, &p.DiscountValue, &p.StartDate, &p.EndDate, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const updatePromotion = `
UPDATE promotions
SET name = $2, discount_type = $3, discount_value = $4, start_date = $5, end_date = $6, is_active = $7, updated_at = now()
WHERE id = $1
RETURNING id, code, name, discount_type, discount_value, start_date, end_date, is_active, created_at, updated_at
`

type UpdatePromotionParams struct {
	ID            uuid.UUID
	Name          string
	DiscountType  string
	DiscountValue pgtype.Numeric
	StartDate     time.Time
	EndDate       time.Time
	IsActive      bool
}

func (q *Queries) UpdatePromotion(ctx context.Context, arg UpdatePromotionParams) (Promotion, error) {
	row := q.db.QueryRow(ctx, updatePromotion,
		arg.ID,
		arg.Name,
		arg.DiscountType,
		arg.DiscountValue,
		arg.StartDate,
		arg.EndDate,
		arg.IsActive,
	)
	var p Promotion
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.DiscountType, &p.DiscountValue, &p.StartDate, &p.EndDate, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const deletePromotion = `
DELETE FROM promotions
WHERE id = $1
`

func (q *Queries) DeletePromotion(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deletePromotion, id)
	return err
}
