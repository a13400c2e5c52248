package database

import (
	"context"

	"github.com/google/uuid"
)

const createCategory = `
INSERT INTO categories (name, printer_target, is_active)
VALUES ($1, $2, $3)
RETURNING id, name, printer_target, is_active, created_at, updated_at
`

type CreateCategoryParams struct {
	Name          string
	PrinterTarget string
	IsActive      bool
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRow(ctx, createCategory, arg.Name, arg.PrinterTarget, arg.IsActive)
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.PrinterTarget, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const getCategory = `
SELECT id, name, printer_target, is_active, created_at, updated_at
FROM categories
WHERE id = $1
`

func (q *Queries) GetCategory(ctx context.Context, id uuid.UUID) (Category, error) {
	row := q.db.QueryRow(ctx, getCategory, id)
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.PrinterTarget, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const listCategories = `
SELECT id, name, printer_target, is_active, created_at, updated_at
FROM categories
ORDER BY name
`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.PrinterTarget, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const updateCategory = `
UPDATE categories
SET name = $2, printer_target = $3, is_active = $4, updated_at = now()
WHERE id = $1
RETURNING id, name, printer_target, is_active, created_at, updated_at
`

type UpdateCategoryParams struct {
	ID            uuid.UUID
	Name          string
	PrinterTarget string
	IsActive      bool
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	row := q.db.QueryRow(ctx, updateCategory, arg.ID, arg.Name, arg.PrinterTarget, arg.IsActive)
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.PrinterTarget, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const countMenuItemsByCategory = `
SELECT count(*)
FROM menu_items
WHERE category_id = $1
`

func (q *Queries) CountMenuItemsByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countMenuItemsByCategory, categoryID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteCategory = `
DELETE FROM categories
WHERE id = $1
`

func (q *Queries) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteCategory, id)
	return err
}
