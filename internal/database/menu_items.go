package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createMenuItem = `
INSERT INTO menu_items (category_id, sku, name, description, price, image_url, status)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, category_id, sku, name, description, price, image_url, status, created_at, updated_at
`

type CreateMenuItemParams struct {
	CategoryID  uuid.UUID
	Sku         string
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	ImageUrl    pgtype.Text
	Status      string
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem,
		arg.CategoryID,
		arg.Sku,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.ImageUrl,
		arg.Status,
	)
	var m MenuItem
	err := row.Scan(&m.ID, &m.CategoryID, &m.Sku, &m.Name, &m.Description, &m.Price, &m.ImageUrl, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

const getMenuItem = `
SELECT id, category_id, sku, name, description, price, image_url, status, created_at, updated_at
FROM menu_items
WHERE id = $1
`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getMenuItem, id)
	var m MenuItem
	err := row.Scan(&m.ID, &m.CategoryID, &m.Sku, &m.Name, &m.Description, &m.Price, &m.ImageUrl, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

const getMenuItemBySku = `
SELECT id, category_id, sku, name, description, price, image_url, status, created_at, updated_at
FROM menu_items
WHERE sku = $1
`

func (q *Queries) GetMenuItemBySku(ctx context.Context, sku string) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getMenuItemBySku, sku)
	var m MenuItem
	err := row.Scan(&m.ID, &m.CategoryID, &m.Sku, &m.Name, &m.Description, &m.Price, &m.ImageUrl, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

const listMenuItems = `
SELECT id, category_id, sku, name, description, price, image_url, status, created_at, updated_at
FROM menu_items
WHERE ($1::uuid IS NULL OR category_id = $1)
  AND ($2::text IS NULL OR status = $2)
ORDER BY name
`

type ListMenuItemsParams struct {
	CategoryID pgtype.UUID
	Status     pgtype.Text
}

func (q *Queries) ListMenuItems(ctx context.Context, arg ListMenuItemsParams) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems, arg.CategoryID, arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.CategoryID, &m.Sku, &m.Name, &m.Description, &m.Price, &m.ImageUrl, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const updateMenuItem = `
UPDATE menu_items
SET category_id = $2, name = $3, description = $4, price = $5, image_url = $6, updated_at = now()
WHERE id = $1
RETURNING id, category_id, sku, name, description, price, image_url, status, created_at, updated_at
`

type UpdateMenuItemParams struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	ImageUrl    pgtype.Text
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, updateMenuItem,
		arg.ID,
		arg.CategoryID,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.ImageUrl,
	)
	var m MenuItem
	err := row.Scan(&m.ID, &m.CategoryID, &m.Sku, &m.Name, &m.Description, &m.Price, &m.ImageUrl, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

const updateMenuItemStatus = `
UPDATE menu_items
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING id, category_id, sku, name, description, price, image_url, status, created_at, updated_at
`

type UpdateMenuItemStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateMenuItemStatus(ctx context.Context, arg UpdateMenuItemStatusParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, updateMenuItemStatus, arg.ID, arg.Status)
	var m MenuItem
	err := row.Scan(&m.ID, &m.CategoryID, &m.Sku, &m.Name, &m.Description, &m.Price, &m.ImageUrl, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

const deleteMenuItem = `
DELETE FROM menu_items
WHERE id = $1
`

func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteMenuItem, id)
	return err
}

// ListMenuItemsUsingIngredient returns menu items whose recipe contains the
// given ingredient, excluding INACTIVE items. Used by availability
// re-evaluation after stock changes.
const listMenuItemsUsingIngredient = `
SELECT DISTINCT mi.id, mi.category_id, mi.sku, mi.name, mi.description, mi.price, mi.image_url, mi.status, mi.created_at, mi.updated_at
FROM menu_items mi
JOIN recipes r ON r.menu_item_id = mi.id
JOIN recipe_lines rl ON rl.recipe_id = r.id
WHERE rl.ingredient_id = $1
  AND mi.status <> 'INACTIVE'
`

func (q *Queries) ListMenuItemsUsingIngredient(ctx context.Context, ingredientID uuid.UUID) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItemsUsingIngredient, ingredientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.CategoryID, &m.Sku, &m.Name, &m.Description, &m.Price, &m.ImageUrl, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
