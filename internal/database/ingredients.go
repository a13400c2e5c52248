package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createIngredient = `
INSERT INTO ingredients (name, unit, cost_per_unit, alert_threshold)
VALUES ($1, $2, $3, $4)
RETURNING id, name, unit, cost_per_unit, alert_threshold, created_at, updated_at
`

type CreateIngredientParams struct {
	Name           string
	Unit           string
	CostPerUnit    pgtype.Numeric
	AlertThreshold pgtype.Numeric
}

func (q *Queries) CreateIngredient(ctx context.Context, arg CreateIngredientParams) (Ingredient, error) {
	row := q.db.QueryRow(ctx, createIngredient, arg.Name, arg.Unit, arg.CostPerUnit, arg.AlertThreshold)
	var i Ingredient
	err := row.Scan(&i.ID, &i.Name, &i.Unit, &i.CostPerUnit, &i.AlertThreshold, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getIngredient = `
SELECT id, name, unit, cost_per_unit, alert_threshold, created_at, updated_at
FROM ingredients
WHERE id = $1
`

func (q *Queries) GetIngredient(ctx context.Context, id uuid.UUID) (Ingredient, error) {
	row := q.db.QueryRow(ctx, getIngredient, id)
	var i Ingredient
	err := row.Scan(&i.ID, &i.Name, &i.Unit, &i.CostPerUnit, &i.AlertThreshold, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listIngredients = `
SELECT id, name, unit, cost_per_unit, alert_threshold, created_at, updated_at
FROM ingredients
ORDER BY name
`

func (q *Queries) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	rows, err := q.db.Query(ctx, listIngredients)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Ingredient
	for rows.Next() {
		var i Ingredient
		if err := rows.Scan(&i.ID, &i.Name, &i.Unit, &i.CostPerUnit, &i.AlertThreshold, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateIngredient = `
UPDATE ingredients
SET name = $2, unit = $3, cost_per_unit = $4, alert_threshold = $5, updated_at = now()
WHERE id = $1
RETURNING id, name, unit, cost_per_unit, alert_threshold, created_at, updated_at
`

type UpdateIngredientParams struct {
	ID             uuid.UUID
	Name           string
	Unit           string
	CostPerUnit    pgtype.Numeric
	AlertThreshold pgtype.Numeric
}

func (q *Queries) UpdateIngredient(ctx context.Context, arg UpdateIngredientParams) (Ingredient, error) {
	row := q.db.QueryRow(ctx, updateIngredient, arg.ID, arg.Name, arg.Unit, arg.CostPerUnit, arg.AlertThreshold)
	var i Ingredient
	err := row.Scan(&i.ID, &i.Name, &i.Unit, &i.CostPerUnit, &i.AlertThreshold, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const deleteIngredient = `
DELETE FROM ingredients
WHERE id = $1
`

func (q *Queries) DeleteIngredient(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteIngredient, id)
	return err
}

const countRecipeLinesByIngredient = `
SELECT count(*)
FROM recipe_lines
WHERE ingredient_id = $1
`

func (q *Queries) CountRecipeLinesByIngredient(ctx context.Context, ingredientID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countRecipeLinesByIngredient, ingredientID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
