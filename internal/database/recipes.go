package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createRecipe = `
INSERT INTO recipes (menu_item_id)
VALUES ($1)
RETURNING id, menu_item_id, created_at, updated_at
`

func (q *Queries) CreateRecipe(ctx context.Context, menuItemID uuid.UUID) (Recipe, error) {
	row := q.db.QueryRow(ctx, createRecipe, menuItemID)
	var r Recipe
	err := row.Scan(&r.ID, &r.MenuItemID, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const getRecipeByMenuItem = `
SELECT id, menu_item_id, created_at, updated_at
FROM recipes
WHERE menu_item_id = $1
`

func (q *Queries) GetRecipeByMenuItem(ctx context.Context, menuItemID uuid.UUID) (Recipe, error) {
	row := q.db.QueryRow(ctx, getRecipeByMenuItem, menuItemID)
	var r Recipe
	err := row.Scan(&r.ID, &r.MenuItemID, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const createRecipeLine = `
INSERT INTO recipe_lines (recipe_id, ingredient_id, quantity)
VALUES ($1, $2, $3)
RETURNING id, recipe_id, ingredient_id, quantity
`

type CreateRecipeLineParams struct {
	RecipeID     uuid.UUID
	IngredientID uuid.UUID
	Quantity     pgtype.Numeric
}

func (q *Queries) CreateRecipeLine(ctx context.Context, arg CreateRecipeLineParams) (RecipeLine, error) {
	row := q.db.QueryRow(ctx, createRecipeLine, arg.RecipeID, arg.IngredientID, arg.Quantity)
	var l RecipeLine
	err := row.Scan(&l.ID, &l.RecipeID, &l.IngredientID, &l.Quantity)
	return l, err
}

const listRecipeLines = `
SELECT id, recipe_id, ingredient_id, quantity
FROM recipe_lines
WHERE recipe_id = $1
`

func (q *Queries) ListRecipeLines(ctx context.Context, recipeID uuid.UUID) ([]RecipeLine, error) {
	rows, err := q.db.Query(ctx, listRecipeLines, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecipeLine
	for rows.Next() {
		var l RecipeLine
		if err := rows.Scan(&l.ID, &l.RecipeID, &l.IngredientID, &l.Quantity); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

// ListRecipeLinesByMenuItem fetches a menu item's recipe lines in one query.
// Empty result means no recipe (or an empty one).
const listRecipeLinesByMenuItem = `
SELECT rl.id, rl.recipe_id, rl.ingredient_id, rl.quantity
FROM recipe_lines rl
JOIN recipes r ON r.id = rl.recipe_id
WHERE r.menu_item_id = $1
`

func (q *Queries) ListRecipeLinesByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]RecipeLine, error) {
	rows, err := q.db.Query(ctx, listRecipeLinesByMenuItem, menuItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecipeLine
	for rows.Next() {
		var l RecipeLine
		if err := rows.Scan(&l.ID, &l.RecipeID, &l.IngredientID, &l.Quantity); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

const deleteRecipeLines = `
DELETE FROM recipe_lines
WHERE recipe_id = $1
`

func (q *Queries) DeleteRecipeLines(ctx context.Context, recipeID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteRecipeLines, recipeID)
	return err
}

const deleteRecipe = `
DELETE FROM recipes
WHERE id = $1
`

func (q *Queries) DeleteRecipe(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteRecipe, id)
	return err
}
