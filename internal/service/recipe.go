package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fami-pos/api/internal/database"
)

// Errors returned by the recipe service.
var (
	ErrRecipeNotFound = errors.New("recipe not found")
	ErrEmptyRecipe    = errors.New("recipe must have at least one line")
	ErrDuplicateLine  = errors.New("recipe lists an ingredient twice")
	ErrInvalidLineQty = errors.New("recipe line quantity must be positive")
)

// RecipeStore defines the DB methods needed by the recipe service.
type RecipeStore interface {
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (database.Ingredient, error)
	GetRecipeByMenuItem(ctx context.Context, menuItemID uuid.UUID) (database.Recipe, error)
	CreateRecipe(ctx context.Context, menuItemID uuid.UUID) (database.Recipe, error)
	CreateRecipeLine(ctx context.Context, arg database.CreateRecipeLineParams) (database.RecipeLine, error)
	ListRecipeLines(ctx context.Context, recipeID uuid.UUID) ([]database.RecipeLine, error)
	DeleteRecipeLines(ctx context.Context, recipeID uuid.UUID) error
	DeleteRecipe(ctx context.Context, id uuid.UUID) error
}

// NewRecipeStore creates a RecipeStore from a DBTX (pool or tx).
type NewRecipeStore func(db database.DBTX) RecipeStore

// RecipeService owns recipe definitions and keeps menu item availability in
// step when a recipe changes.
type RecipeService struct {
	pool     TxBeginner
	newStore NewRecipeStore
	bom      *BOMResolver
}

func NewRecipeService(pool TxBeginner, newStore NewRecipeStore, bom *BOMResolver) *RecipeService {
	return &RecipeService{pool: pool, newStore: newStore, bom: bom}
}

// RecipeLineInput is one ingredient demand per serving.
type RecipeLineInput struct {
	IngredientID uuid.UUID
	Quantity     decimal.Decimal
}

// RecipeDetail is a recipe with its lines and standard cost per serving.
type RecipeDetail struct {
	Recipe       database.Recipe
	Lines        []database.RecipeLine
	StandardCost decimal.Decimal
}

// SetRecipe replaces the menu item's recipe with the given lines. The whole
// replacement runs in one transaction, and the item's availability is
// re-evaluated against the new ingredient set.
func (s *RecipeService) SetRecipe(ctx context.Context, menuItemID uuid.UUID, lines []RecipeLineInput) (*RecipeDetail, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyRecipe
	}
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			return nil, ErrInvalidLineQty
		}
		if seen[line.IngredientID] {
			return nil, ErrDuplicateLine
		}
		seen[line.IngredientID] = true
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetMenuItem(ctx, menuItemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("get menu item: %w", err)
	}

	for _, line := range lines {
		if _, err := store.GetIngredient(ctx, line.IngredientID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", ErrIngredientNotFound, line.IngredientID)
			}
			return nil, fmt.Errorf("get ingredient: %w", err)
		}
	}

	recipe, err := store.GetRecipeByMenuItem(ctx, menuItemID)
	switch {
	case err == nil:
		if err := store.DeleteRecipeLines(ctx, recipe.ID); err != nil {
			return nil, fmt.Errorf("delete recipe lines: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		recipe, err = store.CreateRecipe(ctx, menuItemID)
		if err != nil {
			return nil, fmt.Errorf("create recipe: %w", err)
		}
	default:
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	created := make([]database.RecipeLine, 0, len(lines))
	cost := decimal.Zero
	for _, line := range lines {
		row, err := store.CreateRecipeLine(ctx, database.CreateRecipeLineParams{
			RecipeID:     recipe.ID,
			IngredientID: line.IngredientID,
			Quantity:     decimalToQtyNumeric(line.Quantity),
		})
		if err != nil {
			return nil, fmt.Errorf("create recipe line: %w", err)
		}
		created = append(created, row)

		ing, err := store.GetIngredient(ctx, line.IngredientID)
		if err != nil {
			return nil, fmt.Errorf("get ingredient: %w", err)
		}
		cost = cost.Add(line.Quantity.Mul(numericToDecimal(ing.CostPerUnit)))
	}

	// The new ingredient set may change what is makeable from current stock.
	for _, line := range lines {
		if err := s.bom.ReevaluateTx(ctx, tx, line.IngredientID); err != nil {
			return nil, fmt.Errorf("reevaluate menu items: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &RecipeDetail{Recipe: recipe, Lines: created, StandardCost: cost}, nil
}

// DeleteRecipe removes the menu item's recipe and its lines.
func (s *RecipeService) DeleteRecipe(ctx context.Context, menuItemID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	recipe, err := store.GetRecipeByMenuItem(ctx, menuItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("get recipe: %w", err)
	}

	if err := store.DeleteRecipeLines(ctx, recipe.ID); err != nil {
		return fmt.Errorf("delete recipe lines: %w", err)
	}
	if err := store.DeleteRecipe(ctx, recipe.ID); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}

	return tx.Commit(ctx)
}
