package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/enum"
)

// Errors returned by the BOM resolver.
var (
	ErrInsufficientStock = errors.New("insufficient stock")
)

// BOMStore defines the DB methods needed to resolve recipes against stock.
// Satisfied by *database.Queries (and its WithTx variant).
type BOMStore interface {
	ListRecipeLinesByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]database.RecipeLine, error)
	ListMenuItemsUsingIngredient(ctx context.Context, ingredientID uuid.UUID) ([]database.MenuItem, error)
	GetInventoryLevel(ctx context.Context, ingredientID uuid.UUID) (database.InventoryLevel, error)
	GetInventoryLevelForUpdate(ctx context.Context, ingredientID uuid.UUID) (database.InventoryLevel, error)
	SetInventoryQuantity(ctx context.Context, arg database.SetInventoryQuantityParams) (database.InventoryLevel, error)
	CreateInventoryLog(ctx context.Context, arg database.CreateInventoryLogParams) (database.InventoryLog, error)
	UpdateMenuItemStatus(ctx context.Context, arg database.UpdateMenuItemStatusParams) (database.MenuItem, error)
}

// NewBOMStore creates a BOMStore from a DBTX (pool or tx).
type NewBOMStore func(db database.DBTX) BOMStore

// Requirement is one ingredient demand after recipe explosion.
type Requirement struct {
	IngredientID uuid.UUID
	Quantity     decimal.Decimal
}

// Required explodes recipe lines for n servings. Pure math, no IO.
func Required(lines []database.RecipeLine, n int32) []Requirement {
	reqs := make([]Requirement, 0, len(lines))
	for _, line := range lines {
		reqs = append(reqs, Requirement{
			IngredientID: line.IngredientID,
			Quantity:     numericToDecimal(line.Quantity).Mul(decimal.NewFromInt32(n)),
		})
	}
	return reqs
}

// BOMResolver answers availability questions and applies recipe deductions.
type BOMResolver struct {
	newStore NewBOMStore
}

func NewBOMResolver(newStore NewBOMStore) *BOMResolver {
	return &BOMResolver{newStore: newStore}
}

// CheckAvailability reports whether qty servings of the menu item can be made
// from current stock. An item with no recipe is always available. A recipe
// line whose ingredient has no inventory row counts as unavailable.
func (r *BOMResolver) CheckAvailability(ctx context.Context, db database.DBTX, menuItemID uuid.UUID, qty int32) (bool, error) {
	store := r.newStore(db)

	lines, err := store.ListRecipeLinesByMenuItem(ctx, menuItemID)
	if err != nil {
		return false, fmt.Errorf("list recipe lines: %w", err)
	}
	if len(lines) == 0 {
		return true, nil
	}

	for _, req := range Required(lines, qty) {
		level, err := store.GetInventoryLevel(ctx, req.IngredientID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				log.Warn().
					Str("menu_item_id", menuItemID.String()).
					Str("ingredient_id", req.IngredientID.String()).
					Msg("recipe ingredient has no inventory level")
				return false, nil
			}
			return false, fmt.Errorf("get inventory level: %w", err)
		}
		if numericToDecimal(level.QuantityOnHand).LessThan(req.Quantity) {
			return false, nil
		}
	}
	return true, nil
}

// DeductTx deducts the exploded ingredient quantities for qty servings and
// returns the touched ingredient IDs so the caller can re-evaluate
// availability. Each level row is locked before the write; the caller owns
// the transaction.
func (r *BOMResolver) DeductTx(ctx context.Context, tx pgx.Tx, menuItemID uuid.UUID, qty int32, actor uuid.UUID, referenceID uuid.UUID) ([]uuid.UUID, error) {
	store := r.newStore(tx)

	lines, err := store.ListRecipeLinesByMenuItem(ctx, menuItemID)
	if err != nil {
		return nil, fmt.Errorf("list recipe lines: %w", err)
	}

	var touched []uuid.UUID
	for _, req := range Required(lines, qty) {
		level, err := store.GetInventoryLevelForUpdate(ctx, req.IngredientID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("ingredient %s: %w", req.IngredientID, ErrInsufficientStock)
			}
			return nil, fmt.Errorf("lock inventory level: %w", err)
		}

		onHand := numericToDecimal(level.QuantityOnHand)
		if onHand.LessThan(req.Quantity) {
			return nil, fmt.Errorf("ingredient %s: %w", req.IngredientID, ErrInsufficientStock)
		}
		after := onHand.Sub(req.Quantity)

		if _, err := store.SetInventoryQuantity(ctx, database.SetInventoryQuantityParams{
			IngredientID:   req.IngredientID,
			QuantityOnHand: decimalToQtyNumeric(after),
		}); err != nil {
			return nil, fmt.Errorf("set inventory quantity: %w", err)
		}

		if _, err := store.CreateInventoryLog(ctx, database.CreateInventoryLogParams{
			IngredientID:   req.IngredientID,
			ChangeType:     enum.ChangeTypeDeduction,
			QuantityChange: decimalToQtyNumeric(req.Quantity.Neg()),
			QuantityAfter:  decimalToQtyNumeric(after),
			ReferenceID:    pgtype.UUID{Bytes: referenceID, Valid: true},
			CreatedBy:      actor,
		}); err != nil {
			return nil, fmt.Errorf("create inventory log: %w", err)
		}
		touched = append(touched, req.IngredientID)
	}
	return touched, nil
}

// ReevaluateTx flips ACTIVE/OUT_OF_STOCK for menu items whose recipes use the
// ingredient, based on availability for one serving. INACTIVE items are never
// touched (the store query excludes them).
func (r *BOMResolver) ReevaluateTx(ctx context.Context, tx pgx.Tx, ingredientID uuid.UUID) error {
	store := r.newStore(tx)

	items, err := store.ListMenuItemsUsingIngredient(ctx, ingredientID)
	if err != nil {
		return fmt.Errorf("list menu items using ingredient: %w", err)
	}

	for _, item := range items {
		available, err := r.CheckAvailability(ctx, tx, item.ID, 1)
		if err != nil {
			return fmt.Errorf("check availability for %s: %w", item.ID, err)
		}

		want := enum.MenuItemStatusActive
		if !available {
			want = enum.MenuItemStatusOutOfStock
		}
		if item.Status == want {
			continue
		}

		if _, err := store.UpdateMenuItemStatus(ctx, database.UpdateMenuItemStatusParams{
			ID:     item.ID,
			Status: want,
		}); err != nil {
			return fmt.Errorf("update menu item status: %w", err)
		}
	}
	return nil
}

// StandardCost computes the recipe cost for one serving:
// sum of line quantity times ingredient cost per unit.
func StandardCost(lines []database.RecipeLine, costs map[uuid.UUID]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(numericToDecimal(line.Quantity).Mul(costs[line.IngredientID]))
	}
	return total
}
