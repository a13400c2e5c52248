package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/enum"
)

// Errors returned by the inventory service.
var (
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrMenuItemNotFound   = errors.New("menu item not found")
	ErrNegativeQuantity   = errors.New("quantity must not be negative")
	ErrInvalidReasonCode  = errors.New("invalid or inactive reason code")
	ErrInvalidWasteTarget = errors.New("waste target must be an ingredient or a menu item")
	ErrIngredientInUse    = errors.New("ingredient is referenced by a recipe")
	ErrIngredientHasStock = errors.New("ingredient still has stock on hand")
)

// Waste target types.
const (
	WasteTargetIngredient = "INGREDIENT"
	WasteTargetMenuItem   = "MENU_ITEM"
)

// InventoryStore defines the DB methods needed by the inventory service.
type InventoryStore interface {
	GetIngredient(ctx context.Context, id uuid.UUID) (database.Ingredient, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetInventoryLevelForUpdate(ctx context.Context, ingredientID uuid.UUID) (database.InventoryLevel, error)
	SetInventoryQuantity(ctx context.Context, arg database.SetInventoryQuantityParams) (database.InventoryLevel, error)
	CreateInventoryLog(ctx context.Context, arg database.CreateInventoryLogParams) (database.InventoryLog, error)
	GetReasonCodeByCode(ctx context.Context, code string) (database.ReasonCode, error)
	CreateWasteReport(ctx context.Context, arg database.CreateWasteReportParams) (database.WasteReport, error)
	ListRecipeLinesByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]database.RecipeLine, error)
	CountRecipeLinesByIngredient(ctx context.Context, ingredientID uuid.UUID) (int64, error)
	GetInventoryLevel(ctx context.Context, ingredientID uuid.UUID) (database.InventoryLevel, error)
	DeleteIngredient(ctx context.Context, id uuid.UUID) error
}

// NewInventoryStore creates an InventoryStore from a DBTX (pool or tx).
type NewInventoryStore func(db database.DBTX) InventoryStore

// InventoryService owns stock adjustments and waste reporting.
type InventoryService struct {
	pool     TxBeginner
	newStore NewInventoryStore
	bom      *BOMResolver
}

func NewInventoryService(pool TxBeginner, newStore NewInventoryStore, bom *BOMResolver) *InventoryService {
	return &InventoryService{pool: pool, newStore: newStore, bom: bom}
}

// AdjustResult reports the applied adjustment.
type AdjustResult struct {
	Level database.InventoryLevel
	Log   database.InventoryLog
}

// Adjust overwrites an ingredient's on-hand quantity, logging the delta and
// re-evaluating availability of dependent menu items in the same transaction.
func (s *InventoryService) Adjust(ctx context.Context, ingredientID uuid.UUID, newQty decimal.Decimal, reason string, actor uuid.UUID) (*AdjustResult, error) {
	if newQty.IsNegative() {
		return nil, ErrNegativeQuantity
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	level, err := store.GetInventoryLevelForUpdate(ctx, ingredientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIngredientNotFound
		}
		return nil, fmt.Errorf("lock inventory level: %w", err)
	}

	delta := newQty.Sub(numericToDecimal(level.QuantityOnHand))

	logRow, err := store.CreateInventoryLog(ctx, database.CreateInventoryLogParams{
		IngredientID:   ingredientID,
		ChangeType:     enum.ChangeTypeAdjustment,
		QuantityChange: decimalToQtyNumeric(delta),
		QuantityAfter:  decimalToQtyNumeric(newQty),
		Reason:         textOrNull(reason),
		CreatedBy:      actor,
	})
	if err != nil {
		return nil, fmt.Errorf("create inventory log: %w", err)
	}

	updated, err := store.SetInventoryQuantity(ctx, database.SetInventoryQuantityParams{
		IngredientID:   ingredientID,
		QuantityOnHand: decimalToQtyNumeric(newQty),
	})
	if err != nil {
		return nil, fmt.Errorf("set inventory quantity: %w", err)
	}

	if err := s.bom.ReevaluateTx(ctx, tx, ingredientID); err != nil {
		return nil, fmt.Errorf("reevaluate menu items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &AdjustResult{Level: updated, Log: logRow}, nil
}

// WasteRequest describes a waste event to record.
type WasteRequest struct {
	TargetType   string
	IngredientID uuid.UUID
	MenuItemID   uuid.UUID
	Quantity     decimal.Decimal
	ReasonCode   string
	Actor        uuid.UUID
}

// ReportWaste records a waste event and deducts stock. Ingredient targets are
// deducted directly; menu item targets deduct through the recipe. Loss value
// is the sum of deducted quantity times ingredient cost.
func (s *InventoryService) ReportWaste(ctx context.Context, req WasteRequest) (*database.WasteReport, error) {
	if req.Quantity.IsNegative() || req.Quantity.IsZero() {
		return nil, ErrNegativeQuantity
	}
	if req.TargetType != WasteTargetIngredient && req.TargetType != WasteTargetMenuItem {
		return nil, ErrInvalidWasteTarget
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	rc, err := store.GetReasonCodeByCode(ctx, req.ReasonCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidReasonCode
		}
		return nil, fmt.Errorf("get reason code: %w", err)
	}
	if !rc.IsActive {
		return nil, ErrInvalidReasonCode
	}

	var (
		lossValue    decimal.Decimal
		ingredientID pgtype.UUID
		menuItemID   pgtype.UUID
		touched      []uuid.UUID
	)

	switch req.TargetType {
	case WasteTargetIngredient:
		ing, err := store.GetIngredient(ctx, req.IngredientID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrIngredientNotFound
			}
			return nil, fmt.Errorf("get ingredient: %w", err)
		}

		if err := s.deductIngredient(ctx, store, ing.ID, req.Quantity, req.Actor); err != nil {
			return nil, err
		}

		lossValue = req.Quantity.Mul(numericToDecimal(ing.CostPerUnit))
		ingredientID = pgtype.UUID{Bytes: ing.ID, Valid: true}
		touched = append(touched, ing.ID)

	case WasteTargetMenuItem:
		item, err := store.GetMenuItem(ctx, req.MenuItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrMenuItemNotFound
			}
			return nil, fmt.Errorf("get menu item: %w", err)
		}

		lines, err := store.ListRecipeLinesByMenuItem(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("list recipe lines: %w", err)
		}

		// Whole-unit waste: explode the recipe and deduct each ingredient.
		qty := int32(req.Quantity.IntPart())
		if qty < 1 {
			qty = 1
		}
		for _, need := range Required(lines, qty) {
			ing, err := store.GetIngredient(ctx, need.IngredientID)
			if err != nil {
				return nil, fmt.Errorf("get ingredient %s: %w", need.IngredientID, err)
			}
			if err := s.deductIngredient(ctx, store, need.IngredientID, need.Quantity, req.Actor); err != nil {
				return nil, err
			}
			lossValue = lossValue.Add(need.Quantity.Mul(numericToDecimal(ing.CostPerUnit)))
			touched = append(touched, need.IngredientID)
		}
		menuItemID = pgtype.UUID{Bytes: item.ID, Valid: true}
	}

	report, err := store.CreateWasteReport(ctx, database.CreateWasteReportParams{
		TargetType:   req.TargetType,
		IngredientID: ingredientID,
		MenuItemID:   menuItemID,
		Quantity:     decimalToQtyNumeric(req.Quantity),
		ReasonCodeID: rc.ID,
		LossValue:    decimalToNumeric(lossValue),
		ReportedBy:   req.Actor,
	})
	if err != nil {
		return nil, fmt.Errorf("create waste report: %w", err)
	}

	for _, id := range touched {
		if err := s.bom.ReevaluateTx(ctx, tx, id); err != nil {
			return nil, fmt.Errorf("reevaluate menu items: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &report, nil
}

// DeleteIngredient removes an ingredient that is not referenced by any recipe
// and has no stock on hand.
func (s *InventoryService) DeleteIngredient(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetIngredient(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrIngredientNotFound
		}
		return fmt.Errorf("get ingredient: %w", err)
	}

	count, err := store.CountRecipeLinesByIngredient(ctx, id)
	if err != nil {
		return fmt.Errorf("count recipe lines: %w", err)
	}
	if count > 0 {
		return ErrIngredientInUse
	}

	level, err := store.GetInventoryLevel(ctx, id)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("get inventory level: %w", err)
	}
	if err == nil && numericToDecimal(level.QuantityOnHand).IsPositive() {
		return ErrIngredientHasStock
	}

	if err := store.DeleteIngredient(ctx, id); err != nil {
		return fmt.Errorf("delete ingredient: %w", err)
	}

	return tx.Commit(ctx)
}

// deductIngredient locks the level row, clamps at zero, writes the WASTE log.
func (s *InventoryService) deductIngredient(ctx context.Context, store InventoryStore, ingredientID uuid.UUID, qty decimal.Decimal, actor uuid.UUID) error {
	level, err := store.GetInventoryLevelForUpdate(ctx, ingredientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrIngredientNotFound
		}
		return fmt.Errorf("lock inventory level: %w", err)
	}

	onHand := numericToDecimal(level.QuantityOnHand)
	after := onHand.Sub(qty)
	if after.IsNegative() {
		after = decimal.Zero
	}

	if _, err := store.SetInventoryQuantity(ctx, database.SetInventoryQuantityParams{
		IngredientID:   ingredientID,
		QuantityOnHand: decimalToQtyNumeric(after),
	}); err != nil {
		return fmt.Errorf("set inventory quantity: %w", err)
	}

	if _, err := store.CreateInventoryLog(ctx, database.CreateInventoryLogParams{
		IngredientID:   ingredientID,
		ChangeType:     enum.ChangeTypeWaste,
		QuantityChange: decimalToQtyNumeric(qty.Neg()),
		QuantityAfter:  decimalToQtyNumeric(after),
		CreatedBy:      actor,
	}); err != nil {
		return fmt.Errorf("create inventory log: %w", err)
	}
	return nil
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
