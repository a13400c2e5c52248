package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/enum"
)

// Errors returned by the stock-take service.
var (
	ErrStockTakeNotFound = errors.New("stock take not found")
	ErrStockTakeNotDraft = errors.New("stock take is not in draft")
	ErrCountNotInTicket  = errors.New("ingredient is not part of this stock take")
)

// StockTakeStore defines the DB methods needed by the stock-take service.
type StockTakeStore interface {
	CreateStockTake(ctx context.Context, arg database.CreateStockTakeParams) (database.StockTake, error)
	GetStockTakeForUpdate(ctx context.Context, id uuid.UUID) (database.StockTake, error)
	UpdateStockTakeStatus(ctx context.Context, arg database.UpdateStockTakeStatusParams) (database.StockTake, error)
	FinalizeStockTake(ctx context.Context, arg database.FinalizeStockTakeParams) (database.StockTake, error)
	GetNextStockTakeSequence(ctx context.Context, prefix string) (int64, error)
	CreateStockTakeLine(ctx context.Context, arg database.CreateStockTakeLineParams) (database.StockTakeLine, error)
	ListStockTakeLines(ctx context.Context, stockTakeID uuid.UUID) ([]database.StockTakeLine, error)
	UpdateStockTakeLineCount(ctx context.Context, arg database.UpdateStockTakeLineCountParams) (database.StockTakeLine, error)
	ListInventoryLevels(ctx context.Context) ([]database.ListInventoryLevelsRow, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (database.Ingredient, error)
	GetInventoryLevelForUpdate(ctx context.Context, ingredientID uuid.UUID) (database.InventoryLevel, error)
	SetInventoryQuantity(ctx context.Context, arg database.SetInventoryQuantityParams) (database.InventoryLevel, error)
	CreateInventoryLog(ctx context.Context, arg database.CreateInventoryLogParams) (database.InventoryLog, error)
}

// NewStockTakeStore creates a StockTakeStore from a DBTX (pool or tx).
type NewStockTakeStore func(db database.DBTX) StockTakeStore

// StockTakeService reconciles counted stock against the book quantities.
type StockTakeService struct {
	pool     TxBeginner
	newStore NewStockTakeStore
	bom      *BOMResolver
}

func NewStockTakeService(pool TxBeginner, newStore NewStockTakeStore, bom *BOMResolver) *StockTakeService {
	return &StockTakeService{pool: pool, newStore: newStore, bom: bom}
}

// StockTakeResult is a ticket with its lines.
type StockTakeResult struct {
	StockTake database.StockTake
	Lines     []database.StockTakeLine
}

// Create opens a draft ticket snapshotting every inventory level. Actual
// counts default to the snapshot.
func (s *StockTakeService) Create(ctx context.Context, notes string, actor uuid.UUID) (*StockTakeResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	prefix := "ST-" + time.Now().Format("20060102") + "-"
	seq, err := store.GetNextStockTakeSequence(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("get next stock take sequence: %w", err)
	}
	code := fmt.Sprintf("%s%03d", prefix, seq)

	ticket, err := store.CreateStockTake(ctx, database.CreateStockTakeParams{
		Code:      code,
		Status:    enum.StockTakeStatusDraft,
		Notes:     textOrNull(notes),
		CreatedBy: actor,
	})
	if err != nil {
		return nil, fmt.Errorf("create stock take: %w", err)
	}

	levels, err := store.ListInventoryLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inventory levels: %w", err)
	}

	lines := make([]database.StockTakeLine, 0, len(levels))
	for _, level := range levels {
		line, err := store.CreateStockTakeLine(ctx, database.CreateStockTakeLineParams{
			StockTakeID:  ticket.ID,
			IngredientID: level.IngredientID,
			SnapshotQty:  level.QuantityOnHand,
			ActualQty:    level.QuantityOnHand,
			Variance:     decimalToQtyNumeric(decimal.Zero),
		})
		if err != nil {
			return nil, fmt.Errorf("create stock take line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &StockTakeResult{StockTake: ticket, Lines: lines}, nil
}

// Count is one submitted ingredient count.
type Count struct {
	IngredientID uuid.UUID
	ActualQty    decimal.Decimal
}

// SaveCounts stores counted quantities on a draft ticket, recomputing each
// row's variance against its snapshot.
func (s *StockTakeService) SaveCounts(ctx context.Context, stockTakeID uuid.UUID, counts []Count) (*StockTakeResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	ticket, err := s.lockDraft(ctx, store, stockTakeID)
	if err != nil {
		return nil, err
	}

	existing, err := store.ListStockTakeLines(ctx, stockTakeID)
	if err != nil {
		return nil, fmt.Errorf("list stock take lines: %w", err)
	}
	byIngredient := make(map[uuid.UUID]database.StockTakeLine, len(existing))
	for _, line := range existing {
		byIngredient[line.IngredientID] = line
	}

	for _, c := range counts {
		if c.ActualQty.IsNegative() {
			return nil, ErrNegativeQuantity
		}
		line, ok := byIngredient[c.IngredientID]
		if !ok {
			return nil, fmt.Errorf("ingredient %s: %w", c.IngredientID, ErrCountNotInTicket)
		}
		variance := c.ActualQty.Sub(numericToDecimal(line.SnapshotQty))
		if _, err := store.UpdateStockTakeLineCount(ctx, database.UpdateStockTakeLineCountParams{
			StockTakeID:  stockTakeID,
			IngredientID: c.IngredientID,
			ActualQty:    decimalToQtyNumeric(c.ActualQty),
			Variance:     decimalToQtyNumeric(variance),
		}); err != nil {
			return nil, fmt.Errorf("update stock take line: %w", err)
		}
	}

	lines, err := store.ListStockTakeLines(ctx, stockTakeID)
	if err != nil {
		return nil, fmt.Errorf("list stock take lines: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &StockTakeResult{StockTake: ticket, Lines: lines}, nil
}

// Finalize overwrites every counted level with its actual quantity, logs the
// corrections, totals the variance value, and completes the ticket.
// Dependent menu items are re-evaluated in the same transaction.
func (s *StockTakeService) Finalize(ctx context.Context, stockTakeID uuid.UUID, actor uuid.UUID) (*StockTakeResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := s.lockDraft(ctx, store, stockTakeID); err != nil {
		return nil, err
	}

	lines, err := store.ListStockTakeLines(ctx, stockTakeID)
	if err != nil {
		return nil, fmt.Errorf("list stock take lines: %w", err)
	}

	varianceTotal := decimal.Zero
	for _, line := range lines {
		actual := numericToDecimal(line.ActualQty)
		variance := numericToDecimal(line.Variance)

		ing, err := store.GetIngredient(ctx, line.IngredientID)
		if err != nil {
			return nil, fmt.Errorf("get ingredient %s: %w", line.IngredientID, err)
		}
		varianceTotal = varianceTotal.Add(variance.Mul(numericToDecimal(ing.CostPerUnit)))

		level, err := store.GetInventoryLevelForUpdate(ctx, line.IngredientID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("ingredient %s: %w", line.IngredientID, ErrIngredientNotFound)
			}
			return nil, fmt.Errorf("lock inventory level: %w", err)
		}

		delta := actual.Sub(numericToDecimal(level.QuantityOnHand))
		if _, err := store.SetInventoryQuantity(ctx, database.SetInventoryQuantityParams{
			IngredientID:   line.IngredientID,
			QuantityOnHand: decimalToQtyNumeric(actual),
		}); err != nil {
			return nil, fmt.Errorf("set inventory quantity: %w", err)
		}

		if _, err := store.CreateInventoryLog(ctx, database.CreateInventoryLogParams{
			IngredientID:   line.IngredientID,
			ChangeType:     enum.ChangeTypeStockTake,
			QuantityChange: decimalToQtyNumeric(delta),
			QuantityAfter:  decimalToQtyNumeric(actual),
			ReferenceID:    pgtype.UUID{Bytes: stockTakeID, Valid: true},
			CreatedBy:      actor,
		}); err != nil {
			return nil, fmt.Errorf("create inventory log: %w", err)
		}

		if err := s.bom.ReevaluateTx(ctx, tx, line.IngredientID); err != nil {
			return nil, fmt.Errorf("reevaluate menu items: %w", err)
		}
	}

	ticket, err := store.FinalizeStockTake(ctx, database.FinalizeStockTakeParams{
		ID:            stockTakeID,
		Status:        enum.StockTakeStatusCompleted,
		VarianceTotal: decimalToNumeric(varianceTotal),
	})
	if err != nil {
		return nil, fmt.Errorf("finalize stock take: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &StockTakeResult{StockTake: ticket, Lines: lines}, nil
}

// Cancel discards a draft ticket without touching inventory.
func (s *StockTakeService) Cancel(ctx context.Context, stockTakeID uuid.UUID) (*database.StockTake, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := s.lockDraft(ctx, store, stockTakeID); err != nil {
		return nil, err
	}

	ticket, err := store.UpdateStockTakeStatus(ctx, database.UpdateStockTakeStatusParams{
		ID:     stockTakeID,
		Status: enum.StockTakeStatusCancelled,
	})
	if err != nil {
		return nil, fmt.Errorf("cancel stock take: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &ticket, nil
}

func (s *StockTakeService) lockDraft(ctx context.Context, store StockTakeStore, id uuid.UUID) (database.StockTake, error) {
	ticket, err := store.GetStockTakeForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.StockTake{}, ErrStockTakeNotFound
		}
		return database.StockTake{}, fmt.Errorf("lock stock take: %w", err)
	}
	if ticket.Status != enum.StockTakeStatusDraft {
		return database.StockTake{}, fmt.Errorf("%w: %s", ErrStockTakeNotDraft, ticket.Status)
	}
	return ticket, nil
}
