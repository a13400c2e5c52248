package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/enum"
	"github.com/fami-pos/api/internal/ws"
)

// Errors returned by the kitchen service.
var (
	ErrLineTerminal  = errors.New("line is in a terminal status")
	ErrNothingToUndo = errors.New("line has no transitions to undo")
	ErrUnknownStatus = errors.New("unknown line status")
)

// KitchenStore defines the DB methods needed by the kitchen service.
type KitchenStore interface {
	GetOrderLineForUpdate(ctx context.Context, id uuid.UUID) (database.OrderLine, error)
	UpdateOrderLineStatus(ctx context.Context, arg database.UpdateOrderLineStatusParams) (database.OrderLine, error)
	CreateStatusHistory(ctx context.Context, arg database.CreateStatusHistoryParams) (database.StatusHistory, error)
	GetLatestStatusHistory(ctx context.Context, orderLineID uuid.UUID) (database.StatusHistory, error)
	ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error)
	UpdateOrderTotal(ctx context.Context, arg database.UpdateOrderTotalParams) (database.Order, error)
}

// NewKitchenStore creates a KitchenStore from a DBTX (pool or tx).
type NewKitchenStore func(db database.DBTX) KitchenStore

// KitchenService drives per-line status transitions for the kitchen display.
type KitchenService struct {
	pool     TxBeginner
	newStore NewKitchenStore
	hub      Broadcaster
}

func NewKitchenService(pool TxBeginner, newStore NewKitchenStore, hub Broadcaster) *KitchenService {
	return &KitchenService{pool: pool, newStore: newStore, hub: hub}
}

// UpdateLineStatus moves a line to newStatus. Same-status updates return the
// line unchanged without a history row. Every applied transition appends to
// the line's status history.
func (s *KitchenService) UpdateLineStatus(ctx context.Context, lineID uuid.UUID, newStatus, reason string, actor uuid.UUID) (*database.OrderLine, error) {
	if !enum.IsValidLineStatus(newStatus) {
		return nil, ErrUnknownStatus
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	line, err := store.GetOrderLineForUpdate(ctx, lineID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLineNotFound
		}
		return nil, fmt.Errorf("lock order line: %w", err)
	}

	if line.Status == newStatus {
		return &line, nil
	}
	if enum.LineStatusTerminal(line.Status) {
		return nil, fmt.Errorf("%w: %s", ErrLineTerminal, line.Status)
	}
	if !enum.LineTransitionAllowed(line.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, line.Status, newStatus)
	}

	updated, err := s.applyTransition(ctx, store, line, newStatus, reason, actor)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.notifyAfterTransition(updated, reason)

	return &updated, nil
}

// UndoLineStatus reverts the line to the previous status on record. The
// revert is itself a logged transition, never a silent rollback.
func (s *KitchenService) UndoLineStatus(ctx context.Context, lineID uuid.UUID, actor uuid.UUID) (*database.OrderLine, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	line, err := store.GetOrderLineForUpdate(ctx, lineID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLineNotFound
		}
		return nil, fmt.Errorf("lock order line: %w", err)
	}

	latest, err := store.GetLatestStatusHistory(ctx, lineID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNothingToUndo
		}
		return nil, fmt.Errorf("get latest status history: %w", err)
	}

	updated, err := s.applyTransition(ctx, store, line, latest.OldStatus, "undo", actor)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &updated, nil
}

// applyTransition writes the new status and its history row. Cancelling a
// line recomputes the parent order total.
func (s *KitchenService) applyTransition(ctx context.Context, store KitchenStore, line database.OrderLine, newStatus, reason string, actor uuid.UUID) (database.OrderLine, error) {
	updated, err := store.UpdateOrderLineStatus(ctx, database.UpdateOrderLineStatusParams{
		ID:     line.ID,
		Status: newStatus,
	})
	if err != nil {
		return database.OrderLine{}, fmt.Errorf("update line status: %w", err)
	}

	if _, err := store.CreateStatusHistory(ctx, database.CreateStatusHistoryParams{
		OrderLineID: line.ID,
		OldStatus:   line.Status,
		NewStatus:   newStatus,
		Reason:      textOrNull(reason),
		ChangedBy:   actor,
	}); err != nil {
		return database.OrderLine{}, fmt.Errorf("create status history: %w", err)
	}

	// Entering or leaving CANCELLED changes which lines count toward the
	// order total, so both directions recompute it.
	if newStatus == enum.LineStatusCancelled || line.Status == enum.LineStatusCancelled {
		lines, err := store.ListOrderLines(ctx, line.OrderID)
		if err != nil {
			return database.OrderLine{}, fmt.Errorf("list order lines: %w", err)
		}
		total := decimal.Zero
		for _, l := range lines {
			if l.Status == enum.LineStatusCancelled {
				continue
			}
			total = total.Add(numericToDecimal(l.TotalPrice))
		}
		if _, err := store.UpdateOrderTotal(ctx, database.UpdateOrderTotalParams{
			ID:          line.OrderID,
			TotalAmount: decimalToNumeric(total),
		}); err != nil {
			return database.OrderLine{}, fmt.Errorf("update order total: %w", err)
		}
	}

	return updated, nil
}

func (s *KitchenService) notifyAfterTransition(line database.OrderLine, reason string) {
	if s.hub == nil {
		return
	}
	switch line.Status {
	case enum.LineStatusReady:
		data, _ := json.Marshal(map[string]string{
			"line_id":  line.ID.String(),
			"order_id": line.OrderID.String(),
		})
		s.hub.BroadcastToGroup(ws.GroupCashier, ws.Event{Type: "ORDER_READY", Data: data})
	case enum.LineStatusCancelled:
		data, _ := json.Marshal(map[string]string{
			"line_id":  line.ID.String(),
			"order_id": line.OrderID.String(),
			"reason":   reason,
		})
		s.hub.BroadcastToGroup(ws.GroupCashier, ws.Event{Type: "ORDER_CANCELLED", Data: data})
	}
}
