package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/enum"
	"github.com/fami-pos/api/internal/ws"
)

const maxOrderNumberRetries = 3

// Partner prices further than this from ours flag the order for manual review.
var priceTolerance = decimal.NewFromFloat(0.05)

// Errors returned by the order service.
var (
	ErrRestaurantClosed    = errors.New("restaurant is closed")
	ErrTableNotFound       = errors.New("table not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrLineNotFound        = errors.New("order line not found")
	ErrMenuItemUnavailable = errors.New("menu item is not available")
	ErrEmptyOrder          = errors.New("order has no items")
	ErrInvalidQuantity     = errors.New("quantity must be > 0")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrExternalIDRequired  = errors.New("external_id is required")
	ErrSkuNotFound         = errors.New("unknown sku")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Broadcaster pushes events to display groups. Satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToGroup(group string, event ws.Event)
}

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetTableForUpdate(ctx context.Context, id uuid.UUID) (database.RestaurantTable, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.RestaurantTable, error)
	GetPendingOrderByTable(ctx context.Context, tableID uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderByExternalID(ctx context.Context, externalID string) (database.Order, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetNextOrderSequence(ctx context.Context, prefix string) (int64, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdateOrderTotal(ctx context.Context, arg database.UpdateOrderTotalParams) (database.Order, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetMenuItemBySku(ctx context.Context, sku string) (database.MenuItem, error)
	GetEffectivePrice(ctx context.Context, arg database.GetEffectivePriceParams) (database.MenuPricing, error)
	GetOpenLineByOrderAndItem(ctx context.Context, arg database.GetOpenLineByOrderAndItemParams) (database.OrderLine, error)
	CreateOrderLine(ctx context.Context, arg database.CreateOrderLineParams) (database.OrderLine, error)
	UpdateOrderLineQuantity(ctx context.Context, arg database.UpdateOrderLineQuantityParams) (database.OrderLine, error)
	UpdateOrderLineStatus(ctx context.Context, arg database.UpdateOrderLineStatusParams) (database.OrderLine, error)
	DeleteOrderLine(ctx context.Context, id uuid.UUID) error
	ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error)
	CreateStatusHistory(ctx context.Context, arg database.CreateStatusHistoryParams) (database.StatusHistory, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// OrderService handles cart and order lifecycle logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
	bom      *BOMResolver
	settings *SettingsService
	hub      Broadcaster
}

func NewOrderService(pool TxBeginner, newStore NewOrderStore, bom *BOMResolver, settings *SettingsService, hub Broadcaster) *OrderService {
	return &OrderService{pool: pool, newStore: newStore, bom: bom, settings: settings, hub: hub}
}

// CartResult is an order with its lines after a cart mutation.
type CartResult struct {
	Order database.Order
	Lines []database.OrderLine
}

// AddItem adds qty of a menu item to the table's open cart, creating the
// pending order on first add. Adding an item already in the cart increments
// its quantity; the unit price snapshot from the first add is kept.
func (s *OrderService) AddItem(ctx context.Context, tableID, menuItemID uuid.UUID, qty int32, notes string, actor uuid.UUID) (*CartResult, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	open, err := s.settings.IsRestaurantOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("check restaurant open: %w", err)
	}
	if !open {
		return nil, ErrRestaurantClosed
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.addItemTx(ctx, tableID, menuItemID, qty, notes, actor)
		if err == nil {
			return result, nil
		}
		if isUniqueViolation(err, "orders_order_number_key") {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func (s *OrderService) addItemTx(ctx context.Context, tableID, menuItemID uuid.UUID, qty int32, notes string, actor uuid.UUID) (*CartResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	table, err := store.GetTableForUpdate(ctx, tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("lock table: %w", err)
	}

	item, err := store.GetMenuItem(ctx, menuItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	if item.Status != enum.MenuItemStatusActive {
		return nil, ErrMenuItemUnavailable
	}

	order, err := store.GetPendingOrderByTable(ctx, tableID)
	if errors.Is(err, pgx.ErrNoRows) {
		order, err = s.createPendingOrder(ctx, store, table, actor)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("get pending order: %w", err)
	}

	unitPrice, err := s.snapshotPrice(ctx, store, item)
	if err != nil {
		return nil, err
	}

	line, err := store.GetOpenLineByOrderAndItem(ctx, database.GetOpenLineByOrderAndItemParams{
		OrderID:    order.ID,
		MenuItemID: menuItemID,
	})
	switch {
	case err == nil:
		newQty := line.Quantity + qty
		total := numericToDecimal(line.UnitPrice).Mul(decimal.NewFromInt32(newQty))
		if _, err := store.UpdateOrderLineQuantity(ctx, database.UpdateOrderLineQuantityParams{
			ID:         line.ID,
			Quantity:   newQty,
			TotalPrice: decimalToNumeric(total),
		}); err != nil {
			return nil, fmt.Errorf("update line quantity: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		total := unitPrice.Mul(decimal.NewFromInt32(qty))
		if _, err := store.CreateOrderLine(ctx, database.CreateOrderLineParams{
			OrderID:    order.ID,
			MenuItemID: menuItemID,
			Quantity:   qty,
			UnitPrice:  decimalToNumeric(unitPrice),
			TotalPrice: decimalToNumeric(total),
			Status:     enum.LineStatusPending,
			Notes:      textOrNull(notes),
		}); err != nil {
			return nil, fmt.Errorf("create order line: %w", err)
		}
	default:
		return nil, fmt.Errorf("get open line: %w", err)
	}

	order, lines, err := s.recomputeTotal(ctx, store, order.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CartResult{Order: order, Lines: lines}, nil
}

// RemoveItem decrements the item's line in the table's open cart, deleting
// the line when the quantity reaches zero.
func (s *OrderService) RemoveItem(ctx context.Context, tableID, menuItemID uuid.UUID, actor uuid.UUID) (*CartResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetTableForUpdate(ctx, tableID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("lock table: %w", err)
	}

	order, err := store.GetPendingOrderByTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get pending order: %w", err)
	}

	line, err := store.GetOpenLineByOrderAndItem(ctx, database.GetOpenLineByOrderAndItemParams{
		OrderID:    order.ID,
		MenuItemID: menuItemID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLineNotFound
		}
		return nil, fmt.Errorf("get open line: %w", err)
	}

	if line.Quantity <= 1 {
		if err := store.DeleteOrderLine(ctx, line.ID); err != nil {
			return nil, fmt.Errorf("delete order line: %w", err)
		}
	} else {
		newQty := line.Quantity - 1
		total := numericToDecimal(line.UnitPrice).Mul(decimal.NewFromInt32(newQty))
		if _, err := store.UpdateOrderLineQuantity(ctx, database.UpdateOrderLineQuantityParams{
			ID:         line.ID,
			Quantity:   newQty,
			TotalPrice: decimalToNumeric(total),
		}); err != nil {
			return nil, fmt.Errorf("update line quantity: %w", err)
		}
	}

	order, lines, err := s.recomputeTotal(ctx, store, order.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CartResult{Order: order, Lines: lines}, nil
}

// Submit moves a pending order to the kitchen: deducts recipe ingredients for
// every line, re-evaluates availability, and notifies the kitchen display.
func (s *OrderService) Submit(ctx context.Context, orderID, actor uuid.UUID) (*CartResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}

	if !enum.OrderTransitionAllowed(order.Status, enum.OrderStatusCooking) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, enum.OrderStatusCooking)
	}

	lines, err := store.ListOrderLines(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}

	active := activeLines(lines)
	if len(active) == 0 {
		return nil, ErrEmptyOrder
	}

	touched := map[uuid.UUID]bool{}
	for _, line := range active {
		ids, err := s.bom.DeductTx(ctx, tx, line.MenuItemID, line.Quantity, actor, orderID)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			touched[id] = true
		}
	}
	for id := range touched {
		if err := s.bom.ReevaluateTx(ctx, tx, id); err != nil {
			return nil, fmt.Errorf("reevaluate menu items: %w", err)
		}
	}

	order, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         orderID,
		Status:     enum.OrderStatusCooking,
		FromStatus: enum.OrderStatusPending,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order status changed", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.notifyKitchen("NEW_ORDER", order)

	return &CartResult{Order: order, Lines: lines}, nil
}

// Cancel cancels an order, cancelling its open lines with history rows and
// freeing the table.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, reason string, actor uuid.UUID) (*CartResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}

	if !enum.OrderTransitionAllowed(order.Status, enum.OrderStatusCancelled) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, enum.OrderStatusCancelled)
	}

	lines, err := store.ListOrderLines(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}

	for _, line := range lines {
		if enum.LineStatusTerminal(line.Status) {
			continue
		}
		if _, err := store.UpdateOrderLineStatus(ctx, database.UpdateOrderLineStatusParams{
			ID:     line.ID,
			Status: enum.LineStatusCancelled,
		}); err != nil {
			return nil, fmt.Errorf("cancel order line: %w", err)
		}
		if _, err := store.CreateStatusHistory(ctx, database.CreateStatusHistoryParams{
			OrderLineID: line.ID,
			OldStatus:   line.Status,
			NewStatus:   enum.LineStatusCancelled,
			Reason:      textOrNull(reason),
			ChangedBy:   actor,
		}); err != nil {
			return nil, fmt.Errorf("create status history: %w", err)
		}
	}

	cancelled, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         orderID,
		Status:     enum.OrderStatusCancelled,
		FromStatus: order.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order status changed", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if order.TableID.Valid {
		if _, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
			ID:     order.TableID.Bytes,
			Status: enum.TableStatusAvailable,
		}); err != nil {
			return nil, fmt.Errorf("free table: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.notifyKitchen("ORDER_CANCELLED", cancelled)

	return &CartResult{Order: cancelled, Lines: lines}, nil
}

// PartnerItem is one line of a third-party order.
type PartnerItem struct {
	Sku       string
	Quantity  int32
	UnitPrice decimal.Decimal
}

// PartnerOrderRequest is a third-party order to inject.
type PartnerOrderRequest struct {
	ExternalID string
	Items      []PartnerItem
	Notes      string
	Actor      uuid.UUID
}

// PartnerOrderResult reports the idempotent outcome.
type PartnerOrderResult struct {
	Order   database.Order
	Lines   []database.OrderLine
	Created bool
}

// CreatePartnerOrder injects a third-party order, idempotent on external_id.
// Partner prices more than 5% away from ours flag the order for manual
// review, which keeps it PENDING instead of sending it to the kitchen.
func (s *OrderService) CreatePartnerOrder(ctx context.Context, req PartnerOrderRequest) (*PartnerOrderResult, error) {
	if req.ExternalID == "" {
		return nil, ErrExternalIDRequired
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createPartnerOrderTx(ctx, req)
		if err == nil {
			return result, nil
		}
		// A concurrent request with the same external_id won the race:
		// the retry finds the existing order and returns it.
		if isUniqueViolation(err, "orders_external_id_key") ||
			isUniqueViolation(err, "orders_order_number_key") {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func (s *OrderService) createPartnerOrderTx(ctx context.Context, req PartnerOrderRequest) (*PartnerOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	existing, err := store.GetOrderByExternalID(ctx, req.ExternalID)
	if err == nil {
		lines, lerr := store.ListOrderLines(ctx, existing.ID)
		if lerr != nil {
			return nil, fmt.Errorf("list order lines: %w", lerr)
		}
		return &PartnerOrderResult{Order: existing, Lines: lines, Created: false}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get order by external id: %w", err)
	}

	needsReview := false
	type resolvedItem struct {
		item  database.MenuItem
		qty   int32
		price decimal.Decimal
	}
	resolved := make([]resolvedItem, 0, len(req.Items))

	for i, pi := range req.Items {
		if pi.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		item, err := store.GetMenuItemBySku(ctx, pi.Sku)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d] sku %q: %w", i, pi.Sku, ErrSkuNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get menu item: %w", i, err)
		}
		if item.Status != enum.MenuItemStatusActive {
			return nil, fmt.Errorf("items[%d] sku %q: %w", i, pi.Sku, ErrMenuItemUnavailable)
		}

		available, err := s.bom.CheckAvailability(ctx, tx, item.ID, pi.Quantity)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: check availability: %w", i, err)
		}
		if !available {
			return nil, fmt.Errorf("items[%d] sku %q: %w", i, pi.Sku, ErrMenuItemUnavailable)
		}

		ourPrice, err := s.snapshotPrice(ctx, store, item)
		if err != nil {
			return nil, err
		}
		if outsideTolerance(pi.UnitPrice, ourPrice) {
			needsReview = true
		}

		resolved = append(resolved, resolvedItem{item: item, qty: pi.Quantity, price: ourPrice})
	}

	orderNumber, err := s.nextOrderNumber(ctx, store)
	if err != nil {
		return nil, err
	}

	status := enum.OrderStatusPending
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber: orderNumber,
		Status:      status,
		TotalAmount: decimalToNumeric(decimal.Zero),
		Source:      "PARTNER",
		ExternalID:  pgtype.Text{String: req.ExternalID, Valid: true},
		NeedsReview: needsReview,
		Notes:       textOrNull(req.Notes),
		CreatedBy:   req.Actor,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	total := decimal.Zero
	for _, ri := range resolved {
		lineTotal := ri.price.Mul(decimal.NewFromInt32(ri.qty))
		if _, err := store.CreateOrderLine(ctx, database.CreateOrderLineParams{
			OrderID:    order.ID,
			MenuItemID: ri.item.ID,
			Quantity:   ri.qty,
			UnitPrice:  decimalToNumeric(ri.price),
			TotalPrice: decimalToNumeric(lineTotal),
			Status:     enum.LineStatusPending,
		}); err != nil {
			return nil, fmt.Errorf("create order line: %w", err)
		}
		total = total.Add(lineTotal)
	}

	order, err = store.UpdateOrderTotal(ctx, database.UpdateOrderTotalParams{
		ID:          order.ID,
		TotalAmount: decimalToNumeric(total),
	})
	if err != nil {
		return nil, fmt.Errorf("update order total: %w", err)
	}

	// Clean orders go straight to the kitchen; reviews stay PENDING.
	if !needsReview {
		touched := map[uuid.UUID]bool{}
		for _, ri := range resolved {
			ids, err := s.bom.DeductTx(ctx, tx, ri.item.ID, ri.qty, req.Actor, order.ID)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				touched[id] = true
			}
		}
		for id := range touched {
			if err := s.bom.ReevaluateTx(ctx, tx, id); err != nil {
				return nil, fmt.Errorf("reevaluate menu items: %w", err)
			}
		}
		order, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:         order.ID,
			Status:     enum.OrderStatusCooking,
			FromStatus: enum.OrderStatusPending,
		})
		if err != nil {
			return nil, fmt.Errorf("update order status: %w", err)
		}
	}

	lines, err := store.ListOrderLines(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.notifyKitchen("NEW_ORDER", order)

	return &PartnerOrderResult{Order: order, Lines: lines, Created: true}, nil
}

// SyncEntryResult is the per-entry outcome of an offline batch sync.
type SyncEntryResult struct {
	ExternalID string
	Status     string // created, skipped, failed
	OrderID    uuid.UUID
	Error      string
}

// SyncOrders replays a batch of offline orders. Each entry is idempotent on
// its external_id; failures don't abort the batch.
func (s *OrderService) SyncOrders(ctx context.Context, entries []PartnerOrderRequest) []SyncEntryResult {
	results := make([]SyncEntryResult, 0, len(entries))
	for _, entry := range entries {
		res, err := s.CreatePartnerOrder(ctx, entry)
		if err != nil {
			log.Error().Err(err).Str("external_id", entry.ExternalID).Msg("sync order failed")
			results = append(results, SyncEntryResult{
				ExternalID: entry.ExternalID,
				Status:     "failed",
				Error:      err.Error(),
			})
			continue
		}
		status := "created"
		if !res.Created {
			status = "skipped"
		}
		results = append(results, SyncEntryResult{
			ExternalID: entry.ExternalID,
			Status:     status,
			OrderID:    res.Order.ID,
		})
	}
	return results
}

// --- Helpers ---

func (s *OrderService) createPendingOrder(ctx context.Context, store OrderStore, table database.RestaurantTable, actor uuid.UUID) (database.Order, error) {
	orderNumber, err := s.nextOrderNumber(ctx, store)
	if err != nil {
		return database.Order{}, err
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber: orderNumber,
		TableID:     pgtype.UUID{Bytes: table.ID, Valid: true},
		Status:      enum.OrderStatusPending,
		TotalAmount: decimalToNumeric(decimal.Zero),
		Source:      "POS",
		CreatedBy:   actor,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("create order: %w", err)
	}

	if table.Status == enum.TableStatusAvailable {
		if _, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
			ID:     table.ID,
			Status: enum.TableStatusOccupied,
		}); err != nil {
			return database.Order{}, fmt.Errorf("occupy table: %w", err)
		}
	}
	return order, nil
}

func (s *OrderService) nextOrderNumber(ctx context.Context, store OrderStore) (string, error) {
	prefix := "ORD-" + time.Now().Format("20060102") + "-"
	seq, err := store.GetNextOrderSequence(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("get next order sequence: %w", err)
	}
	return fmt.Sprintf("%s%03d", prefix, seq), nil
}

// snapshotPrice resolves the price to freeze on a line: the current pricing
// row when one exists, else the display price.
func (s *OrderService) snapshotPrice(ctx context.Context, store OrderStore, item database.MenuItem) (decimal.Decimal, error) {
	pricing, err := store.GetEffectivePrice(ctx, database.GetEffectivePriceParams{
		MenuItemID: item.ID,
		AsOf:       time.Now(),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return numericToDecimal(item.Price), nil
		}
		return decimal.Zero, fmt.Errorf("get effective price: %w", err)
	}
	return numericToDecimal(pricing.SellingPrice), nil
}

// recomputeTotal sets total = sum of total_price over non-cancelled lines.
func (s *OrderService) recomputeTotal(ctx context.Context, store OrderStore, orderID uuid.UUID) (database.Order, []database.OrderLine, error) {
	lines, err := store.ListOrderLines(ctx, orderID)
	if err != nil {
		return database.Order{}, nil, fmt.Errorf("list order lines: %w", err)
	}

	total := decimal.Zero
	for _, line := range lines {
		if line.Status == enum.LineStatusCancelled {
			continue
		}
		total = total.Add(numericToDecimal(line.TotalPrice))
	}

	order, err := store.UpdateOrderTotal(ctx, database.UpdateOrderTotalParams{
		ID:          orderID,
		TotalAmount: decimalToNumeric(total),
	})
	if err != nil {
		return database.Order{}, nil, fmt.Errorf("update order total: %w", err)
	}
	return order, lines, nil
}

func (s *OrderService) notifyKitchen(eventType string, order database.Order) {
	if s.hub == nil {
		return
	}
	data, err := json.Marshal(map[string]string{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"status":       order.Status,
	})
	if err != nil {
		return
	}
	s.hub.BroadcastToGroup(ws.GroupKitchen, ws.Event{Type: eventType, Data: data})
}

func activeLines(lines []database.OrderLine) []database.OrderLine {
	var out []database.OrderLine
	for _, line := range lines {
		if line.Status != enum.LineStatusCancelled {
			out = append(out, line)
		}
	}
	return out
}

func outsideTolerance(theirs, ours decimal.Decimal) bool {
	if ours.IsZero() {
		return !theirs.IsZero()
	}
	diff := theirs.Sub(ours).Abs()
	return diff.Div(ours).GreaterThan(priceTolerance)
}

// isUniqueViolation checks for a pgconn 23505 on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	return false
}
