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
	"github.com/fami-pos/api/internal/gateway"
)

// Errors returned by the payment service.
var (
	ErrOrderAlreadyPaid  = errors.New("order is already paid")
	ErrOrderCancelled    = errors.New("order is cancelled")
	ErrInvalidMethod     = errors.New("invalid payment method")
	ErrPromoNotFound     = errors.New("promotion not found")
	ErrPromoNotActive    = errors.New("promotion is not active")
	ErrPromoExpired      = errors.New("promotion is outside its validity window")
	ErrInvalidPromoValue = errors.New("invalid promotion value")
	ErrInvalidPromoDates = errors.New("promotion end date before start date")
)

// PaymentStore defines the DB methods needed by the payment service.
type PaymentStore interface {
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdateOrderTotal(ctx context.Context, arg database.UpdateOrderTotalParams) (database.Order, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.RestaurantTable, error)
	GetPromotionByCode(ctx context.Context, code string) (database.Promotion, error)
	CreateTransaction(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error)
	CreateInvoice(ctx context.Context, arg database.CreateInvoiceParams) (database.Invoice, error)
	GetNextInvoiceSequence(ctx context.Context, prefix string) (int64, error)
}

// NewPaymentStore creates a PaymentStore from a DBTX (pool or tx).
type NewPaymentStore func(db database.DBTX) PaymentStore

// PaymentService settles orders: promotion resolution, gateway charges,
// transaction and invoice records.
type PaymentService struct {
	pool     TxBeginner
	newStore NewPaymentStore
	charger  gateway.Charger
}

func NewPaymentService(pool TxBeginner, newStore NewPaymentStore, charger gateway.Charger) *PaymentService {
	return &PaymentService{pool: pool, newStore: newStore, charger: charger}
}

// PaymentRequest describes a settlement attempt.
type PaymentRequest struct {
	OrderID   uuid.UUID
	Tendered  decimal.Decimal
	Method    string
	PromoCode string
	Actor     uuid.UUID
}

// PaymentResult reports the outcome. Success=false with a nil error is a
// recorded business failure (insufficient tender, declined charge); the
// failed transaction row is committed either way.
type PaymentResult struct {
	Success     bool
	Message     string
	Order       database.Order
	Transaction database.Transaction
	Invoice     *database.Invoice
	Change      decimal.Decimal
}

// ProcessPayment settles an order in one transaction with the order row
// locked at entry. On failure the order total is never mutated: the discount
// only persists when payment succeeds.
func (s *PaymentService) ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if !enum.IsValidPaymentMethod(req.Method) {
		return nil, ErrInvalidMethod
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// Lock before validating: concurrent payments serialize here.
	order, err := store.GetOrderForUpdate(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}

	switch order.Status {
	case enum.OrderStatusPaid:
		return nil, ErrOrderAlreadyPaid
	case enum.OrderStatusCancelled:
		return nil, ErrOrderCancelled
	}

	originalTotal := numericToDecimal(order.TotalAmount)

	// Resolve promotion.
	var (
		promoID  pgtype.UUID
		discount decimal.Decimal
	)
	if req.PromoCode != "" {
		p, err := s.resolvePromotion(ctx, store, req.PromoCode)
		if err != nil {
			return nil, err
		}
		promoID = pgtype.UUID{Bytes: p.ID, Valid: true}
		discount = ComputeDiscount(originalTotal, p.DiscountType, numericToDecimal(p.DiscountValue))
	}

	finalTotal := originalTotal.Sub(discount)

	// Insufficient tender: record the failure and commit, order untouched.
	if req.Tendered.LessThan(finalTotal) {
		return s.recordFailure(ctx, tx, store, order, req, promoID, discount, "insufficient tendered amount")
	}

	reference := pgtype.Text{}
	if req.Method != enum.PaymentMethodCash {
		result, err := s.charger.Charge(ctx, gateway.ChargeRequest{
			OrderID: order.ID,
			Amount:  finalTotal,
			Method:  req.Method,
		})
		if err != nil {
			return nil, fmt.Errorf("gateway charge: %w", err)
		}
		if !result.Approved {
			msg := result.Message
			if msg == "" {
				msg = "charge declined"
			}
			return s.recordFailure(ctx, tx, store, order, req, promoID, discount, msg)
		}
		reference = pgtype.Text{String: result.Reference, Valid: true}
	}

	change := decimal.Zero
	if req.Method == enum.PaymentMethodCash {
		change = req.Tendered.Sub(finalTotal)
		if change.IsNegative() {
			change = decimal.Zero
		}
	}

	txn, err := store.CreateTransaction(ctx, database.CreateTransactionParams{
		OrderID:         order.ID,
		Amount:          decimalToNumeric(finalTotal),
		TenderedAmount:  decimalToNumeric(req.Tendered),
		ChangeAmount:    decimalToNumeric(change),
		PaymentMethod:   req.Method,
		Status:          enum.TransactionStatusSuccess,
		ReferenceNumber: reference,
		PromotionID:     promoID,
		DiscountAmount:  decimalToNumeric(discount),
		ProcessedBy:     req.Actor,
	})
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	invoiceNumber, err := s.nextInvoiceNumber(ctx, store)
	if err != nil {
		return nil, err
	}
	invoice, err := store.CreateInvoice(ctx, database.CreateInvoiceParams{
		InvoiceNumber:  invoiceNumber,
		OrderID:        order.ID,
		OriginalTotal:  decimalToNumeric(originalTotal),
		DiscountAmount: decimalToNumeric(discount),
		FinalTotal:     decimalToNumeric(finalTotal),
		PromotionID:    promoID,
		PaymentMethod:  req.Method,
		CreatedBy:      req.Actor,
	})
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	// Discount persists on the order only now that payment succeeded.
	if discount.IsPositive() {
		if _, err := store.UpdateOrderTotal(ctx, database.UpdateOrderTotalParams{
			ID:          order.ID,
			TotalAmount: decimalToNumeric(finalTotal),
		}); err != nil {
			return nil, fmt.Errorf("update order total: %w", err)
		}
	}

	paid, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         order.ID,
		Status:     enum.OrderStatusPaid,
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

	return &PaymentResult{
		Success:     true,
		Order:       paid,
		Transaction: txn,
		Invoice:     &invoice,
		Change:      change,
	}, nil
}

// recordFailure commits a FAILED transaction row carrying the discount
// metadata and leaves the order untouched.
func (s *PaymentService) recordFailure(ctx context.Context, tx pgx.Tx, store PaymentStore, order database.Order, req PaymentRequest, promoID pgtype.UUID, discount decimal.Decimal, message string) (*PaymentResult, error) {
	finalTotal := numericToDecimal(order.TotalAmount).Sub(discount)

	txn, err := store.CreateTransaction(ctx, database.CreateTransactionParams{
		OrderID:        order.ID,
		Amount:         decimalToNumeric(finalTotal),
		TenderedAmount: decimalToNumeric(req.Tendered),
		ChangeAmount:   decimalToNumeric(decimal.Zero),
		PaymentMethod:  req.Method,
		Status:         enum.TransactionStatusFailed,
		PromotionID:    promoID,
		DiscountAmount: decimalToNumeric(discount),
		ProcessedBy:    req.Actor,
	})
	if err != nil {
		return nil, fmt.Errorf("create failed transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &PaymentResult{
		Success:     false,
		Message:     message,
		Order:       order,
		Transaction: txn,
	}, nil
}

// resolvePromotion returns the promotion when it is active and inside its
// validity window right now.
func (s *PaymentService) resolvePromotion(ctx context.Context, store PaymentStore, code string) (*database.Promotion, error) {
	p, err := store.GetPromotionByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPromoNotFound
		}
		return nil, fmt.Errorf("get promotion: %w", err)
	}
	if !p.IsActive {
		return nil, ErrPromoNotActive
	}
	now := time.Now()
	if now.Before(p.StartDate) || now.After(p.EndDate) {
		return nil, ErrPromoExpired
	}
	return &p, nil
}

func (s *PaymentService) nextInvoiceNumber(ctx context.Context, store PaymentStore) (string, error) {
	prefix := "INV-" + time.Now().Format("20060102") + "-"
	seq, err := store.GetNextInvoiceSequence(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("get next invoice sequence: %w", err)
	}
	return fmt.Sprintf("%s%03d", prefix, seq), nil
}

// ComputeDiscount applies a promotion to a total. The discount never exceeds
// the total.
func ComputeDiscount(total decimal.Decimal, discountType string, value decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch discountType {
	case enum.DiscountTypePercentage:
		discount = total.Mul(value).Div(decimal.NewFromInt(100))
	case enum.DiscountTypeFixed:
		discount = value
	default:
		return decimal.Zero
	}
	if discount.GreaterThan(total) {
		return total
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}

// ValidatePromotion enforces the save-time promotion invariants.
func ValidatePromotion(discountType string, value decimal.Decimal, start, end time.Time) error {
	switch discountType {
	case enum.DiscountTypePercentage:
		if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
			return ErrInvalidPromoValue
		}
	case enum.DiscountTypeFixed:
		if value.IsNegative() {
			return ErrInvalidPromoValue
		}
	default:
		return ErrInvalidPromoValue
	}
	if end.Before(start) {
		return ErrInvalidPromoDates
	}
	return nil
}
