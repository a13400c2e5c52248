package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/middleware"
	"github.com/fami-pos/api/internal/service"
)

// PaymentServicer owns payment settlement.
type PaymentServicer interface {
	ProcessPayment(ctx context.Context, req service.PaymentRequest) (*service.PaymentResult, error)
}

// PaymentReadStore defines the database methods needed for payment previews.
// Satisfied by *database.Queries; narrow interface for testability.
type PaymentReadStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetPromotionByCode(ctx context.Context, code string) (database.Promotion, error)
}

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	svc   PaymentServicer
	store PaymentReadStore
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(svc PaymentServicer, store PaymentReadStore) *PaymentHandler {
	return &PaymentHandler{svc: svc, store: store}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/{orderID}", h.Pay)
		r.Post("/{orderID}/preview", h.Preview)
	})
}

// --- Request / Response types ---

type paymentRequest struct {
	Method    string `json:"method"`
	Tendered  string `json:"tendered"`
	PromoCode string `json:"promo_code"`
}

type previewRequest struct {
	PromoCode string `json:"promo_code"`
}

type transactionResponse struct {
	ID              uuid.UUID `json:"id"`
	OrderID         uuid.UUID `json:"order_id"`
	Amount          string    `json:"amount"`
	TenderedAmount  string    `json:"tendered_amount"`
	ChangeAmount    string    `json:"change_amount"`
	PaymentMethod   string    `json:"payment_method"`
	Status          string    `json:"status"`
	ReferenceNumber *string   `json:"reference_number"`
	DiscountAmount  string    `json:"discount_amount"`
	CreatedAt       time.Time `json:"created_at"`
}

type invoiceResponse struct {
	ID             uuid.UUID `json:"id"`
	InvoiceNumber  string    `json:"invoice_number"`
	OrderID        uuid.UUID `json:"order_id"`
	OriginalTotal  string    `json:"original_total"`
	DiscountAmount string    `json:"discount_amount"`
	FinalTotal     string    `json:"final_total"`
	PaymentMethod  string    `json:"payment_method"`
	CreatedAt      time.Time `json:"created_at"`
}

type paymentResponse struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message,omitempty"`
	Change      string              `json:"change"`
	Order       orderResponse       `json:"order"`
	Transaction transactionResponse `json:"transaction"`
	Invoice     *invoiceResponse    `json:"invoice,omitempty"`
}

type previewResponse struct {
	OriginalTotal  string `json:"original_total"`
	DiscountAmount string `json:"discount_amount"`
	FinalTotal     string `json:"final_total"`
}

func toTransactionResponse(t database.Transaction) transactionResponse {
	return transactionResponse{
		ID:              t.ID,
		OrderID:         t.OrderID,
		Amount:          moneyString(t.Amount),
		TenderedAmount:  moneyString(t.TenderedAmount),
		ChangeAmount:    moneyString(t.ChangeAmount),
		PaymentMethod:   t.PaymentMethod,
		Status:          t.Status,
		ReferenceNumber: textPtr(t.ReferenceNumber),
		DiscountAmount:  moneyString(t.DiscountAmount),
		CreatedAt:       t.CreatedAt,
	}
}

func toInvoiceResponse(inv database.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:             inv.ID,
		InvoiceNumber:  inv.InvoiceNumber,
		OrderID:        inv.OrderID,
		OriginalTotal:  moneyString(inv.OriginalTotal),
		DiscountAmount: moneyString(inv.DiscountAmount),
		FinalTotal:     moneyString(inv.FinalTotal),
		PaymentMethod:  inv.PaymentMethod,
		CreatedAt:      inv.CreatedAt,
	}
}

// --- Handlers ---

// Pay settles the order. A failed payment is returned with 200 and
// success=false; the failure is recorded but the order is untouched.
func (h *PaymentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	tendered := decimal.Zero
	if req.Tendered != "" {
		tendered, err = decimal.NewFromString(req.Tendered)
		if err != nil || tendered.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tendered amount"})
			return
		}
	}

	result, err := h.svc.ProcessPayment(r.Context(), service.PaymentRequest{
		OrderID:   orderID,
		Tendered:  tendered,
		Method:    req.Method,
		PromoCode: req.PromoCode,
		Actor:     claims.UserID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrOrderAlreadyPaid),
			errors.Is(err, service.ErrOrderCancelled):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidMethod),
			errors.Is(err, service.ErrPromoNotFound),
			errors.Is(err, service.ErrPromoNotActive),
			errors.Is(err, service.ErrPromoExpired):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Error().Err(err).Msg("process payment")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := paymentResponse{
		Success:     result.Success,
		Message:     result.Message,
		Change:      result.Change.StringFixed(2),
		Order:       toOrderResponse(result.Order),
		Transaction: toTransactionResponse(result.Transaction),
	}
	if result.Invoice != nil {
		inv := toInvoiceResponse(*result.Invoice)
		resp.Invoice = &inv
	}
	writeJSON(w, http.StatusOK, resp)
}

// Preview computes the discounted total without touching the order.
func (h *PaymentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Error().Err(err).Msg("get order for preview")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	total := numericToDecimal(order.TotalAmount)
	discount := decimal.Zero

	if req.PromoCode != "" {
		promo, err := h.store.GetPromotionByCode(r.Context(), req.PromoCode)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "promotion not found"})
				return
			}
			log.Error().Err(err).Msg("get promotion for preview")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		now := time.Now()
		if !promo.IsActive || now.Before(promo.StartDate) || now.After(promo.EndDate) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "promotion is not currently valid"})
			return
		}
		discount = service.ComputeDiscount(total, promo.DiscountType, numericToDecimal(promo.DiscountValue))
	}

	writeJSON(w, http.StatusOK, previewResponse{
		OriginalTotal:  total.StringFixed(2),
		DiscountAmount: discount.StringFixed(2),
		FinalTotal:     total.Sub(discount).StringFixed(2),
	})
}
