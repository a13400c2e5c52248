package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fami-pos/api/internal/database"
)

// ReportStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportStore interface {
	GetDailySales(ctx context.Context, arg database.GetDailySalesParams) ([]database.GetDailySalesRow, error)
	GetProductSales(ctx context.Context, arg database.GetProductSalesParams) ([]database.GetProductSalesRow, error)
	GetPaymentMethodSummary(ctx context.Context, arg database.GetPaymentMethodSummaryParams) ([]database.GetPaymentMethodSummaryRow, error)
	GetWasteSummary(ctx context.Context, arg database.GetWasteSummaryParams) ([]database.GetWasteSummaryRow, error)
}

// ReportHandler handles sales and waste report endpoints.
type ReportHandler struct {
	store ReportStore
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/daily-sales", h.DailySales)
		r.Get("/product-sales", h.ProductSales)
		r.Get("/payment-methods", h.PaymentMethods)
		r.Get("/waste", h.WasteSummary)
	})
}

// --- Response types ---

type dailySalesResponse struct {
	Day           string `json:"day"`
	OrderCount    int64  `json:"order_count"`
	Revenue       string `json:"revenue"`
	DiscountTotal string `json:"discount_total"`
}

type productSalesResponse struct {
	MenuItemID   uuid.UUID `json:"menu_item_id"`
	Name         string    `json:"name"`
	Sku          string    `json:"sku"`
	QuantitySold int64     `json:"quantity_sold"`
	Revenue      string    `json:"revenue"`
}

type paymentMethodResponse struct {
	PaymentMethod    string `json:"payment_method"`
	TransactionCount int64  `json:"transaction_count"`
	TotalAmount      string `json:"total_amount"`
}

type wasteSummaryResponse struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	ReportCount int64  `json:"report_count"`
	LossTotal   string `json:"loss_total"`
}

// --- Handlers ---

func (h *ReportHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	start, end, err := reportRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetDailySales(r.Context(), database.GetDailySalesParams{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		log.Error().Err(err).Msg("daily sales report")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]dailySalesResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, dailySalesResponse{
			Day:           row.Day.Format("2006-01-02"),
			OrderCount:    row.OrderCount,
			Revenue:       moneyString(row.Revenue),
			DiscountTotal: moneyString(row.DiscountTotal),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReportHandler) ProductSales(w http.ResponseWriter, r *http.Request) {
	start, end, err := reportRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetProductSales(r.Context(), database.GetProductSalesParams{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		log.Error().Err(err).Msg("product sales report")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]productSalesResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, productSalesResponse{
			MenuItemID:   row.MenuItemID,
			Name:         row.Name,
			Sku:          row.Sku,
			QuantitySold: row.QuantitySold,
			Revenue:      moneyString(row.Revenue),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReportHandler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	start, end, err := reportRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetPaymentMethodSummary(r.Context(), database.GetPaymentMethodSummaryParams{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		log.Error().Err(err).Msg("payment method report")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]paymentMethodResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, paymentMethodResponse{
			PaymentMethod:    row.PaymentMethod,
			TransactionCount: row.TransactionCount,
			TotalAmount:      moneyString(row.TotalAmount),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReportHandler) WasteSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := reportRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetWasteSummary(r.Context(), database.GetWasteSummaryParams{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		log.Error().Err(err).Msg("waste summary report")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]wasteSummaryResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, wasteSummaryResponse{
			Code:        row.Code,
			Description: row.Description,
			ReportCount: row.ReportCount,
			LossTotal:   moneyString(row.LossTotal),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

// reportRange parses start/end query params (YYYY-MM-DD). The end bound is
// exclusive, one day past the requested end date. The default window is the
// last 7 days.
func reportRange(r *http.Request) (time.Time, time.Time, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -7)

	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return start, end, errors.New("invalid start date, expected YYYY-MM-DD")
		}
		start = parsed
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return start, end, errors.New("invalid end date, expected YYYY-MM-DD")
		}
		end = parsed.AddDate(0, 0, 1)
	}
	if end.Before(start) {
		return start, end, errors.New("end date before start date")
	}
	return start, end, nil
}
