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
	"github.com/fami-pos/api/internal/service"
)

// PromotionStore defines the database methods needed by promotion handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type PromotionStore interface {
	CreatePromotion(ctx context.Context, arg database.CreatePromotionParams) (database.Promotion, error)
	GetPromotion(ctx context.Context, id uuid.UUID) (database.Promotion, error)
	ListPromotions(ctx context.Context) ([]database.Promotion, error)
	UpdatePromotion(ctx context.Context, arg database.UpdatePromotionParams) (database.Promotion, error)
	DeletePromotion(ctx context.Context, id uuid.UUID) error
}

// PromotionHandler handles promotion endpoints.
type PromotionHandler struct {
	store PromotionStore
}

// NewPromotionHandler creates a new PromotionHandler.
func NewPromotionHandler(store PromotionStore) *PromotionHandler {
	return &PromotionHandler{store: store}
}

// RegisterRoutes registers promotion endpoints on the given Chi router.
func (h *PromotionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/promotions", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// --- Request / Response types ---

type promotionRequest struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	DiscountType  string `json:"discount_type"`
	DiscountValue string `json:"discount_value"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	IsActive      *bool  `json:"is_active"`
}

type promotionResponse struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	DiscountType  string    `json:"discount_type"`
	DiscountValue string    `json:"discount_value"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	IsActive      bool      `json:"is_active"`
}

func toPromotionResponse(p database.Promotion) promotionResponse {
	return promotionResponse{
		ID:            p.ID,
		Code:          p.Code,
		Name:          p.Name,
		DiscountType:  p.DiscountType,
		DiscountValue: moneyString(p.DiscountValue),
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		IsActive:      p.IsActive,
	}
}

// parsePromotion validates the request against the promotion rules and
// returns the parsed value and date window.
func parsePromotion(req promotionRequest) (decimal.Decimal, time.Time, time.Time, error) {
	var zero decimal.Decimal
	if req.Name == "" {
		return zero, time.Time{}, time.Time{}, errors.New("name is required")
	}
	value, err := decimal.NewFromString(req.DiscountValue)
	if err != nil {
		return zero, time.Time{}, time.Time{}, errors.New("invalid discount_value")
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return zero, time.Time{}, time.Time{}, errors.New("invalid start_date, expected YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return zero, time.Time{}, time.Time{}, errors.New("invalid end_date, expected YYYY-MM-DD")
	}
	end = end.AddDate(0, 0, 1).Add(-time.Second)

	if err := service.ValidatePromotion(req.DiscountType, value, start, end); err != nil {
		return zero, time.Time{}, time.Time{}, err
	}
	return value, start, end, nil
}

// --- Handlers ---

func (h *PromotionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req promotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return
	}
	value, start, end, err := parsePromotion(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	promo, err := h.store.CreatePromotion(r.Context(), database.CreatePromotionParams{
		Code:          req.Code,
		Name:          req.Name,
		DiscountType:  req.DiscountType,
		DiscountValue: decimalToNumeric(value),
		StartDate:     start,
		EndDate:       end,
		IsActive:      isActive,
	})
	if err != nil {
		if isUniqueViolation(err, "promotions_code_key") {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "promotion code already exists"})
			return
		}
		log.Error().Err(err).Msg("create promotion")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toPromotionResponse(promo))
}

func (h *PromotionHandler) List(w http.ResponseWriter, r *http.Request) {
	promos, err := h.store.ListPromotions(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list promotions")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]promotionResponse, 0, len(promos))
	for _, p := range promos {
		resp = append(resp, toPromotionResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PromotionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid promotion ID"})
		return
	}

	promo, err := h.store.GetPromotion(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "promotion not found"})
			return
		}
		log.Error().Err(err).Msg("get promotion")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toPromotionResponse(promo))
}

func (h *PromotionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid promotion ID"})
		return
	}

	var req promotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	value, start, end, err := parsePromotion(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	promo, err := h.store.UpdatePromotion(r.Context(), database.UpdatePromotionParams{
		ID:            id,
		Name:          req.Name,
		DiscountType:  req.DiscountType,
		DiscountValue: decimalToNumeric(value),
		StartDate:     start,
		EndDate:       end,
		IsActive:      isActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "promotion not found"})
			return
		}
		log.Error().Err(err).Msg("update promotion")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toPromotionResponse(promo))
}

func (h *PromotionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid promotion ID"})
		return
	}

	if err := h.store.DeletePromotion(r.Context(), id); err != nil {
		log.Error().Err(err).Msg("delete promotion")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
