package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
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

// StockTakeServicer owns the stock take lifecycle.
type StockTakeServicer interface {
	Create(ctx context.Context, notes string, actor uuid.UUID) (*service.StockTakeResult, error)
	SaveCounts(ctx context.Context, stockTakeID uuid.UUID, counts []service.Count) (*service.StockTakeResult, error)
	Finalize(ctx context.Context, stockTakeID uuid.UUID, actor uuid.UUID) (*service.StockTakeResult, error)
	Cancel(ctx context.Context, stockTakeID uuid.UUID) (*database.StockTake, error)
}

// StockTakeReadStore defines the database methods needed for ticket reads.
// Satisfied by *database.Queries; narrow interface for testability.
type StockTakeReadStore interface {
	GetStockTake(ctx context.Context, id uuid.UUID) (database.StockTake, error)
	ListStockTakes(ctx context.Context, arg database.ListStockTakesParams) ([]database.StockTake, error)
	ListStockTakeLines(ctx context.Context, stockTakeID uuid.UUID) ([]database.StockTakeLine, error)
}

// StockTakeHandler handles stock take endpoints.
type StockTakeHandler struct {
	svc   StockTakeServicer
	store StockTakeReadStore
}

// NewStockTakeHandler creates a new StockTakeHandler.
func NewStockTakeHandler(svc StockTakeServicer, store StockTakeReadStore) *StockTakeHandler {
	return &StockTakeHandler{svc: svc, store: store}
}

// RegisterRoutes registers stock take endpoints on the given Chi router.
func (h *StockTakeHandler) RegisterRoutes(r chi.Router) {
	r.Route("/stock-takes", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}/counts", h.SaveCounts)
		r.Post("/{id}/finalize", h.Finalize)
		r.Post("/{id}/cancel", h.Cancel)
	})
}

// --- Request / Response types ---

type createStockTakeRequest struct {
	Notes string `json:"notes"`
}

type countRequest struct {
	IngredientID uuid.UUID `json:"ingredient_id"`
	ActualQty    string    `json:"actual_qty"`
}

type saveCountsRequest struct {
	Counts []countRequest `json:"counts"`
}

type stockTakeResponse struct {
	ID            uuid.UUID  `json:"id"`
	Code          string     `json:"code"`
	Status        string     `json:"status"`
	VarianceTotal string     `json:"variance_total"`
	Notes         *string    `json:"notes"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

type stockTakeLineResponse struct {
	ID           uuid.UUID `json:"id"`
	IngredientID uuid.UUID `json:"ingredient_id"`
	SnapshotQty  string    `json:"snapshot_qty"`
	ActualQty    string    `json:"actual_qty"`
	Variance     string    `json:"variance"`
}

type stockTakeDetailResponse struct {
	StockTake stockTakeResponse       `json:"stock_take"`
	Lines     []stockTakeLineResponse `json:"lines"`
}

func toStockTakeResponse(st database.StockTake) stockTakeResponse {
	resp := stockTakeResponse{
		ID:            st.ID,
		Code:          st.Code,
		Status:        st.Status,
		VarianceTotal: moneyString(st.VarianceTotal),
		Notes:         textPtr(st.Notes),
		CreatedBy:     st.CreatedBy,
		CreatedAt:     st.CreatedAt,
	}
	if st.CompletedAt.Valid {
		resp.CompletedAt = &st.CompletedAt.Time
	}
	return resp
}

func toStockTakeDetailResponse(st database.StockTake, lines []database.StockTakeLine) stockTakeDetailResponse {
	resp := stockTakeDetailResponse{
		StockTake: toStockTakeResponse(st),
		Lines:     make([]stockTakeLineResponse, 0, len(lines)),
	}
	for _, line := range lines {
		resp.Lines = append(resp.Lines, stockTakeLineResponse{
			ID:           line.ID,
			IngredientID: line.IngredientID,
			SnapshotQty:  qtyString(line.SnapshotQty),
			ActualQty:    qtyString(line.ActualQty),
			Variance:     qtyString(line.Variance),
		})
	}
	return resp
}

// --- Handlers ---

// Create opens a draft ticket snapshotting every inventory level.
func (h *StockTakeHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req createStockTakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.Create(r.Context(), req.Notes, claims.UserID)
	if err != nil {
		log.Error().Err(err).Msg("create stock take")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toStockTakeDetailResponse(result.StockTake, result.Lines))
}

func (h *StockTakeHandler) List(w http.ResponseWriter, r *http.Request) {
	params := database.ListStockTakesParams{Limit: 20}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			params.Limit = int32(n)
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			params.Offset = int32(n)
		}
	}

	tickets, err := h.store.ListStockTakes(r.Context(), params)
	if err != nil {
		log.Error().Err(err).Msg("list stock takes")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]stockTakeResponse, 0, len(tickets))
	for _, st := range tickets {
		resp = append(resp, toStockTakeResponse(st))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *StockTakeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid stock take ID"})
		return
	}

	ticket, err := h.store.GetStockTake(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "stock take not found"})
			return
		}
		log.Error().Err(err).Msg("get stock take")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	lines, err := h.store.ListStockTakeLines(r.Context(), ticket.ID)
	if err != nil {
		log.Error().Err(err).Msg("list stock take lines")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toStockTakeDetailResponse(ticket, lines))
}

// SaveCounts stores counted quantities on a draft ticket.
func (h *StockTakeHandler) SaveCounts(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid stock take ID"})
		return
	}

	var req saveCountsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	counts := make([]service.Count, 0, len(req.Counts))
	for _, c := range req.Counts {
		qty, err := decimal.NewFromString(c.ActualQty)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid actual_qty"})
			return
		}
		counts = append(counts, service.Count{IngredientID: c.IngredientID, ActualQty: qty})
	}

	result, err := h.svc.SaveCounts(r.Context(), id, counts)
	if err != nil {
		h.writeStockTakeError(w, err, "save stock take counts")
		return
	}

	writeJSON(w, http.StatusOK, toStockTakeDetailResponse(result.StockTake, result.Lines))
}

// Finalize corrects inventory to the counted values and completes the ticket.
func (h *StockTakeHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid stock take ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	result, err := h.svc.Finalize(r.Context(), id, claims.UserID)
	if err != nil {
		h.writeStockTakeError(w, err, "finalize stock take")
		return
	}

	writeJSON(w, http.StatusOK, toStockTakeDetailResponse(result.StockTake, result.Lines))
}

func (h *StockTakeHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid stock take ID"})
		return
	}

	ticket, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		h.writeStockTakeError(w, err, "cancel stock take")
		return
	}

	writeJSON(w, http.StatusOK, toStockTakeResponse(*ticket))
}

// --- Helpers ---

func (h *StockTakeHandler) writeStockTakeError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrStockTakeNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "stock take not found"})
	case errors.Is(err, service.ErrStockTakeNotDraft):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "stock take is not in draft"})
	case errors.Is(err, service.ErrCountNotInTicket),
		errors.Is(err, service.ErrNegativeQuantity):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Error().Err(err).Msg(op)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
