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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/middleware"
	"github.com/fami-pos/api/internal/service"
)

// InventoryServicer owns stock adjustments and waste reporting.
type InventoryServicer interface {
	Adjust(ctx context.Context, ingredientID uuid.UUID, newQty decimal.Decimal, reason string, actor uuid.UUID) (*service.AdjustResult, error)
	ReportWaste(ctx context.Context, req service.WasteRequest) (*database.WasteReport, error)
}

// InventoryReadStore defines the database methods needed for inventory reads.
// Satisfied by *database.Queries; narrow interface for testability.
type InventoryReadStore interface {
	ListInventoryLevels(ctx context.Context) ([]database.ListInventoryLevelsRow, error)
	ListLowStockLevels(ctx context.Context) ([]database.ListInventoryLevelsRow, error)
	ListInventoryLogs(ctx context.Context, arg database.ListInventoryLogsParams) ([]database.InventoryLog, error)
	ListWasteReports(ctx context.Context, arg database.ListWasteReportsParams) ([]database.WasteReport, error)
	CreateReasonCode(ctx context.Context, arg database.CreateReasonCodeParams) (database.ReasonCode, error)
	ListReasonCodes(ctx context.Context) ([]database.ReasonCode, error)
}

// InventoryHandler handles stock level, adjustment and waste endpoints.
type InventoryHandler struct {
	svc   InventoryServicer
	store InventoryReadStore
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(svc InventoryServicer, store InventoryReadStore) *InventoryHandler {
	return &InventoryHandler{svc: svc, store: store}
}

// RegisterRoutes registers inventory endpoints on the given Chi router.
func (h *InventoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/inventory", func(r chi.Router) {
		r.Get("/", h.ListLevels)
		r.Get("/low-stock", h.ListLowStock)
		r.Post("/{ingredientID}/adjust", h.Adjust)
		r.Get("/{ingredientID}/logs", h.ListLogs)
	})
	r.Route("/waste", func(r chi.Router) {
		r.Post("/", h.ReportWaste)
		r.Get("/", h.ListWasteReports)
	})
	r.Route("/reason-codes", func(r chi.Router) {
		r.Post("/", h.CreateReasonCode)
		r.Get("/", h.ListReasonCodes)
	})
}

// --- Request / Response types ---

type adjustRequest struct {
	Quantity string `json:"quantity"`
	Reason   string `json:"reason"`
}

type wasteRequest struct {
	TargetType   string     `json:"target_type"`
	IngredientID *uuid.UUID `json:"ingredient_id"`
	MenuItemID   *uuid.UUID `json:"menu_item_id"`
	Quantity     string     `json:"quantity"`
	ReasonCode   string     `json:"reason_code"`
}

type reasonCodeRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

type inventoryLevelResponse struct {
	IngredientID   uuid.UUID `json:"ingredient_id"`
	Name           string    `json:"name"`
	Unit           string    `json:"unit"`
	QuantityOnHand string    `json:"quantity_on_hand"`
	CostPerUnit    string    `json:"cost_per_unit"`
	AlertThreshold string    `json:"alert_threshold"`
}

type inventoryLogResponse struct {
	ID             uuid.UUID `json:"id"`
	IngredientID   uuid.UUID `json:"ingredient_id"`
	ChangeType     string    `json:"change_type"`
	QuantityChange string    `json:"quantity_change"`
	QuantityAfter  string    `json:"quantity_after"`
	Reason         *string   `json:"reason"`
	ReferenceID    *string   `json:"reference_id"`
	CreatedBy      uuid.UUID `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

type wasteReportResponse struct {
	ID           uuid.UUID `json:"id"`
	TargetType   string    `json:"target_type"`
	IngredientID *string   `json:"ingredient_id"`
	MenuItemID   *string   `json:"menu_item_id"`
	Quantity     string    `json:"quantity"`
	ReasonCodeID uuid.UUID `json:"reason_code_id"`
	LossValue    string    `json:"loss_value"`
	ReportedBy   uuid.UUID `json:"reported_by"`
	CreatedAt    time.Time `json:"created_at"`
}

type reasonCodeResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
}

func toInventoryLevelResponse(row database.ListInventoryLevelsRow) inventoryLevelResponse {
	return inventoryLevelResponse{
		IngredientID:   row.IngredientID,
		Name:           row.Name,
		Unit:           row.Unit,
		QuantityOnHand: qtyString(row.QuantityOnHand),
		CostPerUnit:    moneyString(row.CostPerUnit),
		AlertThreshold: qtyString(row.AlertThreshold),
	}
}

func toInventoryLogResponse(l database.InventoryLog) inventoryLogResponse {
	return inventoryLogResponse{
		ID:             l.ID,
		IngredientID:   l.IngredientID,
		ChangeType:     l.ChangeType,
		QuantityChange: qtyString(l.QuantityChange),
		QuantityAfter:  qtyString(l.QuantityAfter),
		Reason:         textPtr(l.Reason),
		ReferenceID:    uuidPtr(l.ReferenceID),
		CreatedBy:      l.CreatedBy,
		CreatedAt:      l.CreatedAt,
	}
}

func toWasteReportResponse(wr database.WasteReport) wasteReportResponse {
	return wasteReportResponse{
		ID:           wr.ID,
		TargetType:   wr.TargetType,
		IngredientID: uuidPtr(wr.IngredientID),
		MenuItemID:   uuidPtr(wr.MenuItemID),
		Quantity:     qtyString(wr.Quantity),
		ReasonCodeID: wr.ReasonCodeID,
		LossValue:    moneyString(wr.LossValue),
		ReportedBy:   wr.ReportedBy,
		CreatedAt:    wr.CreatedAt,
	}
}

func toReasonCodeResponse(rc database.ReasonCode) reasonCodeResponse {
	return reasonCodeResponse{ID: rc.ID, Code: rc.Code, Description: rc.Description, IsActive: rc.IsActive}
}

func uuidPtr(u pgtype.UUID) *string {
	if !u.Valid {
		return nil
	}
	s := uuid.UUID(u.Bytes).String()
	return &s
}

// --- Handlers ---

func (h *InventoryHandler) ListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.store.ListInventoryLevels(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list inventory levels")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]inventoryLevelResponse, 0, len(levels))
	for _, row := range levels {
		resp = append(resp, toInventoryLevelResponse(row))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListLowStock returns levels at or below their ingredient's alert threshold.
func (h *InventoryHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	levels, err := h.store.ListLowStockLevels(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list low stock levels")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]inventoryLevelResponse, 0, len(levels))
	for _, row := range levels {
		resp = append(resp, toInventoryLevelResponse(row))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Adjust overwrites an ingredient's on-hand quantity.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	ingredientID, err := uuid.Parse(chi.URLParam(r, "ingredientID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ingredient ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quantity"})
		return
	}

	result, err := h.svc.Adjust(r.Context(), ingredientID, qty, req.Reason, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIngredientNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ingredient not found"})
		case errors.Is(err, service.ErrNegativeQuantity):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must not be negative"})
		default:
			log.Error().Err(err).Msg("adjust inventory")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ingredient_id":    result.Level.IngredientID,
		"quantity_on_hand": qtyString(result.Level.QuantityOnHand),
		"log":              toInventoryLogResponse(result.Log),
	})
}

func (h *InventoryHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	ingredientID, err := uuid.Parse(chi.URLParam(r, "ingredientID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ingredient ID"})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}

	logs, err := h.store.ListInventoryLogs(r.Context(), database.ListInventoryLogsParams{
		IngredientID: ingredientID,
		Limit:        int32(limit),
		Offset:       int32(offset),
	})
	if err != nil {
		log.Error().Err(err).Msg("list inventory logs")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]inventoryLogResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, toInventoryLogResponse(l))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *InventoryHandler) ReportWaste(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req wasteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quantity"})
		return
	}

	svcReq := service.WasteRequest{
		TargetType: req.TargetType,
		Quantity:   qty,
		ReasonCode: req.ReasonCode,
		Actor:      claims.UserID,
	}
	if req.IngredientID != nil {
		svcReq.IngredientID = *req.IngredientID
	}
	if req.MenuItemID != nil {
		svcReq.MenuItemID = *req.MenuItemID
	}

	report, err := h.svc.ReportWaste(r.Context(), svcReq)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIngredientNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ingredient not found"})
		case errors.Is(err, service.ErrMenuItemNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
		case errors.Is(err, service.ErrNegativeQuantity),
			errors.Is(err, service.ErrInvalidReasonCode),
			errors.Is(err, service.ErrInvalidWasteTarget):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Error().Err(err).Msg("report waste")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, toWasteReportResponse(*report))
}

func (h *InventoryHandler) ListWasteReports(w http.ResponseWriter, r *http.Request) {
	params, err := wasteRangeParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	reports, err := h.store.ListWasteReports(r.Context(), params)
	if err != nil {
		log.Error().Err(err).Msg("list waste reports")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]wasteReportResponse, 0, len(reports))
	for _, wr := range reports {
		resp = append(resp, toWasteReportResponse(wr))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *InventoryHandler) CreateReasonCode(w http.ResponseWriter, r *http.Request) {
	var req reasonCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Code == "" || req.Description == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code and description are required"})
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	rc, err := h.store.CreateReasonCode(r.Context(), database.CreateReasonCodeParams{
		Code:        req.Code,
		Description: req.Description,
		IsActive:    isActive,
	})
	if err != nil {
		if isUniqueViolation(err, "reason_codes_code_key") {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "reason code already exists"})
			return
		}
		log.Error().Err(err).Msg("create reason code")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toReasonCodeResponse(rc))
}

func (h *InventoryHandler) ListReasonCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.store.ListReasonCodes(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list reason codes")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]reasonCodeResponse, 0, len(codes))
	for _, rc := range codes {
		resp = append(resp, toReasonCodeResponse(rc))
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

// wasteRangeParams parses optional start/end query params (YYYY-MM-DD).
// The default window is the last 30 days.
func wasteRangeParams(r *http.Request) (database.ListWasteReportsParams, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return database.ListWasteReportsParams{}, errors.New("invalid start date, expected YYYY-MM-DD")
		}
		start = parsed
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return database.ListWasteReportsParams{}, errors.New("invalid end date, expected YYYY-MM-DD")
		}
		end = parsed.AddDate(0, 0, 1)
	}

	return database.ListWasteReportsParams{
		StartDate: pgtype.Timestamptz{Time: start, Valid: true},
		EndDate:   pgtype.Timestamptz{Time: end, Valid: true},
	}, nil
}
