package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"

	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/enum"
	"github.com/fami-pos/api/internal/middleware"
	"github.com/fami-pos/api/internal/service"
)

// KitchenServicer owns line status transitions.
type KitchenServicer interface {
	UpdateLineStatus(ctx context.Context, lineID uuid.UUID, newStatus, reason string, actor uuid.UUID) (*database.OrderLine, error)
	UndoLineStatus(ctx context.Context, lineID uuid.UUID, actor uuid.UUID) (*database.OrderLine, error)
}

// KitchenStore defines the database methods needed for kitchen reads.
// Satisfied by *database.Queries; narrow interface for testability.
type KitchenStore interface {
	ListKitchenQueue(ctx context.Context, printerTarget pgtype.Text) ([]database.ListKitchenQueueRow, error)
	ListStatusHistories(ctx context.Context, orderLineID uuid.UUID) ([]database.StatusHistory, error)
}

// KitchenHandler handles kitchen display endpoints.
type KitchenHandler struct {
	svc   KitchenServicer
	store KitchenStore
}

// NewKitchenHandler creates a new KitchenHandler.
func NewKitchenHandler(svc KitchenServicer, store KitchenStore) *KitchenHandler {
	return &KitchenHandler{svc: svc, store: store}
}

// RegisterRoutes registers kitchen endpoints on the given Chi router.
func (h *KitchenHandler) RegisterRoutes(r chi.Router) {
	r.Route("/kitchen", func(r chi.Router) {
		r.Get("/queue", h.Queue)
		r.Patch("/lines/{id}/status", h.UpdateLineStatus)
		r.Post("/lines/{id}/undo", h.UndoLineStatus)
		r.Get("/lines/{id}/history", h.LineHistory)
	})
}

// --- Request / Response types ---

type updateLineStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type kitchenQueueResponse struct {
	ID            uuid.UUID `json:"id"`
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	MenuItemID    uuid.UUID `json:"menu_item_id"`
	MenuItemName  string    `json:"menu_item_name"`
	PrinterTarget string    `json:"printer_target"`
	Quantity      int32     `json:"quantity"`
	Status        string    `json:"status"`
	Notes         *string   `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}

type statusHistoryResponse struct {
	ID        uuid.UUID `json:"id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Reason    *string   `json:"reason"`
	ChangedBy uuid.UUID `json:"changed_by"`
	CreatedAt time.Time `json:"created_at"`
}

func toKitchenQueueResponse(row database.ListKitchenQueueRow) kitchenQueueResponse {
	resp := kitchenQueueResponse{
		ID:            row.ID,
		OrderID:       row.OrderID,
		OrderNumber:   row.OrderNumber,
		MenuItemID:    row.MenuItemID,
		MenuItemName:  row.MenuItemName,
		PrinterTarget: row.PrinterTarget,
		Quantity:      row.Quantity,
		Status:        row.Status,
		Notes:         textPtr(row.Notes),
	}
	if row.CreatedAt.Valid {
		resp.CreatedAt = row.CreatedAt.Time
	}
	return resp
}

func toStatusHistoryResponse(sh database.StatusHistory) statusHistoryResponse {
	return statusHistoryResponse{
		ID:        sh.ID,
		OldStatus: sh.OldStatus,
		NewStatus: sh.NewStatus,
		Reason:    textPtr(sh.Reason),
		ChangedBy: sh.ChangedBy,
		CreatedAt: sh.CreatedAt,
	}
}

// --- Handlers ---

// Queue returns active lines for the kitchen display, optionally filtered by
// printer target.
func (h *KitchenHandler) Queue(w http.ResponseWriter, r *http.Request) {
	var target pgtype.Text
	if raw := r.URL.Query().Get("printer_target"); raw != "" {
		if raw != enum.PrinterTargetKitchen && raw != enum.PrinterTargetBar {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid printer target"})
			return
		}
		target = pgtype.Text{String: raw, Valid: true}
	}

	rows, err := h.store.ListKitchenQueue(r.Context(), target)
	if err != nil {
		log.Error().Err(err).Msg("list kitchen queue")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]kitchenQueueResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, toKitchenQueueResponse(row))
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateLineStatus advances one line through the preparation flow.
func (h *KitchenHandler) UpdateLineStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req updateLineStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	line, err := h.svc.UpdateLineStatus(r.Context(), id, req.Status, req.Reason, claims.UserID)
	if err != nil {
		h.writeKitchenError(w, err, "update line status")
		return
	}

	writeJSON(w, http.StatusOK, toOrderLineResponse(*line))
}

// UndoLineStatus steps a line back to its previous status.
func (h *KitchenHandler) UndoLineStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	line, err := h.svc.UndoLineStatus(r.Context(), id, claims.UserID)
	if err != nil {
		h.writeKitchenError(w, err, "undo line status")
		return
	}

	writeJSON(w, http.StatusOK, toOrderLineResponse(*line))
}

// LineHistory returns the transition log for one line, newest first.
func (h *KitchenHandler) LineHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line ID"})
		return
	}

	histories, err := h.store.ListStatusHistories(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("list status histories")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]statusHistoryResponse, 0, len(histories))
	for _, sh := range histories {
		resp = append(resp, toStatusHistoryResponse(sh))
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func (h *KitchenHandler) writeKitchenError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrLineNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order line not found"})
	case errors.Is(err, service.ErrUnknownStatus),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrLineTerminal),
		errors.Is(err, service.ErrNothingToUndo):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Error().Err(err).Msg(op)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
