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

	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/enum"
)

// TableStore defines the database methods needed by table handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type TableStore interface {
	CreateTable(ctx context.Context, arg database.CreateTableParams) (database.RestaurantTable, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.RestaurantTable, error)
	ListTables(ctx context.Context) ([]database.RestaurantTable, error)
	UpdateTable(ctx context.Context, arg database.UpdateTableParams) (database.RestaurantTable, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.RestaurantTable, error)
	DeleteTable(ctx context.Context, id uuid.UUID) error
}

// TableHandler handles dining table endpoints.
type TableHandler struct {
	store TableStore
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(store TableStore) *TableHandler {
	return &TableHandler{store: store}
}

// RegisterRoutes registers table endpoints on the given Chi router.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Route("/tables", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}/status", h.UpdateStatus)
		r.Delete("/{id}", h.Delete)
	})
}

// --- Request / Response types ---

type createTableRequest struct {
	Number   string `json:"number"`
	Capacity int32  `json:"capacity"`
}

type updateTableRequest struct {
	Number   string `json:"number"`
	Capacity int32  `json:"capacity"`
}

type updateTableStatusRequest struct {
	Status string `json:"status"`
}

type tableResponse struct {
	ID        uuid.UUID `json:"id"`
	Number    string    `json:"number"`
	Capacity  int32     `json:"capacity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toTableResponse(t database.RestaurantTable) tableResponse {
	return tableResponse{
		ID:        t.ID,
		Number:    t.Number,
		Capacity:  t.Capacity,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// --- Handlers ---

func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Number == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "number is required"})
		return
	}
	if req.Capacity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "capacity must be positive"})
		return
	}

	table, err := h.store.CreateTable(r.Context(), database.CreateTableParams{
		Number:   req.Number,
		Capacity: req.Capacity,
		Status:   enum.TableStatusAvailable,
	})
	if err != nil {
		if isUniqueViolation(err, "restaurant_tables_number_key") {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "table number already exists"})
			return
		}
		log.Error().Err(err).Msg("create table")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toTableResponse(table))
}

func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.ListTables(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list tables")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tableResponse, 0, len(tables))
	for _, t := range tables {
		resp = append(resp, toTableResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	table, err := h.store.GetTable(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		log.Error().Err(err).Msg("get table")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toTableResponse(table))
}

func (h *TableHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	var req updateTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Number == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "number is required"})
		return
	}
	if req.Capacity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "capacity must be positive"})
		return
	}

	table, err := h.store.UpdateTable(r.Context(), database.UpdateTableParams{
		ID:       id,
		Number:   req.Number,
		Capacity: req.Capacity,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		if isUniqueViolation(err, "restaurant_tables_number_key") {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "table number already exists"})
			return
		}
		log.Error().Err(err).Msg("update table")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toTableResponse(table))
}

func (h *TableHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	var req updateTableStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if !enum.IsValidTableStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table status"})
		return
	}

	table, err := h.store.UpdateTableStatus(r.Context(), database.UpdateTableStatusParams{
		ID:     id,
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		log.Error().Err(err).Msg("update table status")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toTableResponse(table))
}

func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	if err := h.store.DeleteTable(r.Context(), id); err != nil {
		log.Error().Err(err).Msg("delete table")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
