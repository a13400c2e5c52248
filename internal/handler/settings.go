package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/fami-pos/api/internal/database"
)

// SettingsServicer owns writes so the settings cache stays coherent.
type SettingsServicer interface {
	Set(ctx context.Context, key, value string) error
}

// SettingsReadStore defines the database methods needed for settings reads.
// Satisfied by *database.Queries; narrow interface for testability.
type SettingsReadStore interface {
	ListSettings(ctx context.Context) ([]database.SystemSetting, error)
}

// SettingsHandler handles system settings endpoints.
type SettingsHandler struct {
	svc   SettingsServicer
	store SettingsReadStore
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(svc SettingsServicer, store SettingsReadStore) *SettingsHandler {
	return &SettingsHandler{svc: svc, store: store}
}

// RegisterRoutes registers settings endpoints on the given Chi router.
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.List)
		r.Put("/{key}", h.Set)
	})
}

// --- Request / Response types ---

type setSettingRequest struct {
	Value string `json:"value"`
}

type settingResponse struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// --- Handlers ---

func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.ListSettings(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list settings")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]settingResponse, 0, len(settings))
	for _, s := range settings {
		resp = append(resp, settingResponse{Key: s.Key, Value: s.Value, UpdatedAt: s.UpdatedAt})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Set upserts one setting through the service so the cache is refreshed.
func (h *SettingsHandler) Set(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "key is required"})
		return
	}

	var req setSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.svc.Set(r.Context(), key, req.Value); err != nil {
		log.Error().Err(err).Msg("set setting")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": req.Value})
}
