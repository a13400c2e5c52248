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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/service"
)

// IngredientStore defines the database methods needed by ingredient handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type IngredientStore interface {
	CreateIngredient(ctx context.Context, arg database.CreateIngredientParams) (database.Ingredient, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (database.Ingredient, error)
	ListIngredients(ctx context.Context) ([]database.Ingredient, error)
	UpdateIngredient(ctx context.Context, arg database.UpdateIngredientParams) (database.Ingredient, error)
	CreateInventoryLevel(ctx context.Context, arg database.CreateInventoryLevelParams) (database.InventoryLevel, error)
}

// IngredientServicer owns ingredient deletion, which checks recipe references
// and remaining stock.
type IngredientServicer interface {
	DeleteIngredient(ctx context.Context, id uuid.UUID) error
}

// IngredientHandler handles ingredient endpoints.
type IngredientHandler struct {
	svc   IngredientServicer
	store IngredientStore
}

// NewIngredientHandler creates a new IngredientHandler.
func NewIngredientHandler(svc IngredientServicer, store IngredientStore) *IngredientHandler {
	return &IngredientHandler{svc: svc, store: store}
}

// RegisterRoutes registers ingredient endpoints on the given Chi router.
func (h *IngredientHandler) RegisterRoutes(r chi.Router) {
	r.Route("/ingredients", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// --- Request / Response types ---

type ingredientRequest struct {
	Name           string `json:"name"`
	Unit           string `json:"unit"`
	CostPerUnit    string `json:"cost_per_unit"`
	AlertThreshold string `json:"alert_threshold"`
}

type ingredientResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Unit           string    `json:"unit"`
	CostPerUnit    string    `json:"cost_per_unit"`
	AlertThreshold string    `json:"alert_threshold"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toIngredientResponse(i database.Ingredient) ingredientResponse {
	return ingredientResponse{
		ID:             i.ID,
		Name:           i.Name,
		Unit:           i.Unit,
		CostPerUnit:    moneyString(i.CostPerUnit),
		AlertThreshold: qtyString(i.AlertThreshold),
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

func (req *ingredientRequest) validate() (cost, threshold decimal.Decimal, err error) {
	if req.Name == "" || req.Unit == "" {
		return cost, threshold, errors.New("name and unit are required")
	}
	cost, err = decimal.NewFromString(req.CostPerUnit)
	if err != nil || cost.IsNegative() {
		return cost, threshold, errors.New("invalid cost_per_unit")
	}
	if req.AlertThreshold != "" {
		threshold, err = decimal.NewFromString(req.AlertThreshold)
		if err != nil || threshold.IsNegative() {
			return cost, threshold, errors.New("invalid alert_threshold")
		}
	}
	return cost, threshold, nil
}

func qtyNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(3))
	return n
}

// --- Handlers ---

// Create registers an ingredient and opens its stock level at zero.
func (h *IngredientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ingredientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	cost, threshold, err := req.validate()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ingredient, err := h.store.CreateIngredient(r.Context(), database.CreateIngredientParams{
		Name:           req.Name,
		Unit:           req.Unit,
		CostPerUnit:    decimalToNumeric(cost),
		AlertThreshold: qtyNumeric(threshold),
	})
	if err != nil {
		log.Error().Err(err).Msg("create ingredient")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if _, err := h.store.CreateInventoryLevel(r.Context(), database.CreateInventoryLevelParams{
		IngredientID:   ingredient.ID,
		QuantityOnHand: qtyNumeric(decimal.Zero),
	}); err != nil {
		log.Error().Err(err).Msg("create inventory level")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toIngredientResponse(ingredient))
}

func (h *IngredientHandler) List(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.store.ListIngredients(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list ingredients")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]ingredientResponse, 0, len(ingredients))
	for _, i := range ingredients {
		resp = append(resp, toIngredientResponse(i))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *IngredientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ingredient ID"})
		return
	}

	ingredient, err := h.store.GetIngredient(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ingredient not found"})
			return
		}
		log.Error().Err(err).Msg("get ingredient")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toIngredientResponse(ingredient))
}

func (h *IngredientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ingredient ID"})
		return
	}

	var req ingredientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	cost, threshold, err := req.validate()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ingredient, err := h.store.UpdateIngredient(r.Context(), database.UpdateIngredientParams{
		ID:             id,
		Name:           req.Name,
		Unit:           req.Unit,
		CostPerUnit:    decimalToNumeric(cost),
		AlertThreshold: qtyNumeric(threshold),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ingredient not found"})
			return
		}
		log.Error().Err(err).Msg("update ingredient")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toIngredientResponse(ingredient))
}

func (h *IngredientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ingredient ID"})
		return
	}

	if err := h.svc.DeleteIngredient(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrIngredientNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ingredient not found"})
		case errors.Is(err, service.ErrIngredientInUse):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "ingredient is referenced by a recipe"})
		case errors.Is(err, service.ErrIngredientHasStock):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "ingredient still has stock on hand"})
		default:
			log.Error().Err(err).Msg("delete ingredient")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
