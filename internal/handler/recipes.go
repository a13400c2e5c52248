package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/service"
)

// RecipeServicer owns recipe replacement and deletion.
type RecipeServicer interface {
	SetRecipe(ctx context.Context, menuItemID uuid.UUID, lines []service.RecipeLineInput) (*service.RecipeDetail, error)
	DeleteRecipe(ctx context.Context, menuItemID uuid.UUID) error
}

// RecipeReadStore defines the database methods needed for recipe reads.
// Satisfied by *database.Queries; narrow interface for testability.
type RecipeReadStore interface {
	GetRecipeByMenuItem(ctx context.Context, menuItemID uuid.UUID) (database.Recipe, error)
	ListRecipeLines(ctx context.Context, recipeID uuid.UUID) ([]database.RecipeLine, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (database.Ingredient, error)
}

// RecipeHandler handles recipe endpoints, keyed by menu item.
type RecipeHandler struct {
	svc   RecipeServicer
	store RecipeReadStore
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(svc RecipeServicer, store RecipeReadStore) *RecipeHandler {
	return &RecipeHandler{svc: svc, store: store}
}

// RegisterRoutes registers recipe endpoints on the given Chi router.
func (h *RecipeHandler) RegisterRoutes(r chi.Router) {
	r.Route("/recipes", func(r chi.Router) {
		r.Put("/{menuItemID}", h.Set)
		r.Get("/{menuItemID}", h.Get)
		r.Delete("/{menuItemID}", h.Delete)
	})
}

// --- Request / Response types ---

type recipeLineRequest struct {
	IngredientID uuid.UUID `json:"ingredient_id"`
	Quantity     string    `json:"quantity"`
}

type setRecipeRequest struct {
	Lines []recipeLineRequest `json:"lines"`
}

type recipeLineResponse struct {
	IngredientID uuid.UUID `json:"ingredient_id"`
	Quantity     string    `json:"quantity"`
}

type recipeResponse struct {
	MenuItemID   uuid.UUID            `json:"menu_item_id"`
	Lines        []recipeLineResponse `json:"lines"`
	StandardCost string               `json:"standard_cost"`
}

func toRecipeResponse(menuItemID uuid.UUID, lines []database.RecipeLine, cost decimal.Decimal) recipeResponse {
	resp := recipeResponse{
		MenuItemID:   menuItemID,
		Lines:        make([]recipeLineResponse, 0, len(lines)),
		StandardCost: cost.StringFixed(2),
	}
	for _, line := range lines {
		resp.Lines = append(resp.Lines, recipeLineResponse{
			IngredientID: line.IngredientID,
			Quantity:     qtyString(line.Quantity),
		})
	}
	return resp
}

// --- Handlers ---

// Set replaces the menu item's recipe with the lines in the request.
func (h *RecipeHandler) Set(w http.ResponseWriter, r *http.Request) {
	menuItemID, err := uuid.Parse(chi.URLParam(r, "menuItemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req setRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	lines := make([]service.RecipeLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		qty, err := decimal.NewFromString(line.Quantity)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line quantity"})
			return
		}
		lines = append(lines, service.RecipeLineInput{
			IngredientID: line.IngredientID,
			Quantity:     qty,
		})
	}

	detail, err := h.svc.SetRecipe(r.Context(), menuItemID, lines)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMenuItemNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
		case errors.Is(err, service.ErrIngredientNotFound):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown ingredient in recipe"})
		case errors.Is(err, service.ErrEmptyRecipe),
			errors.Is(err, service.ErrDuplicateLine),
			errors.Is(err, service.ErrInvalidLineQty):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Error().Err(err).Msg("set recipe")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, toRecipeResponse(menuItemID, detail.Lines, detail.StandardCost))
}

// Get returns the recipe lines and standard cost for a menu item.
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	menuItemID, err := uuid.Parse(chi.URLParam(r, "menuItemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	recipe, err := h.store.GetRecipeByMenuItem(r.Context(), menuItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "recipe not found"})
			return
		}
		log.Error().Err(err).Msg("get recipe")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	lines, err := h.store.ListRecipeLines(r.Context(), recipe.ID)
	if err != nil {
		log.Error().Err(err).Msg("list recipe lines")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	costs := make(map[uuid.UUID]decimal.Decimal, len(lines))
	for _, line := range lines {
		ing, err := h.store.GetIngredient(r.Context(), line.IngredientID)
		if err != nil {
			log.Error().Err(err).Msg("get recipe ingredient")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		costs[line.IngredientID] = numericToDecimal(ing.CostPerUnit)
	}

	writeJSON(w, http.StatusOK, toRecipeResponse(menuItemID, lines, service.StandardCost(lines, costs)))
}

// Delete removes the menu item's recipe.
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	menuItemID, err := uuid.Parse(chi.URLParam(r, "menuItemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	if err := h.svc.DeleteRecipe(r.Context(), menuItemID); err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "recipe not found"})
			return
		}
		log.Error().Err(err).Msg("delete recipe")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
