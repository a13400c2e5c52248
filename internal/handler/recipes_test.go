package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/handler"
	"github.com/fami-pos/api/internal/service"
)

// --- Mocks ---

type mockRecipeService struct {
	setRecipeFn    func(ctx context.Context, menuItemID uuid.UUID, lines []service.RecipeLineInput) (*service.RecipeDetail, error)
	deleteRecipeFn func(ctx context.Context, menuItemID uuid.UUID) error
}

func (m *mockRecipeService) SetRecipe(ctx context.Context, menuItemID uuid.UUID, lines []service.RecipeLineInput) (*service.RecipeDetail, error) {
	return m.setRecipeFn(ctx, menuItemID, lines)
}

func (m *mockRecipeService) DeleteRecipe(ctx context.Context, menuItemID uuid.UUID) error {
	return m.deleteRecipeFn(ctx, menuItemID)
}

type mockRecipeReadStore struct {
	recipes     map[uuid.UUID]database.Recipe // keyed by menu item ID
	lines       map[uuid.UUID][]database.RecipeLine
	ingredients map[uuid.UUID]database.Ingredient
}

func newMockRecipeReadStore() *mockRecipeReadStore {
	return &mockRecipeReadStore{
		recipes:     make(map[uuid.UUID]database.Recipe),
		lines:       make(map[uuid.UUID][]database.RecipeLine),
		ingredients: make(map[uuid.UUID]database.Ingredient),
	}
}

func (m *mockRecipeReadStore) GetRecipeByMenuItem(_ context.Context, menuItemID uuid.UUID) (database.Recipe, error) {
	rec, ok := m.recipes[menuItemID]
	if !ok {
		return database.Recipe{}, pgx.ErrNoRows
	}
	return rec, nil
}

func (m *mockRecipeReadStore) ListRecipeLines(_ context.Context, recipeID uuid.UUID) ([]database.RecipeLine, error) {
	return m.lines[recipeID], nil
}

func (m *mockRecipeReadStore) GetIngredient(_ context.Context, id uuid.UUID) (database.Ingredient, error) {
	i, ok := m.ingredients[id]
	if !ok {
		return database.Ingredient{}, pgx.ErrNoRows
	}
	return i, nil
}

func setupRecipeRouter(svc *mockRecipeService, store *mockRecipeReadStore) *chi.Mux {
	h := handler.NewRecipeHandler(svc, store)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// --- Tests ---

func TestRecipeSet_Success(t *testing.T) {
	menuItemID := uuid.New()
	ingredientID := uuid.New()
	recipeID := uuid.New()
	svc := &mockRecipeService{
		setRecipeFn: func(_ context.Context, id uuid.UUID, lines []service.RecipeLineInput) (*service.RecipeDetail, error) {
			if id != menuItemID {
				t.Errorf("menu item ID: got %s, want %s", id, menuItemID)
			}
			if len(lines) != 1 || lines[0].Quantity.String() != "0.2" {
				t.Errorf("unexpected lines: %v", lines)
			}
			return &service.RecipeDetail{
				Recipe: database.Recipe{ID: recipeID, MenuItemID: id},
				Lines: []database.RecipeLine{
					{ID: uuid.New(), RecipeID: recipeID, IngredientID: ingredientID, Quantity: mustNumeric(t, "0.200")},
				},
				StandardCost: decimal.RequireFromString("2400"),
			}, nil
		},
	}
	router := setupRecipeRouter(svc, newMockRecipeReadStore())

	rr := doRequest(t, router, "PUT", "/recipes/"+menuItemID.String(), map[string]interface{}{
		"lines": []map[string]interface{}{
			{"ingredient_id": ingredientID.String(), "quantity": "0.2"},
		},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["standard_cost"] != "2400.00" {
		t.Errorf("standard_cost: got %v, want 2400.00", resp["standard_cost"])
	}
}

func TestRecipeSet_EmptyRejected(t *testing.T) {
	svc := &mockRecipeService{
		setRecipeFn: func(_ context.Context, _ uuid.UUID, _ []service.RecipeLineInput) (*service.RecipeDetail, error) {
			return nil, service.ErrEmptyRecipe
		},
	}
	router := setupRecipeRouter(svc, newMockRecipeReadStore())

	rr := doRequest(t, router, "PUT", "/recipes/"+uuid.New().String(), map[string]interface{}{
		"lines": []map[string]interface{}{},
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRecipeSet_UnknownMenuItem(t *testing.T) {
	svc := &mockRecipeService{
		setRecipeFn: func(_ context.Context, _ uuid.UUID, _ []service.RecipeLineInput) (*service.RecipeDetail, error) {
			return nil, service.ErrMenuItemNotFound
		},
	}
	router := setupRecipeRouter(svc, newMockRecipeReadStore())

	rr := doRequest(t, router, "PUT", "/recipes/"+uuid.New().String(), map[string]interface{}{
		"lines": []map[string]interface{}{
			{"ingredient_id": uuid.New().String(), "quantity": "1"},
		},
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestRecipeGet_ComputesStandardCost(t *testing.T) {
	menuItemID := uuid.New()
	recipeID := uuid.New()
	beras := uuid.New()
	telur := uuid.New()
	store := newMockRecipeReadStore()
	store.recipes[menuItemID] = database.Recipe{ID: recipeID, MenuItemID: menuItemID}
	store.lines[recipeID] = []database.RecipeLine{
		{ID: uuid.New(), RecipeID: recipeID, IngredientID: beras, Quantity: mustNumeric(t, "0.200")},
		{ID: uuid.New(), RecipeID: recipeID, IngredientID: telur, Quantity: mustNumeric(t, "2")},
	}
	store.ingredients[beras] = database.Ingredient{ID: beras, Name: "Beras", Unit: "kg", CostPerUnit: mustNumeric(t, "12000")}
	store.ingredients[telur] = database.Ingredient{ID: telur, Name: "Telur", Unit: "pcs", CostPerUnit: mustNumeric(t, "2500")}
	router := setupRecipeRouter(&mockRecipeService{}, store)

	rr := doRequest(t, router, "GET", "/recipes/"+menuItemID.String(), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	// 0.2 * 12000 + 2 * 2500 = 7400
	if resp["standard_cost"] != "7400.00" {
		t.Errorf("standard_cost: got %v, want 7400.00", resp["standard_cost"])
	}
}

func TestRecipeGet_NotFound(t *testing.T) {
	router := setupRecipeRouter(&mockRecipeService{}, newMockRecipeReadStore())

	rr := doRequest(t, router, "GET", "/recipes/"+uuid.New().String(), nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestRecipeDelete_NotFound(t *testing.T) {
	svc := &mockRecipeService{
		deleteRecipeFn: func(_ context.Context, _ uuid.UUID) error {
			return service.ErrRecipeNotFound
		},
	}
	router := setupRecipeRouter(svc, newMockRecipeReadStore())

	rr := doRequest(t, router, "DELETE", "/recipes/"+uuid.New().String(), nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestRecipeDelete_Success(t *testing.T) {
	svc := &mockRecipeService{
		deleteRecipeFn: func(_ context.Context, _ uuid.UUID) error { return nil },
	}
	router := setupRecipeRouter(svc, newMockRecipeReadStore())

	rr := doRequest(t, router, "DELETE", "/recipes/"+uuid.New().String(), nil)

	if rr.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
}
