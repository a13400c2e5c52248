package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/handler"
	"github.com/fami-pos/api/internal/middleware"
	"github.com/fami-pos/api/internal/service"
)

// --- Mocks ---

type mockInventoryService struct {
	adjustFn      func(ctx context.Context, ingredientID uuid.UUID, newQty decimal.Decimal, reason string, actor uuid.UUID) (*service.AdjustResult, error)
	reportWasteFn func(ctx context.Context, req service.WasteRequest) (*database.WasteReport, error)
}

func (m *mockInventoryService) Adjust(ctx context.Context, ingredientID uuid.UUID, newQty decimal.Decimal, reason string, actor uuid.UUID) (*service.AdjustResult, error) {
	return m.adjustFn(ctx, ingredientID, newQty, reason, actor)
}

func (m *mockInventoryService) ReportWaste(ctx context.Context, req service.WasteRequest) (*database.WasteReport, error) {
	return m.reportWasteFn(ctx, req)
}

type mockInventoryReadStore struct {
	levels      []database.ListInventoryLevelsRow
	lowStock    []database.ListInventoryLevelsRow
	logs        map[uuid.UUID][]database.InventoryLog
	waste       []database.WasteReport
	reasonCodes map[uuid.UUID]database.ReasonCode
}

func newMockInventoryReadStore() *mockInventoryReadStore {
	return &mockInventoryReadStore{
		logs:        make(map[uuid.UUID][]database.InventoryLog),
		reasonCodes: make(map[uuid.UUID]database.ReasonCode),
	}
}

func (m *mockInventoryReadStore) ListInventoryLevels(_ context.Context) ([]database.ListInventoryLevelsRow, error) {
	return m.levels, nil
}

func (m *mockInventoryReadStore) ListLowStockLevels(_ context.Context) ([]database.ListInventoryLevelsRow, error) {
	return m.lowStock, nil
}

func (m *mockInventoryReadStore) ListInventoryLogs(_ context.Context, arg database.ListInventoryLogsParams) ([]database.InventoryLog, error) {
	return m.logs[arg.IngredientID], nil
}

func (m *mockInventoryReadStore) ListWasteReports(_ context.Context, _ database.ListWasteReportsParams) ([]database.WasteReport, error) {
	return m.waste, nil
}

func (m *mockInventoryReadStore) CreateReasonCode(_ context.Context, arg database.CreateReasonCodeParams) (database.ReasonCode, error) {
	for _, rc := range m.reasonCodes {
		if rc.Code == arg.Code {
			return database.ReasonCode{}, &pgconn.PgError{Code: "23505", ConstraintName: "reason_codes_code_key"}
		}
	}
	rc := database.ReasonCode{ID: uuid.New(), Code: arg.Code, Description: arg.Description, IsActive: arg.IsActive}
	m.reasonCodes[rc.ID] = rc
	return rc, nil
}

func (m *mockInventoryReadStore) ListReasonCodes(_ context.Context) ([]database.ReasonCode, error) {
	result := make([]database.ReasonCode, 0, len(m.reasonCodes))
	for _, rc := range m.reasonCodes {
		result = append(result, rc)
	}
	return result, nil
}

func setupInventoryRouter(svc *mockInventoryService, store *mockInventoryReadStore) *chi.Mux {
	h := handler.NewInventoryHandler(svc, store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	h.RegisterRoutes(r)
	return r
}

// --- Level tests ---

func TestInventoryListLevels(t *testing.T) {
	store := newMockInventoryReadStore()
	store.levels = []database.ListInventoryLevelsRow{
		{
			IngredientID:   uuid.New(),
			Name:           "Beras",
			Unit:           "kg",
			QuantityOnHand: mustNumeric(t, "25.500"),
			CostPerUnit:    mustNumeric(t, "12000"),
			AlertThreshold: mustNumeric(t, "5"),
		},
	}
	router := setupInventoryRouter(&mockInventoryService{}, store)

	rr := doAuthRequest(t, router, "GET", "/inventory", nil, testClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	rows := decodeListResponse(t, rr)
	if len(rows) != 1 {
		t.Fatalf("expected 1 level, got %d", len(rows))
	}
	if rows[0]["quantity_on_hand"] != "25.500" {
		t.Errorf("quantity_on_hand: got %v, want 25.500", rows[0]["quantity_on_hand"])
	}
}

// --- Adjust tests ---

func TestInventoryAdjust_Success(t *testing.T) {
	ingredientID := uuid.New()
	svc := &mockInventoryService{
		adjustFn: func(_ context.Context, id uuid.UUID, newQty decimal.Decimal, reason string, actor uuid.UUID) (*service.AdjustResult, error) {
			if id != ingredientID {
				t.Errorf("ingredient ID: got %s, want %s", id, ingredientID)
			}
			if newQty.String() != "30" {
				t.Errorf("quantity: got %s, want 30", newQty)
			}
			if reason != "delivery arrived" {
				t.Errorf("reason: got %q", reason)
			}
			return &service.AdjustResult{
				Level: database.InventoryLevel{
					ID: uuid.New(), IngredientID: id,
					QuantityOnHand: mustNumeric(t, "30"), UpdatedAt: time.Now(),
				},
				Log: database.InventoryLog{
					ID: uuid.New(), IngredientID: id, ChangeType: "ADJUSTMENT",
					QuantityChange: mustNumeric(t, "4.500"),
					QuantityAfter:  mustNumeric(t, "30"),
					CreatedBy:      actor, CreatedAt: time.Now(),
				},
			}, nil
		},
	}
	router := setupInventoryRouter(svc, newMockInventoryReadStore())

	rr := doAuthRequest(t, router, "POST", "/inventory/"+ingredientID.String()+"/adjust", map[string]interface{}{
		"quantity": "30",
		"reason":   "delivery arrived",
	}, testClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if resp := decodeResponse(t, rr); resp["quantity_on_hand"] != "30.000" {
		t.Errorf("quantity_on_hand: got %v, want 30.000", resp["quantity_on_hand"])
	}
}

func TestInventoryAdjust_Negative(t *testing.T) {
	svc := &mockInventoryService{
		adjustFn: func(_ context.Context, _ uuid.UUID, _ decimal.Decimal, _ string, _ uuid.UUID) (*service.AdjustResult, error) {
			return nil, service.ErrNegativeQuantity
		},
	}
	router := setupInventoryRouter(svc, newMockInventoryReadStore())

	rr := doAuthRequest(t, router, "POST", "/inventory/"+uuid.New().String()+"/adjust", map[string]interface{}{
		"quantity": "-3",
	}, testClaims())

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestInventoryAdjust_UnknownIngredient(t *testing.T) {
	svc := &mockInventoryService{
		adjustFn: func(_ context.Context, _ uuid.UUID, _ decimal.Decimal, _ string, _ uuid.UUID) (*service.AdjustResult, error) {
			return nil, service.ErrIngredientNotFound
		},
	}
	router := setupInventoryRouter(svc, newMockInventoryReadStore())

	rr := doAuthRequest(t, router, "POST", "/inventory/"+uuid.New().String()+"/adjust", map[string]interface{}{
		"quantity": "10",
	}, testClaims())

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- Waste tests ---

func TestWasteReport_Ingredient(t *testing.T) {
	ingredientID := uuid.New()
	svc := &mockInventoryService{
		reportWasteFn: func(_ context.Context, req service.WasteRequest) (*database.WasteReport, error) {
			if req.TargetType != "INGREDIENT" {
				t.Errorf("target_type: got %s, want INGREDIENT", req.TargetType)
			}
			if req.IngredientID != ingredientID {
				t.Errorf("ingredient ID: got %s, want %s", req.IngredientID, ingredientID)
			}
			return &database.WasteReport{
				ID:           uuid.New(),
				TargetType:   req.TargetType,
				Quantity:     mustNumeric(t, "2.500"),
				LossValue:    mustNumeric(t, "30000"),
				ReasonCodeID: uuid.New(),
				ReportedBy:   req.Actor,
				CreatedAt:    time.Now(),
			}, nil
		},
	}
	router := setupInventoryRouter(svc, newMockInventoryReadStore())

	rr := doAuthRequest(t, router, "POST", "/waste", map[string]interface{}{
		"target_type":   "INGREDIENT",
		"ingredient_id": ingredientID.String(),
		"quantity":      "2.5",
		"reason_code":   "SPOILED",
	}, testClaims())

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if resp := decodeResponse(t, rr); resp["loss_value"] != "30000.00" {
		t.Errorf("loss_value: got %v, want 30000.00", resp["loss_value"])
	}
}

func TestWasteReport_InvalidReasonCode(t *testing.T) {
	svc := &mockInventoryService{
		reportWasteFn: func(_ context.Context, _ service.WasteRequest) (*database.WasteReport, error) {
			return nil, service.ErrInvalidReasonCode
		},
	}
	router := setupInventoryRouter(svc, newMockInventoryReadStore())

	rr := doAuthRequest(t, router, "POST", "/waste", map[string]interface{}{
		"target_type":   "INGREDIENT",
		"ingredient_id": uuid.New().String(),
		"quantity":      "1",
		"reason_code":   "NOPE",
	}, testClaims())

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestWasteList_InvalidDate(t *testing.T) {
	router := setupInventoryRouter(&mockInventoryService{}, newMockInventoryReadStore())

	rr := doAuthRequest(t, router, "GET", "/waste?start=yesterday", nil, testClaims())

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Reason code tests ---

func TestReasonCodeCreate_Duplicate(t *testing.T) {
	router := setupInventoryRouter(&mockInventoryService{}, newMockInventoryReadStore())

	body := map[string]interface{}{"code": "SPOILED", "description": "Spoiled before use"}
	doAuthRequest(t, router, "POST", "/reason-codes", body, testClaims())
	rr := doAuthRequest(t, router, "POST", "/reason-codes", body, testClaims())

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
}

func TestReasonCodeCreate_MissingDescription(t *testing.T) {
	router := setupInventoryRouter(&mockInventoryService{}, newMockInventoryReadStore())

	rr := doAuthRequest(t, router, "POST", "/reason-codes", map[string]interface{}{
		"code": "SPOILED",
	}, testClaims())

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
