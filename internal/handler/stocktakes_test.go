package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/handler"
	"github.com/fami-pos/api/internal/middleware"
	"github.com/fami-pos/api/internal/service"
)

// --- Mocks ---

type mockStockTakeService struct {
	createFn     func(ctx context.Context, notes string, actor uuid.UUID) (*service.StockTakeResult, error)
	saveCountsFn func(ctx context.Context, stockTakeID uuid.UUID, counts []service.Count) (*service.StockTakeResult, error)
	finalizeFn   func(ctx context.Context, stockTakeID uuid.UUID, actor uuid.UUID) (*service.StockTakeResult, error)
	cancelFn     func(ctx context.Context, stockTakeID uuid.UUID) (*database.StockTake, error)
}

func (m *mockStockTakeService) Create(ctx context.Context, notes string, actor uuid.UUID) (*service.StockTakeResult, error) {
	return m.createFn(ctx, notes, actor)
}

func (m *mockStockTakeService) SaveCounts(ctx context.Context, stockTakeID uuid.UUID, counts []service.Count) (*service.StockTakeResult, error) {
	return m.saveCountsFn(ctx, stockTakeID, counts)
}

func (m *mockStockTakeService) Finalize(ctx context.Context, stockTakeID uuid.UUID, actor uuid.UUID) (*service.StockTakeResult, error) {
	return m.finalizeFn(ctx, stockTakeID, actor)
}

func (m *mockStockTakeService) Cancel(ctx context.Context, stockTakeID uuid.UUID) (*database.StockTake, error) {
	return m.cancelFn(ctx, stockTakeID)
}

type mockStockTakeStore struct {
	tickets map[uuid.UUID]database.StockTake
	lines   map[uuid.UUID][]database.StockTakeLine
}

func newMockStockTakeStore() *mockStockTakeStore {
	return &mockStockTakeStore{
		tickets: make(map[uuid.UUID]database.StockTake),
		lines:   make(map[uuid.UUID][]database.StockTakeLine),
	}
}

func (m *mockStockTakeStore) GetStockTake(_ context.Context, id uuid.UUID) (database.StockTake, error) {
	st, ok := m.tickets[id]
	if !ok {
		return database.StockTake{}, pgx.ErrNoRows
	}
	return st, nil
}

func (m *mockStockTakeStore) ListStockTakes(_ context.Context, _ database.ListStockTakesParams) ([]database.StockTake, error) {
	result := make([]database.StockTake, 0, len(m.tickets))
	for _, st := range m.tickets {
		result = append(result, st)
	}
	return result, nil
}

func (m *mockStockTakeStore) ListStockTakeLines(_ context.Context, stockTakeID uuid.UUID) ([]database.StockTakeLine, error) {
	return m.lines[stockTakeID], nil
}

func setupStockTakeRouter(svc *mockStockTakeService, store *mockStockTakeStore) *chi.Mux {
	h := handler.NewStockTakeHandler(svc, store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	h.RegisterRoutes(r)
	return r
}

func draftTicket(t *testing.T) database.StockTake {
	t.Helper()
	return database.StockTake{
		ID:            uuid.New(),
		Code:          "ST-20260829-0001",
		Status:        "DRAFT",
		VarianceTotal: mustNumeric(t, "0"),
		CreatedBy:     uuid.New(),
		CreatedAt:     time.Now(),
	}
}

// --- Tests ---

func TestStockTakeCreate(t *testing.T) {
	ticket := draftTicket(t)
	svc := &mockStockTakeService{
		createFn: func(_ context.Context, notes string, actor uuid.UUID) (*service.StockTakeResult, error) {
			if actor == uuid.Nil {
				t.Error("expected actor from claims")
			}
			line := database.StockTakeLine{
				ID: uuid.New(), StockTakeID: ticket.ID, IngredientID: uuid.New(),
				SnapshotQty: mustNumeric(t, "12.500"),
				ActualQty:   mustNumeric(t, "12.500"),
				Variance:    mustNumeric(t, "0"),
			}
			return &service.StockTakeResult{StockTake: ticket, Lines: []database.StockTakeLine{line}}, nil
		},
	}
	router := setupStockTakeRouter(svc, newMockStockTakeStore())

	rr := doAuthRequest(t, router, "POST", "/stock-takes", map[string]interface{}{
		"notes": "monthly count",
	}, testClaims())

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	st, ok := resp["stock_take"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected stock_take object, got %T", resp["stock_take"])
	}
	if st["status"] != "DRAFT" {
		t.Errorf("status: got %v, want DRAFT", st["status"])
	}
	lines, ok := resp["lines"].([]interface{})
	if !ok || len(lines) != 1 {
		t.Fatalf("expected 1 snapshot line, got %v", resp["lines"])
	}
}

func TestStockTakeSaveCounts_Success(t *testing.T) {
	ticket := draftTicket(t)
	ingredientID := uuid.New()
	svc := &mockStockTakeService{
		saveCountsFn: func(_ context.Context, id uuid.UUID, counts []service.Count) (*service.StockTakeResult, error) {
			if id != ticket.ID {
				t.Errorf("stock take ID: got %s, want %s", id, ticket.ID)
			}
			if len(counts) != 1 || counts[0].ActualQty.String() != "10.25" {
				t.Errorf("unexpected counts: %v", counts)
			}
			return &service.StockTakeResult{StockTake: ticket}, nil
		},
	}
	router := setupStockTakeRouter(svc, newMockStockTakeStore())

	rr := doAuthRequest(t, router, "PUT", "/stock-takes/"+ticket.ID.String()+"/counts", map[string]interface{}{
		"counts": []map[string]interface{}{
			{"ingredient_id": ingredientID.String(), "actual_qty": "10.250"},
		},
	}, testClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
}

func TestStockTakeSaveCounts_BadQty(t *testing.T) {
	router := setupStockTakeRouter(&mockStockTakeService{}, newMockStockTakeStore())

	rr := doAuthRequest(t, router, "PUT", "/stock-takes/"+uuid.New().String()+"/counts", map[string]interface{}{
		"counts": []map[string]interface{}{
			{"ingredient_id": uuid.New().String(), "actual_qty": "sepuluh"},
		},
	}, testClaims())

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestStockTakeSaveCounts_NotDraft(t *testing.T) {
	svc := &mockStockTakeService{
		saveCountsFn: func(_ context.Context, _ uuid.UUID, _ []service.Count) (*service.StockTakeResult, error) {
			return nil, service.ErrStockTakeNotDraft
		},
	}
	router := setupStockTakeRouter(svc, newMockStockTakeStore())

	rr := doAuthRequest(t, router, "PUT", "/stock-takes/"+uuid.New().String()+"/counts", map[string]interface{}{
		"counts": []map[string]interface{}{
			{"ingredient_id": uuid.New().String(), "actual_qty": "10"},
		},
	}, testClaims())

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
}

func TestStockTakeSaveCounts_UnknownIngredient(t *testing.T) {
	svc := &mockStockTakeService{
		saveCountsFn: func(_ context.Context, _ uuid.UUID, _ []service.Count) (*service.StockTakeResult, error) {
			return nil, service.ErrCountNotInTicket
		},
	}
	router := setupStockTakeRouter(svc, newMockStockTakeStore())

	rr := doAuthRequest(t, router, "PUT", "/stock-takes/"+uuid.New().String()+"/counts", map[string]interface{}{
		"counts": []map[string]interface{}{
			{"ingredient_id": uuid.New().String(), "actual_qty": "10"},
		},
	}, testClaims())

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestStockTakeFinalize_Success(t *testing.T) {
	ticket := draftTicket(t)
	ticket.Status = "COMPLETED"
	svc := &mockStockTakeService{
		finalizeFn: func(_ context.Context, _ uuid.UUID, actor uuid.UUID) (*service.StockTakeResult, error) {
			if actor == uuid.Nil {
				t.Error("expected actor from claims")
			}
			return &service.StockTakeResult{StockTake: ticket}, nil
		},
	}
	router := setupStockTakeRouter(svc, newMockStockTakeStore())

	rr := doAuthRequest(t, router, "POST", "/stock-takes/"+ticket.ID.String()+"/finalize", nil, testClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if st := resp["stock_take"].(map[string]interface{}); st["status"] != "COMPLETED" {
		t.Errorf("status: got %v, want COMPLETED", st["status"])
	}
}

func TestStockTakeFinalize_NotFound(t *testing.T) {
	svc := &mockStockTakeService{
		finalizeFn: func(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*service.StockTakeResult, error) {
			return nil, service.ErrStockTakeNotFound
		},
	}
	router := setupStockTakeRouter(svc, newMockStockTakeStore())

	rr := doAuthRequest(t, router, "POST", "/stock-takes/"+uuid.New().String()+"/finalize", nil, testClaims())

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestStockTakeCancel(t *testing.T) {
	ticket := draftTicket(t)
	ticket.Status = "CANCELLED"
	svc := &mockStockTakeService{
		cancelFn: func(_ context.Context, _ uuid.UUID) (*database.StockTake, error) {
			return &ticket, nil
		},
	}
	router := setupStockTakeRouter(svc, newMockStockTakeStore())

	rr := doAuthRequest(t, router, "POST", "/stock-takes/"+ticket.ID.String()+"/cancel", nil, testClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if resp := decodeResponse(t, rr); resp["status"] != "CANCELLED" {
		t.Errorf("status: got %v, want CANCELLED", resp["status"])
	}
}

func TestStockTakeGet_NotFound(t *testing.T) {
	router := setupStockTakeRouter(&mockStockTakeService{}, newMockStockTakeStore())

	rr := doAuthRequest(t, router, "GET", "/stock-takes/"+uuid.New().String(), nil, testClaims())

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
