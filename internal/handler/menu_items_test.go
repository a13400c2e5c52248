package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/handler"
)

// --- Mock store ---

type mockMenuItemStore struct {
	items   map[uuid.UUID]database.MenuItem
	pricing map[uuid.UUID][]database.MenuPricing // keyed by menu item ID
}

func newMockMenuItemStore() *mockMenuItemStore {
	return &mockMenuItemStore{
		items:   make(map[uuid.UUID]database.MenuItem),
		pricing: make(map[uuid.UUID][]database.MenuPricing),
	}
}

func mustNumeric(t *testing.T, s string) pgtype.Numeric {
	t.Helper()
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		t.Fatalf("scan numeric %q: %v", s, err)
	}
	return n
}

func (m *mockMenuItemStore) CreateMenuItem(_ context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error) {
	for _, it := range m.items {
		if it.Sku == arg.Sku {
			return database.MenuItem{}, &pgconn.PgError{Code: "23505", ConstraintName: "menu_items_sku_key"}
		}
	}
	item := database.MenuItem{
		ID:          uuid.New(),
		CategoryID:  arg.CategoryID,
		Sku:         arg.Sku,
		Name:        arg.Name,
		Description: arg.Description,
		Price:       arg.Price,
		ImageUrl:    arg.ImageUrl,
		Status:      arg.Status,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.items[item.ID] = item
	return item, nil
}

func (m *mockMenuItemStore) GetMenuItem(_ context.Context, id uuid.UUID) (database.MenuItem, error) {
	item, ok := m.items[id]
	if !ok {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	return item, nil
}

func (m *mockMenuItemStore) ListMenuItems(_ context.Context, arg database.ListMenuItemsParams) ([]database.MenuItem, error) {
	result := make([]database.MenuItem, 0, len(m.items))
	for _, it := range m.items {
		if arg.CategoryID.Valid && it.CategoryID != uuid.UUID(arg.CategoryID.Bytes) {
			continue
		}
		if arg.Status.Valid && it.Status != arg.Status.String {
			continue
		}
		result = append(result, it)
	}
	return result, nil
}

func (m *mockMenuItemStore) UpdateMenuItem(_ context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error) {
	item, ok := m.items[arg.ID]
	if !ok {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	item.CategoryID = arg.CategoryID
	item.Name = arg.Name
	item.Description = arg.Description
	item.Price = arg.Price
	item.ImageUrl = arg.ImageUrl
	m.items[item.ID] = item
	return item, nil
}

func (m *mockMenuItemStore) UpdateMenuItemStatus(_ context.Context, arg database.UpdateMenuItemStatusParams) (database.MenuItem, error) {
	item, ok := m.items[arg.ID]
	if !ok {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	item.Status = arg.Status
	m.items[item.ID] = item
	return item, nil
}

func (m *mockMenuItemStore) DeleteMenuItem(_ context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

func (m *mockMenuItemStore) CreateMenuPricing(_ context.Context, arg database.CreateMenuPricingParams) (database.MenuPricing, error) {
	p := database.MenuPricing{
		ID:            uuid.New(),
		MenuItemID:    arg.MenuItemID,
		SellingPrice:  arg.SellingPrice,
		EffectiveDate: arg.EffectiveDate,
		CreatedAt:     time.Now(),
	}
	m.pricing[arg.MenuItemID] = append(m.pricing[arg.MenuItemID], p)
	return p, nil
}

func (m *mockMenuItemStore) ListMenuPricing(_ context.Context, menuItemID uuid.UUID) ([]database.MenuPricing, error) {
	return m.pricing[menuItemID], nil
}

func (m *mockMenuItemStore) GetEffectivePrice(_ context.Context, arg database.GetEffectivePriceParams) (database.MenuPricing, error) {
	var best *database.MenuPricing
	for i := range m.pricing[arg.MenuItemID] {
		p := m.pricing[arg.MenuItemID][i]
		if p.EffectiveDate.After(arg.AsOf) {
			continue
		}
		if best == nil || p.EffectiveDate.After(best.EffectiveDate) {
			best = &p
		}
	}
	if best == nil {
		return database.MenuPricing{}, pgx.ErrNoRows
	}
	return *best, nil
}

func setupMenuItemRouter(store *mockMenuItemStore) *chi.Mux {
	h := handler.NewMenuItemHandler(store)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// --- Create tests ---

func TestMenuItemCreate_Valid(t *testing.T) {
	store := newMockMenuItemStore()
	router := setupMenuItemRouter(store)

	rr := doRequest(t, router, "POST", "/menu-items", map[string]interface{}{
		"category_id": uuid.New().String(),
		"sku":         "NASI-GORENG",
		"name":        "Nasi Goreng",
		"price":       "25000",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["sku"] != "NASI-GORENG" {
		t.Errorf("sku: got %v, want NASI-GORENG", resp["sku"])
	}
	if resp["price"] != "25000.00" {
		t.Errorf("price: got %v, want 25000.00", resp["price"])
	}
	if resp["status"] != "ACTIVE" {
		t.Errorf("status: got %v, want ACTIVE", resp["status"])
	}
}

func TestMenuItemCreate_NegativePrice(t *testing.T) {
	router := setupMenuItemRouter(newMockMenuItemStore())

	rr := doRequest(t, router, "POST", "/menu-items", map[string]interface{}{
		"category_id": uuid.New().String(),
		"sku":         "X",
		"name":        "X",
		"price":       "-5",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestMenuItemCreate_DuplicateSku(t *testing.T) {
	router := setupMenuItemRouter(newMockMenuItemStore())

	body := map[string]interface{}{
		"category_id": uuid.New().String(),
		"sku":         "NASI-GORENG",
		"name":        "Nasi Goreng",
		"price":       "25000",
	}
	doRequest(t, router, "POST", "/menu-items", body)
	rr := doRequest(t, router, "POST", "/menu-items", body)

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
}

// --- List tests ---

func TestMenuItemList_FilterByStatus(t *testing.T) {
	store := newMockMenuItemStore()
	for i, status := range []string{"ACTIVE", "ACTIVE", "OUT_OF_STOCK"} {
		id := uuid.New()
		store.items[id] = database.MenuItem{
			ID: id, CategoryID: uuid.New(), Sku: string(rune('A' + i)), Name: "Item",
			Price: mustNumeric(t, "10000"), Status: status,
		}
	}
	router := setupMenuItemRouter(store)

	rr := doRequest(t, router, "GET", "/menu-items?status=ACTIVE", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if got := len(decodeListResponse(t, rr)); got != 2 {
		t.Errorf("expected 2 active items, got %d", got)
	}
}

func TestMenuItemList_InvalidStatus(t *testing.T) {
	router := setupMenuItemRouter(newMockMenuItemStore())

	rr := doRequest(t, router, "GET", "/menu-items?status=SOLD_OUT", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Status tests ---

func TestMenuItemUpdateStatus_RejectsOutOfStock(t *testing.T) {
	store := newMockMenuItemStore()
	id := uuid.New()
	store.items[id] = database.MenuItem{
		ID: id, CategoryID: uuid.New(), Sku: "A", Name: "Item",
		Price: mustNumeric(t, "10000"), Status: "ACTIVE",
	}
	router := setupMenuItemRouter(store)

	rr := doRequest(t, router, "PATCH", "/menu-items/"+id.String()+"/status", map[string]interface{}{
		"status": "OUT_OF_STOCK",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if store.items[id].Status != "ACTIVE" {
		t.Errorf("stored status changed to %s", store.items[id].Status)
	}
}

func TestMenuItemUpdateStatus_Deactivate(t *testing.T) {
	store := newMockMenuItemStore()
	id := uuid.New()
	store.items[id] = database.MenuItem{
		ID: id, CategoryID: uuid.New(), Sku: "A", Name: "Item",
		Price: mustNumeric(t, "10000"), Status: "ACTIVE",
	}
	router := setupMenuItemRouter(store)

	rr := doRequest(t, router, "PATCH", "/menu-items/"+id.String()+"/status", map[string]interface{}{
		"status": "INACTIVE",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if store.items[id].Status != "INACTIVE" {
		t.Errorf("stored status: got %s, want INACTIVE", store.items[id].Status)
	}
}

// --- Pricing tests ---

func TestMenuItemPricing_EffectivePicksLatest(t *testing.T) {
	store := newMockMenuItemStore()
	itemID := uuid.New()
	store.items[itemID] = database.MenuItem{
		ID: itemID, CategoryID: uuid.New(), Sku: "A", Name: "Item",
		Price: mustNumeric(t, "10000"), Status: "ACTIVE",
	}
	store.pricing[itemID] = []database.MenuPricing{
		{ID: uuid.New(), MenuItemID: itemID, SellingPrice: mustNumeric(t, "10000"),
			EffectiveDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: uuid.New(), MenuItemID: itemID, SellingPrice: mustNumeric(t, "12000"),
			EffectiveDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: uuid.New(), MenuItemID: itemID, SellingPrice: mustNumeric(t, "15000"),
			EffectiveDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
	}
	router := setupMenuItemRouter(store)

	rr := doRequest(t, router, "GET", "/menu-items/"+itemID.String()+"/pricing/effective?as_of=2026-05-01", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if resp := decodeResponse(t, rr); resp["selling_price"] != "12000.00" {
		t.Errorf("selling_price: got %v, want 12000.00", resp["selling_price"])
	}
}

func TestMenuItemPricing_NoneEffective(t *testing.T) {
	store := newMockMenuItemStore()
	itemID := uuid.New()
	router := setupMenuItemRouter(store)

	rr := doRequest(t, router, "GET", "/menu-items/"+itemID.String()+"/pricing/effective?as_of=2026-01-01", nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestMenuItemPricing_Create(t *testing.T) {
	store := newMockMenuItemStore()
	itemID := uuid.New()
	router := setupMenuItemRouter(store)

	rr := doRequest(t, router, "POST", "/menu-items/"+itemID.String()+"/pricing", map[string]interface{}{
		"selling_price":  "18000",
		"effective_date": "2026-10-01",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if len(store.pricing[itemID]) != 1 {
		t.Errorf("expected 1 pricing row, got %d", len(store.pricing[itemID]))
	}
}
