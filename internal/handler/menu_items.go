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
	"github.com/fami-pos/api/internal/enum"
)

// MenuItemStore defines the database methods needed by menu item handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuItemStore interface {
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	ListMenuItems(ctx context.Context, arg database.ListMenuItemsParams) ([]database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItemStatus(ctx context.Context, arg database.UpdateMenuItemStatusParams) (database.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uuid.UUID) error
	CreateMenuPricing(ctx context.Context, arg database.CreateMenuPricingParams) (database.MenuPricing, error)
	ListMenuPricing(ctx context.Context, menuItemID uuid.UUID) ([]database.MenuPricing, error)
	GetEffectivePrice(ctx context.Context, arg database.GetEffectivePriceParams) (database.MenuPricing, error)
}

// MenuItemHandler handles menu item and price history endpoints.
type MenuItemHandler struct {
	store MenuItemStore
}

// NewMenuItemHandler creates a new MenuItemHandler.
func NewMenuItemHandler(store MenuItemStore) *MenuItemHandler {
	return &MenuItemHandler{store: store}
}

// RegisterRoutes registers menu item endpoints on the given Chi router.
func (h *MenuItemHandler) RegisterRoutes(r chi.Router) {
	r.Route("/menu-items", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}/status", h.UpdateStatus)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/pricing", h.CreatePricing)
		r.Get("/{id}/pricing", h.ListPricing)
		r.Get("/{id}/pricing/effective", h.EffectivePrice)
	})
}

// --- Request / Response types ---

type createMenuItemRequest struct {
	CategoryID  uuid.UUID `json:"category_id"`
	Sku         string    `json:"sku"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       string    `json:"price"`
	ImageURL    *string   `json:"image_url"`
}

type updateMenuItemRequest struct {
	CategoryID  uuid.UUID `json:"category_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       string    `json:"price"`
	ImageURL    *string   `json:"image_url"`
}

type updateMenuItemStatusRequest struct {
	Status string `json:"status"`
}

type createPricingRequest struct {
	SellingPrice  string `json:"selling_price"`
	EffectiveDate string `json:"effective_date"`
}

type menuItemResponse struct {
	ID          uuid.UUID `json:"id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Sku         string    `json:"sku"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       string    `json:"price"`
	ImageURL    *string   `json:"image_url"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type menuPricingResponse struct {
	ID            uuid.UUID `json:"id"`
	MenuItemID    uuid.UUID `json:"menu_item_id"`
	SellingPrice  string    `json:"selling_price"`
	EffectiveDate time.Time `json:"effective_date"`
	CreatedAt     time.Time `json:"created_at"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:          m.ID,
		CategoryID:  m.CategoryID,
		Sku:         m.Sku,
		Name:        m.Name,
		Description: textPtr(m.Description),
		Price:       moneyString(m.Price),
		ImageURL:    textPtr(m.ImageUrl),
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toMenuPricingResponse(p database.MenuPricing) menuPricingResponse {
	return menuPricingResponse{
		ID:            p.ID,
		MenuItemID:    p.MenuItemID,
		SellingPrice:  moneyString(p.SellingPrice),
		EffectiveDate: p.EffectiveDate,
		CreatedAt:     p.CreatedAt,
	}
}

func parsePrice(s string) (pgtype.Numeric, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, errors.New("invalid price")
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, errors.New("price must not be negative")
	}
	return decimalToNumeric(d), nil
}

// --- Handlers ---

func (h *MenuItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Sku == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sku and name are required"})
		return
	}
	if req.CategoryID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category_id is required"})
		return
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		CategoryID:  req.CategoryID,
		Sku:         req.Sku,
		Name:        req.Name,
		Description: textFromPtr(req.Description),
		Price:       price,
		ImageUrl:    textFromPtr(req.ImageURL),
		Status:      enum.MenuItemStatusActive,
	})
	if err != nil {
		if isUniqueViolation(err, "menu_items_sku_key") {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "sku already exists"})
			return
		}
		log.Error().Err(err).Msg("create menu item")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

func (h *MenuItemHandler) List(w http.ResponseWriter, r *http.Request) {
	var params database.ListMenuItemsParams

	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
			return
		}
		params.CategoryID = pgtype.UUID{Bytes: categoryID, Valid: true}
	}
	if status := r.URL.Query().Get("status"); status != "" {
		if !enum.IsValidMenuItemStatus(status) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		params.Status = pgtype.Text{String: status, Valid: true}
	}

	items, err := h.store.ListMenuItems(r.Context(), params)
	if err != nil {
		log.Error().Err(err).Msg("list menu items")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, 0, len(items))
	for _, m := range items {
		resp = append(resp, toMenuItemResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MenuItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Error().Err(err).Msg("get menu item")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

func (h *MenuItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req updateMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.CategoryID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category_id is required"})
		return
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:          id,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: textFromPtr(req.Description),
		Price:       price,
		ImageUrl:    textFromPtr(req.ImageURL),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Error().Err(err).Msg("update menu item")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// UpdateStatus sets a menu item ACTIVE or INACTIVE. OUT_OF_STOCK is
// managed by the inventory layer and cannot be set by hand.
func (h *MenuItemHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req updateMenuItemStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Status != enum.MenuItemStatusActive && req.Status != enum.MenuItemStatusInactive {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status must be ACTIVE or INACTIVE"})
		return
	}

	item, err := h.store.UpdateMenuItemStatus(r.Context(), database.UpdateMenuItemStatusParams{
		ID:     id,
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Error().Err(err).Msg("update menu item status")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

func (h *MenuItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	if err := h.store.DeleteMenuItem(r.Context(), id); err != nil {
		log.Error().Err(err).Msg("delete menu item")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreatePricing records a new price that takes effect on the given date.
func (h *MenuItemHandler) CreatePricing(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req createPricingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	price, err := parsePrice(req.SellingPrice)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	effectiveDate := time.Now()
	if req.EffectiveDate != "" {
		effectiveDate, err = time.Parse("2006-01-02", req.EffectiveDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid effective_date, expected YYYY-MM-DD"})
			return
		}
	}

	pricing, err := h.store.CreateMenuPricing(r.Context(), database.CreateMenuPricingParams{
		MenuItemID:    id,
		SellingPrice:  price,
		EffectiveDate: effectiveDate,
	})
	if err != nil {
		log.Error().Err(err).Msg("create menu pricing")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toMenuPricingResponse(pricing))
}

func (h *MenuItemHandler) ListPricing(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	entries, err := h.store.ListMenuPricing(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("list menu pricing")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuPricingResponse, 0, len(entries))
	for _, p := range entries {
		resp = append(resp, toMenuPricingResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// EffectivePrice returns the price in force at the given date (default now).
func (h *MenuItemHandler) EffectivePrice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	asOf := time.Now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		asOf, err = time.Parse("2006-01-02", raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid as_of, expected YYYY-MM-DD"})
			return
		}
	}

	pricing, err := h.store.GetEffectivePrice(r.Context(), database.GetEffectivePriceParams{
		MenuItemID: id,
		AsOf:       asOf,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no price effective at that date"})
			return
		}
		log.Error().Err(err).Msg("get effective price")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuPricingResponse(pricing))
}
