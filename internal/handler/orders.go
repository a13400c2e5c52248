package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/enum"
	"github.com/fami-pos/api/internal/middleware"
	"github.com/fami-pos/api/internal/service"
)

// OrderServicer owns the cart and order lifecycle workflows.
type OrderServicer interface {
	AddItem(ctx context.Context, tableID, menuItemID uuid.UUID, qty int32, notes string, actor uuid.UUID) (*service.CartResult, error)
	RemoveItem(ctx context.Context, tableID, menuItemID uuid.UUID, actor uuid.UUID) (*service.CartResult, error)
	Submit(ctx context.Context, orderID uuid.UUID, actor uuid.UUID) (*service.CartResult, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason string, actor uuid.UUID) (*service.CartResult, error)
	CreatePartnerOrder(ctx context.Context, req service.PartnerOrderRequest) (*service.PartnerOrderResult, error)
	SyncOrders(ctx context.Context, reqs []service.PartnerOrderRequest) []service.SyncEntryResult
}

// OrderStore defines the database methods needed for order reads.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error)
}

// OrderHandler handles dine-in cart and partner order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Post("/cart/items", h.AddItem)
		r.Delete("/cart/items", h.RemoveItem)
		r.Post("/{id}/submit", h.Submit)
		r.Post("/{id}/cancel", h.Cancel)
		r.Post("/sync", h.Sync)
	})
	r.Post("/partner/orders", h.CreatePartnerOrder)
}

// --- Request / Response types ---

type addItemRequest struct {
	TableID    uuid.UUID `json:"table_id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int32     `json:"quantity"`
	Notes      string    `json:"notes"`
}

type removeItemRequest struct {
	TableID    uuid.UUID `json:"table_id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type partnerItemRequest struct {
	Sku       string `json:"sku"`
	Quantity  int32  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type partnerOrderRequest struct {
	ExternalID string               `json:"external_id"`
	Items      []partnerItemRequest `json:"items"`
	Notes      string               `json:"notes"`
}

type orderResponse struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`
	TableID     *string   `json:"table_id"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"total_amount"`
	Source      string    `json:"source"`
	ExternalID  *string   `json:"external_id"`
	NeedsReview bool      `json:"needs_review"`
	Notes       *string   `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type orderLineResponse struct {
	ID         uuid.UUID `json:"id"`
	OrderID    uuid.UUID `json:"order_id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int32     `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
	TotalPrice string    `json:"total_price"`
	Status     string    `json:"status"`
	Notes      *string   `json:"notes"`
}

type orderDetailResponse struct {
	Order orderResponse       `json:"order"`
	Lines []orderLineResponse `json:"lines"`
}

type syncEntryResponse struct {
	ExternalID string  `json:"external_id"`
	Status     string  `json:"status"`
	OrderID    *string `json:"order_id"`
	Error      string  `json:"error,omitempty"`
}

func toOrderResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		TableID:     uuidPtr(o.TableID),
		Status:      o.Status,
		TotalAmount: moneyString(o.TotalAmount),
		Source:      o.Source,
		ExternalID:  textPtr(o.ExternalID),
		NeedsReview: o.NeedsReview,
		Notes:       textPtr(o.Notes),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toOrderLineResponse(l database.OrderLine) orderLineResponse {
	return orderLineResponse{
		ID:         l.ID,
		OrderID:    l.OrderID,
		MenuItemID: l.MenuItemID,
		Quantity:   l.Quantity,
		UnitPrice:  moneyString(l.UnitPrice),
		TotalPrice: moneyString(l.TotalPrice),
		Status:     l.Status,
		Notes:      textPtr(l.Notes),
	}
}

func toOrderDetailResponse(order database.Order, lines []database.OrderLine) orderDetailResponse {
	resp := orderDetailResponse{
		Order: toOrderResponse(order),
		Lines: make([]orderLineResponse, 0, len(lines)),
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, toOrderLineResponse(l))
	}
	return resp
}

func toPartnerOrderRequest(req partnerOrderRequest, actor uuid.UUID) (service.PartnerOrderRequest, error) {
	out := service.PartnerOrderRequest{
		ExternalID: req.ExternalID,
		Notes:      req.Notes,
		Actor:      actor,
		Items:      make([]service.PartnerItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return out, errors.New("invalid unit_price")
		}
		out.Items = append(out.Items, service.PartnerItem{
			Sku:       item.Sku,
			Quantity:  item.Quantity,
			UnitPrice: price,
		})
	}
	return out, nil
}

// isOrderValidationError reports whether the error maps to a 400.
func isOrderValidationError(err error) bool {
	return errors.Is(err, service.ErrRestaurantClosed) ||
		errors.Is(err, service.ErrMenuItemUnavailable) ||
		errors.Is(err, service.ErrEmptyOrder) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidTransition) ||
		errors.Is(err, service.ErrExternalIDRequired) ||
		errors.Is(err, service.ErrSkuNotFound) ||
		errors.Is(err, service.ErrInsufficientStock)
}

// --- Handlers ---

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	params := database.ListOrdersParams{Limit: 20}

	if status := r.URL.Query().Get("status"); status != "" {
		if !enum.IsValidOrderStatus(status) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		params.Status = pgtype.Text{String: status, Valid: true}
	}
	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start date, expected YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: parsed, Valid: true}
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end date, expected YYYY-MM-DD"})
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: parsed.AddDate(0, 0, 1), Valid: true}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			params.Limit = int32(n)
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			params.Offset = int32(n)
		}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Error().Err(err).Msg("list orders")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Error().Err(err).Msg("get order")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	lines, err := h.store.ListOrderLines(r.Context(), order.ID)
	if err != nil {
		log.Error().Err(err).Msg("list order lines")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetailResponse(order, lines))
}

// AddItem adds one menu item to the table's open cart, creating the cart if
// needed.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.AddItem(r.Context(), req.TableID, req.MenuItemID, req.Quantity, req.Notes, claims.UserID)
	if err != nil {
		h.writeOrderError(w, err, "add cart item")
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetailResponse(result.Order, result.Lines))
}

// RemoveItem decrements or removes a menu item from the table's open cart.
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req removeItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.RemoveItem(r.Context(), req.TableID, req.MenuItemID, claims.UserID)
	if err != nil {
		h.writeOrderError(w, err, "remove cart item")
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetailResponse(result.Order, result.Lines))
}

// Submit sends the pending order to the kitchen, deducting recipe stock.
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	result, err := h.svc.Submit(r.Context(), id, claims.UserID)
	if err != nil {
		h.writeOrderError(w, err, "submit order")
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetailResponse(result.Order, result.Lines))
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.Cancel(r.Context(), id, req.Reason, claims.UserID)
	if err != nil {
		h.writeOrderError(w, err, "cancel order")
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetailResponse(result.Order, result.Lines))
}

// CreatePartnerOrder ingests one delivery-platform order. Replays of the same
// external_id return the previously created order.
func (h *OrderHandler) CreatePartnerOrder(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req partnerOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	svcReq, err := toPartnerOrderRequest(req, claims.UserID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.svc.CreatePartnerOrder(r.Context(), svcReq)
	if err != nil {
		h.writeOrderError(w, err, "create partner order")
		return
	}

	status := http.StatusCreated
	if !result.Created {
		status = http.StatusOK
	}
	writeJSON(w, status, toOrderDetailResponse(result.Order, result.Lines))
}

// Sync ingests a batch of partner orders and reports per-entry results.
func (h *OrderHandler) Sync(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var reqs []partnerOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	svcReqs := make([]service.PartnerOrderRequest, 0, len(reqs))
	for _, req := range reqs {
		svcReq, err := toPartnerOrderRequest(req, claims.UserID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		svcReqs = append(svcReqs, svcReq)
	}

	results := h.svc.SyncOrders(r.Context(), svcReqs)

	resp := make([]syncEntryResponse, 0, len(results))
	for _, res := range results {
		entry := syncEntryResponse{
			ExternalID: res.ExternalID,
			Status:     res.Status,
			Error:      res.Error,
		}
		if res.OrderID != uuid.Nil {
			s := res.OrderID.String()
			entry.OrderID = &s
		}
		resp = append(resp, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func (h *OrderHandler) writeOrderError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrTableNotFound),
		errors.Is(err, service.ErrLineNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case isOrderValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Error().Err(err).Msg(op)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
