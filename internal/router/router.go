package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/fami-pos/api/internal/config"
	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/enum"
	"github.com/fami-pos/api/internal/gateway"
	"github.com/fami-pos/api/internal/handler"
	mw "github.com/fami-pos/api/internal/middleware"
	"github.com/fami-pos/api/internal/service"
	"github.com/fami-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware per route group.
// ADMIN passes every role gate, so it is never listed explicitly.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, settings *service.SettingsService) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(mw.RequestLogger(log.Logger))
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // POS frontend dev server
			"https://pos.fami.id",   // Production POS
			"https://kds.fami.id",   // Kitchen display
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/{group}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Shared service dependencies. Store factories let each service open a
	// transaction-scoped query set on the pool.
	bom := service.NewBOMResolver(func(db database.DBTX) service.BOMStore {
		return database.New(db)
	})
	charger := gateway.NewLocalCharger()

	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, bom, settings, hub)
	kitchenService := service.NewKitchenService(pool, func(db database.DBTX) service.KitchenStore {
		return database.New(db)
	}, hub)
	paymentService := service.NewPaymentService(pool, func(db database.DBTX) service.PaymentStore {
		return database.New(db)
	}, charger)
	inventoryService := service.NewInventoryService(pool, func(db database.DBTX) service.InventoryStore {
		return database.New(db)
	}, bom)
	recipeService := service.NewRecipeService(pool, func(db database.DBTX) service.RecipeStore {
		return database.New(db)
	}, bom)
	stockTakeService := service.NewStockTakeService(pool, func(db database.DBTX) service.StockTakeStore {
		return database.New(db)
	}, bom)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Manager-only administration
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleManager))

			handler.NewUserHandler(queries).RegisterRoutes(r)
			handler.NewSettingsHandler(settings, queries).RegisterRoutes(r)
			handler.NewPromotionHandler(queries).RegisterRoutes(r)
			handler.NewReportHandler(queries).RegisterRoutes(r)

			handler.NewCategoryHandler(queries).RegisterRoutes(r)
			handler.NewTableHandler(queries).RegisterRoutes(r)
			handler.NewMenuItemHandler(queries).RegisterRoutes(r)
			handler.NewRecipeHandler(recipeService, queries).RegisterRoutes(r)
		})

		// Cashier-facing: orders and payments
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleCashier, enum.UserRoleManager))

			handler.NewOrderHandler(orderService, queries).RegisterRoutes(r)
			handler.NewPaymentHandler(paymentService, queries).RegisterRoutes(r)
		})

		// Kitchen display
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleKitchen, enum.UserRoleManager))

			handler.NewKitchenHandler(kitchenService, queries).RegisterRoutes(r)
		})

		// Inventory operations
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleInventory, enum.UserRoleManager))

			handler.NewIngredientHandler(inventoryService, queries).RegisterRoutes(r)
			handler.NewInventoryHandler(inventoryService, queries).RegisterRoutes(r)
			handler.NewStockTakeHandler(stockTakeService, queries).RegisterRoutes(r)
		})
	})

	return r
}
