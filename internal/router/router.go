package router

import (
	"time"

	"propshop/internal/config"
	"propshop/internal/feed"
	"propshop/internal/handler"
	"propshop/internal/middleware"
	"propshop/internal/repository"
	"propshop/internal/service"
	"propshop/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, hub *feed.Hub) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	productSvc := service.NewProductService(productRepo, movementRepo, hub)
	inventorySvc := service.NewInventoryService(productRepo, movementRepo, hub)
	orderSvc := service.NewOrderService(orderRepo, productRepo, movementRepo, deliveryRepo, dispatcher, hub)
	deliverySvc := service.NewDeliveryService(deliveryRepo, orderRepo, hub)
	reportSvc := service.NewReportService(orderRepo, productRepo, inventorySvc)
	adminSvc := service.NewAdminService(adminRepo, cfg.JWTSecret, cfg.JWTExpirationHours)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(adminSvc)
	productsH := handler.NewProductsHandler(productSvc)
	movementsH := handler.NewMovementsHandler(inventorySvc)
	ordersH := handler.NewOrdersHandler(orderSvc)
	deliveriesH := handler.NewDeliveriesHandler(deliverySvc)
	reportsH := handler.NewReportsHandler(reportSvc)
	feedH := handler.NewFeedHandler(hub)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/register", middleware.LoginRateLimiter(), authH.Register)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		products := v1.Group("/products")
		{
			products.POST("", productsH.Create)
			products.GET("", productsH.List)
			products.GET("/:id", productsH.Get)
			products.PUT("/:id", productsH.Update)
			products.DELETE("/:id", productsH.Deactivate)
			products.PATCH("/:id/reactivate", productsH.Reactivate)
		}

		movements := v1.Group("/movements")
		{
			movements.POST("", movementsH.Record)
			movements.GET("", movementsH.List)
		}
		v1.GET("/stock-alerts", movementsH.StockAlerts)

		orders := v1.Group("/orders")
		{
			orders.POST("", ordersH.Create)
			orders.GET("", ordersH.List)
			orders.GET("/:id", ordersH.Get)
			orders.PATCH("/:id/toggle-paid", ordersH.TogglePaid)
			orders.PATCH("/:id/deliver", ordersH.MarkDelivered)
		}

		deliveries := v1.Group("/deliveries")
		{
			deliveries.GET("", deliveriesH.List)
			deliveries.GET("/:order_id", deliveriesH.Get)
			deliveries.POST("/reconcile", deliveriesH.Reconcile)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/sales-by-category", reportsH.SalesByCategory)
			reports.GET("/summary", reportsH.Summary)
		}

		v1.GET("/feed/:collection", feedH.Stream)
		v1.GET("/admins", authH.ListAdmins)
	}

	return r
}
