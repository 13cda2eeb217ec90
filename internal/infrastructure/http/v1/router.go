// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	appctx "retailops/internal/core/context"
	"retailops/internal/domain/audit"
	"retailops/internal/domain/auth"
	"retailops/internal/domain/catalog/product"
	"retailops/internal/domain/documents/order"
	"retailops/internal/domain/documents/packlist"
	"retailops/internal/domain/ledger"
	"retailops/internal/domain/reports/revenue"
	"retailops/internal/infrastructure/http/v1/handlers"
	"retailops/internal/infrastructure/http/v1/middleware"
	"retailops/pkg/logger"
)

// RouterConfig holds router dependencies. Services are built by the caller
// against whichever store is configured.
type RouterConfig struct {
	Logger *logger.Logger

	// JWT validates bearer tokens and, with DevTokens, issues them.
	JWT *auth.JWTService

	// DevTokens exposes POST /api/v1/auth/dev-token. Never enable in production.
	DevTokens bool

	// ReleaseMode switches gin to release mode.
	ReleaseMode bool

	Products  *product.Service
	Ledger    *ledger.Service
	Packlists *packlist.Service
	Orders    *order.Service
	Revenue   *revenue.Service
	Audit     audit.Reader

	// HealthChecks are pinged by /health/ready.
	HealthChecks map[string]handlers.Pinger
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	middleware.SetupValidator()

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()

	v1 := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(base, cfg.JWT)
		if cfg.DevTokens {
			v1.POST("/auth/dev-token", authHandler.DevToken)
		}

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWT))
		protected.GET("/auth/me", authHandler.Me)

		registerProductRoutes(protected, base, cfg)
		registerPacklistRoutes(protected, base, cfg)
		registerOrderRoutes(protected, base, cfg)
		registerReportRoutes(protected, base, cfg)
		registerAuditRoutes(protected, base, cfg)
	}

	return router
}

// Capability checks live in the domain services; routes only require a
// valid token, except for the admin-only read views below.

func registerProductRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewProductHandler(base, cfg.Products, cfg.Ledger)
	g := rg.Group("/products")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id/stock", h.SetStock)
	g.PUT("/:id/active", h.SetActive)
}

func registerPacklistRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewPacklistHandler(base, cfg.Packlists)
	g := rg.Group("/packlists")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/start-selling", h.StartSelling)
	g.POST("/:id/finish-selling", h.FinishSelling)
	g.POST("/:id/complete", h.Complete)
}

func registerOrderRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewOrderHandler(base, cfg.Orders)
	g := rg.Group("/orders")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/request-check", h.RequestCheck)
	g.POST("/:id/confirm", h.Confirm)
}

func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewReportsHandler(base, cfg.Revenue)
	rg.GET("/reports/revenue", middleware.RequireRole(appctx.RoleAdmin), h.Revenue)
}

func registerAuditRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Audit == nil {
		return
	}
	h := handlers.NewAuditHandler(base, cfg.Audit)
	rg.GET("/audit/:entity/:id", middleware.RequireRole(appctx.RoleAdmin), h.History)
}
