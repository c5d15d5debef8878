package router

import (
	"database/sql"
	"net/http"

	"qr_menu_backend/internal/catalog"
	"qr_menu_backend/internal/handlers"
	"qr_menu_backend/internal/middleware"
	"qr_menu_backend/internal/repositories"
	"qr_menu_backend/internal/services"
	"qr_menu_backend/pkg/config"
	"qr_menu_backend/pkg/metrics"
	"qr_menu_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Deps carries everything the routes need from the composition root.
// Cache, CatalogMetrics, HTTPMetrics and MetricsHandler are optional.
type Deps struct {
	DB             *sql.DB
	Store          *catalog.Store
	Tokens         *utils.TokenManager
	Menu           config.MenuConfig
	Cache          services.MenuCache
	CatalogMetrics *metrics.CatalogMetrics
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
	HealthChecks   map[string]handlers.Pinger
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Deps) error {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(deps.DB)
	itemRepo := repositories.NewItemRepository(deps.DB)
	setRepo := repositories.NewSetRepository(deps.DB)
	discountRepo := repositories.NewDiscountRepository(deps.DB)
	qrRepo := repositories.NewQRCodeRepository(deps.DB)
	tx := repositories.NewTransactor(deps.DB)

	// Initialize Services
	authService := services.NewAuthService(authRepo, tx, deps.Tokens)
	itemService := services.NewItemService(itemRepo, tx, deps.Store, deps.Cache)
	setService := services.NewSetService(setRepo, tx, deps.Store, deps.Cache)
	discountService := services.NewDiscountService(discountRepo, tx, deps.Store, deps.Cache)
	qrService := services.NewQRCodeService(qrRepo, tx, deps.Menu.PublicBaseURL, deps.Menu.QRImageSize)
	dashboardService := services.NewDashboardService(deps.Store, qrRepo, deps.Menu.Location)
	catalogService, err := services.NewCatalogService(services.CatalogServiceParams{
		Store:    deps.Store,
		QRRepo:   qrRepo,
		Cache:    deps.Cache,
		Metrics:  deps.CatalogMetrics,
		Location: deps.Menu.Location,
	})
	if err != nil {
		return err
	}

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	itemHandler := handlers.NewItemHandler(itemService)
	setHandler := handlers.NewSetHandler(setService, catalogService)
	discountHandler := handlers.NewDiscountHandler(discountService, catalogService.CurrentTimeOfDay)
	qrHandler := handlers.NewQRCodeHandler(qrService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)

	if deps.HTTPMetrics != nil {
		engine.Use(middleware.MetricsMiddleware(deps.HTTPMetrics))
	}
	engine.GET("/ping", healthHandler.Ping)
	engine.GET("/healthz", healthHandler.Healthz)
	if deps.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	apiV1 := engine.Group("/api/v1")
	SetupPublicRoutes(apiV1, authHandler, catalogHandler, deps.Tokens)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(deps.Tokens))
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupItemRoutes(authenticated, itemHandler)
		SetupSetRoutes(authenticated, setHandler)
		SetupDiscountRoutes(authenticated, discountHandler)
		SetupCatalogRoutes(authenticated, catalogHandler)
		SetupQRCodeRoutes(authenticated, qrHandler)
		SetupDashboardRoutes(authenticated, dashboardHandler)
	}
	return nil
}
