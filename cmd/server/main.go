package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qr_menu_backend/internal/catalog"
	"qr_menu_backend/internal/database"
	"qr_menu_backend/internal/handlers"
	"qr_menu_backend/internal/repositories"
	"qr_menu_backend/internal/router"
	"qr_menu_backend/internal/services"
	"qr_menu_backend/pkg/cache"
	"qr_menu_backend/pkg/config"
	"qr_menu_backend/pkg/metrics"
	"qr_menu_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is fine outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Logger
	utils.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)

	if err := run(cfg); err != nil {
		utils.LogError(err, "Server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, db.Close()) }()
	utils.LogInfo("Database initialized", map[string]interface{}{"auto_migrate": cfg.DB.AutoMigrate})

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, db, "up"); err != nil {
			return err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	catalogMetrics := metrics.NewCatalogMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	source := repositories.NewCatalogSource(
		repositories.NewItemRepository(db),
		repositories.NewSetRepository(db),
		repositories.NewDiscountRepository(db),
	)
	store := catalog.NewStore(source)
	poller, err := catalog.NewPoller(catalog.PollerParams{
		Store:    store,
		Metrics:  catalogMetrics,
		Interval: cfg.Menu.RefreshInterval,
	})
	if err != nil {
		return err
	}
	if err := poller.RefreshOnce(ctx); err != nil {
		return err
	}
	go func() { _ = poller.Run(ctx) }()

	healthChecks := map[string]handlers.Pinger{"database": db}
	var menuCache services.MenuCache
	if cfg.Redis.Enabled() {
		redisCache, cacheErr := cache.New(ctx, cfg.Redis)
		if cacheErr != nil {
			return cacheErr
		}
		defer func() { err = multierr.Append(err, redisCache.Close()) }()
		menuCache = redisCache
		healthChecks["redis"] = handlers.PingFunc(redisCache.Ping)
		utils.LogInfo("Public menu cache enabled", map[string]interface{}{"ttl": cfg.Redis.MenuCacheTTL.String()})
	}

	tokens, err := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	if err != nil {
		return err
	}

	if cfg.App.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Add GinLogger middleware for request logging
	engine.Use(utils.GinLogger())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	// Setup all application routes
	err = router.Setup(engine, router.Deps{
		DB:             db,
		Store:          store,
		Tokens:         tokens,
		Menu:           cfg.Menu,
		Cache:          menuCache,
		CatalogMetrics: catalogMetrics,
		HTTPMetrics:    httpMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		HealthChecks:   healthChecks,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.App.Port, "env": cfg.App.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	utils.LogInfo("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
