package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appinv "github.com/shopstock/backend/internal/application/inventory"
	appsales "github.com/shopstock/backend/internal/application/sales"
	"github.com/shopstock/backend/internal/infrastructure/cache"
	"github.com/shopstock/backend/internal/infrastructure/config"
	"github.com/shopstock/backend/internal/infrastructure/event"
	"github.com/shopstock/backend/internal/infrastructure/logger"
	"github.com/shopstock/backend/internal/infrastructure/persistence"
	"github.com/shopstock/backend/internal/interfaces/http/handler"
	"github.com/shopstock/backend/internal/interfaces/http/middleware"
	"github.com/shopstock/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting shopstock backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	productRepo := persistence.NewGormProductRepository(db.DB)
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)

	var invOpts []appinv.InventoryServiceOption
	if cfg.Cache.Enabled {
		summaryCache, err := cache.NewRedisSummaryCache(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Cache.SummaryTTL, log)
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-memory summary cache", zap.Error(err))
			invOpts = append(invOpts, appinv.WithSummaryCache(cache.NewInMemorySummaryCache(cfg.Cache.SummaryTTL)))
		} else {
			invOpts = append(invOpts, appinv.WithSummaryCache(summaryCache))
		}
	}

	inventoryService := appinv.NewInventoryService(productRepo, batchRepo, scope, log, invOpts...)
	saleService := appsales.NewSaleService(scope, saleRepo, log)

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(appinv.NewLowStockAlertHandler(log))
	inventoryService.SetEventPublisher(eventBus)
	saleService.SetEventPublisher(eventBus)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := handler.RegisterValidations(); err != nil {
		log.Fatal("Failed to register binding validations", zap.Error(err))
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORS(&cfg.HTTP))

	engine.GET("/health", healthHandler(db))

	inventoryHandler := handler.NewInventoryHandler(inventoryService, cfg.Inventory.ExpiryWarningDays)
	salesHandler := handler.NewSalesHandler(saleService)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(inventoryHandler).
		Register(salesHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
