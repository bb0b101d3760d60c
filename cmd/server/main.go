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

	"github.com/yunawinaya/stockflow/internal/application/movement"
	"github.com/yunawinaya/stockflow/internal/domain/catalog"
	"github.com/yunawinaya/stockflow/internal/domain/costing"
	"github.com/yunawinaya/stockflow/internal/domain/stock"
	"github.com/yunawinaya/stockflow/internal/infrastructure/cache"
	"github.com/yunawinaya/stockflow/internal/infrastructure/config"
	"github.com/yunawinaya/stockflow/internal/infrastructure/logger"
	"github.com/yunawinaya/stockflow/internal/infrastructure/persistence"
	"github.com/yunawinaya/stockflow/internal/interfaces/http/handler"
	"github.com/yunawinaya/stockflow/internal/interfaces/http/middleware"
	"github.com/yunawinaya/stockflow/internal/interfaces/http/router"
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

	log.Info("Starting stockflow",
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
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Repositories
	balanceRepo := persistence.NewGormBalanceRepository(db.DB)
	movementRepo := persistence.NewGormMovementRepository(db.DB)
	serialMovementRepo := persistence.NewGormSerialMovementRepository(db.DB)
	reservationRepo := persistence.NewGormReservationRepository(db.DB)
	layerRepo := persistence.NewGormLayerRepository(db.DB)
	averageRepo := persistence.NewGormAverageRepository(db.DB)

	var itemRepo catalog.ItemRepository = persistence.NewGormItemRepository(db.DB)
	if cfg.Cache.Enabled {
		itemCache, err := cache.NewItemCache(itemRepo, cfg.Redis,
			cache.WithTTL(cfg.Cache.TTL),
			cache.WithLogger(log.Named("cache")),
		)
		if err != nil {
			log.Warn("Item cache unavailable, using repository directly", zap.Error(err))
		} else {
			defer func() {
				_ = itemCache.Close()
			}()
			itemRepo = itemCache
		}
	}

	// Domain services
	store := stock.NewStore(balanceRepo, log.Named("stock"))
	ledger := costing.NewLedger(layerRepo, averageRepo, log.Named("costing"))
	coordinator := movement.NewCoordinator(
		itemRepo, store, ledger,
		movementRepo, serialMovementRepo, reservationRepo,
		log.Named("movement"),
	)

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.NewRouter(engine).
		Register(handler.NewMovementHandler(coordinator, movementRepo)).
		Register(handler.NewBalanceHandler(balanceRepo)).
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
