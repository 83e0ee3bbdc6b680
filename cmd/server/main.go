package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"sharedstreets/internal/api"
	"sharedstreets/internal/api/handlers"
	"sharedstreets/internal/api/middleware"
	"sharedstreets/internal/config"
	"sharedstreets/internal/geo"
	"sharedstreets/internal/logger"
	"sharedstreets/internal/repository/memory"
	"sharedstreets/internal/services"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Init(cfg.Log.Debug)
	defer logger.Sync()

	// Initialize the feature store and its tile index
	index := geo.NewTileIndex(cfg.Store.TileZoom)
	featureRepo, err := memory.NewFeatureRepository(cfg.Store.Capacity, index)
	if err != nil {
		logger.Fatal("Failed to create feature repository", zap.Error(err))
	}

	// Initialize services
	identifierService := services.NewIdentifierService(featureRepo, cfg.IDFormat())

	// Initialize handlers
	identifierHandler := handlers.NewIdentifierHandler(identifierService)
	featureHandler := handlers.NewFeatureHandler(identifierService)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter, err = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		if err != nil {
			logger.Fatal("Failed to create rate limiter", zap.Error(err))
		}
	}

	// Setup router
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	router := api.NewRouter(identifierHandler, featureHandler, cfg.IDFormat(), rateLimiter, logger.With(zap.String("component", "http")))
	router.Setup(engine)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	//
	// Go Learning Note — Graceful Shutdown:
	// ListenAndServe blocks, so it runs in its own goroutine while main waits
	// for SIGINT/SIGTERM. Shutdown then stops accepting connections and waits
	// for in-flight requests, bounded by the context deadline.
	go func() {
		logger.Info("Starting identifier server",
			zap.String("addr", cfg.Server.Port),
			zap.String("format", cfg.IDFormat().String()),
			zap.Int("tile_zoom", cfg.Store.TileZoom),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
}
