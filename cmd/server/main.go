package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/api"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/colorscale"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/config"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/database"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/handler"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/kroger"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/mapview"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/repository"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/service"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/session"
)

func main() {
	cfg := config.Load()

	logger := buildLogger(cfg.LogLevel)
	defer logger.Sync()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := database.Init(database.Config{Path: cfg.DBPath}, logger); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	db := database.GetDB()
	if err := database.Migrate(db, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	storeRepo := repository.NewStoreRepository(db)
	productRepo := repository.NewProductRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	taskRepo := repository.NewHarvestTaskRepository(db)
	logRepo := repository.NewRequestLogRepository(db)

	builder := mapview.NewBuilder(buildScale(cfg, logger))
	sessions := session.NewManager(cfg.SessionTTL, logger)
	defer sessions.Close()

	client := kroger.NewClient(cfg.KrogerBaseURL, cfg.KrogerClientID, cfg.KrogerClientSecret, logger)

	storeService := service.NewStoreService(storeRepo)
	productService := service.NewProductService(productRepo, priceRepo)
	mapService := service.NewMapService(storeRepo, priceRepo, builder, sessions, logger)
	harvestService := service.NewHarvestService(taskRepo, storeRepo, productRepo, priceRepo,
		logRepo, client, cfg, logger, mapService.BumpDataVersion)
	exportService := service.NewExportService(priceRepo, logger)

	router := api.SetupRouter(cfg, logger, &api.Handlers{
		Auth:    handler.NewAuthHandler(cfg),
		Store:   handler.NewStoreHandler(storeService, productService),
		Product: handler.NewProductHandler(productService),
		Map:     handler.NewMapHandler(mapService),
		Harvest: handler.NewHarvestHandler(harvestService),
		Export:  handler.NewExportHandler(exportService),
	})

	srv := &http.Server{
		Addr:    cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

// buildLogger creates the process logger honoring LOG_LEVEL.
func buildLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// buildScale resolves the color scale, falling back to the built-in
// green-to-red scale when an override does not parse.
func buildScale(cfg *config.Config, logger *zap.Logger) colorscale.Scale {
	low, high, neutral := cfg.LowColor, cfg.HighColor, cfg.NeutralColor
	if low == "" {
		low = colorscale.DefaultLowHex
	}
	if high == "" {
		high = colorscale.DefaultHighHex
	}
	if neutral == "" {
		neutral = colorscale.DefaultNeutralHex
	}

	scale, err := colorscale.New(low, high, neutral)
	if err != nil {
		logger.Warn("invalid color override, using default scale", zap.Error(err))
		return colorscale.Default()
	}
	return scale
}
