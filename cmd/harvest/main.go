package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/config"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/database"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/kroger"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/repository"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/service"
)

// One-shot price harvester. Behavior is driven entirely by the environment:
// STORE_LIMIT, STOP_AFTER_REQUESTS and DRY_RUN throttle a run, REQUESTS_PER_DAY
// caps total API usage. Exits nonzero when the harvest does not complete.
func main() {
	cfg := config.Load()
	logger := buildLogger(cfg.LogLevel)
	defer logger.Sync()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	taskRepo := repository.NewHarvestTaskRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	productRepo := repository.NewProductRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	logRepo := repository.NewRequestLogRepository(db)

	client := kroger.NewClient(cfg.KrogerBaseURL, cfg.KrogerClientID, cfg.KrogerClientSecret, logger)

	harvester := service.NewHarvestService(taskRepo, storeRepo, productRepo, priceRepo,
		logRepo, client, cfg, logger, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	task, err := harvester.RunOnce(ctx, "cli")
	if err != nil {
		logger.Error("harvest did not start", zap.Error(err))
		os.Exit(1)
	}
	if task == nil || task.Status != models.TaskStatusCompleted {
		logger.Error("harvest did not complete")
		os.Exit(1)
	}
}

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
