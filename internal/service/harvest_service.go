package service

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/config"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/kroger"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/repository"
)

// dayBuckets spreads the tracked catalog across a three day rotation, so
// each product is refreshed every third day and a full sweep costs a third
// of the requests.
const dayBuckets = 3

// storePause spaces out per-store API bursts.
const storePause = 50 * time.Millisecond

// HarvestService runs background price collection tasks against the Kroger
// API and keeps the store roster in sync with the locations endpoint.
type HarvestService struct {
	taskRepo    *repository.HarvestTaskRepository
	storeRepo   *repository.StoreRepository
	productRepo *repository.ProductRepository
	priceRepo   *repository.PriceRepository
	logRepo     *repository.RequestLogRepository
	client      *kroger.Client
	logger      *zap.Logger

	tz             *time.Location
	storeLimit     int
	stopAfter      int
	requestsPerDay int
	defaultDryRun  bool
	pause          time.Duration

	// onData fires after a harvest lands new rows, so cached frames can be
	// invalidated.
	onData func()
}

// NewHarvestService creates a new harvest service. The onData callback may
// be nil.
func NewHarvestService(taskRepo *repository.HarvestTaskRepository, storeRepo *repository.StoreRepository,
	productRepo *repository.ProductRepository, priceRepo *repository.PriceRepository,
	logRepo *repository.RequestLogRepository, client *kroger.Client,
	cfg *config.Config, logger *zap.Logger, onData func()) *HarvestService {

	tz, err := time.LoadLocation(cfg.HarvestTimezone)
	if err != nil {
		logger.Warn("invalid harvest timezone, falling back to UTC",
			zap.String("tz", cfg.HarvestTimezone), zap.Error(err))
		tz = time.UTC
	}

	s := &HarvestService{
		taskRepo:       taskRepo,
		storeRepo:      storeRepo,
		productRepo:    productRepo,
		priceRepo:      priceRepo,
		logRepo:        logRepo,
		client:         client,
		logger:         logger,
		tz:             tz,
		storeLimit:     cfg.StoreLimit,
		stopAfter:      cfg.StopAfterRequests,
		requestsPerDay: cfg.RequestsPerDay,
		defaultDryRun:  cfg.DryRun,
		pause:          storePause,
		onData:         onData,
	}

	// Every outbound request lands in the request log, successful or not.
	client.SetObserver(s.recordRequest)

	return s
}

// StartHarvest creates a harvest task and runs it in the background
func (s *HarvestService) StartHarvest(createdBy string, dryRun bool) (*models.HarvestTask, error) {
	task, err := s.prepare(createdBy, dryRun)
	if err != nil {
		return nil, err
	}

	go s.run(context.Background(), task.ID)

	return task, nil
}

// RunOnce creates a harvest task and runs it to completion in the calling
// goroutine. The harvest CLI uses this.
func (s *HarvestService) RunOnce(ctx context.Context, createdBy string) (*models.HarvestTask, error) {
	task, err := s.prepare(createdBy, s.defaultDryRun)
	if err != nil {
		return nil, err
	}

	s.run(ctx, task.ID)

	return s.taskRepo.GetByID(task.ID)
}

// prepare validates preconditions and records the pending task.
func (s *HarvestService) prepare(createdBy string, dryRun bool) (*models.HarvestTask, error) {
	active, err := s.taskRepo.GetActive()
	if err != nil {
		return nil, fmt.Errorf("failed to check active tasks: %w", err)
	}
	if active != nil {
		return nil, fmt.Errorf("harvest task %d is already %s", active.ID, active.Status)
	}

	products, err := s.productRepo.GetTrackedProducts()
	if err != nil {
		return nil, fmt.Errorf("failed to load tracked products: %w", err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no tracked products")
	}

	storeIDs, err := s.storeRepo.GetActiveStoreIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to load stores: %w", err)
	}
	if s.storeLimit > 0 && len(storeIDs) > s.storeLimit {
		storeIDs = storeIDs[:s.storeLimit]
	}
	if len(storeIDs) == 0 {
		return nil, fmt.Errorf("no active stores")
	}

	task := &models.HarvestTask{
		Status:      models.TaskStatusPending,
		PriceDate:   time.Now().In(s.tz).Format("2006-01-02"),
		TotalStores: len(storeIDs),
		DryRun:      dryRun,
		CreatedBy:   createdBy,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// run executes a prepared harvest task. A task left in a non-terminal state
// blocks every later harvest, so even a panic must mark it failed.
func (s *HarvestService) run(ctx context.Context, taskID int) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("harvest panicked", zap.Int("task_id", taskID), zap.Any("panic", p))
			if err := s.taskRepo.MarkAsFailed(taskID, fmt.Sprintf("panic: %v", p)); err != nil {
				s.logger.Error("failed to mark task failed", zap.Int("task_id", taskID), zap.Error(err))
			}
		}
	}()

	task, err := s.taskRepo.GetByID(taskID)
	if err != nil || task == nil {
		s.logger.Error("harvest task vanished", zap.Int("task_id", taskID), zap.Error(err))
		return
	}

	if err := s.taskRepo.MarkAsRunning(taskID); err != nil {
		s.logger.Error("failed to mark task running", zap.Int("task_id", taskID), zap.Error(err))
		return
	}

	s.logger.Info("harvest started",
		zap.Int("task_id", taskID),
		zap.String("price_date", task.PriceDate),
		zap.Int("stores", task.TotalStores),
		zap.Bool("dry_run", task.DryRun))

	if err := s.execute(ctx, task); err != nil {
		s.logger.Error("harvest failed", zap.Int("task_id", taskID), zap.Error(err))
		if markErr := s.taskRepo.MarkAsFailed(taskID, err.Error()); markErr != nil {
			s.logger.Error("failed to mark task failed", zap.Int("task_id", taskID), zap.Error(markErr))
		}
	}
}

func (s *HarvestService) execute(ctx context.Context, task *models.HarvestTask) error {
	products, err := s.productRepo.GetTrackedProducts()
	if err != nil {
		return fmt.Errorf("failed to load tracked products: %w", err)
	}

	storeIDs, err := s.storeRepo.GetActiveStoreIDs()
	if err != nil {
		return fmt.Errorf("failed to load stores: %w", err)
	}
	if s.storeLimit > 0 && len(storeIDs) > s.storeLimit {
		storeIDs = storeIDs[:s.storeLimit]
	}

	day, err := time.ParseInLocation("2006-01-02", task.PriceDate, s.tz)
	if err != nil {
		return fmt.Errorf("bad price date %q: %w", task.PriceDate, err)
	}

	upcs := upcsForDay(products, day)
	s.logger.Info("product bucket selected",
		zap.Int("task_id", task.ID),
		zap.Int("in_bucket", len(upcs)),
		zap.Int("tracked", len(products)))

	if len(upcs) == 0 {
		return s.finish(task, 0, 0, 0, 0)
	}

	// Every store costs the same number of requests, so the counter can be
	// advanced per store even when a fetch fails partway.
	requestsPerStore := (len(upcs) + kroger.MaxProductBatch - 1) / kroger.MaxProductBatch

	quotaUsed, err := s.logRepo.CountSince(s.midnight(day))
	if err != nil {
		return fmt.Errorf("failed to read request quota: %w", err)
	}

	var processed, failed, upserted, requests int
	for i, locationID := range storeIDs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("harvest cancelled: %w", err)
		}
		if s.stopAfter > 0 && requests >= s.stopAfter {
			s.logger.Info("request cap reached, ending early",
				zap.Int("task_id", task.ID), zap.Int("requests", requests))
			break
		}
		if s.requestsPerDay > 0 && quotaUsed+requests+requestsPerStore > s.requestsPerDay {
			s.logger.Warn("daily request quota exhausted, ending early",
				zap.Int("task_id", task.ID),
				zap.Int("used", quotaUsed+requests),
				zap.Int("quota", s.requestsPerDay))
			break
		}

		prices, err := s.client.FetchPrices(ctx, locationID, upcs)
		requests += requestsPerStore
		processed++

		if err != nil {
			failed++
			s.logger.Warn("store fetch failed",
				zap.Int("task_id", task.ID),
				zap.String("location_id", locationID),
				zap.Error(err))
		} else {
			rows := priceRows(locationID, task.PriceDate, prices)
			if len(rows) > 0 && !task.DryRun {
				n, err := s.priceRepo.UpsertBatch(rows)
				if err != nil {
					failed++
					s.logger.Warn("price upsert failed",
						zap.Int("task_id", task.ID),
						zap.String("location_id", locationID),
						zap.Error(err))
				} else {
					upserted += n
				}
			}
		}

		if (i+1)%5 == 0 || i == len(storeIDs)-1 {
			if err := s.taskRepo.UpdateProgress(task.ID, processed, failed, upserted, requests); err != nil {
				s.logger.Warn("failed to update progress", zap.Int("task_id", task.ID), zap.Error(err))
			}
		}

		if s.pause > 0 {
			time.Sleep(s.pause)
		}
	}

	return s.finish(task, processed, failed, upserted, requests)
}

func (s *HarvestService) finish(task *models.HarvestTask, processed, failed, upserted, requests int) error {
	if err := s.taskRepo.UpdateProgress(task.ID, processed, failed, upserted, requests); err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	if err := s.taskRepo.MarkAsCompleted(task.ID); err != nil {
		return fmt.Errorf("failed to mark task completed: %w", err)
	}

	s.logger.Info("harvest completed",
		zap.Int("task_id", task.ID),
		zap.Int("stores", processed),
		zap.Int("failed", failed),
		zap.Int("rows_upserted", upserted),
		zap.Int("requests", requests),
		zap.Bool("dry_run", task.DryRun))

	if upserted > 0 && !task.DryRun && s.onData != nil {
		s.onData()
	}
	return nil
}

// SyncStores pulls the store roster for an area from the locations endpoint
// and upserts it. Returns the number of stores written.
func (s *HarvestService) SyncStores(ctx context.Context, q kroger.LocationQuery) (int, error) {
	locations, err := s.client.ListLocations(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("failed to list locations: %w", err)
	}
	if len(locations) == 0 {
		return 0, nil
	}

	stores := make([]models.StorePoint, 0, len(locations))
	for _, loc := range locations {
		stores = append(stores, models.StorePoint{
			ID:        loc.LocationID,
			Name:      loc.Name,
			Chain:     loc.Chain,
			Address:   loc.AddressLine1,
			City:      loc.City,
			State:     loc.State,
			ZipCode:   loc.ZipCode,
			Division:  loc.Division,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
		})
	}

	count, err := s.storeRepo.UpsertStores(stores)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert stores: %w", err)
	}

	s.logger.Info("store roster synced",
		zap.String("zip", q.ZipNear),
		zap.Int("stores", count))

	return count, nil
}

// GetTask retrieves a task by ID
func (s *HarvestService) GetTask(id int) (*models.HarvestTask, error) {
	task, err := s.taskRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("task not found")
	}
	return task, nil
}

// GetActiveTask retrieves the currently pending or running task, if any
func (s *HarvestService) GetActiveTask() (*models.HarvestTask, error) {
	return s.taskRepo.GetActive()
}

// ListRecentTasks retrieves the most recent tasks, newest first
func (s *HarvestService) ListRecentTasks(limit int) ([]*models.HarvestTask, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.taskRepo.GetRecent(limit)
}

// recordRequest is the client observer: one row per outbound API request.
func (s *HarvestService) recordRequest(endpoint string, status, items int, elapsed time.Duration) {
	err := s.logRepo.Log(models.RequestLog{
		Endpoint:   endpoint,
		StatusCode: status,
		ItemCount:  items,
		DurationMs: elapsed.Milliseconds(),
	})
	if err != nil {
		s.logger.Warn("failed to record api request", zap.Error(err))
	}
}

// midnight returns the start of the harvest day in the harvest timezone.
func (s *HarvestService) midnight(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.tz)
}

// priceRows converts fetched prices to history rows. Items without a UPC
// cannot be keyed and are dropped; a row with no price at all is still kept,
// recording that the store carries the product without a listed price.
func priceRows(locationID, priceDate string, prices []kroger.ProductPrice) []models.PriceRow {
	rows := make([]models.PriceRow, 0, len(prices))
	for _, p := range prices {
		if p.UPC == "" {
			continue
		}
		rows = append(rows, models.PriceRow{
			LocationID:   locationID,
			UPC:          p.UPC,
			PriceDate:    priceDate,
			RegularPrice: p.Regular,
			PromoPrice:   p.Promo,
		})
	}
	return rows
}

// upcsForDay selects the slice of the catalog scheduled for the given day.
func upcsForDay(products []models.Product, day time.Time) []string {
	bucket := dayOrdinal(day) % dayBuckets

	var upcs []string
	for _, p := range products {
		if p.UPC != "" && upcBucket(p.UPC) == bucket {
			upcs = append(upcs, p.UPC)
		}
	}
	return upcs
}

// upcBucket assigns a UPC to one of the rotation buckets using a short
// blake2b digest, so the assignment is stable across runs and hosts.
func upcBucket(upc string) int {
	h, err := blake2b.New(4, nil)
	if err != nil {
		return 0
	}
	h.Write([]byte(upc))
	return int(binary.BigEndian.Uint32(h.Sum(nil)) % dayBuckets)
}

// unixEpochOrdinal is the proleptic Gregorian ordinal of 1970-01-01, with
// January 1st of year 1 as day one.
const unixEpochOrdinal = 719163

// dayOrdinal counts days in the proleptic Gregorian calendar. The bucket
// rotation keys off this, so it must not depend on timezone or host clock
// quirks.
func dayOrdinal(day time.Time) int {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return unixEpochOrdinal + int(midnight.Unix()/86400)
}
