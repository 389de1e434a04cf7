package repository

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/database"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
)

func fptr(v float64) *float64 { return &v }

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, zap.NewNop()))
	return db
}

func seedStores(t *testing.T, db *sql.DB) {
	t.Helper()
	stores := []models.StorePoint{
		{ID: "01400441", Name: "Kroger Newport", Chain: "KROGER", City: "Newport", State: "KY",
			Region: "Cincinnati/Dayton", Division: "014", Latitude: fptr(39.09), Longitude: fptr(-84.50)},
		{ID: "01400376", Name: "Kroger Anderson", Chain: "KROGER", City: "Cincinnati", State: "OH",
			Region: "Cincinnati/Dayton", Division: "014", Latitude: fptr(39.07), Longitude: fptr(-84.34)},
		{ID: "70100070", Name: "Ralphs Hollywood", Chain: "RALPHS", City: "Los Angeles", State: "CA",
			Region: "Ralphs", Division: "701", Latitude: fptr(34.10), Longitude: fptr(-118.33)},
		{ID: "01600999", Name: "Kroger Columbus", Chain: "KROGER", City: "Columbus", State: "OH",
			Region: "Columbus", Division: "016"},
	}
	_, err := NewStoreRepository(db).UpsertStores(stores)
	require.NoError(t, err)
}

func seedProduct(t *testing.T, db *sql.DB, upc string) {
	t.Helper()
	require.NoError(t, NewProductRepository(db).UpsertProduct(models.Product{
		UPC: upc, Description: "Whole Milk Gallon", Brand: "Kroger", Size: "1 gal",
	}))
}

func TestStoreUpsertAndGet(t *testing.T) {
	db := openTestDB(t)
	repo := NewStoreRepository(db)
	seedStores(t, db)

	s, err := repo.GetStoreByID("01400441")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "Kroger Newport", s.Name)
	assert.Equal(t, "KY", s.State)
	require.NotNil(t, s.Latitude)
	assert.Equal(t, 39.09, *s.Latitude)
	assert.True(t, s.IsActive)

	// Upsert with a new name updates in place.
	_, err = repo.UpsertStores([]models.StorePoint{{
		ID: "01400441", Name: "Kroger Newport Pavilion", Chain: "KROGER", State: "KY",
		Latitude: fptr(39.09), Longitude: fptr(-84.50),
	}})
	require.NoError(t, err)

	s, err = repo.GetStoreByID("01400441")
	require.NoError(t, err)
	assert.Equal(t, "Kroger Newport Pavilion", s.Name)

	missing, err := repo.GetStoreByID("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetStoresFiltering(t *testing.T) {
	db := openTestDB(t)
	repo := NewStoreRepository(db)
	seedStores(t, db)

	stores, total, err := repo.GetStores(models.StoreListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, stores, 4)

	// Filters are case-insensitive, matching the in-memory filter path.
	stores, total, err = repo.GetStores(models.StoreListQuery{
		StoreFilter: models.StoreFilter{State: "oh"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, s := range stores {
		assert.Equal(t, "OH", s.State)
	}

	stores, _, err = repo.GetStores(models.StoreListQuery{Search: "Anderson"})
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, "01400376", stores[0].ID)

	stores, total, err = repo.GetStores(models.StoreListQuery{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, stores, 1)
}

func TestGetMappableStores(t *testing.T) {
	db := openTestDB(t)
	repo := NewStoreRepository(db)
	seedStores(t, db)

	stores, err := repo.GetMappableStores(models.StoreFilter{})
	require.NoError(t, err)
	// The Columbus store has no geometry and is excluded.
	require.Len(t, stores, 3)
	assert.Equal(t, "01400376", stores[0].ID)
	assert.Equal(t, "01400441", stores[1].ID)
	assert.Equal(t, "70100070", stores[2].ID)

	stores, err = repo.GetMappableStores(models.StoreFilter{Chain: "ralphs"})
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, "70100070", stores[0].ID)
}

func TestNearby(t *testing.T) {
	db := openTestDB(t)
	repo := NewStoreRepository(db)
	seedStores(t, db)

	nearby, err := repo.Nearby(models.NearbyQuery{Lat: 39.09, Lng: -84.50, RadiusKm: 30})
	require.NoError(t, err)
	require.Len(t, nearby, 2)
	assert.Equal(t, "01400441", nearby[0].ID)
	assert.Equal(t, "01400376", nearby[1].ID)
	assert.Less(t, nearby[0].DistanceKm, nearby[1].DistanceKm)

	// Los Angeles is far outside the radius.
	for _, n := range nearby {
		assert.NotEqual(t, "70100070", n.ID)
	}

	nearby, err = repo.Nearby(models.NearbyQuery{Lat: 39.09, Lng: -84.50, RadiusKm: 30, Limit: 1})
	require.NoError(t, err)
	require.Len(t, nearby, 1)
	assert.Equal(t, "01400441", nearby[0].ID)
}

func TestFilterOptions(t *testing.T) {
	db := openTestDB(t)
	repo := NewStoreRepository(db)
	seedStores(t, db)

	opts, err := repo.GetFilterOptions()
	require.NoError(t, err)
	assert.Equal(t, []string{"KROGER", "RALPHS"}, opts.Chains)
	assert.Equal(t, []string{"CA", "KY", "OH"}, opts.States)
	assert.Contains(t, opts.Regions, "Cincinnati/Dayton")
}

func TestProductUpsertAndTracking(t *testing.T) {
	db := openTestDB(t)
	repo := NewProductRepository(db)

	seedProduct(t, db, "0001111041700")
	seedProduct(t, db, "0001111060903")

	tracked, err := repo.GetTrackedProducts()
	require.NoError(t, err)
	assert.Len(t, tracked, 2)

	require.NoError(t, repo.SetTracked("0001111060903", false))
	tracked, err = repo.GetTrackedProducts()
	require.NoError(t, err)
	require.Len(t, tracked, 1)
	assert.Equal(t, "0001111041700", tracked[0].UPC)

	// Re-upserting catalog fields keeps the tracking flag off.
	require.NoError(t, repo.UpsertProduct(models.Product{
		UPC: "0001111060903", Description: "2% Milk Gallon",
	}))
	p, err := repo.GetProductByUPC("0001111060903")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "2% Milk Gallon", p.Description)
	assert.False(t, p.IsTracked)

	assert.ErrorIs(t, repo.SetTracked("missing", true), sql.ErrNoRows)
}

func TestPriceUpsertAndLatestWins(t *testing.T) {
	db := openTestDB(t)
	seedStores(t, db)
	seedProduct(t, db, "0001111041700")
	repo := NewPriceRepository(db)

	n, err := repo.UpsertBatch([]models.PriceRow{
		{LocationID: "01400441", UPC: "0001111041700", PriceDate: "2026-08-24", RegularPrice: fptr(2.99)},
		{LocationID: "01400441", UPC: "0001111041700", PriceDate: "2026-08-25", RegularPrice: fptr(3.19), PromoPrice: fptr(2.49)},
		{LocationID: "01400376", UPC: "0001111041700", PriceDate: "2026-08-25", RegularPrice: fptr(3.09)},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	quotes, err := repo.LatestForProduct("0001111041700")
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	q := quotes["01400441"]
	assert.Equal(t, "2026-08-25", q.PriceDate)
	require.NotNil(t, q.Regular)
	assert.Equal(t, 3.19, *q.Regular)
	require.NotNil(t, q.Promo)
	assert.Equal(t, 2.49, *q.Promo)

	// Same-day rewrite replaces the row instead of duplicating it.
	_, err = repo.UpsertBatch([]models.PriceRow{
		{LocationID: "01400441", UPC: "0001111041700", PriceDate: "2026-08-25", RegularPrice: fptr(3.29)},
	})
	require.NoError(t, err)

	quotes, err = repo.LatestForProduct("0001111041700")
	require.NoError(t, err)
	q = quotes["01400441"]
	assert.Equal(t, 3.29, *q.Regular)
	assert.Nil(t, q.Promo)

	var rows int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM daily_prices").Scan(&rows))
	assert.Equal(t, 3, rows)
}

func TestPriceHistory(t *testing.T) {
	db := openTestDB(t)
	seedStores(t, db)
	seedProduct(t, db, "0001111041700")
	repo := NewPriceRepository(db)

	_, err := repo.UpsertBatch([]models.PriceRow{
		{LocationID: "01400441", UPC: "0001111041700", PriceDate: "2026-08-23", RegularPrice: fptr(2.89)},
		{LocationID: "01400441", UPC: "0001111041700", PriceDate: "2026-08-24", RegularPrice: fptr(2.99)},
		{LocationID: "01400441", UPC: "0001111041700", PriceDate: "2026-08-25", RegularPrice: fptr(3.19)},
	})
	require.NoError(t, err)

	history, err := repo.History("01400441", models.PriceHistoryQuery{UPC: "0001111041700"})
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "2026-08-25", history[0].PriceDate)
	assert.Equal(t, "2026-08-23", history[2].PriceDate)

	history, err = repo.History("01400441", models.PriceHistoryQuery{UPC: "0001111041700", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestStreamRows(t *testing.T) {
	db := openTestDB(t)
	seedStores(t, db)
	seedProduct(t, db, "0001111041700")
	seedProduct(t, db, "0001111060903")
	repo := NewPriceRepository(db)

	_, err := repo.UpsertBatch([]models.PriceRow{
		{LocationID: "01400441", UPC: "0001111041700", PriceDate: "2026-08-25", RegularPrice: fptr(3.19)},
		{LocationID: "01400376", UPC: "0001111041700", PriceDate: "2026-08-25", RegularPrice: fptr(3.09)},
		{LocationID: "01400441", UPC: "0001111060903", PriceDate: "2026-08-25", RegularPrice: fptr(2.79)},
	})
	require.NoError(t, err)

	var seen []string
	err = repo.StreamRows(models.ExportQuery{}, func(row models.PriceRow) error {
		seen = append(seen, row.LocationID+"/"+row.UPC)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"01400376/0001111041700",
		"01400441/0001111041700",
		"01400441/0001111060903",
	}, seen)

	seen = seen[:0]
	err = repo.StreamRows(models.ExportQuery{UPC: "0001111060903"}, func(row models.PriceRow) error {
		seen = append(seen, row.LocationID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"01400441"}, seen)
}

func TestHarvestTaskLifecycle(t *testing.T) {
	db := openTestDB(t)
	repo := NewHarvestTaskRepository(db)

	task := &models.HarvestTask{
		Status:      models.TaskStatusPending,
		PriceDate:   "2026-08-25",
		TotalStores: 120,
		CreatedBy:   "admin",
	}
	require.NoError(t, repo.Create(task))
	require.NotZero(t, task.ID)

	active, err := repo.GetActive()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, task.ID, active.ID)

	require.NoError(t, repo.MarkAsRunning(task.ID))
	require.NoError(t, repo.UpdateProgress(task.ID, 60, 2, 540, 13))

	got, err := repo.GetByID(task.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.TaskStatusRunning, got.Status)
	assert.Equal(t, 60, got.ProcessedDone)
	assert.Equal(t, 2, got.FailedStores)
	assert.Equal(t, 540, got.RowsUpserted)
	assert.Equal(t, 13, got.RequestsIssued)
	assert.NotNil(t, got.StartTime)
	assert.InDelta(t, 50.0, got.Progress(), 0.01)
	assert.False(t, got.IsTerminal())

	require.NoError(t, repo.MarkAsCompleted(task.ID))
	got, err = repo.GetByID(task.ID)
	require.NoError(t, err)
	assert.True(t, got.IsTerminal())
	assert.NotNil(t, got.EndTime)

	active, err = repo.GetActive()
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestHarvestTaskFailure(t *testing.T) {
	db := openTestDB(t)
	repo := NewHarvestTaskRepository(db)

	task := &models.HarvestTask{Status: models.TaskStatusPending, PriceDate: "2026-08-25"}
	require.NoError(t, repo.Create(task))
	require.NoError(t, repo.MarkAsRunning(task.ID))
	require.NoError(t, repo.MarkAsFailed(task.ID, "token refresh failed"))

	got, err := repo.GetByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "token refresh failed", *got.ErrorMessage)
}

func TestRequestLogCounting(t *testing.T) {
	db := openTestDB(t)
	repo := NewRequestLogRepository(db)

	require.NoError(t, repo.Log(models.RequestLog{Endpoint: "/products", StatusCode: 200, ItemCount: 49, DurationMs: 180}))
	require.NoError(t, repo.Log(models.RequestLog{Endpoint: "/products", StatusCode: 429, DurationMs: 40}))
	require.NoError(t, repo.Log(models.RequestLog{Endpoint: "/locations", StatusCode: 200, ItemCount: 200, DurationMs: 320}))

	count, err := repo.CountSince(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = repo.CountSince(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)

	errs, err := repo.RecentErrors(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, errs)
}

func TestProductSummaryCoverage(t *testing.T) {
	db := openTestDB(t)
	seedStores(t, db)
	seedProduct(t, db, "0001111041700")
	priceRepo := NewPriceRepository(db)

	_, err := priceRepo.UpsertBatch([]models.PriceRow{
		{LocationID: "01400441", UPC: "0001111041700", PriceDate: "2026-08-24", RegularPrice: fptr(2.99)},
		{LocationID: "01400441", UPC: "0001111041700", PriceDate: "2026-08-25", RegularPrice: fptr(3.19)},
		{LocationID: "01400376", UPC: "0001111041700", PriceDate: "2026-08-25", RegularPrice: fptr(3.09)},
	})
	require.NoError(t, err)

	products, total, err := NewProductRepository(db).GetProducts()
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, products, 1)

	p := products[0]
	assert.EqualValues(t, 2, p.StoreCount)
	assert.EqualValues(t, 3, p.Observation)
	assert.Equal(t, "2026-08-25", p.LatestDate)
}
