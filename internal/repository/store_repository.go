package repository

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/spatial"
)

const storeColumns = `location_id, name, chain, address, city, state, zip_code,
	region, division, latitude, longitude, is_active, created_at, updated_at`

// StoreRepository handles database operations for store locations
type StoreRepository struct {
	db *sql.DB
}

// NewStoreRepository creates a new store repository
func NewStoreRepository(db *sql.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

func scanStore(scanner interface{ Scan(...interface{}) error }) (models.StorePoint, error) {
	var s models.StorePoint
	var chain, address, city, state, zipCode, region, division sql.NullString
	err := scanner.Scan(
		&s.ID, &s.Name, &chain, &address, &city, &state, &zipCode,
		&region, &division, &s.Latitude, &s.Longitude, &s.IsActive,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return s, err
	}
	s.Chain = chain.String
	s.Address = address.String
	s.City = city.String
	s.State = state.String
	s.ZipCode = zipCode.String
	s.Region = region.String
	s.Division = division.String
	return s, nil
}

func storeFilterConditions(f models.StoreFilter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	if f.Region != "" {
		conditions = append(conditions, "region = ? COLLATE NOCASE")
		args = append(args, f.Region)
	}
	if f.Division != "" {
		conditions = append(conditions, "division = ? COLLATE NOCASE")
		args = append(args, f.Division)
	}
	if f.State != "" {
		conditions = append(conditions, "state = ? COLLATE NOCASE")
		args = append(args, f.State)
	}
	if f.Chain != "" {
		conditions = append(conditions, "chain = ? COLLATE NOCASE")
		args = append(args, f.Chain)
	}
	return conditions, args
}

// GetStores retrieves stores with filtering and pagination
func (r *StoreRepository) GetStores(q models.StoreListQuery) ([]models.StorePoint, int64, error) {
	query := "SELECT " + storeColumns + " FROM stores"

	conditions, args := storeFilterConditions(q.StoreFilter)
	if q.ActiveOnly {
		conditions = append(conditions, "is_active = 1")
	}
	if q.Search != "" {
		conditions = append(conditions, "(name LIKE ? OR city LIKE ?)")
		pattern := "%" + q.Search + "%"
		args = append(args, pattern, pattern)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM stores"
	if len(conditions) > 0 {
		countQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count stores: %w", err)
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 100
	}
	if q.PageSize > 1000 {
		q.PageSize = 1000
	}

	offset := (q.Page - 1) * q.PageSize
	query += " ORDER BY location_id LIMIT ? OFFSET ?"
	args = append(args, q.PageSize, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query stores: %w", err)
	}
	defer rows.Close()

	var stores []models.StorePoint
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan store: %w", err)
		}
		stores = append(stores, s)
	}

	return stores, total, nil
}

// GetStoreByID retrieves a single store by location ID
func (r *StoreRepository) GetStoreByID(id string) (*models.StorePoint, error) {
	query := "SELECT " + storeColumns + " FROM stores WHERE location_id = ?"

	s, err := scanStore(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return &s, nil
}

// GetMappableStores retrieves the active, geocoded stores that feed the map
// pipeline. Results are ordered by location ID so downstream clustering sees
// a stable input order.
func (r *StoreRepository) GetMappableStores(f models.StoreFilter) ([]models.StorePoint, error) {
	query := "SELECT " + storeColumns + " FROM stores"

	conditions, args := storeFilterConditions(f)
	conditions = append(conditions,
		"is_active = 1",
		"latitude IS NOT NULL",
		"longitude IS NOT NULL",
	)
	query += " WHERE " + strings.Join(conditions, " AND ")
	query += " ORDER BY location_id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mappable stores: %w", err)
	}
	defer rows.Close()

	var stores []models.StorePoint
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		stores = append(stores, s)
	}

	return stores, nil
}

// GetActiveStoreIDs retrieves every active store's location ID in stable
// order. The harvester walks this list; stores without a geocode still get
// their prices collected.
func (r *StoreRepository) GetActiveStoreIDs() ([]string, error) {
	rows, err := r.db.Query("SELECT location_id FROM stores WHERE is_active = 1 ORDER BY location_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query store ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan store id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// Nearby retrieves stores within a radius of a point, closest first. A
// bounding box narrows the candidates in SQL before the exact great-circle
// check.
func (r *StoreRepository) Nearby(q models.NearbyQuery) ([]models.NearbyStore, error) {
	if q.RadiusKm <= 0 {
		q.RadiusKm = 50
	}
	if q.Limit < 1 {
		q.Limit = 20
	}
	if q.Limit > 200 {
		q.Limit = 200
	}

	box := spatial.BoundingBoxAround(q.Lat, q.Lng, q.RadiusKm)
	query := "SELECT " + storeColumns + ` FROM stores
		WHERE is_active = 1
		  AND latitude BETWEEN ? AND ?
		  AND longitude BETWEEN ? AND ?`

	rows, err := r.db.Query(query, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby stores: %w", err)
	}
	defer rows.Close()

	var nearby []models.NearbyStore
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		if !s.HasGeometry() {
			continue
		}
		d := spatial.HaversineDistanceKm(q.Lat, q.Lng, *s.Latitude, *s.Longitude)
		if d <= q.RadiusKm {
			nearby = append(nearby, models.NearbyStore{StorePoint: s, DistanceKm: d})
		}
	}

	sort.Slice(nearby, func(i, j int) bool { return nearby[i].DistanceKm < nearby[j].DistanceKm })
	if len(nearby) > q.Limit {
		nearby = nearby[:q.Limit]
	}
	return nearby, nil
}

// UpsertStores inserts or refreshes a batch of stores from the Kroger
// locations API. Returns the number of rows written.
func (r *StoreRepository) UpsertStores(stores []models.StorePoint) (int, error) {
	if len(stores) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	stmt, err := tx.Prepare(`INSERT INTO stores
		(location_id, name, chain, address, city, state, zip_code, region, division, latitude, longitude, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(location_id) DO UPDATE SET
			name = excluded.name,
			chain = excluded.chain,
			address = excluded.address,
			city = excluded.city,
			state = excluded.state,
			zip_code = excluded.zip_code,
			region = excluded.region,
			division = excluded.division,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			is_active = 1,
			updated_at = datetime('now')`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range stores {
		_, err := stmt.Exec(s.ID, s.Name, s.Chain, s.Address, s.City, s.State,
			s.ZipCode, s.Region, s.Division, s.Latitude, s.Longitude)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to upsert store %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return len(stores), nil
}

// GetFilterOptions lists the distinct filterable attribute values.
func (r *StoreRepository) GetFilterOptions() (*models.FilterOptions, error) {
	opts := &models.FilterOptions{}

	queries := []struct {
		sql  string
		dest *[]string
	}{
		{"SELECT DISTINCT region FROM stores WHERE region IS NOT NULL AND region != '' ORDER BY region", &opts.Regions},
		{"SELECT DISTINCT division FROM stores WHERE division IS NOT NULL AND division != '' ORDER BY division", &opts.Divisions},
		{"SELECT DISTINCT state FROM stores WHERE state IS NOT NULL AND state != '' ORDER BY state", &opts.States},
		{"SELECT DISTINCT chain FROM stores WHERE chain IS NOT NULL AND chain != '' ORDER BY chain", &opts.Chains},
	}

	for _, q := range queries {
		rows, err := r.db.Query(q.sql)
		if err != nil {
			return nil, fmt.Errorf("failed to query filter options: %w", err)
		}
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan filter option: %w", err)
			}
			*q.dest = append(*q.dest, v)
		}
		rows.Close()
	}

	return opts, nil
}
