package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
)

// upsertChunk caps the rows per transaction during bulk price writes.
const upsertChunk = 1000

// PriceRepository handles database operations for daily price observations
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// LatestForProduct returns the most recent observation per store for one
// product, keyed by location ID. Stores without any observation are absent
// from the map.
func (r *PriceRepository) LatestForProduct(upc string) (map[string]models.PriceQuote, error) {
	query := `SELECT d.location_id, d.regular_price, d.promo_price, d.price_date, d.fetched_at
		FROM daily_prices d
		JOIN (
			SELECT location_id, MAX(price_date) AS max_date
			FROM daily_prices
			WHERE upc = ?
			GROUP BY location_id
		) latest ON latest.location_id = d.location_id AND latest.max_date = d.price_date
		WHERE d.upc = ?`

	rows, err := r.db.Query(query, upc, upc)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest prices: %w", err)
	}
	defer rows.Close()

	quotes := make(map[string]models.PriceQuote)
	for rows.Next() {
		var locationID string
		var q models.PriceQuote
		if err := rows.Scan(&locationID, &q.Regular, &q.Promo, &q.PriceDate, &q.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price quote: %w", err)
		}
		quotes[locationID] = q
	}

	return quotes, nil
}

// UpsertBatch writes price observations in chunks, replacing same-day rows.
// Returns the number of rows written.
func (r *PriceRepository) UpsertBatch(rows []models.PriceRow) (int, error) {
	written := 0
	for start := 0; start < len(rows); start += upsertChunk {
		end := start + upsertChunk
		if end > len(rows) {
			end = len(rows)
		}
		if err := r.upsertChunk(rows[start:end]); err != nil {
			return written, err
		}
		written += end - start
	}
	return written, nil
}

func (r *PriceRepository) upsertChunk(rows []models.PriceRow) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	stmt, err := tx.Prepare(`INSERT INTO daily_prices
		(location_id, upc, price_date, regular_price, promo_price, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(location_id, upc, price_date) DO UPDATE SET
			regular_price = excluded.regular_price,
			promo_price = excluded.promo_price,
			fetched_at = excluded.fetched_at`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		fetched := row.FetchedAt
		if fetched.IsZero() {
			fetched = time.Now().UTC()
		}
		_, err := stmt.Exec(row.LocationID, row.UPC, row.PriceDate, row.RegularPrice, row.PromoPrice, fetched)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert price %s/%s: %w", row.LocationID, row.UPC, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// History retrieves the observation history for one store and product, most
// recent first.
func (r *PriceRepository) History(locationID string, q models.PriceHistoryQuery) ([]models.PriceRow, error) {
	query := `SELECT location_id, upc, price_date, regular_price, promo_price, fetched_at
		FROM daily_prices`

	conditions := []string{"location_id = ?", "upc = ?"}
	args := []interface{}{locationID, q.UPC}

	if q.Days > 0 {
		conditions = append(conditions, "price_date >= date('now', ?)")
		args = append(args, fmt.Sprintf("-%d days", q.Days))
	}

	query += " WHERE " + strings.Join(conditions, " AND ")
	query += " ORDER BY price_date DESC"

	if q.Limit < 1 {
		q.Limit = 90
	}
	if q.Limit > 1000 {
		q.Limit = 1000
	}
	query += " LIMIT ?"
	args = append(args, q.Limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var history []models.PriceRow
	for rows.Next() {
		var row models.PriceRow
		if err := rows.Scan(&row.LocationID, &row.UPC, &row.PriceDate,
			&row.RegularPrice, &row.PromoPrice, &row.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		history = append(history, row)
	}

	return history, nil
}

// StreamRows walks price observations matching the export query in primary
// key order, invoking fn for each row. The export endpoint compresses rows
// as they stream, so the full set never sits in memory.
func (r *PriceRepository) StreamRows(q models.ExportQuery, fn func(models.PriceRow) error) error {
	query := `SELECT location_id, upc, price_date, regular_price, promo_price, fetched_at
		FROM daily_prices`

	var conditions []string
	var args []interface{}

	if q.UPC != "" {
		conditions = append(conditions, "upc = ?")
		args = append(args, q.UPC)
	}
	if q.StartDate != "" {
		conditions = append(conditions, "price_date >= ?")
		args = append(args, q.StartDate)
	}
	if q.EndDate != "" {
		conditions = append(conditions, "price_date <= ?")
		args = append(args, q.EndDate)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY location_id, upc, price_date"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to query export rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row models.PriceRow
		if err := rows.Scan(&row.LocationID, &row.UPC, &row.PriceDate,
			&row.RegularPrice, &row.PromoPrice, &row.FetchedAt); err != nil {
			return fmt.Errorf("failed to scan export row: %w", err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}

	return rows.Err()
}

// CoverageDates lists the distinct price dates present for a product,
// newest first.
func (r *PriceRepository) CoverageDates(upc string, limit int) ([]string, error) {
	if limit < 1 {
		limit = 30
	}
	rows, err := r.db.Query(
		"SELECT DISTINCT price_date FROM daily_prices WHERE upc = ? ORDER BY price_date DESC LIMIT ?",
		upc, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query coverage dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan coverage date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}
