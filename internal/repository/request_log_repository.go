package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
)

// RequestLogRepository handles database operations for outbound API
// request accounting
type RequestLogRepository struct {
	db *sql.DB
}

// NewRequestLogRepository creates a new request log repository
func NewRequestLogRepository(db *sql.DB) *RequestLogRepository {
	return &RequestLogRepository{db: db}
}

// Log records one outbound request
func (r *RequestLogRepository) Log(entry models.RequestLog) error {
	query := `INSERT INTO request_log (endpoint, status_code, item_count, duration_ms)
		VALUES (?, ?, ?, ?)`

	if _, err := r.db.Exec(query, entry.Endpoint, entry.StatusCode, entry.ItemCount, entry.DurationMs); err != nil {
		return fmt.Errorf("failed to log request: %w", err)
	}
	return nil
}

// CountSince returns the number of requests issued at or after the given
// time. The harvester checks this against the daily API quota.
func (r *RequestLogRepository) CountSince(since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM request_log WHERE created_at >= ?",
		since.UTC().Format("2006-01-02 15:04:05"),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return count, nil
}

// RecentErrors counts non-2xx responses since the given time.
func (r *RequestLogRepository) RecentErrors(since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM request_log WHERE created_at >= ? AND (status_code < 200 OR status_code >= 300)",
		since.UTC().Format("2006-01-02 15:04:05"),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count request errors: %w", err)
	}
	return count, nil
}
