package models

import "time"

// RequestLog records one outbound Kroger API request for quota accounting.
// The daily request ceiling is enforced against this table.
type RequestLog struct {
	ID         int64     `json:"id" db:"id"`
	Endpoint   string    `json:"endpoint" db:"endpoint"`
	StatusCode int       `json:"status_code" db:"status_code"`
	ItemCount  int       `json:"item_count" db:"item_count"`
	DurationMs int64     `json:"duration_ms" db:"duration_ms"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
