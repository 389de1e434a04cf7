package models

import "time"

// HarvestTask represents one background price collection run against the
// Kroger API.
type HarvestTask struct {
	ID             int        `json:"id" db:"id"`
	Status         string     `json:"status" db:"status"` // pending, running, completed, failed
	PriceDate      string     `json:"price_date" db:"price_date"`
	TotalStores    int        `json:"total_stores" db:"total_stores"`
	ProcessedDone  int        `json:"processed_stores" db:"processed_stores"`
	FailedStores   int        `json:"failed_stores" db:"failed_stores"`
	RowsUpserted   int        `json:"rows_upserted" db:"rows_upserted"`
	RequestsIssued int        `json:"requests_issued" db:"requests_issued"`
	DryRun         bool       `json:"dry_run" db:"dry_run"`
	StartTime      *time.Time `json:"start_time,omitempty" db:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty" db:"end_time"`
	ErrorMessage   *string    `json:"error_message,omitempty" db:"error_message"`
	CreatedBy      string     `json:"created_by" db:"created_by"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// TaskStatus constants
const (
	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// IsTerminal returns true if the task is in a terminal state
func (t *HarvestTask) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// Progress returns the completion percentage (0-100)
func (t *HarvestTask) Progress() float64 {
	if t.TotalStores == 0 {
		return 0
	}
	return float64(t.ProcessedDone) / float64(t.TotalStores) * 100
}
