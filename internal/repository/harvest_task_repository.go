package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
)

const harvestTaskColumns = `id, status, price_date, total_stores, processed_stores, failed_stores,
	rows_upserted, requests_issued, dry_run, start_time, end_time, error_message,
	created_by, created_at, updated_at`

// HarvestTaskRepository handles database operations for harvest tasks
type HarvestTaskRepository struct {
	db *sql.DB
}

// NewHarvestTaskRepository creates a new harvest task repository
func NewHarvestTaskRepository(db *sql.DB) *HarvestTaskRepository {
	return &HarvestTaskRepository{db: db}
}

// Create inserts a new pending task and fills in its ID
func (r *HarvestTaskRepository) Create(task *models.HarvestTask) error {
	query := `INSERT INTO harvest_tasks
		(status, price_date, total_stores, dry_run, created_by)
		VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.Exec(query,
		task.Status, task.PriceDate, task.TotalStores, task.DryRun, task.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to create harvest task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	task.ID = int(id)
	return nil
}

func scanHarvestTask(scanner interface{ Scan(...interface{}) error }) (*models.HarvestTask, error) {
	task := &models.HarvestTask{}
	var errMsg sql.NullString
	err := scanner.Scan(
		&task.ID, &task.Status, &task.PriceDate, &task.TotalStores, &task.ProcessedDone,
		&task.FailedStores, &task.RowsUpserted, &task.RequestsIssued, &task.DryRun,
		&task.StartTime, &task.EndTime, &errMsg,
		&task.CreatedBy, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if errMsg.Valid {
		task.ErrorMessage = &errMsg.String
	}
	return task, nil
}

// GetByID retrieves a harvest task
func (r *HarvestTaskRepository) GetByID(id int) (*models.HarvestTask, error) {
	query := "SELECT " + harvestTaskColumns + " FROM harvest_tasks WHERE id = ?"

	task, err := scanHarvestTask(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get harvest task: %w", err)
	}
	return task, nil
}

// GetActive returns the pending or running task, if any. At most one
// harvest runs at a time.
func (r *HarvestTaskRepository) GetActive() (*models.HarvestTask, error) {
	query := "SELECT " + harvestTaskColumns + ` FROM harvest_tasks
		WHERE status IN (?, ?) ORDER BY id DESC LIMIT 1`

	task, err := scanHarvestTask(r.db.QueryRow(query, models.TaskStatusPending, models.TaskStatusRunning))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active harvest task: %w", err)
	}
	return task, nil
}

// GetRecent lists the latest tasks, newest first
func (r *HarvestTaskRepository) GetRecent(limit int) ([]*models.HarvestTask, error) {
	if limit < 1 {
		limit = 20
	}
	query := "SELECT " + harvestTaskColumns + " FROM harvest_tasks ORDER BY id DESC LIMIT ?"

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list harvest tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.HarvestTask
	for rows.Next() {
		task, err := scanHarvestTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan harvest task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

// MarkAsRunning marks a task as running
func (r *HarvestTaskRepository) MarkAsRunning(id int) error {
	query := `UPDATE harvest_tasks
		SET status = ?, start_time = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	if _, err := r.db.Exec(query, models.TaskStatusRunning, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to mark task as running: %w", err)
	}
	return nil
}

// UpdateProgress updates the counters of a running task
func (r *HarvestTaskRepository) UpdateProgress(id, processed, failed, rowsUpserted, requests int) error {
	query := `UPDATE harvest_tasks
		SET processed_stores = ?, failed_stores = ?, rows_upserted = ?,
			requests_issued = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	if _, err := r.db.Exec(query, processed, failed, rowsUpserted, requests, id); err != nil {
		return fmt.Errorf("failed to update task progress: %w", err)
	}
	return nil
}

// MarkAsCompleted marks a task as completed
func (r *HarvestTaskRepository) MarkAsCompleted(id int) error {
	query := `UPDATE harvest_tasks
		SET status = ?, end_time = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	if _, err := r.db.Exec(query, models.TaskStatusCompleted, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to mark task as completed: %w", err)
	}
	return nil
}

// MarkAsFailed marks a task as failed with an error message
func (r *HarvestTaskRepository) MarkAsFailed(id int, errorMessage string) error {
	query := `UPDATE harvest_tasks
		SET status = ?, end_time = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	if _, err := r.db.Exec(query, models.TaskStatusFailed, time.Now().UTC(), errorMessage, id); err != nil {
		return fmt.Errorf("failed to mark task as failed: %w", err)
	}
	return nil
}
