package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kudisave/recon/internal/database"
	"github.com/kudisave/recon/internal/model"
)

// JobLogRepository appends and reads per-run job statistics. Rows are never
// updated.
type JobLogRepository struct {
	db database.Database
}

// NewJobLogRepository creates a new job log repository
func NewJobLogRepository(db database.Database) *JobLogRepository {
	return &JobLogRepository{db: db}
}

// Insert appends one job log entry.
func (r *JobLogRepository) Insert(ctx context.Context, entry *model.JobLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	query := `
		CREATE job_log CONTENT {
			entry_id: $entry_id,
			job_name: $job_name,
			status: $status,
			records_processed: $records_processed,
			records_succeeded: $records_succeeded,
			records_failed: $records_failed,
			execution_time_ms: $execution_time_ms,
			details: $details,
			created_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"entry_id":          entry.ID,
		"job_name":          entry.JobName,
		"status":            string(entry.Status),
		"records_processed": entry.RecordsProcessed,
		"records_succeeded": entry.RecordsSucceeded,
		"records_failed":    entry.RecordsFailed,
		"execution_time_ms": entry.ExecutionTime.Milliseconds(),
		"details":           entry.Details,
	}
	return r.db.Execute(ctx, query, vars)
}

// ListRecent returns the most recent runs, optionally filtered by job name.
func (r *JobLogRepository) ListRecent(ctx context.Context, jobName string, limit int) ([]*model.JobLogEntry, error) {
	query := `
		SELECT * FROM job_log
		WHERE $job_name = "" OR job_name = $job_name
		ORDER BY created_on DESC
		LIMIT $limit
	`
	vars := map[string]interface{}{
		"job_name": jobName,
		"limit":    limit,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	entries := make([]*model.JobLogEntry, 0)
	for _, row := range rowsFromResult(result) {
		entry := &model.JobLogEntry{
			ID:               getString(row, "entry_id"),
			JobName:          getString(row, "job_name"),
			Status:           model.JobStatus(getString(row, "status")),
			RecordsProcessed: getInt(row, "records_processed"),
			RecordsSucceeded: getInt(row, "records_succeeded"),
			RecordsFailed:    getInt(row, "records_failed"),
			ExecutionTime:    time.Duration(getInt64(row, "execution_time_ms")) * time.Millisecond,
		}
		if t := getTime(row, "created_on"); t != nil {
			entry.CreatedOn = *t
		}
		if details, ok := row["details"].(map[string]interface{}); ok {
			entry.Details = details
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
