package model

import "time"

// JobStatus summarizes one job invocation in the job log.
type JobStatus string

const (
	JobCompleted           JobStatus = "completed"
	JobCompletedWithErrors JobStatus = "completed_with_errors"
	JobFailed              JobStatus = "failed"
)

// JobLogEntry is one append-only row per job invocation. Entries are never
// updated; failure to write one is logged locally and swallowed.
type JobLogEntry struct {
	ID               string         `json:"id"`
	JobName          string         `json:"job_name"`
	Status           JobStatus      `json:"status"`
	RecordsProcessed int            `json:"records_processed"`
	RecordsSucceeded int            `json:"records_succeeded"`
	RecordsFailed    int            `json:"records_failed"`
	ExecutionTime    time.Duration  `json:"execution_time"`
	Details          map[string]any `json:"details,omitempty"`
	CreatedOn        time.Time      `json:"created_on"`
}
