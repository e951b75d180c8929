// Package jobs implements the scheduled financial reconciliation jobs.
//
// Each job is an independently triggerable, stateless batch: it fetches a
// bounded candidate set from the store, processes items strictly
// sequentially, and aggregates a Result. A failure fetching the candidate
// set aborts the whole invocation; a failure processing one item is caught
// at the item boundary, recorded, and never blocks the remaining items.
//
// Two failure classes are kept strictly apart:
//
//   - item failures: the primary mutation for one item did not happen; the
//     item appears in Result.Errors and counts toward Result.Failed.
//   - best-effort failures: audit-trail writes, job-log writes and
//     notification enqueues; these are appended to Result.Warnings, logged,
//     and never counted as item failures. The primary mutation stands.
//
// Every mutation a job owns is a conditional update (WHERE status =
// $expected). A conditional update that matches no row means a concurrent
// invocation processed the item first; the item is counted as skipped.
//
// All jobs construct against narrow interfaces so tests can substitute
// in-memory fakes.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/kudisave/recon/internal/model"
)

// ItemError records one per-item domain failure.
type ItemError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Result aggregates one job invocation.
type Result struct {
	JobName   string          `json:"job_name"`
	Status    model.JobStatus `json:"status"`
	Processed int             `json:"processed"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Skipped   int             `json:"skipped"`
	Stats     map[string]any  `json:"stats"`
	Errors    []ItemError     `json:"errors,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
	Duration  time.Duration   `json:"duration"`
}

func newResult(jobName string) *Result {
	return &Result{
		JobName: jobName,
		Stats:   make(map[string]any),
	}
}

// fail records a per-item domain failure and moves on.
func (r *Result) fail(id string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, ItemError{ID: id, Error: err.Error()})
	log.Printf("[%s] item %s failed: %v", r.JobName, id, err)
}

// warn records a best-effort side-effect failure. It never touches the
// failure counters.
func (r *Result) warn(context string, err error) {
	r.Warnings = append(r.Warnings, context+": "+err.Error())
	log.Printf("[%s] best-effort %s: %v", r.JobName, context, err)
}

// finalize stamps duration and derives the run status from the counters.
func (r *Result) finalize(start time.Time) *Result {
	r.Duration = time.Since(start)
	if r.Failed > 0 {
		r.Status = model.JobCompletedWithErrors
	} else {
		r.Status = model.JobCompleted
	}
	return r
}

// Recorder persists one JobLogEntry per invocation.
type Recorder interface {
	Insert(ctx context.Context, entry *model.JobLogEntry) error
}

// AuditWriter appends ledger audit entries.
type AuditWriter interface {
	Insert(ctx context.Context, entry *model.LedgerEntry) error
}

// record persists the run summary to the job log. Failure to log is
// non-fatal: logged locally and swallowed.
func record(ctx context.Context, recorder Recorder, res *Result) {
	if recorder == nil {
		return
	}
	entry := &model.JobLogEntry{
		JobName:          res.JobName,
		Status:           res.Status,
		RecordsProcessed: res.Processed,
		RecordsSucceeded: res.Succeeded,
		RecordsFailed:    res.Failed,
		ExecutionTime:    res.Duration,
		Details:          res.Stats,
	}
	if err := recorder.Insert(ctx, entry); err != nil {
		log.Printf("[%s] job log write failed: %v", res.JobName, err)
	}
}

// recordFatal logs a failed run whose candidate selection never completed.
func recordFatal(ctx context.Context, recorder Recorder, jobName string, start time.Time, err error) {
	if recorder == nil {
		return
	}
	entry := &model.JobLogEntry{
		JobName:       jobName,
		Status:        model.JobFailed,
		ExecutionTime: time.Since(start),
		Details:       map[string]any{"error": err.Error()},
	}
	if logErr := recorder.Insert(ctx, entry); logErr != nil {
		log.Printf("[%s] job log write failed: %v", jobName, logErr)
	}
}
