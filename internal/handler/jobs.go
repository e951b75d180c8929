package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kudisave/recon/internal/jobs"
	"github.com/kudisave/recon/internal/metrics"
)

// Job is one triggerable reconciliation batch.
type Job interface {
	Name() string
	Run(ctx context.Context) (*jobs.Result, error)
}

// JobsHandler exposes the job trigger endpoints. Each invocation is
// synchronous: the scheduler's request blocks until the batch finishes and
// the response carries the run statistics.
type JobsHandler struct {
	metrics *metrics.JobMetrics
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(m *metrics.JobMetrics) *JobsHandler {
	return &JobsHandler{metrics: m}
}

// Trigger returns the HTTP handler that runs the given job once.
func (h *JobsHandler) Trigger(job Job) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		res, err := job.Run(r.Context())
		if err != nil {
			elapsed := time.Since(start)
			if h.metrics != nil {
				h.metrics.ObserveFatal(job.Name(), elapsed)
			}
			WriteJSON(w, http.StatusInternalServerError, JobErrorResponse{
				Success:          false,
				Error:            err.Error(),
				ProcessingTimeMS: elapsed.Milliseconds(),
			})
			return
		}

		if h.metrics != nil {
			h.metrics.ObserveRun(res.JobName, string(res.Status), res.Succeeded, res.Failed, res.Skipped, res.Duration)
		}

		stats := make(map[string]any, len(res.Stats)+5)
		for k, v := range res.Stats {
			stats[k] = v
		}
		stats["processed"] = res.Processed
		stats["duration_ms"] = res.Duration.Milliseconds()
		if len(res.Errors) > 0 {
			stats["errors"] = res.Errors
		}
		if len(res.Warnings) > 0 {
			stats["warnings"] = res.Warnings
		}

		WriteJSON(w, http.StatusOK, JobSuccessResponse{
			Success: true,
			Message: runMessage(res),
			Stats:   stats,
		})
	}
}

func runMessage(res *jobs.Result) string {
	if res.Failed > 0 {
		return fmt.Sprintf("%s completed with errors: %d succeeded, %d failed, %d skipped",
			res.JobName, res.Succeeded, res.Failed, res.Skipped)
	}
	return fmt.Sprintf("%s completed: %d succeeded, %d skipped",
		res.JobName, res.Succeeded, res.Skipped)
}
