package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kudisave/recon/internal/model"
)

const defaultJobLogLimit = 50

// JobLogReader lists recent job log entries.
type JobLogReader interface {
	ListRecent(ctx context.Context, jobName string, limit int) ([]*model.JobLogEntry, error)
}

// JobLogHandler serves the read side of the job log.
type JobLogHandler struct {
	log JobLogReader
}

// NewJobLogHandler creates a new job log handler
func NewJobLogHandler(log JobLogReader) *JobLogHandler {
	return &JobLogHandler{log: log}
}

// List handles GET /v1/jobs/log - recent runs, optionally filtered by ?job=
func (h *JobLogHandler) List(w http.ResponseWriter, r *http.Request) {
	jobName := r.URL.Query().Get("job")

	limit := defaultJobLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			WriteJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "limit must be an integer between 1 and 500",
			})
			return
		}
		limit = parsed
	}

	entries, err := h.log.ListRecent(r.Context(), jobName, limit)
	if err != nil {
		WriteJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "failed to read job log",
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"entries": entries,
	})
}
