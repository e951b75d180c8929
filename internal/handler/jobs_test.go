package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kudisave/recon/internal/jobs"
	"github.com/kudisave/recon/internal/model"
)

type stubJob struct {
	name    string
	runFunc func(ctx context.Context) (*jobs.Result, error)
}

func (s *stubJob) Name() string { return s.name }

func (s *stubJob) Run(ctx context.Context) (*jobs.Result, error) {
	if s.runFunc != nil {
		return s.runFunc(ctx)
	}
	return nil, nil
}

func triggerJob(t *testing.T, job Job) *httptest.ResponseRecorder {
	t.Helper()
	h := NewJobsHandler(nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs/test", nil)
	rec := httptest.NewRecorder()
	h.Trigger(job)(rec, req)
	return rec
}

func TestTrigger_CleanRunReturns200(t *testing.T) {
	t.Parallel()

	job := &stubJob{
		name: "interest_accrual",
		runFunc: func(ctx context.Context) (*jobs.Result, error) {
			return &jobs.Result{
				JobName:   "interest_accrual",
				Status:    model.JobCompleted,
				Processed: 3,
				Succeeded: 3,
				Stats:     map[string]any{"accrued": 3, "total_interest": int64(198)},
				Duration:  42 * time.Millisecond,
			}, nil
		},
	}

	rec := triggerJob(t, job)
	require.Equal(t, http.StatusOK, rec.Code)

	var body JobSuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Contains(t, body.Message, "interest_accrual completed")
	assert.EqualValues(t, 3, body.Stats["accrued"])
	assert.EqualValues(t, 3, body.Stats["processed"])
	assert.NotContains(t, body.Stats, "errors")
}

func TestTrigger_PartialFailureStillReturns200(t *testing.T) {
	t.Parallel()

	job := &stubJob{
		name: "reservation_release",
		runFunc: func(ctx context.Context) (*jobs.Result, error) {
			return &jobs.Result{
				JobName:   "reservation_release",
				Status:    model.JobCompletedWithErrors,
				Processed: 4,
				Succeeded: 3,
				Failed:    1,
				Stats:     map[string]any{"released": 3},
				Errors:    []jobs.ItemError{{ID: "res-2", Error: "wallet wallet-9 not found"}},
				Warnings:  []string{"ledger entry for res-1: ledger unavailable"},
			}, nil
		},
	}

	rec := triggerJob(t, job)
	require.Equal(t, http.StatusOK, rec.Code)

	var body JobSuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success, "item failures must not flip the envelope")
	assert.Contains(t, body.Message, "completed with errors")
	assert.Contains(t, body.Message, "1 failed")
	assert.Contains(t, body.Stats, "errors")
	assert.Contains(t, body.Stats, "warnings")
}

func TestTrigger_FatalFailureReturns500(t *testing.T) {
	t.Parallel()

	job := &stubJob{
		name: "score_decay",
		runFunc: func(ctx context.Context) (*jobs.Result, error) {
			return nil, errors.New("listing decay candidates: db unreachable")
		},
	}

	rec := triggerJob(t, job)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body JobErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Contains(t, body.Error, "db unreachable")
	assert.GreaterOrEqual(t, body.ProcessingTimeMS, int64(0))
}
