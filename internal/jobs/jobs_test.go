package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kudisave/recon/internal/model"
)

// ============================================================================
// Shared mocks
// ============================================================================

type mockRecorder struct {
	insertFunc func(ctx context.Context, entry *model.JobLogEntry) error
	entries    []*model.JobLogEntry
}

func (m *mockRecorder) Insert(ctx context.Context, entry *model.JobLogEntry) error {
	m.entries = append(m.entries, entry)
	if m.insertFunc != nil {
		return m.insertFunc(ctx, entry)
	}
	return nil
}

type mockAuditWriter struct {
	insertFunc func(ctx context.Context, entry *model.LedgerEntry) error
	entries    []*model.LedgerEntry
}

func (m *mockAuditWriter) Insert(ctx context.Context, entry *model.LedgerEntry) error {
	if m.insertFunc != nil {
		if err := m.insertFunc(ctx, entry); err != nil {
			return err
		}
	}
	m.entries = append(m.entries, entry)
	return nil
}

// ============================================================================
// Result semantics
// ============================================================================

func TestResultFinalize_DerivesStatus(t *testing.T) {
	t.Parallel()

	res := newResult("some_job")
	res.Succeeded = 3
	res.finalize(time.Now())
	if res.Status != model.JobCompleted {
		t.Errorf("expected completed, got %s", res.Status)
	}

	res = newResult("some_job")
	res.fail("item-1", errors.New("boom"))
	res.finalize(time.Now())
	if res.Status != model.JobCompletedWithErrors {
		t.Errorf("expected completed_with_errors, got %s", res.Status)
	}
}

func TestResultWarn_NeverCountsAsFailure(t *testing.T) {
	t.Parallel()

	res := newResult("some_job")
	res.Succeeded = 2
	res.warn("ledger entry for item-1", errors.New("ledger down"))
	res.warn("notification for item-2", errors.New("push down"))
	res.finalize(time.Now())

	if res.Failed != 0 {
		t.Errorf("warnings must not count as failures, got failed=%d", res.Failed)
	}
	if len(res.Errors) != 0 {
		t.Errorf("warnings must not appear in Errors, got %d", len(res.Errors))
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(res.Warnings))
	}
	if res.Status != model.JobCompleted {
		t.Errorf("best-effort failures must not degrade status, got %s", res.Status)
	}
}

func TestRecord_WritesSummaryEntry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	res := newResult("some_job")
	res.Processed = 5
	res.Succeeded = 4
	res.fail("item-3", errors.New("boom"))
	res.finalize(time.Now())

	recorder := &mockRecorder{}
	record(ctx, recorder, res)

	if len(recorder.entries) != 1 {
		t.Fatalf("expected 1 job log entry, got %d", len(recorder.entries))
	}
	entry := recorder.entries[0]
	if entry.JobName != "some_job" || entry.RecordsProcessed != 5 || entry.RecordsSucceeded != 4 || entry.RecordsFailed != 1 {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Status != model.JobCompletedWithErrors {
		t.Errorf("expected completed_with_errors, got %s", entry.Status)
	}
}

func TestRecordFatal_WritesFailedEntry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	recorder := &mockRecorder{}
	recordFatal(ctx, recorder, "some_job", time.Now(), errors.New("db unreachable"))

	if len(recorder.entries) != 1 {
		t.Fatalf("expected 1 job log entry, got %d", len(recorder.entries))
	}
	entry := recorder.entries[0]
	if entry.Status != model.JobFailed {
		t.Errorf("expected failed, got %s", entry.Status)
	}
	if entry.Details["error"] != "db unreachable" {
		t.Errorf("expected error detail, got %+v", entry.Details)
	}
}
