package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kudisave/recon/internal/database"
	"github.com/kudisave/recon/internal/model"
)

type mockSwapSource struct {
	listFunc   func(ctx context.Context, now time.Time) ([]*model.SwapRequest, error)
	expireFunc func(ctx context.Context, id string, prior model.SwapStatus) error
	expired    []string
}

func (m *mockSwapSource) ListExpiredPending(ctx context.Context, now time.Time) ([]*model.SwapRequest, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, now)
	}
	return nil, nil
}

func (m *mockSwapSource) Expire(ctx context.Context, id string, prior model.SwapStatus) error {
	if m.expireFunc != nil {
		if err := m.expireFunc(ctx, id, prior); err != nil {
			return err
		}
	}
	m.expired = append(m.expired, id)
	return nil
}

type mockNotifier struct {
	sendFunc func(ctx context.Context, recipient, message string, data map[string]string) error
	sent     []string
}

func (m *mockNotifier) Send(ctx context.Context, recipient, message string, data map[string]string) error {
	if m.sendFunc != nil {
		if err := m.sendFunc(ctx, recipient, message, data); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, recipient)
	return nil
}

func swapRequest(id string, status model.SwapStatus) *model.SwapRequest {
	return &model.SwapRequest{
		ID:          id,
		CircleID:    "circle-1",
		RequesterID: "requester-" + id,
		TargetID:    "target-" + id,
		Status:      status,
		ExpiresAt:   time.Now().Add(-time.Hour),
	}
}

func TestSwapExpiration_ExpiresAllPendingStates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	swaps := &mockSwapSource{
		listFunc: func(ctx context.Context, now time.Time) ([]*model.SwapRequest, error) {
			return []*model.SwapRequest{
				swapRequest("swap-1", model.SwapPendingTarget),
				swapRequest("swap-2", model.SwapPendingConfirmation),
				swapRequest("swap-3", model.SwapPendingElderApproval),
			}, nil
		},
	}
	ledger := &mockAuditWriter{}
	notifier := &mockNotifier{}

	job := NewSwapExpirationJob(swaps, ledger, notifier, &mockRecorder{})
	res, err := job.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Succeeded != 3 || res.Failed != 0 {
		t.Fatalf("expected 3 expiries, got %+v", res)
	}
	if len(swaps.expired) != 3 {
		t.Errorf("expected 3 expire calls, got %d", len(swaps.expired))
	}
	// Each ledger entry captures the prior status.
	if len(ledger.entries) != 3 {
		t.Fatalf("expected 3 ledger entries, got %d", len(ledger.entries))
	}
	if ledger.entries[0].Detail != string(model.SwapPendingTarget) {
		t.Errorf("expected prior status detail, got %q", ledger.entries[0].Detail)
	}
	if len(notifier.sent) != 3 || notifier.sent[0] != "requester-swap-1" {
		t.Errorf("expected requester notifications, got %v", notifier.sent)
	}
}

func TestSwapExpiration_TerminalStatesNeverMutated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// The candidate query should exclude terminal rows; if one slips
	// through, the job must still refuse to touch it.
	swaps := &mockSwapSource{
		listFunc: func(ctx context.Context, now time.Time) ([]*model.SwapRequest, error) {
			return []*model.SwapRequest{
				swapRequest("swap-1", model.SwapAccepted),
				swapRequest("swap-2", model.SwapRejected),
				swapRequest("swap-3", model.SwapExpired),
			}, nil
		},
	}

	job := NewSwapExpirationJob(swaps, &mockAuditWriter{}, &mockNotifier{}, &mockRecorder{})
	res, err := job.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Skipped != 3 || res.Succeeded != 0 || res.Failed != 0 {
		t.Fatalf("terminal rows must be skipped, got %+v", res)
	}
	if len(swaps.expired) != 0 {
		t.Errorf("terminal row mutated: %v", swaps.expired)
	}
}

func TestSwapExpiration_ConcurrentClaimSkips(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	swaps := &mockSwapSource{
		listFunc: func(ctx context.Context, now time.Time) ([]*model.SwapRequest, error) {
			return []*model.SwapRequest{swapRequest("swap-1", model.SwapPendingTarget)}, nil
		},
		expireFunc: func(ctx context.Context, id string, prior model.SwapStatus) error {
			return database.ErrStaleRow
		},
	}
	notifier := &mockNotifier{}

	job := NewSwapExpirationJob(swaps, &mockAuditWriter{}, notifier, &mockRecorder{})
	res, err := job.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Skipped != 1 || res.Succeeded != 0 {
		t.Fatalf("expected skip, got %+v", res)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("skipped swap must not notify")
	}
}

func TestSwapExpiration_NotifyFailureIsBestEffort(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	swaps := &mockSwapSource{
		listFunc: func(ctx context.Context, now time.Time) ([]*model.SwapRequest, error) {
			return []*model.SwapRequest{swapRequest("swap-1", model.SwapPendingTarget)}, nil
		},
	}
	notifier := &mockNotifier{
		sendFunc: func(ctx context.Context, recipient, message string, data map[string]string) error {
			return errors.New("push gateway down")
		},
	}

	job := NewSwapExpirationJob(swaps, &mockAuditWriter{}, notifier, &mockRecorder{})
	res, err := job.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Succeeded != 1 || res.Failed != 0 {
		t.Fatalf("notify failure must not fail the item, got %+v", res)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(res.Warnings))
	}
	if res.Status != model.JobCompleted {
		t.Errorf("expected completed, got %s", res.Status)
	}
}
