package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kudisave/recon/internal/database"
	"github.com/kudisave/recon/internal/model"
)

// SwapExpirationJobName identifies the job in logs and the job log.
const SwapExpirationJobName = "swap_expiration"

// SwapSource provides the swap request rows the expiration job owns.
type SwapSource interface {
	ListExpiredPending(ctx context.Context, now time.Time) ([]*model.SwapRequest, error)
	Expire(ctx context.Context, id string, prior model.SwapStatus) error
}

// RequesterNotifier enqueues an expiry notification to the requester.
type RequesterNotifier interface {
	Send(ctx context.Context, recipient, message string, data map[string]string) error
}

// SwapExpirationJob moves overdue pending swap requests to expired.
//
// Any of the three pending states transitions to expired once expires_at
// has passed; accepted and rejected are terminal and never selected, and
// nothing transitions out of expired. Each expiry writes a swap_expired
// event capturing the prior status and enqueues a notification to the
// requester (best-effort).
type SwapExpirationJob struct {
	swaps    SwapSource
	ledger   AuditWriter
	notifier RequesterNotifier
	recorder Recorder
}

// NewSwapExpirationJob creates the job with its collaborators.
func NewSwapExpirationJob(swaps SwapSource, ledger AuditWriter, notifier RequesterNotifier, recorder Recorder) *SwapExpirationJob {
	return &SwapExpirationJob{
		swaps:    swaps,
		ledger:   ledger,
		notifier: notifier,
		recorder: recorder,
	}
}

// Name returns the job name.
func (j *SwapExpirationJob) Name() string { return SwapExpirationJobName }

// Run executes one expiration batch.
func (j *SwapExpirationJob) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	candidates, err := j.swaps.ListExpiredPending(ctx, start)
	if err != nil {
		recordFatal(ctx, j.recorder, SwapExpirationJobName, start, err)
		return nil, fmt.Errorf("listing expired swap requests: %w", err)
	}

	res := newResult(SwapExpirationJobName)

	for _, swap := range candidates {
		res.Processed++

		if !swap.Status.IsPending() {
			// The candidate query should never hand us a terminal row.
			res.Skipped++
			continue
		}

		if err := j.swaps.Expire(ctx, swap.ID, swap.Status); err != nil {
			if errors.Is(err, database.ErrStaleRow) {
				res.Skipped++
				continue
			}
			res.fail(swap.ID, err)
			continue
		}

		res.Succeeded++

		if err := j.ledger.Insert(ctx, &model.LedgerEntry{
			Type:        model.LedgerSwapExpired,
			UserID:      swap.RequesterID,
			ReferenceID: swap.ID,
			Detail:      string(swap.Status),
		}); err != nil {
			res.warn("swap_expired event for "+swap.ID, err)
		}

		msg := fmt.Sprintf("Your position swap request in circle %s expired before approval completed.", swap.CircleID)
		if err := j.notifier.Send(ctx, swap.RequesterID, msg, map[string]string{
			"swap_id":      swap.ID,
			"prior_status": string(swap.Status),
		}); err != nil {
			res.warn("requester notification for "+swap.ID, err)
		}
	}

	res.Stats["expired"] = res.Succeeded
	res.Stats["failed"] = res.Failed
	res.Stats["skipped"] = res.Skipped

	res.finalize(start)
	record(ctx, j.recorder, res)
	return res, nil
}
