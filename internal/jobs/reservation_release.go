package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kudisave/recon/internal/database"
	"github.com/kudisave/recon/internal/model"
)

// ReservationReleaseJobName identifies the job in logs and the job log.
const ReservationReleaseJobName = "reservation_release"

// ReservationSource provides the reservation rows the release job owns.
type ReservationSource interface {
	ListExpiredReserved(ctx context.Context, cutoff time.Time) ([]*model.Reservation, error)
	MarkReleased(ctx context.Context, id string) error
}

// WalletStore provides the wallet reads and the reserved-to-main move.
type WalletStore interface {
	GetByID(ctx context.Context, id string) (*model.Wallet, error)
	ReleaseReserved(ctx context.Context, walletID string, amount model.Cents) error
}

// ReservationReleaseJob returns funds held by stale reservations to the
// owning wallet's spendable balance.
//
// For every reservation still reserved a week past its due date, the job
// claims the row (reserved -> released, conditional), moves the amount from
// reserved_balance to main_balance in one statement, and writes a
// reservation_release ledger entry. The wallet total is conserved for every
// successfully processed item.
type ReservationReleaseJob struct {
	reservations ReservationSource
	wallets      WalletStore
	ledger       AuditWriter
	recorder     Recorder
}

// NewReservationReleaseJob creates the job with its collaborators.
func NewReservationReleaseJob(reservations ReservationSource, wallets WalletStore, ledger AuditWriter, recorder Recorder) *ReservationReleaseJob {
	return &ReservationReleaseJob{
		reservations: reservations,
		wallets:      wallets,
		ledger:       ledger,
		recorder:     recorder,
	}
}

// Name returns the job name.
func (j *ReservationReleaseJob) Name() string { return ReservationReleaseJobName }

// Run executes one release batch.
func (j *ReservationReleaseJob) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	cutoff := start.Add(-model.ReleaseWindow)

	candidates, err := j.reservations.ListExpiredReserved(ctx, cutoff)
	if err != nil {
		recordFatal(ctx, j.recorder, ReservationReleaseJobName, start, err)
		return nil, fmt.Errorf("listing expired reservations: %w", err)
	}

	res := newResult(ReservationReleaseJobName)
	var totalReleased model.Cents

	for _, reservation := range candidates {
		res.Processed++

		if _, err := j.wallets.GetByID(ctx, reservation.WalletID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				res.fail(reservation.ID, fmt.Errorf("wallet %s not found", reservation.WalletID))
			} else {
				res.fail(reservation.ID, err)
			}
			continue
		}

		// Claim the reservation first so a concurrent run skips it.
		if err := j.reservations.MarkReleased(ctx, reservation.ID); err != nil {
			if errors.Is(err, database.ErrStaleRow) {
				res.Skipped++
				continue
			}
			res.fail(reservation.ID, err)
			continue
		}

		if err := j.wallets.ReleaseReserved(ctx, reservation.WalletID, reservation.Amount); err != nil {
			res.fail(reservation.ID, err)
			continue
		}

		res.Succeeded++
		totalReleased += reservation.Amount

		if err := j.ledger.Insert(ctx, &model.LedgerEntry{
			Type:        model.LedgerReservationRelease,
			UserID:      reservation.UserID,
			WalletID:    reservation.WalletID,
			ReferenceID: reservation.ID,
			Amount:      reservation.Amount,
		}); err != nil {
			res.warn("ledger entry for "+reservation.ID, err)
		}
	}

	res.Stats["released"] = res.Succeeded
	res.Stats["failed"] = res.Failed
	res.Stats["skipped"] = res.Skipped
	res.Stats["total_released"] = int64(totalReleased)

	res.finalize(start)
	record(ctx, j.recorder, res)
	return res, nil
}
