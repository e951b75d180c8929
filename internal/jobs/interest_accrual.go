package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kudisave/recon/internal/database"
	"github.com/kudisave/recon/internal/model"
)

// InterestAccrualJobName identifies the job in logs and the job log.
const InterestAccrualJobName = "interest_accrual"

// LoanSource provides the loan rows and accrual records the job owns.
type LoanSource interface {
	ListActive(ctx context.Context) ([]*model.Loan, error)
	InsertAccrual(ctx context.Context, rec *model.InterestAccrualRecord) error
	AddInterest(ctx context.Context, loanID string, amount model.Cents) error
}

// InterestAccrualJob capitalizes one day of simple interest into every
// active loan's outstanding principal.
//
// The (loan_id, accrual_date) unique key on the accrual record is the
// job's sole idempotency mechanism: a duplicate insert means the loan
// already accrued today and is skipped silently, so re-running the job the
// same day is a no-op per loan. Interest is rounded to the nearest cent
// before being applied; sub-cent remainders are dropped, never carried
// forward.
type InterestAccrualJob struct {
	loans    LoanSource
	ledger   AuditWriter
	recorder Recorder
}

// NewInterestAccrualJob creates the job with its collaborators.
func NewInterestAccrualJob(loans LoanSource, ledger AuditWriter, recorder Recorder) *InterestAccrualJob {
	return &InterestAccrualJob{
		loans:    loans,
		ledger:   ledger,
		recorder: recorder,
	}
}

// Name returns the job name.
func (j *InterestAccrualJob) Name() string { return InterestAccrualJobName }

// Run executes one accrual batch.
func (j *InterestAccrualJob) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	today := model.AccrualDate(start)

	loans, err := j.loans.ListActive(ctx)
	if err != nil {
		recordFatal(ctx, j.recorder, InterestAccrualJobName, start, err)
		return nil, fmt.Errorf("listing active loans: %w", err)
	}

	res := newResult(InterestAccrualJobName)
	var totalInterest model.Cents

	for _, loan := range loans {
		res.Processed++

		interest := model.DailyInterest(loan.OutstandingPrincipal, loan.APR)
		if interest == 0 {
			res.Skipped++
			continue
		}

		// The guard insert comes first: once it exists, no other run can
		// accrue this loan today.
		err := j.loans.InsertAccrual(ctx, &model.InterestAccrualRecord{
			LoanID:      loan.ID,
			AccrualDate: today,
			Amount:      interest,
		})
		if err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				// Already accrued today.
				res.Skipped++
				continue
			}
			res.fail(loan.ID, err)
			continue
		}

		if err := j.loans.AddInterest(ctx, loan.ID, interest); err != nil {
			res.fail(loan.ID, err)
			continue
		}

		res.Succeeded++
		totalInterest += interest

		if err := j.ledger.Insert(ctx, &model.LedgerEntry{
			Type:        model.LedgerInterestAccrual,
			UserID:      loan.UserID,
			ReferenceID: loan.ID,
			Amount:      interest,
			Detail:      today,
		}); err != nil {
			res.warn("ledger entry for "+loan.ID, err)
		}
	}

	res.Stats["accrued"] = res.Succeeded
	res.Stats["failed"] = res.Failed
	res.Stats["skipped"] = res.Skipped
	res.Stats["total_interest"] = int64(totalInterest)

	res.finalize(start)
	record(ctx, j.recorder, res)
	return res, nil
}
