package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kudisave/recon/internal/database"
	"github.com/kudisave/recon/internal/model"
)

// LoanRepository handles loan and interest accrual data access
type LoanRepository struct {
	db database.Database
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db database.Database) *LoanRepository {
	return &LoanRepository{db: db}
}

// ListActive returns loans eligible for accrual: active with a positive
// outstanding principal.
func (r *LoanRepository) ListActive(ctx context.Context) ([]*model.Loan, error) {
	query := `
		SELECT * FROM loan
		WHERE status = $status AND outstanding_principal > 0
	`
	vars := map[string]interface{}{"status": string(model.LoanActive)}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	loans := make([]*model.Loan, 0)
	for _, row := range rowsFromResult(result) {
		var loan model.Loan
		if err := decodeRow(row, &loan); err != nil {
			continue
		}
		loans = append(loans, &loan)
	}
	return loans, nil
}

// InsertAccrual creates one immutable accrual record. The store enforces a
// unique index on (loan_id, accrual_date); a violation comes back as
// database.ErrDuplicate, which callers treat as "already accrued today".
func (r *LoanRepository) InsertAccrual(ctx context.Context, rec *model.InterestAccrualRecord) error {
	query := `
		CREATE interest_accrual CONTENT {
			loan_id: $loan_id,
			accrual_date: $accrual_date,
			amount: $amount,
			created_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"loan_id":      rec.LoanID,
		"accrual_date": rec.AccrualDate,
		"amount":       int64(rec.Amount),
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		if errors.Is(err, database.ErrDuplicate) || isUniqueConstraintError(err) {
			return fmt.Errorf("%w: accrual %s/%s", database.ErrDuplicate, rec.LoanID, rec.AccrualDate)
		}
		return err
	}
	return nil
}

// AddInterest capitalizes accrued interest into the outstanding principal
// with a single atomic increment, conditional on the loan still being
// active.
func (r *LoanRepository) AddInterest(ctx context.Context, loanID string, amount model.Cents) error {
	query := `
		UPDATE loan SET outstanding_principal = outstanding_principal + $amount
		WHERE id = type::record($id) AND status = $status
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":     loanID,
		"amount": int64(amount),
		"status": string(model.LoanActive),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}
	if len(rowsFromResult(result)) == 0 {
		return database.ErrStaleRow
	}
	return nil
}
