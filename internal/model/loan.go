package model

import "time"

// LoanStatus constants.
type LoanStatus string

const (
	LoanActive    LoanStatus = "active"
	LoanClosed    LoanStatus = "closed"
	LoanDefaulted LoanStatus = "defaulted"
)

// Loan is an outstanding consumer loan. While active and accrual runs,
// OutstandingPrincipal is monotonically non-decreasing: daily interest is
// capitalized into the principal.
type Loan struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	OutstandingPrincipal Cents      `json:"outstanding_principal"`
	APR                  float64    `json:"apr"`
	Status               LoanStatus `json:"status"`
}

// InterestAccrualRecord is one immutable row per (loan, accrual date).
// Uniqueness of that pair is the accrual job's sole idempotency guard:
// an insert that violates it means the loan already accrued today.
type InterestAccrualRecord struct {
	ID          string    `json:"id"`
	LoanID      string    `json:"loan_id"`
	AccrualDate string    `json:"accrual_date"` // YYYY-MM-DD
	Amount      Cents     `json:"amount"`
	CreatedOn   time.Time `json:"created_on"`
}

// AccrualDate formats a timestamp as the date key used by accrual records.
func AccrualDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
