package model

import "time"

// Wallet holds a user's spendable and reserved balances.
//
// Invariant: MainBalance + ReservedBalance is unchanged by any reservation
// release; only contribution and withdrawal flows (owned elsewhere) may
// change the total.
type Wallet struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	MainBalance     Cents  `json:"main_balance"`
	ReservedBalance Cents  `json:"reserved_balance"`
}

// Total returns the conserved sum of both balances.
func (w *Wallet) Total() Cents {
	return w.MainBalance + w.ReservedBalance
}

// LedgerEntryType identifies the automated flow that produced an audit entry.
type LedgerEntryType string

const (
	LedgerReservationRelease LedgerEntryType = "reservation_release"
	LedgerInterestAccrual    LedgerEntryType = "interest_accrual"
	LedgerSwapExpired        LedgerEntryType = "swap_expired"
)

// LedgerEntry is an append-only audit record of an automated mutation.
// Entries reference the primary row they describe; writing one is always
// best-effort and never rolls back the primary mutation.
type LedgerEntry struct {
	ID          string          `json:"id"`
	Type        LedgerEntryType `json:"type"`
	UserID      string          `json:"user_id"`
	WalletID    string          `json:"wallet_id,omitempty"`
	ReferenceID string          `json:"reference_id"`
	Amount      Cents           `json:"amount"`
	Detail      string          `json:"detail,omitempty"`
	CreatedOn   time.Time       `json:"created_on"`
}
