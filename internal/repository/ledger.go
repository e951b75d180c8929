package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/kudisave/recon/internal/database"
	"github.com/kudisave/recon/internal/model"
)

// LedgerRepository appends audit-trail entries for automated mutations.
// Callers treat every insert as best-effort: a failed audit write never
// rolls back the primary mutation.
type LedgerRepository struct {
	db database.Database
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db database.Database) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Insert appends one ledger entry.
func (r *LedgerRepository) Insert(ctx context.Context, entry *model.LedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	query := `
		CREATE ledger_entry CONTENT {
			entry_id: $entry_id,
			type: $type,
			user_id: $user_id,
			wallet_id: $wallet_id,
			reference_id: $reference_id,
			amount: $amount,
			detail: $detail,
			created_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"entry_id":     entry.ID,
		"type":         string(entry.Type),
		"user_id":      entry.UserID,
		"wallet_id":    entry.WalletID,
		"reference_id": entry.ReferenceID,
		"amount":       int64(entry.Amount),
		"detail":       entry.Detail,
	}
	return r.db.Execute(ctx, query, vars)
}
