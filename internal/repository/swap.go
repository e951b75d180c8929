package repository

import (
	"context"
	"time"

	"github.com/kudisave/recon/internal/database"
	"github.com/kudisave/recon/internal/model"
)

// SwapRepository handles position-swap request data access
type SwapRepository struct {
	db database.Database
}

// NewSwapRepository creates a new swap repository
func NewSwapRepository(db database.Database) *SwapRepository {
	return &SwapRepository{db: db}
}

// ListExpiredPending returns swap requests still in a pending state whose
// expiry has passed. Terminal rows (accepted, rejected, expired) are never
// selected.
func (r *SwapRepository) ListExpiredPending(ctx context.Context, now time.Time) ([]*model.SwapRequest, error) {
	statuses := make([]string, 0, len(model.PendingSwapStatuses))
	for _, s := range model.PendingSwapStatuses {
		statuses = append(statuses, string(s))
	}

	query := `
		SELECT * FROM swap_request
		WHERE status IN $pending AND expires_at < $now
		ORDER BY expires_at ASC
	`
	vars := map[string]interface{}{
		"pending": statuses,
		"now":     now.UTC(),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	swaps := make([]*model.SwapRequest, 0)
	for _, row := range rowsFromResult(result) {
		var swap model.SwapRequest
		if err := decodeRow(row, &swap); err != nil {
			continue
		}
		if t := getTime(row, "expires_at"); t != nil {
			swap.ExpiresAt = *t
		}
		swaps = append(swaps, &swap)
	}
	return swaps, nil
}

// Expire transitions a swap request to expired, conditional on its status
// still being the pending state read by the candidate query. ErrStaleRow
// means a user action or concurrent run moved it first; expired rows can
// never transition again because no update targets the expired status.
func (r *SwapRepository) Expire(ctx context.Context, id string, prior model.SwapStatus) error {
	query := `
		UPDATE swap_request SET status = $expired, expired_on = time::now(), prior_status = $prior
		WHERE id = type::record($id) AND status = $prior
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":      id,
		"expired": string(model.SwapExpired),
		"prior":   string(prior),
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
