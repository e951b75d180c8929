package repository

import (
	"context"
	"time"

	"github.com/kudisave/recon/internal/database"
	"github.com/kudisave/recon/internal/model"
)

// ReservationRepository handles reservation data access
type ReservationRepository struct {
	db database.Database
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db database.Database) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// ListExpiredReserved returns reservations still reserved whose due date is
// older than the cutoff, in due-date order.
func (r *ReservationRepository) ListExpiredReserved(ctx context.Context, cutoff time.Time) ([]*model.Reservation, error) {
	query := `
		SELECT * FROM reservation
		WHERE status = $status AND due_date < $cutoff
		ORDER BY due_date ASC
	`
	vars := map[string]interface{}{
		"status": string(model.ReservationReserved),
		"cutoff": cutoff.UTC(),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	reservations := make([]*model.Reservation, 0)
	for _, row := range rowsFromResult(result) {
		var res model.Reservation
		if err := decodeRow(row, &res); err != nil {
			continue
		}
		if t := getTime(row, "due_date"); t != nil {
			res.DueDate = *t
		}
		reservations = append(reservations, &res)
	}
	return reservations, nil
}

// MarkReleased transitions a reservation from reserved to released. The
// update is conditional on the current status; ErrStaleRow means another
// run released it first.
func (r *ReservationRepository) MarkReleased(ctx context.Context, id string) error {
	query := `
		UPDATE reservation SET status = $released, released_on = time::now()
		WHERE id = type::record($id) AND status = $reserved
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":       id,
		"released": string(model.ReservationReleased),
		"reserved": string(model.ReservationReserved),
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
