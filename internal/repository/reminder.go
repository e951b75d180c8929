package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kudisave/recon/internal/database"
	"github.com/kudisave/recon/internal/model"
)

// ReminderRepository handles payment reminder data access
type ReminderRepository struct {
	db database.Database
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db database.Database) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// ListDue returns up to limit scheduled reminders due at or before now,
// earliest first. The bound is the dispatch job's backpressure control.
func (r *ReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error) {
	query := `
		SELECT * FROM reminder
		WHERE status = $status AND scheduled_for <= $now
		ORDER BY scheduled_for ASC
		LIMIT $limit
	`
	vars := map[string]interface{}{
		"status": string(model.ReminderScheduled),
		"now":    now.UTC(),
		"limit":  limit,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	reminders := make([]*model.Reminder, 0)
	for _, row := range rowsFromResult(result) {
		var rem model.Reminder
		if err := decodeRow(row, &rem); err != nil {
			continue
		}
		if t := getTime(row, "scheduled_for"); t != nil {
			rem.ScheduledFor = *t
		}
		if t := getTime(row, "due_date"); t != nil {
			rem.DueDate = *t
		}
		reminders = append(reminders, &rem)
	}
	return reminders, nil
}

// MarkSent transitions a reminder from scheduled to sent.
func (r *ReminderRepository) MarkSent(ctx context.Context, id string) error {
	return r.transition(ctx, id, model.ReminderSent, "")
}

// MarkFailed transitions a reminder from scheduled to failed with the
// captured reason.
func (r *ReminderRepository) MarkFailed(ctx context.Context, id, reason string) error {
	return r.transition(ctx, id, model.ReminderFailed, reason)
}

func (r *ReminderRepository) transition(ctx context.Context, id string, to model.ReminderStatus, reason string) error {
	query := `
		UPDATE reminder SET status = $to, failure_reason = $reason, dispatched_on = time::now()
		WHERE id = type::record($id) AND status = $scheduled
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":        id,
		"to":        string(to),
		"reason":    reason,
		"scheduled": string(model.ReminderScheduled),
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

// ProfileRepository reads recipient contact fields for reminder dispatch
type ProfileRepository struct {
	db database.Database
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db database.Database) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetRecipient returns the contact profile for a user.
func (r *ProfileRepository) GetRecipient(ctx context.Context, userID string) (*model.RecipientProfile, error) {
	query := `
		SELECT user_id, name, email, phone, device_token FROM user_profile
		WHERE user_id = $user_id
		LIMIT 1
	`
	vars := map[string]interface{}{"user_id": userID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	row, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}

	return &model.RecipientProfile{
		UserID:      getString(row, "user_id"),
		Name:        getString(row, "name"),
		Email:       getString(row, "email"),
		Phone:       getString(row, "phone"),
		DeviceToken: getString(row, "device_token"),
	}, nil
}
