package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kudisave/recon/internal/database"
	"github.com/kudisave/recon/internal/model"
)

// ScoreRepository handles XnScore rows and their audit history
type ScoreRepository struct {
	db database.Database
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(db database.Database) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// ListDecayCandidates returns unfrozen scores above the floor whose last
// activity is older than the threshold. Recovery-period membership is
// checked separately by the job.
func (r *ScoreRepository) ListDecayCandidates(ctx context.Context, inactiveSince time.Time) ([]*model.XnScore, error) {
	query := `
		SELECT * FROM xnscore
		WHERE score_frozen = false
		  AND last_activity_at < $inactive_since
		  AND total_score > $floor
	`
	vars := map[string]interface{}{
		"inactive_since": inactiveSince.UTC(),
		"floor":          model.ScoreFloor,
	}

	return r.listScores(ctx, query, vars)
}

// ListTenureCandidates returns unfrozen scores with at least one active
// month. The per-month idempotency check happens against tenure history.
func (r *ScoreRepository) ListTenureCandidates(ctx context.Context) ([]*model.XnScore, error) {
	query := `
		SELECT * FROM xnscore
		WHERE score_frozen = false AND active_months > 0
	`
	return r.listScores(ctx, query, nil)
}

func (r *ScoreRepository) listScores(ctx context.Context, query string, vars map[string]interface{}) ([]*model.XnScore, error) {
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	scores := make([]*model.XnScore, 0)
	for _, row := range rowsFromResult(result) {
		var score model.XnScore
		if err := decodeRow(row, &score); err != nil {
			continue
		}
		if t := getTime(row, "last_activity_at"); t != nil {
			score.LastActivityAt = *t
		}
		scores = append(scores, &score)
	}
	return scores, nil
}

// UsersInRecovery returns the set of users with an active recovery period;
// decay never applies to them.
func (r *ScoreRepository) UsersInRecovery(ctx context.Context, now time.Time) (map[string]bool, error) {
	query := `
		SELECT user_id FROM recovery_period
		WHERE starts_at <= $now AND ends_at > $now
	`
	vars := map[string]interface{}{"now": now.UTC()}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	users := make(map[string]bool)
	for _, row := range rowsFromResult(result) {
		if id := getString(row, "user_id"); id != "" {
			users[id] = true
		}
	}
	return users, nil
}

// ApplyDecay persists one decay step for a user: new score, bookkeeping
// fields, and the floor flag. Conditional on the row still being unfrozen.
func (r *ScoreRepository) ApplyDecay(ctx context.Context, userID string, newScore, penalty float64, inactiveDays int, floorReached bool) error {
	query := `
		UPDATE xnscore SET
			previous_score = total_score,
			total_score = $new_score,
			financial_inactive_days = $inactive_days,
			total_inactivity_penalty = total_inactivity_penalty + $penalty,
			decay_floor_reached = $floor_reached
		WHERE user_id = $user_id AND score_frozen = false
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"user_id":       userID,
		"new_score":     newScore,
		"penalty":       penalty,
		"inactive_days": inactiveDays,
		"floor_reached": floorReached,
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

// ApplyTenureBonus persists one tenure award: new score and the active
// month increment. Conditional on the row still being unfrozen.
func (r *ScoreRepository) ApplyTenureBonus(ctx context.Context, userID string, newScore float64) error {
	query := `
		UPDATE xnscore SET
			previous_score = total_score,
			total_score = $new_score,
			active_months = active_months + 1
		WHERE user_id = $user_id AND score_frozen = false
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"user_id":   userID,
		"new_score": newScore,
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

// HasTenureAward reports whether the user already has a tenure history row
// for the given calendar month. This application-layer lookup is the tenure
// job's idempotency guard.
func (r *ScoreRepository) HasTenureAward(ctx context.Context, userID, month string) (bool, error) {
	query := `
		SELECT count() as cnt FROM tenure_history
		WHERE user_id = $user_id AND month = $month
		GROUP ALL
	`
	vars := map[string]interface{}{
		"user_id": userID,
		"month":   month,
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	return getCount(result) > 0, nil
}

// InsertScoreHistory appends the generic audit row written for every
// scoring mutation.
func (r *ScoreRepository) InsertScoreHistory(ctx context.Context, entry *model.ScoreHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	query := `
		CREATE score_history CONTENT {
			entry_id: $entry_id,
			user_id: $user_id,
			score_before: $score_before,
			score_after: $score_after,
			trigger_event: $trigger_event,
			created_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"entry_id":      entry.ID,
		"user_id":       entry.UserID,
		"score_before":  entry.ScoreBefore,
		"score_after":   entry.ScoreAfter,
		"trigger_event": string(entry.TriggerEvent),
	}
	return r.db.Execute(ctx, query, vars)
}

// InsertDecayHistory appends one decay audit row.
func (r *ScoreRepository) InsertDecayHistory(ctx context.Context, entry *model.DecayHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	query := `
		CREATE decay_history CONTENT {
			entry_id: $entry_id,
			user_id: $user_id,
			days_inactive: $days_inactive,
			weekly_rate: $weekly_rate,
			score_before: $score_before,
			score_after: $score_after,
			floor_reached: $floor_reached,
			created_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"entry_id":      entry.ID,
		"user_id":       entry.UserID,
		"days_inactive": entry.DaysInactive,
		"weekly_rate":   entry.WeeklyRate,
		"score_before":  entry.ScoreBefore,
		"score_after":   entry.ScoreAfter,
		"floor_reached": entry.FloorReached,
	}
	return r.db.Execute(ctx, query, vars)
}

// InsertTenureHistory appends one tenure award row keyed by (user, month).
func (r *ScoreRepository) InsertTenureHistory(ctx context.Context, entry *model.TenureHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	query := `
		CREATE tenure_history CONTENT {
			entry_id: $entry_id,
			user_id: $user_id,
			month: $month,
			active_months: $active_months,
			bonus: $bonus,
			score_before: $score_before,
			score_after: $score_after,
			created_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"entry_id":      entry.ID,
		"user_id":       entry.UserID,
		"month":         entry.Month,
		"active_months": entry.ActiveMonths,
		"bonus":         entry.Bonus,
		"score_before":  entry.ScoreBefore,
		"score_after":   entry.ScoreAfter,
	}
	return r.db.Execute(ctx, query, vars)
}
