package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kudisave/recon/internal/database"
	"github.com/kudisave/recon/internal/model"
)

// ScoreDecayJobName identifies the job in logs and the job log.
const ScoreDecayJobName = "score_decay"

// DecaySource provides the score rows and audit writes the decay job owns.
type DecaySource interface {
	ListDecayCandidates(ctx context.Context, inactiveSince time.Time) ([]*model.XnScore, error)
	UsersInRecovery(ctx context.Context, now time.Time) (map[string]bool, error)
	ApplyDecay(ctx context.Context, userID string, newScore, penalty float64, inactiveDays int, floorReached bool) error
	InsertScoreHistory(ctx context.Context, entry *model.ScoreHistoryEntry) error
	InsertDecayHistory(ctx context.Context, entry *model.DecayHistoryEntry) error
}

// ScoreDecayJob applies one weekly inactivity decay step to every eligible
// XnScore.
//
// A user is eligible after 30 days without financial activity; the weekly
// rate steps up with the inactivity span (1, 2 or 3 points per week). Frozen
// scores and users inside an active recovery period are exempt. The new
// score is clamped to the floor; a score already at the floor is skipped
// without writing anything.
type ScoreDecayJob struct {
	scores   DecaySource
	recorder Recorder
}

// NewScoreDecayJob creates the job with its collaborators.
func NewScoreDecayJob(scores DecaySource, recorder Recorder) *ScoreDecayJob {
	return &ScoreDecayJob{scores: scores, recorder: recorder}
}

// Name returns the job name.
func (j *ScoreDecayJob) Name() string { return ScoreDecayJobName }

// Run executes one decay batch.
func (j *ScoreDecayJob) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	inactiveSince := start.Add(-model.InactivityThreshold)

	candidates, err := j.scores.ListDecayCandidates(ctx, inactiveSince)
	if err != nil {
		recordFatal(ctx, j.recorder, ScoreDecayJobName, start, err)
		return nil, fmt.Errorf("listing decay candidates: %w", err)
	}

	inRecovery, err := j.scores.UsersInRecovery(ctx, start)
	if err != nil {
		recordFatal(ctx, j.recorder, ScoreDecayJobName, start, err)
		return nil, fmt.Errorf("listing recovery periods: %w", err)
	}

	res := newResult(ScoreDecayJobName)
	var totalPenalty float64

	for _, score := range candidates {
		res.Processed++

		if inRecovery[score.UserID] {
			res.Skipped++
			continue
		}

		daysInactive := int(start.Sub(score.LastActivityAt).Hours() / 24)
		rate := model.DecayRate(daysInactive)
		if rate == 0 {
			res.Skipped++
			continue
		}

		newScore := model.ClampScore(score.TotalScore - rate)
		penalty := score.TotalScore - newScore
		if penalty <= 0 {
			// Already at the floor.
			res.Skipped++
			continue
		}
		floorReached := newScore <= model.ScoreFloor

		if err := j.scores.ApplyDecay(ctx, score.UserID, newScore, penalty, daysInactive, floorReached); err != nil {
			if errors.Is(err, database.ErrStaleRow) {
				res.Skipped++
				continue
			}
			res.fail(score.UserID, err)
			continue
		}

		res.Succeeded++
		totalPenalty += penalty

		if err := j.scores.InsertDecayHistory(ctx, &model.DecayHistoryEntry{
			UserID:       score.UserID,
			DaysInactive: daysInactive,
			WeeklyRate:   rate,
			ScoreBefore:  score.TotalScore,
			ScoreAfter:   newScore,
			FloorReached: floorReached,
		}); err != nil {
			res.warn("decay history for "+score.UserID, err)
		}

		if err := j.scores.InsertScoreHistory(ctx, &model.ScoreHistoryEntry{
			UserID:       score.UserID,
			ScoreBefore:  score.TotalScore,
			ScoreAfter:   newScore,
			TriggerEvent: model.TriggerInactivityDecay,
		}); err != nil {
			res.warn("score history for "+score.UserID, err)
		}
	}

	res.Stats["decayed"] = res.Succeeded
	res.Stats["failed"] = res.Failed
	res.Stats["skipped"] = res.Skipped
	res.Stats["total_penalty"] = totalPenalty

	res.finalize(start)
	record(ctx, j.recorder, res)
	return res, nil
}
