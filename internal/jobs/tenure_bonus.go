package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kudisave/recon/internal/database"
	"github.com/kudisave/recon/internal/model"
)

// TenureBonusJobName identifies the job in logs and the job log.
const TenureBonusJobName = "tenure_bonus"

// TenureSource provides the score rows and award history the bonus job owns.
type TenureSource interface {
	ListTenureCandidates(ctx context.Context) ([]*model.XnScore, error)
	HasTenureAward(ctx context.Context, userID, month string) (bool, error)
	InsertTenureHistory(ctx context.Context, entry *model.TenureHistoryEntry) error
	ApplyTenureBonus(ctx context.Context, userID string, newScore float64) error
	InsertScoreHistory(ctx context.Context, entry *model.ScoreHistoryEntry) error
}

// TenureBonusJob awards the monthly longevity bonus to every unfrozen score
// with at least one active month.
//
// The bonus is a step function of tenure (0.5 up to six months, 1.0 up to a
// year, 1.5 up to two years, then 2.0) and the new score is clamped to the
// ceiling. The tenure history row keyed by (user, month) is the idempotency
// guard: it is checked, then written before the score mutation, so a rerun
// within the same calendar month is a per-user no-op.
type TenureBonusJob struct {
	scores   TenureSource
	recorder Recorder
}

// NewTenureBonusJob creates the job with its collaborators.
func NewTenureBonusJob(scores TenureSource, recorder Recorder) *TenureBonusJob {
	return &TenureBonusJob{scores: scores, recorder: recorder}
}

// Name returns the job name.
func (j *TenureBonusJob) Name() string { return TenureBonusJobName }

// Run executes one award batch.
func (j *TenureBonusJob) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	month := model.AwardMonth(start)

	candidates, err := j.scores.ListTenureCandidates(ctx)
	if err != nil {
		recordFatal(ctx, j.recorder, TenureBonusJobName, start, err)
		return nil, fmt.Errorf("listing tenure candidates: %w", err)
	}

	res := newResult(TenureBonusJobName)
	var totalBonus float64

	for _, score := range candidates {
		res.Processed++

		bonus := model.TenureBonus(score.ActiveMonths)
		if bonus == 0 {
			res.Skipped++
			continue
		}

		awarded, err := j.scores.HasTenureAward(ctx, score.UserID, month)
		if err != nil {
			res.fail(score.UserID, err)
			continue
		}
		if awarded {
			res.Skipped++
			continue
		}

		newScore := model.ClampScore(score.TotalScore + bonus)

		// The history row is the guard: written before the score mutation
		// so a concurrent rerun sees the award and skips.
		err = j.scores.InsertTenureHistory(ctx, &model.TenureHistoryEntry{
			UserID:       score.UserID,
			Month:        month,
			ActiveMonths: score.ActiveMonths,
			Bonus:        bonus,
			ScoreBefore:  score.TotalScore,
			ScoreAfter:   newScore,
		})
		if err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				res.Skipped++
				continue
			}
			res.fail(score.UserID, err)
			continue
		}

		if err := j.scores.ApplyTenureBonus(ctx, score.UserID, newScore); err != nil {
			if errors.Is(err, database.ErrStaleRow) {
				res.Skipped++
				continue
			}
			res.fail(score.UserID, err)
			continue
		}

		res.Succeeded++
		totalBonus += newScore - score.TotalScore

		if err := j.scores.InsertScoreHistory(ctx, &model.ScoreHistoryEntry{
			UserID:       score.UserID,
			ScoreBefore:  score.TotalScore,
			ScoreAfter:   newScore,
			TriggerEvent: model.TriggerTenureBonus,
		}); err != nil {
			res.warn("score history for "+score.UserID, err)
		}
	}

	res.Stats["awarded"] = res.Succeeded
	res.Stats["failed"] = res.Failed
	res.Stats["skipped"] = res.Skipped
	res.Stats["total_bonus"] = totalBonus

	res.finalize(start)
	record(ctx, j.recorder, res)
	return res, nil
}
