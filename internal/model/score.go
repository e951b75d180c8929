package model

import (
	"math"
	"time"
)

// XnScore bounds. TotalScore never leaves [ScoreFloor, ScoreCeiling].
const (
	ScoreFloor   = 10.0
	ScoreCeiling = 100.0
)

// InactivityThreshold is how long a user must be inactive before decay
// applies at all.
const InactivityThreshold = 30 * 24 * time.Hour

// XnScore is a user's bounded trust score. ScoreFrozen users are exempt
// from every automated mutation.
type XnScore struct {
	UserID                 string    `json:"user_id"`
	TotalScore             float64   `json:"total_score"`
	PreviousScore          float64   `json:"previous_score"`
	LastActivityAt         time.Time `json:"last_activity_at"`
	ActiveMonths           int       `json:"active_months"`
	FinancialInactiveDays  int       `json:"financial_inactive_days"`
	TotalInactivityPenalty float64   `json:"total_inactivity_penalty"`
	DecayFloorReached      bool      `json:"decay_floor_reached"`
	ScoreFrozen            bool      `json:"score_frozen"`
}

// ClampScore bounds a score to [ScoreFloor, ScoreCeiling].
func ClampScore(s float64) float64 {
	return math.Min(ScoreCeiling, math.Max(ScoreFloor, s))
}

// DecayRate returns the weekly decay in points for a given inactivity span.
// The tiers are a step function of days inactive.
func DecayRate(daysInactive int) float64 {
	switch {
	case daysInactive < 30:
		return 0
	case daysInactive < 60:
		return 1
	case daysInactive < 90:
		return 2
	default:
		return 3
	}
}

// TenureBonus returns the monthly score bonus for a tenure of activeMonths.
// Months 1-6 earn 0.5, 7-12 earn 1.0, 13-24 earn 1.5, beyond that 2.0.
func TenureBonus(activeMonths int) float64 {
	switch {
	case activeMonths <= 0:
		return 0
	case activeMonths <= 6:
		return 0.5
	case activeMonths <= 12:
		return 1.0
	case activeMonths <= 24:
		return 1.5
	default:
		return 2.0
	}
}

// ScoreTrigger is the machine-readable reason on a score history entry.
type ScoreTrigger string

const (
	TriggerInactivityDecay ScoreTrigger = "inactivity_decay"
	TriggerTenureBonus     ScoreTrigger = "tenure_bonus"
)

// ScoreHistoryEntry is the generic append-only audit row written for every
// scoring mutation, regardless of which job produced it.
type ScoreHistoryEntry struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	ScoreBefore  float64      `json:"score_before"`
	ScoreAfter   float64      `json:"score_after"`
	TriggerEvent ScoreTrigger `json:"trigger_event"`
	CreatedOn    time.Time    `json:"created_on"`
}

// DecayHistoryEntry records one applied inactivity decay.
type DecayHistoryEntry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	DaysInactive int       `json:"days_inactive"`
	WeeklyRate   float64   `json:"weekly_rate"`
	ScoreBefore  float64   `json:"score_before"`
	ScoreAfter   float64   `json:"score_after"`
	FloorReached bool      `json:"floor_reached"`
	CreatedOn    time.Time `json:"created_on"`
}

// TenureHistoryEntry records one awarded tenure bonus. Month is the award
// month in YYYY-MM form; at most one entry exists per (user, month).
type TenureHistoryEntry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Month        string    `json:"month"`
	ActiveMonths int       `json:"active_months"`
	Bonus        float64   `json:"bonus"`
	ScoreBefore  float64   `json:"score_before"`
	ScoreAfter   float64   `json:"score_after"`
	CreatedOn    time.Time `json:"created_on"`
}

// AwardMonth formats a timestamp as the calendar-month key used by tenure
// history rows.
func AwardMonth(t time.Time) string {
	return t.UTC().Format("2006-01")
}
