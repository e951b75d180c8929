package model

import "time"

// SwapStatus is the position-swap approval state machine:
//
//	pending_target -> pending_confirmation -> pending_elder_approval -> accepted | rejected
//
// with expired reachable from any pending state once ExpiresAt has passed.
// Accepted, rejected and expired are terminal.
type SwapStatus string

const (
	SwapPendingTarget        SwapStatus = "pending_target"
	SwapPendingConfirmation  SwapStatus = "pending_confirmation"
	SwapPendingElderApproval SwapStatus = "pending_elder_approval"
	SwapAccepted             SwapStatus = "accepted"
	SwapRejected             SwapStatus = "rejected"
	SwapExpired              SwapStatus = "expired"
)

// PendingSwapStatuses are the states the expiration job may select from.
var PendingSwapStatuses = []SwapStatus{
	SwapPendingTarget,
	SwapPendingConfirmation,
	SwapPendingElderApproval,
}

// IsPending reports whether the status may still transition to expired.
func (s SwapStatus) IsPending() bool {
	switch s {
	case SwapPendingTarget, SwapPendingConfirmation, SwapPendingElderApproval:
		return true
	case SwapAccepted, SwapRejected, SwapExpired:
		return false
	}
	return false
}

// SwapRequest proposes exchanging two members' payout positions in a circle.
// User actions own all transitions except pending -> expired, which belongs
// to the expiration job.
type SwapRequest struct {
	ID          string     `json:"id"`
	CircleID    string     `json:"circle_id"`
	RequesterID string     `json:"requester_id"`
	TargetID    string     `json:"target_id"`
	Status      SwapStatus `json:"status"`
	ExpiresAt   time.Time  `json:"expires_at"`
}
