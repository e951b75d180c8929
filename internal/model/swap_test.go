package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwapStatusIsPending(t *testing.T) {
	t.Parallel()

	assert.True(t, SwapPendingTarget.IsPending())
	assert.True(t, SwapPendingConfirmation.IsPending())
	assert.True(t, SwapPendingElderApproval.IsPending())

	assert.False(t, SwapAccepted.IsPending())
	assert.False(t, SwapRejected.IsPending())
	assert.False(t, SwapExpired.IsPending())
	assert.False(t, SwapStatus("").IsPending())
}

func TestPendingSwapStatuses_CoversAllPendingStates(t *testing.T) {
	t.Parallel()

	assert.Len(t, PendingSwapStatuses, 3)
	for _, s := range PendingSwapStatuses {
		assert.True(t, s.IsPending(), "status %s", s)
	}
}
