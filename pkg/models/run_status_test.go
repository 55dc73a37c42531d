package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to RunStatus
		want     bool
	}{
		{RunStatusIdle, RunStatusRunning, true},
		{RunStatusIdle, RunStatusPaused, false},
		{RunStatusRunning, RunStatusPaused, true},
		{RunStatusRunning, RunStatusWaitingForUser, true},
		{RunStatusRunning, RunStatusStopped, true},
		{RunStatusRunning, RunStatusCompleted, true},
		{RunStatusPaused, RunStatusRunning, true},
		{RunStatusPaused, RunStatusWaitingForUser, false},
		{RunStatusWaitingForUser, RunStatusRunning, true},
		{RunStatusWaitingForUser, RunStatusStopped, true},
		{RunStatusStopped, RunStatusIdle, true},
		{RunStatusCompleted, RunStatusIdle, true},
		{RunStatusCompleted, RunStatusRunning, false},
		{RunStatusStopped, RunStatusRunning, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestRunStatus_Active(t *testing.T) {
	assert.True(t, RunStatusRunning.Active())
	assert.True(t, RunStatusPaused.Active())
	assert.True(t, RunStatusWaitingForUser.Active())
	assert.False(t, RunStatusIdle.Active())
	assert.False(t, RunStatusStopped.Active())
	assert.False(t, RunStatusCompleted.Active())
}
