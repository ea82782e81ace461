package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
)

func TestFlowTracker_Begin(t *testing.T) {
	tracker := NewFlowTracker()
	deadline := time.Now().Add(time.Minute)

	require.NoError(t, tracker.Begin(domain.ProviderSlack, "a1", domain.PhasePopupOpen, deadline))
	assert.Equal(t, domain.PhasePopupOpen, tracker.Phase(domain.ProviderSlack))

	err := tracker.Begin(domain.ProviderSlack, "a2", domain.PhasePopupOpen, deadline)
	assert.ErrorIs(t, err, domain.ErrFlowInProgress)

	assert.NoError(t, tracker.Begin(domain.ProviderJira, "a3", domain.PhasePopupOpen, deadline), "other providers are independent")
}

func TestFlowTracker_ExpiredAttempt(t *testing.T) {
	tracker := NewFlowTracker()
	now := time.Now()
	tracker.now = func() time.Time { return now }

	require.NoError(t, tracker.Begin(domain.ProviderGitHub, "a1", domain.PhaseAwaitingCallback, now.Add(time.Minute)))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, domain.PhaseIdle, tracker.Phase(domain.ProviderGitHub))
	assert.NoError(t, tracker.Begin(domain.ProviderGitHub, "a2", domain.PhaseAwaitingRedirect, now.Add(time.Minute)))
}

func TestFlowTracker_ZeroDeadlineNeverExpires(t *testing.T) {
	tracker := NewFlowTracker()
	now := time.Now()
	tracker.now = func() time.Time { return now }

	require.NoError(t, tracker.Begin(domain.ProviderClaude, "a1", domain.PhaseVerifying, time.Time{}))

	now = now.Add(24 * time.Hour)
	assert.Equal(t, domain.PhaseVerifying, tracker.Phase(domain.ProviderClaude))
	assert.ErrorIs(t, tracker.Begin(domain.ProviderClaude, "a2", domain.PhaseVerifying, time.Time{}), domain.ErrFlowInProgress)
}

func TestFlowTracker_TerminalPhaseAllowsRetry(t *testing.T) {
	tracker := NewFlowTracker()
	require.NoError(t, tracker.Begin(domain.ProviderClaude, "a1", domain.PhaseVerifying, time.Time{}))

	tracker.Finish(domain.ProviderClaude, "a1", domain.PhaseFailed)

	assert.Equal(t, domain.PhaseFailed, tracker.Phase(domain.ProviderClaude))
	assert.NoError(t, tracker.Begin(domain.ProviderClaude, "a2", domain.PhaseVerifying, time.Time{}))
}

func TestFlowTracker_IgnoresOtherAttempts(t *testing.T) {
	tracker := NewFlowTracker()
	require.NoError(t, tracker.Begin(domain.ProviderGitHub, "live", domain.PhaseAwaitingRedirect, time.Time{}))

	tracker.Finish(domain.ProviderGitHub, "stale", domain.PhaseFailed)
	assert.Equal(t, domain.PhaseAwaitingRedirect, tracker.Phase(domain.ProviderGitHub))

	assert.False(t, tracker.Transition(domain.ProviderGitHub, "stale", domain.PhaseAwaitingRedirect, domain.PhaseAwaitingCallback))
	assert.Equal(t, domain.PhaseAwaitingRedirect, tracker.Phase(domain.ProviderGitHub))

	tracker.Release(domain.ProviderGitHub, "stale")
	assert.Equal(t, domain.PhaseAwaitingRedirect, tracker.Phase(domain.ProviderGitHub))

	calls := 0
	tracker.SetCancel(domain.ProviderGitHub, "stale", func() { calls++ })
	assert.False(t, tracker.Cancel(domain.ProviderGitHub))
	assert.Zero(t, calls)
}

func TestFlowTracker_Transition(t *testing.T) {
	tracker := NewFlowTracker()
	require.NoError(t, tracker.Begin(domain.ProviderGitHub, "a1", domain.PhaseAwaitingRedirect, time.Time{}))

	assert.True(t, tracker.Transition(domain.ProviderGitHub, "a1", domain.PhaseAwaitingRedirect, domain.PhaseAwaitingCallback))
	assert.False(t, tracker.Transition(domain.ProviderGitHub, "a1", domain.PhaseAwaitingRedirect, domain.PhaseAwaitingCallback), "phase already moved on")
	assert.Equal(t, domain.PhaseAwaitingCallback, tracker.Phase(domain.ProviderGitHub))
}

func TestFlowTracker_Claim(t *testing.T) {
	tests := []struct {
		name    string
		begin   func(*FlowTracker)
		attempt string
		wantErr bool
		want    domain.FlowPhase
	}{
		{
			name:    "adopts an idle provider",
			begin:   func(*FlowTracker) {},
			attempt: "a1",
			want:    domain.PhaseExchanging,
		},
		{
			name: "claims its own awaiting attempt",
			begin: func(tr *FlowTracker) {
				_ = tr.Begin(domain.ProviderGitHub, "a1", domain.PhaseAwaitingCallback, time.Now().Add(time.Minute))
			},
			attempt: "a1",
			want:    domain.PhaseExchanging,
		},
		{
			name: "rejects while another attempt is live",
			begin: func(tr *FlowTracker) {
				_ = tr.Begin(domain.ProviderGitHub, "other", domain.PhaseAwaitingCallback, time.Now().Add(time.Minute))
			},
			attempt: "a1",
			wantErr: true,
			want:    domain.PhaseAwaitingCallback,
		},
		{
			name: "rejects a second exchange of the same attempt",
			begin: func(tr *FlowTracker) {
				_ = tr.Begin(domain.ProviderGitHub, "a1", domain.PhaseAwaitingCallback, time.Now().Add(time.Minute))
				_ = tr.Claim(domain.ProviderGitHub, "a1", domain.PhaseExchanging, domain.PhaseAwaitingCallback)
			},
			attempt: "a1",
			wantErr: true,
			want:    domain.PhaseExchanging,
		},
		{
			name: "takes over a terminal slot",
			begin: func(tr *FlowTracker) {
				_ = tr.Begin(domain.ProviderGitHub, "old", domain.PhaseAwaitingCallback, time.Time{})
				tr.Finish(domain.ProviderGitHub, "old", domain.PhaseFailed)
			},
			attempt: "a1",
			want:    domain.PhaseExchanging,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewFlowTracker()
			tt.begin(tracker)

			err := tracker.Claim(domain.ProviderGitHub, tt.attempt, domain.PhaseExchanging,
				domain.PhaseAwaitingRedirect, domain.PhaseAwaitingCallback)

			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrFlowInProgress)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, tracker.Phase(domain.ProviderGitHub))
		})
	}
}

func TestFlowTracker_Cancel(t *testing.T) {
	tracker := NewFlowTracker()
	assert.False(t, tracker.Cancel(domain.ProviderSlack))

	require.NoError(t, tracker.Begin(domain.ProviderSlack, "a1", domain.PhasePopupOpen, time.Time{}))
	calls := 0
	tracker.SetCancel(domain.ProviderSlack, "a1", func() { calls++ })

	assert.True(t, tracker.Cancel(domain.ProviderSlack))
	assert.False(t, tracker.Cancel(domain.ProviderSlack), "cancel runs once")
	assert.Equal(t, 1, calls)
}

func TestFlowTracker_Release(t *testing.T) {
	tracker := NewFlowTracker()
	require.NoError(t, tracker.Begin(domain.ProviderSlack, "a1", domain.PhasePopupOpen, time.Time{}))

	tracker.Release(domain.ProviderSlack, "a1")

	assert.Equal(t, domain.PhaseIdle, tracker.Phase(domain.ProviderSlack))
}

func TestFlowTracker_Reset(t *testing.T) {
	tracker := NewFlowTracker()
	require.NoError(t, tracker.Begin(domain.ProviderSlack, "a1", domain.PhasePopupOpen, time.Time{}))

	tracker.Reset(domain.ProviderSlack)

	assert.Equal(t, domain.PhaseIdle, tracker.Phase(domain.ProviderSlack))
}
