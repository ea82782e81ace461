package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
)

func newTestServer(t *testing.T) (*Server, *mockConnections) {
	t.Helper()
	conns := newMockConnections()
	s, err := NewServer(&Ports{Connections: conns})
	require.NoError(t, err)
	return s, conns
}

func TestHandleList(t *testing.T) {
	s, _ := newTestServer(t)

	_, out, err := s.handleList(context.Background(), nil, ListInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)

	_, out, err = s.handleList(context.Background(), nil, ListInput{ConnectedOnly: true})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)

	gh := out.Integrations[0]
	assert.Equal(t, "github", gh.ID)
	assert.Equal(t, "GitHub", gh.Name)
	assert.Equal(t, "source-control", gh.Category)
	assert.True(t, gh.Connected)
	assert.True(t, gh.Enabled)
	assert.Equal(t, "octocat", gh.AccountID)
	assert.Equal(t, "connected", gh.Phase)
	assert.Equal(t, []string{"create-repo", "sync-issues"}, gh.Actions)
}

func TestHandleSetEnabled(t *testing.T) {
	s, conns := newTestServer(t)
	conns.warnings = []string{"backend unreachable"}

	_, out, err := s.handleSetEnabled(context.Background(), nil, SetEnabledInput{Provider: "github", Enabled: false})
	require.NoError(t, err)
	assert.False(t, conns.enabled[domain.ProviderGitHub])
	assert.Equal(t, "github", out.Integration.ID)
	assert.Equal(t, []string{"backend unreachable"}, out.Warnings)

	_, _, err = s.handleSetEnabled(context.Background(), nil, SetEnabledInput{Provider: "myspace"})
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestHandleUpdateSettings(t *testing.T) {
	s, conns := newTestServer(t)

	_, _, err := s.handleUpdateSettings(context.Background(), nil, UpdateSettingsInput{
		Provider: "github",
		Settings: map[string]any{"defaultResource": "acme/api"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Settings{"defaultResource": "acme/api"}, conns.lastPartial)

	conns.updateErr = domain.NewFlowError(domain.KindValidationFailed, domain.ProviderGitHub, "missing", nil)
	_, _, err = s.handleUpdateSettings(context.Background(), nil, UpdateSettingsInput{Provider: "github"})
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestHandleConnect(t *testing.T) {
	t.Run("returns authorization url", func(t *testing.T) {
		s, conns := newTestServer(t)
		conns.connectResult = &domain.ConnectResult{
			Provider: domain.ProviderGitHub,
			Phase:    domain.PhaseAwaitingCallback,
			AuthURL:  "https://github.com/login/oauth/authorize?state=x",
		}

		_, out, err := s.handleConnect(context.Background(), nil, ConnectInput{Provider: "github"})
		require.NoError(t, err)
		assert.Equal(t, "awaiting-callback", out.Phase)
		assert.False(t, out.Connected)
		assert.Contains(t, out.AuthURL, "state=x")
	})

	t.Run("passes token through", func(t *testing.T) {
		s, conns := newTestServer(t)
		conns.connectResult = &domain.ConnectResult{
			Provider:  domain.ProviderNotion,
			Phase:     domain.PhaseConnected,
			Connected: true,
			AccountID: "ws-1",
		}

		_, out, err := s.handleConnect(context.Background(), nil, ConnectInput{Provider: "notion", Token: "secret_abc"})
		require.NoError(t, err)
		assert.Equal(t, "secret_abc", conns.lastToken)
		assert.True(t, out.Connected)
		assert.Equal(t, "ws-1", out.AccountID)
	})

	t.Run("surfaces flow errors", func(t *testing.T) {
		s, conns := newTestServer(t)
		conns.connectErr = domain.NewFlowError(domain.KindFlowInProgress, domain.ProviderGitHub, "busy", nil)

		_, _, err := s.handleConnect(context.Background(), nil, ConnectInput{Provider: "github"})
		assert.ErrorIs(t, err, domain.ErrFlowInProgress)
	})
}

func TestHandleDisconnect(t *testing.T) {
	s, conns := newTestServer(t)
	conns.warnings = []string{"revoke failed"}

	_, out, err := s.handleDisconnect(context.Background(), nil, ProviderInput{Provider: "github"})
	require.NoError(t, err)
	assert.Equal(t, "github", out.Provider)
	assert.Equal(t, []string{"revoke failed"}, out.Warnings)

	conns.disconnectErr = errors.New("boom")
	_, _, err = s.handleDisconnect(context.Background(), nil, ProviderInput{Provider: "github"})
	assert.Error(t, err)
}

func TestHandleAction(t *testing.T) {
	s, conns := newTestServer(t)
	conns.actionResult = &domain.ActionResult{OK: true, ResourceIDs: []string{"board-1"}}

	_, out, err := s.handleAction(context.Background(), nil, ActionInput{Provider: "github", Action: "create-repo"})
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, []string{"board-1"}, out.ResourceIDs)
	assert.Equal(t, "create-repo", conns.lastAction)
	assert.NotNil(t, conns.lastPayload)
}
