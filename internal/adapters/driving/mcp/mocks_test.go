package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driving"
)

// mockConnections is a hand-written driving.ConnectionService.
type mockConnections struct {
	views map[domain.ProviderID]driving.ProviderView

	connectResult *domain.ConnectResult
	connectErr    error
	lastToken     string

	enabled     map[domain.ProviderID]bool
	lastPartial domain.Settings
	warnings    []string
	updateErr   error

	cancelErr error
	cancelled []domain.ProviderID

	actionResult  *domain.ActionResult
	actionErr     error
	lastAction    string
	lastPayload   map[string]any
	disconnectErr error
}

var _ driving.ConnectionService = (*mockConnections)(nil)

func newMockConnections() *mockConnections {
	return &mockConnections{
		views: map[domain.ProviderID]driving.ProviderView{
			domain.ProviderGitHub: {
				Provider: domain.Provider{
					ID:           domain.ProviderGitHub,
					DisplayName:  "GitHub",
					Category:     domain.CategorySourceControl,
					Availability: domain.AvailabilityAvailable,
					Actions: map[string]domain.ActionSpec{
						"sync-issues": {Name: "sync-issues"},
						"create-repo": {Name: "create-repo"},
					},
				},
				State: domain.ConnectionState{
					Enabled:  true,
					Settings: domain.Settings{domain.SettingConnected: true, domain.SettingAccountID: "octocat"},
				},
				Phase: domain.PhaseConnected,
			},
			domain.ProviderNotion: {
				Provider: domain.Provider{
					ID:           domain.ProviderNotion,
					DisplayName:  "Notion",
					Availability: domain.AvailabilityAvailable,
				},
				State: domain.NewConnectionState(),
				Phase: domain.PhaseIdle,
			},
		},
		enabled: make(map[domain.ProviderID]bool),
	}
}

func unknown(id domain.ProviderID) error {
	return domain.NewFlowError(domain.KindUnknownProvider, id, "unknown provider", nil)
}

func (m *mockConnections) Hydrate(context.Context) error { return nil }

func (m *mockConnections) List() []driving.ProviderView {
	out := make([]driving.ProviderView, 0, len(m.views))
	for _, v := range m.views {
		out = append(out, v)
	}
	return out
}

func (m *mockConnections) Get(id domain.ProviderID) (*driving.ProviderView, error) {
	v, ok := m.views[id]
	if !ok {
		return nil, unknown(id)
	}
	return &v, nil
}

func (m *mockConnections) SetEnabled(_ context.Context, id domain.ProviderID, enabled bool) ([]string, error) {
	if _, ok := m.views[id]; !ok {
		return nil, unknown(id)
	}
	m.enabled[id] = enabled
	return m.warnings, m.updateErr
}

func (m *mockConnections) UpdateSettings(
	_ context.Context, id domain.ProviderID, partial domain.Settings,
) ([]string, error) {
	if _, ok := m.views[id]; !ok {
		return nil, unknown(id)
	}
	m.lastPartial = partial
	return m.warnings, m.updateErr
}

func (m *mockConnections) Connect(_ context.Context, _ domain.ProviderID, token string) (*domain.ConnectResult, error) {
	m.lastToken = token
	return m.connectResult, m.connectErr
}

func (m *mockConnections) CompleteRedirect(
	context.Context, domain.ProviderID, string, string,
) (*domain.ConnectResult, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockConnections) CancelPopup(id domain.ProviderID) error {
	m.cancelled = append(m.cancelled, id)
	return m.cancelErr
}

func (m *mockConnections) Disconnect(_ context.Context, id domain.ProviderID) (*driving.DisconnectResult, error) {
	if m.disconnectErr != nil {
		return nil, m.disconnectErr
	}
	return &driving.DisconnectResult{Provider: id, Warnings: m.warnings}, nil
}

func (m *mockConnections) InvokeAction(
	_ context.Context, _ domain.ProviderID, action string, payload map[string]any,
) (*domain.ActionResult, error) {
	m.lastAction = action
	m.lastPayload = payload
	return m.actionResult, m.actionErr
}
