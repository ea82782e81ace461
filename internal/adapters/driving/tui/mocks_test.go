package tui

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driving"
)

// mockConnections is a hand-written driving.ConnectionService.
type mockConnections struct {
	mu    sync.Mutex
	views []driving.ProviderView

	connectResult *domain.ConnectResult
	connectErr    error
	lastToken     string
	connected     []domain.ProviderID

	enabled     map[domain.ProviderID]bool
	lastPartial domain.Settings
	warnings    []string

	cancelled    []domain.ProviderID
	disconnected []domain.ProviderID
	hydrated     int

	lastAction   string
	actionResult *domain.ActionResult
}

var _ driving.ConnectionService = (*mockConnections)(nil)

func newMockConnections() *mockConnections {
	return &mockConnections{
		views: []driving.ProviderView{
			{
				Provider: domain.Provider{
					ID:           domain.ProviderGitHub,
					DisplayName:  "GitHub",
					Category:     domain.CategorySourceControl,
					Availability: domain.AvailabilityAvailable,
					Capabilities: domain.CapRedirectOAuth | domain.CapStatusCheck,
				},
				State: domain.NewConnectionState(),
				Phase: domain.PhaseIdle,
			},
			{
				Provider: domain.Provider{
					ID:           domain.ProviderNotion,
					DisplayName:  "Notion",
					Category:     domain.CategoryProjectManagement,
					Availability: domain.AvailabilityAvailable,
					Capabilities: domain.CapAPIToken | domain.CapActions,
					Actions: map[string]domain.ActionSpec{
						"create-board": {Name: "create-board", Description: "Create a board"},
					},
				},
				State: domain.ConnectionState{
					Enabled:  true,
					Settings: domain.Settings{domain.SettingConnected: true, domain.SettingAccountID: "ws-1"},
				},
				Phase: domain.PhaseConnected,
			},
		},
		enabled: make(map[domain.ProviderID]bool),
	}
}

func (m *mockConnections) Hydrate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hydrated++
	return nil
}

func (m *mockConnections) List() []driving.ProviderView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]driving.ProviderView(nil), m.views...)
}

func (m *mockConnections) Get(id domain.ProviderID) (*driving.ProviderView, error) {
	for _, v := range m.List() {
		if v.Provider.ID == id {
			return &v, nil
		}
	}
	return nil, domain.NewFlowError(domain.KindUnknownProvider, id, "unknown provider", nil)
}

func (m *mockConnections) SetEnabled(_ context.Context, id domain.ProviderID, enabled bool) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled[id] = enabled
	return m.warnings, nil
}

func (m *mockConnections) UpdateSettings(_ context.Context, _ domain.ProviderID, partial domain.Settings) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastPartial = partial
	return m.warnings, nil
}

func (m *mockConnections) Connect(_ context.Context, id domain.ProviderID, token string) (*domain.ConnectResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastToken = token
	m.connected = append(m.connected, id)
	return m.connectResult, m.connectErr
}

func (m *mockConnections) CompleteRedirect(
	context.Context, domain.ProviderID, string, string,
) (*domain.ConnectResult, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockConnections) CancelPopup(id domain.ProviderID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, id)
	return nil
}

func (m *mockConnections) Disconnect(_ context.Context, id domain.ProviderID) (*driving.DisconnectResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnected = append(m.disconnected, id)
	return &driving.DisconnectResult{Provider: id, Warnings: m.warnings}, nil
}

func (m *mockConnections) InvokeAction(
	_ context.Context, _ domain.ProviderID, action string, _ map[string]any,
) (*domain.ActionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastAction = action
	return m.actionResult, nil
}
