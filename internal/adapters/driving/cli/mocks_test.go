package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driving"
)

// execute runs the root command with args and returns stdout and stderr.
// Flags are reset afterwards so tests do not leak state.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags(rootCmd)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// withServices installs s for the duration of the test.
func withServices(t *testing.T, s *Services) {
	t.Helper()
	SetServices(s)
	t.Cleanup(func() { SetServices(nil) })
}

// withStdin replaces stdin for the duration of the test.
func withStdin(t *testing.T, input string) {
	t.Helper()
	old := stdin
	stdin = strings.NewReader(input)
	t.Cleanup(func() { stdin = old })
}

// mockConnections is a hand-written driving.ConnectionService.
type mockConnections struct {
	views map[domain.ProviderID]driving.ProviderView
	order []domain.ProviderID

	hydrated int

	connectResult *domain.ConnectResult
	connectErr    error
	lastToken     string

	enabled     map[domain.ProviderID]bool
	lastPartial domain.Settings
	warnings    []string

	actionResult *domain.ActionResult
	lastAction   string
	lastPayload  map[string]any
	disconnected []domain.ProviderID
}

var _ driving.ConnectionService = (*mockConnections)(nil)

func newMockConnections() *mockConnections {
	m := &mockConnections{
		views:   make(map[domain.ProviderID]driving.ProviderView),
		enabled: make(map[domain.ProviderID]bool),
	}
	m.add(driving.ProviderView{
		Provider: domain.Provider{
			ID:           domain.ProviderGitHub,
			DisplayName:  "GitHub",
			Category:     domain.CategorySourceControl,
			Availability: domain.AvailabilityAvailable,
			Capabilities: domain.CapRedirectOAuth | domain.CapStatusCheck,
		},
		State: domain.ConnectionState{
			Enabled: true,
			Settings: domain.Settings{
				domain.SettingConnected: true,
				domain.SettingAccountID: "octocat",
				"defaultResource":       "acme/api",
			},
		},
		Phase: domain.PhaseConnected,
	})
	m.add(driving.ProviderView{
		Provider: domain.Provider{
			ID:           domain.ProviderLinear,
			DisplayName:  "Linear",
			Category:     domain.CategoryProjectManagement,
			Availability: domain.AvailabilityAvailable,
			Capabilities: domain.CapAPIToken | domain.CapActions,
			Actions: map[string]domain.ActionSpec{
				"create-board": {Name: "create-board", Description: "Create a board"},
			},
		},
		State: domain.NewConnectionState(),
		Phase: domain.PhaseIdle,
	})
	m.add(driving.ProviderView{
		Provider: domain.Provider{
			ID:           domain.ProviderSlack,
			DisplayName:  "Slack",
			Category:     domain.CategoryChat,
			Availability: domain.AvailabilityComingSoon,
		},
		State: domain.NewConnectionState(),
		Phase: domain.PhaseIdle,
	})
	return m
}

func (m *mockConnections) add(v driving.ProviderView) {
	m.views[v.Provider.ID] = v
	m.order = append(m.order, v.Provider.ID)
}

func (m *mockConnections) Hydrate(context.Context) error {
	m.hydrated++
	return nil
}

func (m *mockConnections) List() []driving.ProviderView {
	out := make([]driving.ProviderView, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.views[id])
	}
	return out
}

func (m *mockConnections) Get(id domain.ProviderID) (*driving.ProviderView, error) {
	v, ok := m.views[id]
	if !ok {
		return nil, domain.NewFlowError(domain.KindUnknownProvider, id, "unknown provider", nil)
	}
	return &v, nil
}

func (m *mockConnections) SetEnabled(_ context.Context, id domain.ProviderID, enabled bool) ([]string, error) {
	m.enabled[id] = enabled
	return m.warnings, nil
}

func (m *mockConnections) UpdateSettings(_ context.Context, _ domain.ProviderID, partial domain.Settings) ([]string, error) {
	m.lastPartial = partial
	return m.warnings, nil
}

func (m *mockConnections) Connect(_ context.Context, _ domain.ProviderID, token string) (*domain.ConnectResult, error) {
	m.lastToken = token
	return m.connectResult, m.connectErr
}

func (m *mockConnections) CompleteRedirect(
	context.Context, domain.ProviderID, string, string,
) (*domain.ConnectResult, error) {
	return m.connectResult, m.connectErr
}

func (m *mockConnections) CancelPopup(domain.ProviderID) error { return nil }

func (m *mockConnections) Disconnect(_ context.Context, id domain.ProviderID) (*driving.DisconnectResult, error) {
	m.disconnected = append(m.disconnected, id)
	return &driving.DisconnectResult{Provider: id, Warnings: m.warnings}, nil
}

func (m *mockConnections) InvokeAction(
	_ context.Context, _ domain.ProviderID, action string, payload map[string]any,
) (*domain.ActionResult, error) {
	m.lastAction = action
	m.lastPayload = payload
	return m.actionResult, nil
}

// mockSettings is a hand-written driving.SettingsService.
type mockSettings struct {
	settings    domain.AppSettings
	validateErr error
	apps        map[domain.ProviderID][2]string
}

var _ driving.SettingsService = (*mockSettings)(nil)

func newMockSettings() *mockSettings {
	return &mockSettings{settings: domain.DefaultAppSettings(), apps: make(map[domain.ProviderID][2]string)}
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettings) SetBackendURL(url string) error {
	m.settings.Backend.URL = url
	return nil
}

func (m *mockSettings) SetUserID(userID string) error {
	m.settings.Session.UserID = userID
	return nil
}

func (m *mockSettings) SetProviderApp(id domain.ProviderID, clientID, clientSecret string) error {
	m.apps[id] = [2]string{clientID, clientSecret}
	m.settings.Providers[id] = domain.ProviderSettings{ClientID: clientID, ClientSecret: clientSecret}
	return nil
}

func (m *mockSettings) Validate() error { return m.validateErr }

// mockVault is an in-memory SessionVault.
type mockVault struct {
	token string
}

func (m *mockVault) Token() (string, error) {
	if m.token == "" {
		return "", domain.ErrNotFound
	}
	return m.token, nil
}

func (m *mockVault) SetToken(token string) error {
	m.token = token
	return nil
}

func (m *mockVault) Clear() error {
	m.token = ""
	return nil
}
