package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-connect/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-connect/internal/core/domain"
)

func newTestSettingsService(seed map[string]any) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore(seed)
	return NewSettingsService(store, NewProviderRegistry()), store
}

func TestSettingsService_Get_Defaults(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Backend, settings.Backend)
	assert.Equal(t, defaults.Flows, settings.Flows)
	assert.Equal(t, domain.DefaultServerAddr, settings.Server.Addr)
	assert.Empty(t, settings.Server.PublicURL)
	assert.Equal(t, domain.StateStoreMemory, settings.StateKind)
	assert.Empty(t, settings.Session.UserID)
	assert.Empty(t, settings.Providers)
}

func TestSettingsService_Get_FromConfig(t *testing.T) {
	service, _ := newTestSettingsService(map[string]any{
		"backend.url":                    "https://api.example.com",
		"backend.timeout":                "3s",
		"backend.rate_limit":             2.5,
		"session.user_id":                "user-1",
		"flows.popup_timeout":            "90s",
		"flows.popup_grace_period":       "500ms",
		"server.public_url":              "https://connect.example.com",
		"state.store":                    "sqlite",
		"providers.github.client_id":     "gh-client",
		"providers.github.client_secret": "gh-secret",
		"providers.github.scopes":        []any{"repo"},
	})

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", settings.Backend.URL)
	assert.Equal(t, 3*time.Second, settings.Backend.Timeout)
	assert.InDelta(t, 2.5, settings.Backend.RateLimit, 0.001)
	assert.Equal(t, "user-1", settings.Session.UserID)
	assert.Equal(t, 90*time.Second, settings.Flows.PopupTimeout)
	assert.Equal(t, 500*time.Millisecond, settings.Flows.PopupGracePeriod)
	assert.Equal(t, domain.DefaultPopupPollInterval, settings.Flows.PopupPollInterval)
	assert.Equal(t, domain.StateStoreSQLite, settings.StateKind)
	assert.Equal(t, domain.ProviderSettings{
		ClientID:     "gh-client",
		ClientSecret: "gh-secret",
		Scopes:       []string{"repo"},
	}, settings.Providers[domain.ProviderGitHub])
	assert.NotContains(t, settings.Providers, domain.ProviderSlack)
}

func TestSettingsService_Get_InvalidValuesFallBack(t *testing.T) {
	service, _ := newTestSettingsService(map[string]any{
		"backend.timeout": "soon",
		"state.store":     "redis",
	})

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultBackendTimeout, settings.Backend.Timeout)
	assert.Equal(t, domain.StateStoreMemory, settings.StateKind)
}

func TestSettingsService_SetBackendURL(t *testing.T) {
	service, store := newTestSettingsService(nil)

	require.NoError(t, service.SetBackendURL("https://api.example.com"))
	assert.Equal(t, "https://api.example.com", store.GetString("backend.url"))

	for _, raw := range []string{"", "not a url", "/relative"} {
		assert.ErrorIs(t, service.SetBackendURL(raw), domain.ErrInvalidInput, raw)
	}
}

func TestSettingsService_SetUserID(t *testing.T) {
	service, store := newTestSettingsService(nil)

	require.NoError(t, service.SetUserID("user-7"))
	assert.Equal(t, "user-7", store.GetString("session.user_id"))
	assert.ErrorIs(t, service.SetUserID(""), domain.ErrInvalidInput)
}

func TestSettingsService_SetProviderApp(t *testing.T) {
	t.Run("stores client credentials", func(t *testing.T) {
		service, store := newTestSettingsService(nil)

		require.NoError(t, service.SetProviderApp(domain.ProviderSlack, "client", "secret"))

		assert.Equal(t, "client", store.GetString("providers.slack.client_id"))
		assert.Equal(t, "secret", store.GetString("providers.slack.client_secret"))
	})

	t.Run("secret is optional", func(t *testing.T) {
		service, store := newTestSettingsService(nil)

		require.NoError(t, service.SetProviderApp(domain.ProviderGitHub, "client", ""))

		_, ok := store.Get("providers.github.client_secret")
		assert.False(t, ok)
	})

	t.Run("token provider", func(t *testing.T) {
		service, _ := newTestSettingsService(nil)

		err := service.SetProviderApp(domain.ProviderClaude, "client", "")

		assert.ErrorIs(t, err, domain.ErrUnsupportedFlow)
	})

	t.Run("unknown provider", func(t *testing.T) {
		service, _ := newTestSettingsService(nil)

		err := service.SetProviderApp("myspace", "client", "")

		assert.ErrorIs(t, err, domain.ErrUnknownProvider)
	})

	t.Run("missing client id", func(t *testing.T) {
		service, _ := newTestSettingsService(nil)

		assert.ErrorIs(t, service.SetProviderApp(domain.ProviderGitHub, "", ""), domain.ErrInvalidInput)
	})
}

func TestSettingsService_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		service, _ := newTestSettingsService(nil)
		assert.NoError(t, service.Validate())
	})

	t.Run("poll interval must be shorter than timeout", func(t *testing.T) {
		service, _ := newTestSettingsService(map[string]any{
			"flows.popup_poll_interval": "10m",
			"flows.popup_timeout":       "1m",
		})
		assert.Error(t, service.Validate())
	})
}
