package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/services"
)

func TestSettingsShow(t *testing.T) {
	settings := newMockSettings()
	settings.settings.Session.UserID = "user-42"
	settings.settings.Providers[domain.ProviderGitHub] = domain.ProviderSettings{
		ClientID: "Iv1.abc", ClientSecret: "supersecretvalue",
	}
	withServices(t, &Services{Settings: settings})

	out, _, err := execute(t, "settings")
	require.NoError(t, err)

	assert.Contains(t, out, "URL: http://localhost:8080")
	assert.Contains(t, out, "User: user-42")
	assert.Contains(t, out, "github: client Iv1.abc, secret supe...alue")
	assert.NotContains(t, out, "supersecretvalue")
	assert.Contains(t, out, "Configuration is valid.")

	settings.validateErr = errors.New("backend URL is required")
	out, _, err = execute(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Warning: backend URL is required")
}

func TestSettingsBackendAndUser(t *testing.T) {
	settings := newMockSettings()
	withServices(t, &Services{Settings: settings})

	_, _, err := execute(t, "settings", "backend", "https://api.sercha.dev")
	require.NoError(t, err)
	assert.Equal(t, "https://api.sercha.dev", settings.settings.Backend.URL)

	_, _, err = execute(t, "settings", "user", "user-7")
	require.NoError(t, err)
	assert.Equal(t, "user-7", settings.settings.Session.UserID)
}

func TestSettingsApp(t *testing.T) {
	settings := newMockSettings()
	withServices(t, &Services{Settings: settings})
	withStdin(t, "\n")

	out, _, err := execute(t, "settings", "app", "github", "--client-id", "Iv1.abc")
	require.NoError(t, err)
	assert.Contains(t, out, "github OAuth app configured")
	assert.Equal(t, [2]string{"Iv1.abc", ""}, settings.apps[domain.ProviderGitHub])
}

func TestSettingsWizard(t *testing.T) {
	settings := newMockSettings()
	withServices(t, &Services{Settings: settings, Registry: services.NewProviderRegistry()})
	// backend, user, pick first OAuth provider, client id, secret, done.
	withStdin(t, "https://api.sercha.dev\nuser-9\n1\nIv1.abc\nshh-secret\n0\n")

	out, _, err := execute(t, "settings", "wizard")
	require.NoError(t, err)

	assert.Contains(t, out, "Configuration Complete!")
	assert.Equal(t, "https://api.sercha.dev", settings.settings.Backend.URL)
	assert.Equal(t, "user-9", settings.settings.Session.UserID)
	require.Len(t, settings.apps, 1)
	for _, app := range settings.apps {
		assert.Equal(t, [2]string{"Iv1.abc", "shh-secret"}, app)
	}
}

func TestParseChoice(t *testing.T) {
	assert.Equal(t, 2, parseChoice("2", 3, 0))
	assert.Equal(t, 0, parseChoice("", 3, 0))
	assert.Equal(t, 1, parseChoice("9", 3, 1))
	assert.Equal(t, 1, parseChoice("abc", 3, 1))
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcd...6789", maskAPIKey("abcdef0123456789"))
}
