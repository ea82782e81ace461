package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginLogout(t *testing.T) {
	vault := &mockVault{}
	withServices(t, &Services{Session: vault})

	out, _, err := execute(t, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "Not logged in.\n", out)

	withStdin(t, "session-token-123456\n")
	out, _, err = execute(t, "login", "--token-stdin")
	require.NoError(t, err)
	assert.Equal(t, "Session token stored.\n", out)
	assert.Equal(t, "session-token-123456", vault.token)

	out, _, err = execute(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "sess...3456")

	_, _, err = execute(t, "logout")
	require.NoError(t, err)
	assert.Empty(t, vault.token)
}

func TestLogin_NotConfigured(t *testing.T) {
	withServices(t, &Services{})

	_, _, err := execute(t, "logout")
	assert.EqualError(t, err, "session storage not configured")
}
