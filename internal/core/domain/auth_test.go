package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestOAuthToken_IsExpired_ZeroExpiry tests that zero expiry means never expires
func TestOAuthToken_IsExpired_ZeroExpiry(t *testing.T) {
	token := &OAuthToken{
		AccessToken: "test-token",
		Expiry:      time.Time{},
	}

	assert.False(t, token.IsExpired(), "Token with zero expiry should not be expired")
}

// TestOAuthToken_IsExpired_FutureExpiry tests token not yet expired
func TestOAuthToken_IsExpired_FutureExpiry(t *testing.T) {
	token := &OAuthToken{
		AccessToken: "test-token",
		Expiry:      time.Now().Add(time.Hour),
	}

	assert.False(t, token.IsExpired(), "Token with future expiry should not be expired")
}

// TestOAuthToken_IsExpired_PastExpiry tests expired token
func TestOAuthToken_IsExpired_PastExpiry(t *testing.T) {
	token := &OAuthToken{
		AccessToken: "test-token",
		Expiry:      time.Now().Add(-time.Hour),
	}

	assert.True(t, token.IsExpired(), "Token with past expiry should be expired")
}

func TestOAuthToken_Permissions(t *testing.T) {
	tests := []struct {
		name     string
		scope    string
		expected []string
	}{
		{"empty", "", nil},
		{"space separated", "repo read:user", []string{"repo", "read:user"}},
		{"comma separated", "repo,read:org", []string{"repo", "read:org"}},
		{"extra separators", " repo  user ", []string{"repo", "user"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := &OAuthToken{Scope: tt.scope}
			assert.Equal(t, tt.expected, token.Permissions())
		})
	}
}
