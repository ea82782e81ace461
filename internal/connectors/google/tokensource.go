package google

import (
	"golang.org/x/oauth2"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
)

// NewTokenSource creates an oauth2.TokenSource over an exchanged token.
// Refresh is the backend's concern; the source only serves the access token.
func NewTokenSource(token *domain.OAuthToken) oauth2.TokenSource {
	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token.AccessToken,
		TokenType:   tokenType,
		Expiry:      token.Expiry,
	})
}
