package driven

import (
	"context"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
)

// ExchangeRequest carries the artifacts of a completed authorization redirect.
type ExchangeRequest struct {
	Code         string `json:"code"`
	RedirectURI  string `json:"redirectUri"`
	CodeVerifier string `json:"codeVerifier,omitempty"`
}

// CodeExchanger builds authorization URLs and exchanges codes for tokens.
type CodeExchanger interface {
	// AuthCodeURL returns the provider authorize URL for an attempt.
	AuthCodeURL(provider *domain.Provider, attempt *domain.OAuthAttempt, codeChallenge string) (string, error)

	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, provider *domain.Provider, req ExchangeRequest) (*domain.OAuthToken, error)
}

// OAuthStateStore holds in-flight redirect attempts between the outbound
// redirect and the callback. Entries are keyed by provider.
type OAuthStateStore interface {
	// Save records an attempt, replacing any previous one for the provider.
	Save(ctx context.Context, attempt *domain.OAuthAttempt) error

	// Take returns and removes the attempt for a provider.
	// Returns nil without error when none exists or it has expired.
	Take(ctx context.Context, provider domain.ProviderID) (*domain.OAuthAttempt, error)

	// Purge removes expired attempts.
	Purge(ctx context.Context) error
}
