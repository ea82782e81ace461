package driven

import (
	"context"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
)

// IdentityFetcher resolves the account behind an access token together
// with its dependent resources (repositories, task lists, workspaces).
type IdentityFetcher interface {
	FetchIdentity(ctx context.Context, token *domain.OAuthToken) (*domain.Identity, error)
}

// TokenVerifier checks a manually entered API token against the provider
// and returns the account it belongs to.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*domain.Identity, error)
}
