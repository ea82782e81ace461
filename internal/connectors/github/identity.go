package github

import (
	"context"
	"fmt"
	"strconv"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

// Ensure IdentityFetcher implements the interface.
var _ driven.IdentityFetcher = (*IdentityFetcher)(nil)

// IdentityFetcher resolves the GitHub user and repositories behind a token.
type IdentityFetcher struct {
	baseURL string
}

// NewIdentityFetcher creates a fetcher against api.github.com, or against
// baseURL when it is non-empty.
func NewIdentityFetcher(baseURL string) *IdentityFetcher {
	return &IdentityFetcher{baseURL: baseURL}
}

// FetchIdentity returns the account behind token. A failed repository
// listing is not fatal: the account is still identified.
func (f *IdentityFetcher) FetchIdentity(ctx context.Context, token *domain.OAuthToken) (*domain.Identity, error) {
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty token", domain.ErrInvalidInput)
	}
	client, err := NewClientWithToken(ctx, token.AccessToken, f.baseURL)
	if err != nil {
		return nil, err
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user.GetLogin() == "" {
		return nil, ErrNoLogin
	}

	identity := &domain.Identity{
		AccountID:   strconv.FormatInt(user.GetID(), 10),
		Username:    user.GetLogin(),
		DisplayName: user.GetName(),
	}
	if identity.AccountID == "0" {
		identity.AccountID = user.GetLogin()
	}

	repos, err := client.ListRepositories(ctx, MaxRepositories)
	if err != nil {
		logger.Warn("github: list repositories for %s: %v", identity.Username, err)
	}
	for _, repo := range repos {
		if name := repo.GetFullName(); name != "" {
			identity.Resources = append(identity.Resources, name)
		}
	}
	return identity, nil
}
