package connectors

import (
	"net/http"

	"google.golang.org/api/option"

	"github.com/custodia-labs/sercha-connect/internal/connectors/claude"
	"github.com/custodia-labs/sercha-connect/internal/connectors/github"
	"github.com/custodia-labs/sercha-connect/internal/connectors/google"
	"github.com/custodia-labs/sercha-connect/internal/connectors/linear"
	"github.com/custodia-labs/sercha-connect/internal/connectors/notion"
	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
)

// Endpoints overrides provider API base URLs. Empty fields use the
// provider's public endpoint.
type Endpoints struct {
	GitHub     string
	Claude     string
	Linear     string
	Google     []option.ClientOption
	NotionHTTP *http.Client
}

// IdentityFetchers returns the fetchers for providers connected by OAuth.
func IdentityFetchers(e Endpoints) map[domain.ProviderID]driven.IdentityFetcher {
	return map[domain.ProviderID]driven.IdentityFetcher{
		domain.ProviderGitHub:      github.NewIdentityFetcher(e.GitHub),
		domain.ProviderGoogleTasks: google.NewTasksIdentityFetcher(e.Google...),
	}
}

// TokenVerifiers returns the verifiers for providers that accept API tokens.
func TokenVerifiers(e Endpoints) map[domain.ProviderID]driven.TokenVerifier {
	return map[domain.ProviderID]driven.TokenVerifier{
		domain.ProviderClaude: claude.NewVerifier(e.Claude),
		domain.ProviderLinear: linear.NewVerifier(e.Linear),
		domain.ProviderNotion: notion.NewVerifier(e.NotionHTTP),
	}
}
