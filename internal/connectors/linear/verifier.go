package linear

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/sercha-connect/internal/connectors/httpjson"
	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
)

// DefaultEndpoint is the Linear GraphQL endpoint.
const DefaultEndpoint = "https://api.linear.app/graphql"

// MaxTeams caps the dependent resource list.
const MaxTeams = 50

const viewerQuery = `query Viewer($first: Int!) {
  viewer { id name email }
  teams(first: $first) { nodes { id key } }
}`

// Ensure Verifier implements the interface.
var _ driven.TokenVerifier = (*Verifier)(nil)

// Verifier checks a personal API key by querying the viewer.
type Verifier struct {
	endpoint string
}

// NewVerifier creates a verifier. An empty endpoint uses DefaultEndpoint.
func NewVerifier(endpoint string) *Verifier {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Verifier{endpoint: endpoint}
}

// VerifyToken returns the viewer behind key with team IDs as resources.
func (v *Verifier) VerifyToken(ctx context.Context, key string) (*domain.Identity, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty api key", domain.ErrInvalidInput)
	}

	// Personal keys are sent without the Bearer prefix.
	client := httpjson.New(http.Header{"Authorization": []string{key}}, 2)

	doc, err := client.Do(ctx, http.MethodPost, v.endpoint, map[string]any{
		"query":     viewerQuery,
		"variables": map[string]int{"first": MaxTeams},
	})
	if err != nil {
		var statusErr *httpjson.StatusError
		if errors.As(err, &statusErr) && (statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %s", domain.ErrValidationFailed, statusErr.Message)
		}
		return nil, fmt.Errorf("query viewer: %w", err)
	}
	if msg := doc.Get("errors.0.message"); msg.Exists() {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidationFailed, msg.String())
	}

	viewer := doc.Get("data.viewer")
	id := viewer.Get("id").String()
	if id == "" {
		return nil, fmt.Errorf("%w: viewer has no id", domain.ErrIdentityFetchFailed)
	}

	var teams []string
	for _, team := range doc.Get("data.teams.nodes.#.id").Array() {
		teams = append(teams, team.String())
	}

	return &domain.Identity{
		AccountID:   id,
		Username:    viewer.Get("email").String(),
		DisplayName: viewer.Get("name").String(),
		Resources:   teams,
	}, nil
}
