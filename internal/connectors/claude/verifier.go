package claude

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/sercha-connect/internal/connectors/httpjson"
	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
)

// DefaultBaseURL is the Anthropic API endpoint.
const DefaultBaseURL = "https://api.anthropic.com"

// APIVersion is sent in the anthropic-version header.
const APIVersion = "2023-06-01"

// Ensure Verifier implements the interface.
var _ driven.TokenVerifier = (*Verifier)(nil)

// Verifier checks an API key by listing the models it can use.
type Verifier struct {
	baseURL string
}

// NewVerifier creates a verifier. An empty baseURL uses DefaultBaseURL.
func NewVerifier(baseURL string) *Verifier {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Verifier{baseURL: strings.TrimRight(baseURL, "/")}
}

// VerifyToken returns an identity for a valid key. Anthropic keys carry no
// account lookup, so the account ID is derived from the key suffix and the
// available model IDs become the dependent resources.
func (v *Verifier) VerifyToken(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty api key", domain.ErrInvalidInput)
	}

	client := httpjson.New(http.Header{
		"X-Api-Key":         []string{token},
		"Anthropic-Version": []string{APIVersion},
	}, 2)

	doc, err := client.Do(ctx, http.MethodGet, v.baseURL+"/v1/models", nil)
	if err != nil {
		var statusErr *httpjson.StatusError
		if errors.As(err, &statusErr) && (statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %s", domain.ErrValidationFailed, statusErr.Message)
		}
		return nil, fmt.Errorf("list models: %w", err)
	}

	var models []string
	for _, id := range doc.Get("data.#.id").Array() {
		models = append(models, id.String())
	}

	return &domain.Identity{
		AccountID:   accountID(token),
		DisplayName: "Anthropic API key " + domain.MaskSecret(token),
		Resources:   models,
	}, nil
}

func accountID(token string) string {
	suffix := token
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return "api-key-" + suffix
}
