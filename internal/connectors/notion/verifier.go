package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jomei/notionapi"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
)

// Ensure Verifier implements the interface.
var _ driven.TokenVerifier = (*Verifier)(nil)

// Verifier checks an internal integration token by reading the bot user.
type Verifier struct {
	httpClient *http.Client
}

// NewVerifier creates a verifier. A nil client uses http.DefaultClient.
func NewVerifier(httpClient *http.Client) *Verifier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Verifier{httpClient: httpClient}
}

// VerifyToken returns the bot user behind token.
func (v *Verifier) VerifyToken(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty integration token", domain.ErrInvalidInput)
	}

	client := notionapi.NewClient(notionapi.Token(token), notionapi.WithHTTPClient(v.httpClient))

	user, err := client.User.Me(ctx)
	if err != nil {
		var apiErr *notionapi.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %s", domain.ErrValidationFailed, apiErr.Message)
		}
		return nil, fmt.Errorf("fetch bot user: %w", err)
	}
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("%w: bot user has no id", domain.ErrIdentityFetchFailed)
	}

	return &domain.Identity{
		AccountID:   user.ID.String(),
		DisplayName: user.Name,
	}, nil
}
