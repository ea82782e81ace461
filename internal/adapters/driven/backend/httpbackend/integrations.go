package httpbackend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
)

// Load fetches the stored integration record.
func (c *Client) Load(ctx context.Context, p domain.ProviderID) (*driven.BackendRecord, error) {
	var record driven.BackendRecord
	if err := c.do(ctx, http.MethodGet, c.integrationURL(p), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Save writes the integration record.
func (c *Client) Save(ctx context.Context, p domain.ProviderID, record driven.BackendWrite) error {
	return c.do(ctx, http.MethodPut, c.integrationURL(p), record, nil)
}

// StoreToken uploads a raw credential.
func (c *Client) StoreToken(ctx context.Context, p domain.ProviderID, token string) error {
	return c.do(ctx, http.MethodPost, c.integrationURL(p, "token"), map[string]string{"token": token}, nil)
}

// RevokeToken removes the stored credential. A missing credential is not an error.
func (c *Client) RevokeToken(ctx context.Context, p domain.ProviderID) error {
	err := c.do(ctx, http.MethodDelete, c.integrationURL(p, "token"), nil, nil)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

// CheckStatus asks whether the backend holds a working connection.
func (c *Client) CheckStatus(ctx context.Context, p domain.ProviderID) (*driven.StatusReport, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, c.integrationURL(p, "status"), nil, &raw); err != nil {
		return nil, err
	}
	return parseStatus(raw), nil
}

// ExchangeCode trades an authorization code for a token on the backend,
// which holds the client secret.
func (c *Client) ExchangeCode(ctx context.Context, p domain.ProviderID, req driven.ExchangeRequest) (*domain.OAuthToken, error) {
	var token domain.OAuthToken
	if err := c.do(ctx, http.MethodPost, c.integrationURL(p, "exchange"), req, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: backend returned no access token", domain.ErrExchangeFailed)
	}
	return &token, nil
}

// InvokeAction runs a provider action.
func (c *Client) InvokeAction(ctx context.Context, p domain.ProviderID, action string, payload map[string]any) (*domain.ActionResult, error) {
	var result domain.ActionResult
	if err := c.do(ctx, http.MethodPost, c.integrationURL(p, "actions", action), payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Account and username paths tried in order; backends report the
// provider's user object as-is.
var (
	accountPaths  = []string{"user.id", "user.accountId", "user.account_id", "user.email", "accountId"}
	usernamePaths = []string{"user.login", "user.username", "user.name", "user.email"}
)

func parseStatus(raw []byte) *driven.StatusReport {
	doc := gjson.ParseBytes(raw)
	report := &driven.StatusReport{
		Connected: doc.Get("connected").Bool(),
		AccountID: firstString(doc, accountPaths),
		Username:  firstString(doc, usernamePaths),
	}
	if user, ok := doc.Get("user").Value().(map[string]any); ok {
		report.User = user
	}
	return report
}

func firstString(doc gjson.Result, paths []string) string {
	for _, p := range paths {
		if v := doc.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func errorMessage(raw []byte) string {
	doc := gjson.ParseBytes(raw)
	for _, p := range []string{"error.message", "error", "message"} {
		if v := doc.Get(p); v.Exists() && v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}
