package httpbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// ErrNoSession is returned when no session token has been stored.
var ErrNoSession = errors.New("no backend session: run 'sercha-connect login'")

// Ensure Client implements the interface.
var _ driven.Backend = (*Client)(nil)

// StatusError is a non-2xx backend response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// Is maps 404 responses to domain.ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == domain.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to the persistence service.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a client for the backend described by settings. A nil vault
// sends requests without credentials.
func New(settings domain.BackendSettings, vault driven.SessionVault) *Client {
	base := http.DefaultTransport
	var transport http.RoundTripper = base
	if vault != nil {
		transport = &oauth2.Transport{
			Source: &vaultSource{vault: vault},
			Base:   base,
		}
	}

	rps := settings.RateLimit
	if rps <= 0 {
		rps = domain.DefaultBackendRateLimit
	}
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultBackendTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(settings.URL, "/"),
		http:    &http.Client{Transport: transport, Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}
}

// vaultSource reads the session token on every request so a new login
// takes effect without a restart.
type vaultSource struct {
	vault driven.SessionVault
}

func (s *vaultSource) Token() (*oauth2.Token, error) {
	tok, err := s.vault.Token()
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("read backend session: %w", err)
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

func (c *Client) integrationURL(p domain.ProviderID, parts ...string) string {
	u := c.baseURL + "/api/integrations/" + url.PathEscape(string(p))
	for _, part := range parts {
		u += "/" + url.PathEscape(part)
	}
	return u
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
func (c *Client) do(ctx context.Context, method, u string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var body io.Reader = http.NoBody
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
