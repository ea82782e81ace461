package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
)

// stubBackend implements only ExchangeCode.
type stubBackend struct {
	driven.Backend
	got driven.ExchangeRequest
}

func (s *stubBackend) ExchangeCode(_ context.Context, _ domain.ProviderID, req driven.ExchangeRequest) (*domain.OAuthToken, error) {
	s.got = req
	return &domain.OAuthToken{AccessToken: "from-backend"}, nil
}

func testProvider(tokenURL string) *domain.Provider {
	return &domain.Provider{
		ID:         domain.ProviderGoogleTasks,
		Scopes:     []string{"tasks", "email"},
		AuthURL:    "https://accounts.example.com/auth",
		TokenURL:   tokenURL,
		AuthParams: map[string]string{"access_type": "offline"},
	}
}

func TestExchanger_AuthCodeURL(t *testing.T) {
	e := NewExchanger(map[domain.ProviderID]domain.ProviderSettings{
		domain.ProviderGoogleTasks: {ClientID: "client-1"},
	}, nil)
	attempt := &domain.OAuthAttempt{CSRFToken: "state-1", RedirectURI: "http://127.0.0.1:8765/oauth/callback/google-tasks"}

	raw, err := e.AuthCodeURL(testProvider(""), attempt, "challenge-1")

	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "accounts.example.com", u.Host)
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, attempt.RedirectURI, q.Get("redirect_uri"))
	assert.Equal(t, "tasks email", q.Get("scope"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "challenge-1", q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
}

func TestExchanger_AuthCodeURL_AppOverrides(t *testing.T) {
	e := NewExchanger(map[domain.ProviderID]domain.ProviderSettings{
		domain.ProviderGoogleTasks: {ClientID: "c", Scopes: []string{"custom"}, AuthURL: "https://sso.example.com/authorize"},
	}, nil)

	raw, err := e.AuthCodeURL(testProvider(""), &domain.OAuthAttempt{CSRFToken: "s"}, "")

	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "sso.example.com", u.Host)
	assert.Equal(t, "custom", u.Query().Get("scope"))
	assert.Empty(t, u.Query().Get("code_challenge"))
}

func TestExchanger_AuthCodeURL_NoClientID(t *testing.T) {
	e := NewExchanger(nil, nil)

	_, err := e.AuthCodeURL(testProvider(""), &domain.OAuthAttempt{CSRFToken: "s"}, "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExchanger_Exchange_Direct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "code-1", r.PostForm.Get("code"))
		assert.Equal(t, "verifier-1", r.PostForm.Get("code_verifier"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"ya29.token","refresh_token":"1//refresh","token_type":"Bearer","expires_in":3600,"scope":"tasks email"}`))
	}))
	defer srv.Close()

	backend := &stubBackend{}
	e := NewExchanger(map[domain.ProviderID]domain.ProviderSettings{
		domain.ProviderGoogleTasks: {ClientID: "client-1", ClientSecret: "secret-1"},
	}, backend)

	tok, err := e.Exchange(context.Background(), testProvider(srv.URL), driven.ExchangeRequest{
		Code:         "code-1",
		RedirectURI:  "http://127.0.0.1/cb",
		CodeVerifier: "verifier-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "ya29.token", tok.AccessToken)
	assert.Equal(t, "1//refresh", tok.RefreshToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.False(t, tok.Expiry.IsZero())
	assert.Equal(t, []string{"tasks", "email"}, tok.Permissions())
	assert.Empty(t, backend.got.Code, "backend not used when the secret is local")
}

func TestExchanger_Exchange_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Bad Request"}`))
	}))
	defer srv.Close()

	e := NewExchanger(map[domain.ProviderID]domain.ProviderSettings{
		domain.ProviderGoogleTasks: {ClientID: "client-1", ClientSecret: "secret-1"},
	}, nil)

	_, err := e.Exchange(context.Background(), testProvider(srv.URL), driven.ExchangeRequest{Code: "stale"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestExchanger_Exchange_ThroughBackend(t *testing.T) {
	backend := &stubBackend{}
	e := NewExchanger(map[domain.ProviderID]domain.ProviderSettings{
		domain.ProviderGoogleTasks: {ClientID: "client-1"},
	}, backend)
	req := driven.ExchangeRequest{Code: "code-1", RedirectURI: "http://127.0.0.1/cb", CodeVerifier: "v"}

	tok, err := e.Exchange(context.Background(), testProvider("https://unused.example.com"), req)

	require.NoError(t, err)
	assert.Equal(t, "from-backend", tok.AccessToken)
	assert.Equal(t, req, backend.got)
}

func TestExchanger_Exchange_NoSecretNoBackend(t *testing.T) {
	e := NewExchanger(nil, nil)

	_, err := e.Exchange(context.Background(), testProvider("https://unused.example.com"), driven.ExchangeRequest{Code: "c"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
