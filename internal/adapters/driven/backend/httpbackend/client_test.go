package httpbackend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
)

// fakeVault is a SessionVault in memory.
type fakeVault struct {
	token string
}

func (v *fakeVault) Token() (string, error) {
	if v.token == "" {
		return "", domain.ErrNotFound
	}
	return v.token, nil
}

func (v *fakeVault) SetToken(token string) error { v.token = token; return nil }

func (v *fakeVault) Clear() error { v.token = ""; return nil }

// recorded is one request seen by the test server.
type recorded struct {
	Method string
	Path   string
	Auth   string
	Body   []byte
}

func newTestServer(t *testing.T, routes map[string]func(w http.ResponseWriter)) (*httptest.Server, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var seen []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, recorded{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: body})
		mu.Unlock()

		if handler, ok := routes[r.Method+" "+r.URL.Path]; ok {
			handler(w)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"no such integration"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), seen...)
	}
}

func newTestClient(url string) *Client {
	return New(domain.BackendSettings{URL: url + "/", RateLimit: 100}, &fakeVault{token: "session-1"})
}

func jsonBody(body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_Load(t *testing.T) {
	srv, seen := newTestServer(t, map[string]func(http.ResponseWriter){
		"GET /api/integrations/github": jsonBody(`{"connected":true,"accountId":"42","dependentResources":["alice/api"],"settings":{"username":"alice"},"enabled":false}`),
	})
	client := newTestClient(srv.URL)

	record, err := client.Load(context.Background(), domain.ProviderGitHub)

	require.NoError(t, err)
	assert.True(t, record.Connected)
	assert.Equal(t, "42", record.AccountID)
	assert.Equal(t, []string{"alice/api"}, record.DependentResources)
	assert.Equal(t, "alice", record.Settings["username"])
	require.NotNil(t, record.Enabled)
	assert.False(t, *record.Enabled)
	assert.Equal(t, "Bearer session-1", seen()[0].Auth)
}

func TestClient_Load_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	_, err := newTestClient(srv.URL).Load(context.Background(), domain.ProviderSlack)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "no such integration", statusErr.Message)
}

func TestClient_Save(t *testing.T) {
	srv, seen := newTestServer(t, map[string]func(http.ResponseWriter){
		"PUT /api/integrations/jira": func(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) },
	})

	err := newTestClient(srv.URL).Save(context.Background(), domain.ProviderJira, driven.BackendWrite{
		AccountID:          "acc-1",
		DependentResources: []string{},
		Permissions:        []string{},
		Settings:           map[string]any{"projectKey": "ENG"},
		Enabled:            true,
	})

	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(seen()[0].Body, &body))
	assert.Equal(t, "acc-1", body["accountId"])
	assert.Equal(t, []any{}, body["dependentResources"])
	assert.Equal(t, []any{}, body["permissions"])
	assert.Equal(t, true, body["enabled"])
}

func TestClient_Tokens(t *testing.T) {
	srv, seen := newTestServer(t, map[string]func(http.ResponseWriter){
		"POST /api/integrations/claude/token": func(w http.ResponseWriter) { w.WriteHeader(http.StatusCreated) },
	})
	client := newTestClient(srv.URL)

	require.NoError(t, client.StoreToken(context.Background(), domain.ProviderClaude, "sk-ant-1"))
	require.NoError(t, client.RevokeToken(context.Background(), domain.ProviderClaude), "missing credential on revoke is fine")

	requests := seen()
	require.Len(t, requests, 2)
	assert.JSONEq(t, `{"token":"sk-ant-1"}`, string(requests[0].Body))
	assert.Equal(t, http.MethodDelete, requests[1].Method)
	assert.Equal(t, "/api/integrations/claude/token", requests[1].Path)
}

func TestClient_CheckStatus(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		want     driven.StatusReport
		wantUser bool
	}{
		{
			name:     "github user",
			body:     `{"connected":true,"user":{"id":42,"login":"alice"}}`,
			want:     driven.StatusReport{Connected: true, AccountID: "42", Username: "alice"},
			wantUser: true,
		},
		{
			name:     "email identity",
			body:     `{"connected":true,"user":{"email":"alice@example.com"}}`,
			want:     driven.StatusReport{Connected: true, AccountID: "alice@example.com", Username: "alice@example.com"},
			wantUser: true,
		},
		{
			name: "disconnected",
			body: `{"connected":false}`,
			want: driven.StatusReport{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, map[string]func(http.ResponseWriter){
				"GET /api/integrations/slack/status": jsonBody(tt.body),
			})

			report, err := newTestClient(srv.URL).CheckStatus(context.Background(), domain.ProviderSlack)

			require.NoError(t, err)
			assert.Equal(t, tt.want.Connected, report.Connected)
			assert.Equal(t, tt.want.AccountID, report.AccountID)
			assert.Equal(t, tt.want.Username, report.Username)
			assert.Equal(t, tt.wantUser, report.User != nil)
		})
	}
}

func TestClient_ExchangeCode(t *testing.T) {
	srv, seen := newTestServer(t, map[string]func(http.ResponseWriter){
		"POST /api/integrations/github/exchange": jsonBody(`{"accessToken":"gho_x","tokenType":"bearer","scope":"repo"}`),
	})

	token, err := newTestClient(srv.URL).ExchangeCode(context.Background(), domain.ProviderGitHub,
		driven.ExchangeRequest{Code: "c", RedirectURI: "http://127.0.0.1/cb", CodeVerifier: "v"})

	require.NoError(t, err)
	assert.Equal(t, "gho_x", token.AccessToken)
	assert.Equal(t, []string{"repo"}, token.Permissions())
	assert.JSONEq(t, `{"code":"c","redirectUri":"http://127.0.0.1/cb","codeVerifier":"v"}`, string(seen()[0].Body))
}

func TestClient_InvokeAction(t *testing.T) {
	srv, seen := newTestServer(t, map[string]func(http.ResponseWriter){
		"POST /api/integrations/github-projects/actions/create-board": jsonBody(`{"ok":true,"resourceIds":["PVT_1"],"message":"created"}`),
	})

	result, err := newTestClient(srv.URL).InvokeAction(context.Background(), domain.ProviderGitHubProjects,
		"create-board", map[string]any{"ownerId": "alice"})

	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, []string{"PVT_1"}, result.ResourceIDs)
	assert.JSONEq(t, `{"ownerId":"alice"}`, string(seen()[0].Body))
}

func TestClient_ServerError(t *testing.T) {
	srv, _ := newTestServer(t, map[string]func(http.ResponseWriter){
		"PUT /api/integrations/jira": func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"maintenance"}}`))
		},
	})

	err := newTestClient(srv.URL).Save(context.Background(), domain.ProviderJira, driven.BackendWrite{})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "maintenance", statusErr.Message)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_NoSession(t *testing.T) {
	srv, seen := newTestServer(t, nil)
	client := New(domain.BackendSettings{URL: srv.URL}, &fakeVault{})

	_, err := client.Load(context.Background(), domain.ProviderGitHub)

	assert.ErrorIs(t, err, ErrNoSession)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, seen(), "no request is sent without a session")
}

func TestClient_NilVault(t *testing.T) {
	srv, seen := newTestServer(t, map[string]func(http.ResponseWriter){
		"GET /api/integrations/github": jsonBody(`{"connected":false}`),
	})

	_, err := New(domain.BackendSettings{URL: srv.URL}, nil).Load(context.Background(), domain.ProviderGitHub)

	require.NoError(t, err)
	assert.Empty(t, seen()[0].Auth)
}
