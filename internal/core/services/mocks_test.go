package services

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
)

// mockBackend is an in-memory persistence service with failure injection.
type mockBackend struct {
	mu       sync.Mutex
	records  map[domain.ProviderID]*driven.BackendRecord
	writes   map[domain.ProviderID][]driven.BackendWrite
	tokens   map[domain.ProviderID]string
	statuses map[domain.ProviderID]*driven.StatusReport
	actions  []string
	payloads []map[string]any

	loadErr   error
	saveErr   error
	storeErr  error
	revokeErr error
	statusErr error
	actionErr error

	statusCalls int
	// loadHook runs inside Load, before the record is read.
	loadHook func(ctx context.Context, id domain.ProviderID) error
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		records:  make(map[domain.ProviderID]*driven.BackendRecord),
		writes:   make(map[domain.ProviderID][]driven.BackendWrite),
		tokens:   make(map[domain.ProviderID]string),
		statuses: make(map[domain.ProviderID]*driven.StatusReport),
	}
}

func (m *mockBackend) Load(ctx context.Context, id domain.ProviderID) (*driven.BackendRecord, error) {
	if m.loadHook != nil {
		if err := m.loadHook(ctx, id); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (m *mockBackend) Save(_ context.Context, id domain.ProviderID, w driven.BackendWrite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.writes[id] = append(m.writes[id], w)
	return nil
}

func (m *mockBackend) StoreToken(_ context.Context, id domain.ProviderID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeErr != nil {
		return m.storeErr
	}
	m.tokens[id] = token
	return nil
}

func (m *mockBackend) RevokeToken(_ context.Context, id domain.ProviderID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revokeErr != nil {
		return m.revokeErr
	}
	delete(m.tokens, id)
	return nil
}

func (m *mockBackend) CheckStatus(_ context.Context, id domain.ProviderID) (*driven.StatusReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	if s, ok := m.statuses[id]; ok {
		return s, nil
	}
	return &driven.StatusReport{}, nil
}

func (m *mockBackend) ExchangeCode(_ context.Context, _ domain.ProviderID, _ driven.ExchangeRequest) (*domain.OAuthToken, error) {
	return nil, domain.ErrNotImplemented
}

func (m *mockBackend) InvokeAction(_ context.Context, id domain.ProviderID, action string, payload map[string]any) (*domain.ActionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.actionErr != nil {
		return nil, m.actionErr
	}
	m.actions = append(m.actions, string(id)+":"+action)
	m.payloads = append(m.payloads, payload)
	return &domain.ActionResult{OK: true, ResourceIDs: []string{"res-1"}}, nil
}

func (m *mockBackend) setStatus(id domain.ProviderID, s *driven.StatusReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[id] = s
}

func (m *mockBackend) lastWrite(id domain.ProviderID) (driven.BackendWrite, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.writes[id]
	if len(w) == 0 {
		return driven.BackendWrite{}, false
	}
	return w[len(w)-1], true
}

func (m *mockBackend) token(id domain.ProviderID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[id]
}

// mockExchanger builds predictable auth URLs and returns a fixed token.
type mockExchanger struct {
	token       *domain.OAuthToken
	exchangeErr error
	urlErr      error
	requests    []driven.ExchangeRequest
	lastAttempt *domain.OAuthAttempt
}

func (m *mockExchanger) AuthCodeURL(p *domain.Provider, attempt *domain.OAuthAttempt, challenge string) (string, error) {
	if m.urlErr != nil {
		return "", m.urlErr
	}
	m.lastAttempt = attempt
	q := url.Values{}
	q.Set("state", attempt.CSRFToken)
	q.Set("redirect_uri", attempt.RedirectURI)
	if challenge != "" {
		q.Set("code_challenge", challenge)
	}
	return p.AuthURL + "?" + q.Encode(), nil
}

func (m *mockExchanger) Exchange(_ context.Context, _ *domain.Provider, req driven.ExchangeRequest) (*domain.OAuthToken, error) {
	m.requests = append(m.requests, req)
	if m.exchangeErr != nil {
		return nil, m.exchangeErr
	}
	return m.token, nil
}

// gate parks a call until the test releases it. A nil gate never blocks.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 4), release: make(chan struct{})}
}

func (g *gate) wait() {
	if g == nil {
		return
	}
	g.entered <- struct{}{}
	<-g.release
}

// mockFetcher returns a fixed identity.
type mockFetcher struct {
	identity *domain.Identity
	err      error
	gate     *gate
}

func (m *mockFetcher) FetchIdentity(_ context.Context, _ *domain.OAuthToken) (*domain.Identity, error) {
	m.gate.wait()
	return m.identity, m.err
}

// mockVerifier accepts a single token.
type mockVerifier struct {
	valid    string
	identity *domain.Identity
	gate     *gate
}

func (m *mockVerifier) VerifyToken(_ context.Context, token string) (*domain.Identity, error) {
	m.gate.wait()
	if token != m.valid {
		return nil, domain.ErrValidationFailed
	}
	return m.identity, nil
}

// mockNavigator records navigated URLs.
type mockNavigator struct {
	urls []string
	err  error
}

func (m *mockNavigator) Navigate(_ context.Context, u string) error {
	m.urls = append(m.urls, u)
	return m.err
}

// mockWindow is a popup the test closes by hand.
type mockWindow struct {
	closed     atomic.Bool
	closeCalls atomic.Int32
}

func (w *mockWindow) Closed() bool { return w.closed.Load() }

func (w *mockWindow) Close() error {
	w.closeCalls.Add(1)
	w.closed.Store(true)
	return nil
}

// mockPopups hands out windows and signals each open.
type mockPopups struct {
	mu      sync.Mutex
	windows []*mockWindow
	urls    []string
	opened  chan *mockWindow
	err     error
	// onOpen runs after a window opens.
	onOpen func(w *mockWindow)
}

func newMockPopups() *mockPopups {
	return &mockPopups{opened: make(chan *mockWindow, 4)}
}

func (m *mockPopups) Open(_ context.Context, u string, _, _ int) (driven.PopupWindow, error) {
	if m.err != nil {
		return nil, m.err
	}
	w := &mockWindow{}
	m.mu.Lock()
	m.windows = append(m.windows, w)
	m.urls = append(m.urls, u)
	m.mu.Unlock()
	if m.onOpen != nil {
		m.onOpen(w)
	}
	m.opened <- w
	return w, nil
}
