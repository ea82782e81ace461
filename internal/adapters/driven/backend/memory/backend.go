// Package memory provides an in-process driven.Backend for local use and
// tests. Nothing is persisted across restarts.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
)

// Ensure Backend implements the interface.
var _ driven.Backend = (*Backend)(nil)

// Backend keeps integration records and credentials in maps.
//
// A stored credential counts as a working connection; its account is
// reported as "local-<provider>".
type Backend struct {
	mu      sync.RWMutex
	records map[domain.ProviderID]driven.BackendRecord
	tokens  map[domain.ProviderID]string
}

// NewBackend creates an empty backend.
func NewBackend() *Backend {
	return &Backend{
		records: make(map[domain.ProviderID]driven.BackendRecord),
		tokens:  make(map[domain.ProviderID]string),
	}
}

// Load returns the stored record.
func (b *Backend) Load(_ context.Context, p domain.ProviderID) (*driven.BackendRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.records[p]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := rec
	out.DependentResources = append([]string(nil), rec.DependentResources...)
	out.Settings = make(map[string]any, len(rec.Settings))
	for k, v := range rec.Settings {
		out.Settings[k] = v
	}
	return &out, nil
}

// Save stores a record. The connected flag is derived from the account id.
func (b *Backend) Save(_ context.Context, p domain.ProviderID, w driven.BackendWrite) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	enabled := w.Enabled
	settings := make(map[string]any, len(w.Settings))
	for k, v := range w.Settings {
		settings[k] = v
	}
	b.records[p] = driven.BackendRecord{
		Connected:          w.AccountID != "",
		AccountID:          w.AccountID,
		DependentResources: append([]string(nil), w.DependentResources...),
		Settings:           settings,
		Enabled:            &enabled,
	}
	return nil
}

// StoreToken records a credential.
func (b *Backend) StoreToken(_ context.Context, p domain.ProviderID, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[p] = token
	return nil
}

// RevokeToken forgets a credential.
func (b *Backend) RevokeToken(_ context.Context, p domain.ProviderID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, p)
	return nil
}

// HasToken reports whether a credential is stored.
func (b *Backend) HasToken(p domain.ProviderID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.tokens[p]
	return ok
}

// CheckStatus reports a connection whenever a credential is stored.
func (b *Backend) CheckStatus(_ context.Context, p domain.ProviderID) (*driven.StatusReport, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if _, ok := b.tokens[p]; !ok {
		return &driven.StatusReport{}, nil
	}
	account := "local-" + string(p)
	if rec, ok := b.records[p]; ok && rec.AccountID != "" {
		account = rec.AccountID
	}
	return &driven.StatusReport{
		Connected: true,
		AccountID: account,
		User:      map[string]any{"id": account},
	}, nil
}

// ExchangeCode issues a local token for any code.
func (b *Backend) ExchangeCode(_ context.Context, _ domain.ProviderID, req driven.ExchangeRequest) (*domain.OAuthToken, error) {
	if req.Code == "" {
		return nil, domain.ErrExchangeFailed
	}
	return &domain.OAuthToken{AccessToken: "local-" + uuid.NewString(), TokenType: "Bearer"}, nil
}

// InvokeAction acknowledges any action with a fresh resource id.
func (b *Backend) InvokeAction(_ context.Context, p domain.ProviderID, action string, _ map[string]any) (*domain.ActionResult, error) {
	return &domain.ActionResult{
		OK:          true,
		ResourceIDs: []string{uuid.NewString()},
		Message:     string(p) + " " + action + " accepted",
	}, nil
}
