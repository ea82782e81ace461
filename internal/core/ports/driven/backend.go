package driven

import (
	"context"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
)

// BackendRecord is the persisted integration record returned by the backend.
type BackendRecord struct {
	Connected          bool           `json:"connected"`
	AccountID          string         `json:"accountId,omitempty"`
	DependentResources []string       `json:"dependentResources,omitempty"`
	Settings           map[string]any `json:"settings,omitempty"`
	Enabled            *bool          `json:"enabled,omitempty"`
}

// BackendWrite is the body written to the backend on save.
type BackendWrite struct {
	AccountID          string         `json:"accountId"`
	DependentResources []string       `json:"dependentResources"`
	Permissions        []string       `json:"permissions"`
	Settings           map[string]any `json:"settings"`
	Enabled            bool           `json:"enabled"`
}

// StatusReport is the lightweight connectivity answer of the status endpoint.
type StatusReport struct {
	Connected bool
	// AccountID is extracted from the reported user object when present.
	AccountID string
	// Username is extracted from the reported user object when present.
	Username string
	// User is the raw user object as reported.
	User map[string]any
}

// Backend is the host application's per-user integration store.
//
// Every method is scoped to a provider. Implementations authenticate on
// behalf of the current session user.
type Backend interface {
	// Load fetches the stored record for a provider.
	// Returns domain.ErrNotFound when no record exists.
	Load(ctx context.Context, provider domain.ProviderID) (*BackendRecord, error)

	// Save writes the record for a provider. Writes are idempotent.
	Save(ctx context.Context, provider domain.ProviderID, record BackendWrite) error

	// StoreToken uploads a raw credential. Called once at capture.
	StoreToken(ctx context.Context, provider domain.ProviderID, token string) error

	// RevokeToken removes the stored credential.
	RevokeToken(ctx context.Context, provider domain.ProviderID) error

	// CheckStatus asks whether the backend holds a working connection.
	CheckStatus(ctx context.Context, provider domain.ProviderID) (*StatusReport, error)

	// ExchangeCode trades an authorization code for a token server-side.
	ExchangeCode(ctx context.Context, provider domain.ProviderID, req ExchangeRequest) (*domain.OAuthToken, error)

	// InvokeAction runs a named provider action with the given payload.
	InvokeAction(ctx context.Context, provider domain.ProviderID, action string,
		payload map[string]any) (*domain.ActionResult, error)
}
