package driving

import (
	"context"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
)

// ProviderView is what a panel renders for one provider.
type ProviderView struct {
	Provider domain.Provider        `json:"provider"`
	State    domain.ConnectionState `json:"state"`
	Phase    domain.FlowPhase       `json:"phase"`
}

// DisconnectResult reports the outcome of a disconnect.
type DisconnectResult struct {
	Provider domain.ProviderID `json:"provider"`
	// Warnings lists best-effort remote steps that failed. Local state is
	// cleared regardless.
	Warnings []string `json:"warnings,omitempty"`
}

// ConnectionService is the Connection Orchestrator as seen by panels.
type ConnectionService interface {
	// Hydrate loads every available provider from the backend concurrently.
	// Individual failures fall back to the disconnected default.
	Hydrate(ctx context.Context) error

	// List returns the current view of every provider.
	List() []ProviderView

	// Get returns the current view of a provider.
	Get(id domain.ProviderID) (*ProviderView, error)

	// SetEnabled toggles a provider without touching its connection.
	// Returned warnings describe persistence failures.
	SetEnabled(ctx context.Context, id domain.ProviderID, enabled bool) ([]string, error)

	// UpdateSettings merges user-editable settings and persists them.
	UpdateSettings(ctx context.Context, id domain.ProviderID, partial domain.Settings) ([]string, error)

	// Connect starts the provider's preferred flow. Redirect providers
	// return the authorize URL and finish in CompleteRedirect. Popup
	// providers block until the popup resolves. Token providers require
	// the token argument.
	Connect(ctx context.Context, id domain.ProviderID, token string) (*domain.ConnectResult, error)

	// CompleteRedirect handles the authorization callback.
	CompleteRedirect(ctx context.Context, id domain.ProviderID, code, state string) (*domain.ConnectResult, error)

	// CancelPopup closes a pending popup. The attempt ends as abandoned.
	CancelPopup(id domain.ProviderID) error

	// Disconnect clears the connection locally and remotely.
	Disconnect(ctx context.Context, id domain.ProviderID) (*DisconnectResult, error)

	// InvokeAction runs a provider action such as creating a board.
	InvokeAction(ctx context.Context, id domain.ProviderID, action string,
		payload map[string]any) (*domain.ActionResult, error)
}
