package driving

import "github.com/custodia-labs/sercha-connect/internal/core/domain"

// SettingsService manages the configuration-file settings.
type SettingsService interface {
	// Get reads the current settings with defaults applied.
	Get() (*domain.AppSettings, error)

	// SetBackendURL points the orchestrator at a backend.
	SetBackendURL(url string) error

	// SetUserID sets the session user embedded in popup state.
	SetUserID(userID string) error

	// SetProviderApp configures the OAuth application of a provider.
	// An empty secret leaves code exchange to the backend.
	SetProviderApp(id domain.ProviderID, clientID, clientSecret string) error

	// Validate checks that the settings are usable.
	Validate() error
}
