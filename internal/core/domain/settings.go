package domain

import (
	"strings"
	"time"
)

// Default flow timings.
const (
	DefaultPopupPollInterval = time.Second
	DefaultPopupTimeout      = 5 * time.Minute
	DefaultPopupGracePeriod  = 2 * time.Second
	DefaultStateTTL          = 10 * time.Minute
	DefaultHydrationTimeout  = 10 * time.Second
	DefaultBackendTimeout    = 15 * time.Second
	DefaultBackendRateLimit  = 10.0
	DefaultServerAddr        = "127.0.0.1:8765"
)

// StateStoreKind selects where OAuth state tokens are kept.
type StateStoreKind string

// State store kinds.
const (
	StateStoreMemory StateStoreKind = "memory"
	StateStoreSQLite StateStoreKind = "sqlite"
)

// IsValid returns true if the state store kind is recognised.
func (k StateStoreKind) IsValid() bool {
	return k == StateStoreMemory || k == StateStoreSQLite
}

// AppSettings holds the configuration-file values consumed by the orchestrator.
type AppSettings struct {
	Backend   BackendSettings
	Session   SessionSettings
	Flows     FlowSettings
	Server    ServerSettings
	StateKind StateStoreKind
	Providers map[ProviderID]ProviderSettings
}

// BackendSettings configures the persistence service client.
type BackendSettings struct {
	// URL is the base URL of the persistence service.
	URL string
	// Timeout bounds each backend request.
	Timeout time.Duration
	// RateLimit is the maximum number of backend requests per second.
	RateLimit float64
}

// SessionSettings identifies the host application user.
type SessionSettings struct {
	// UserID is embedded in popup state so the backend can bind tokens.
	UserID string
}

// FlowSettings configures the authorization flows.
type FlowSettings struct {
	PopupPollInterval time.Duration
	PopupTimeout      time.Duration
	PopupGracePeriod  time.Duration
	StateTTL          time.Duration
	HydrationTimeout  time.Duration
}

// ServerSettings configures the dashboard HTTP API.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string
	// PublicURL is the externally visible base URL used in redirect URIs.
	PublicURL string
}

// ProviderSettings holds per-provider OAuth app overrides.
type ProviderSettings struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	AuthURL      string
	TokenURL     string
}

// DefaultFlowSettings returns the default flow timings.
func DefaultFlowSettings() FlowSettings {
	return FlowSettings{
		PopupPollInterval: DefaultPopupPollInterval,
		PopupTimeout:      DefaultPopupTimeout,
		PopupGracePeriod:  DefaultPopupGracePeriod,
		StateTTL:          DefaultStateTTL,
		HydrationTimeout:  DefaultHydrationTimeout,
	}
}

// DefaultAppSettings returns settings with every default applied.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Backend: BackendSettings{
			URL:       "http://localhost:8080",
			Timeout:   DefaultBackendTimeout,
			RateLimit: DefaultBackendRateLimit,
		},
		Flows:     DefaultFlowSettings(),
		Server:    ServerSettings{Addr: DefaultServerAddr},
		StateKind: StateStoreMemory,
		Providers: map[ProviderID]ProviderSettings{},
	}
}

// RedirectURI returns the OAuth callback URL for a provider.
func (s ServerSettings) RedirectURI(provider ProviderID) string {
	base := s.PublicURL
	if base == "" {
		base = "http://" + s.Addr
	}
	return strings.TrimRight(base, "/") + "/oauth/callback/" + string(provider)
}

// CallbackURI returns the backend endpoint that receives popup
// authorization callbacks for a provider.
func (s BackendSettings) CallbackURI(provider ProviderID) string {
	return strings.TrimRight(s.URL, "/") + "/api/integrations/" + string(provider) + "/callback"
}
