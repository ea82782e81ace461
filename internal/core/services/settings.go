package services

import (
	"fmt"
	"net/url"
	"time"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyBackendURL        = "backend.url"
	keyBackendTimeout    = "backend.timeout"
	keyBackendRateLimit  = "backend.rate_limit"
	keySessionUserID     = "session.user_id"
	keyPopupPollInterval = "flows.popup_poll_interval"
	keyPopupTimeout      = "flows.popup_timeout"
	keyPopupGracePeriod  = "flows.popup_grace_period"
	keyStateTTL          = "flows.state_ttl"
	keyHydrationTimeout  = "flows.hydration_timeout"
	keyServerAddr        = "server.addr"
	keyServerPublicURL   = "server.public_url"
	keyStateStore        = "state.store"
)

// providerKey returns the config key of a per-provider value.
func providerKey(id domain.ProviderID, field string) string {
	return "providers." + string(id) + "." + field
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	registry    *ProviderRegistry
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, registry *ProviderRegistry) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		registry:    registry,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Backend: domain.BackendSettings{
			URL:       s.getString(keyBackendURL, defaults.Backend.URL),
			Timeout:   s.getDuration(keyBackendTimeout, defaults.Backend.Timeout),
			RateLimit: s.getFloat(keyBackendRateLimit, defaults.Backend.RateLimit),
		},
		Session: domain.SessionSettings{
			UserID: s.configStore.GetString(keySessionUserID),
		},
		Flows: domain.FlowSettings{
			PopupPollInterval: s.getDuration(keyPopupPollInterval, defaults.Flows.PopupPollInterval),
			PopupTimeout:      s.getDuration(keyPopupTimeout, defaults.Flows.PopupTimeout),
			PopupGracePeriod:  s.getDuration(keyPopupGracePeriod, defaults.Flows.PopupGracePeriod),
			StateTTL:          s.getDuration(keyStateTTL, defaults.Flows.StateTTL),
			HydrationTimeout:  s.getDuration(keyHydrationTimeout, defaults.Flows.HydrationTimeout),
		},
		Server: domain.ServerSettings{
			Addr:      s.getString(keyServerAddr, defaults.Server.Addr),
			PublicURL: s.configStore.GetString(keyServerPublicURL), // No default - derived from Addr
		},
		StateKind: s.getStateKind(defaults.StateKind),
		Providers: make(map[domain.ProviderID]domain.ProviderSettings),
	}

	for _, id := range s.registry.IDs() {
		ps := domain.ProviderSettings{
			ClientID:     s.configStore.GetString(providerKey(id, "client_id")),
			ClientSecret: s.configStore.GetString(providerKey(id, "client_secret")),
			Scopes:       s.configStore.GetStringSlice(providerKey(id, "scopes")),
			AuthURL:      s.configStore.GetString(providerKey(id, "auth_url")),
			TokenURL:     s.configStore.GetString(providerKey(id, "token_url")),
		}
		if ps.ClientID != "" || ps.ClientSecret != "" || ps.AuthURL != "" || ps.TokenURL != "" || len(ps.Scopes) > 0 {
			settings.Providers[id] = ps
		}
	}

	return settings, nil
}

// SetBackendURL points the orchestrator at a backend.
func (s *SettingsService) SetBackendURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: backend url %q", domain.ErrInvalidInput, raw)
	}
	if err := s.configStore.Set(keyBackendURL, raw); err != nil {
		return fmt.Errorf("save backend url: %w", err)
	}
	return nil
}

// SetUserID sets the session user embedded in popup state.
func (s *SettingsService) SetUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(keySessionUserID, userID); err != nil {
		return fmt.Errorf("save user id: %w", err)
	}
	return nil
}

// SetProviderApp configures the OAuth application of a provider.
func (s *SettingsService) SetProviderApp(id domain.ProviderID, clientID, clientSecret string) error {
	p, err := s.registry.Get(id)
	if err != nil {
		return err
	}
	if !p.Capabilities.SupportsRedirect() && !p.Capabilities.SupportsPopup() {
		return domain.NewFlowError(domain.KindUnsupportedFlow, id, "provider does not use OAuth", nil)
	}
	if clientID == "" {
		return fmt.Errorf("%w: client id required for %s", domain.ErrInvalidInput, id)
	}
	if err := s.configStore.Set(providerKey(id, "client_id"), clientID); err != nil {
		return fmt.Errorf("save client id: %w", err)
	}
	if clientSecret != "" {
		if err := s.configStore.Set(providerKey(id, "client_secret"), clientSecret); err != nil {
			return fmt.Errorf("save client secret: %w", err)
		}
	}
	return nil
}

// Validate checks if current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if _, err := url.Parse(settings.Backend.URL); err != nil || settings.Backend.URL == "" {
		return fmt.Errorf("invalid backend url: %q", settings.Backend.URL)
	}
	if !settings.StateKind.IsValid() {
		return fmt.Errorf("invalid state store: %s", settings.StateKind)
	}
	if settings.Flows.PopupPollInterval >= settings.Flows.PopupTimeout {
		return fmt.Errorf("popup poll interval %s must be shorter than the popup timeout %s",
			settings.Flows.PopupPollInterval, settings.Flows.PopupTimeout)
	}

	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getStateKind(defaultVal domain.StateStoreKind) domain.StateStoreKind {
	val := s.configStore.GetString(keyStateStore)
	if val == "" {
		return defaultVal
	}
	kind := domain.StateStoreKind(val)
	if !kind.IsValid() {
		return defaultVal
	}
	return kind
}
