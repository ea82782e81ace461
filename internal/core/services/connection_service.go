package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

// Ensure ConnectionService implements the interface.
var _ driving.ConnectionService = (*ConnectionService)(nil)

// ConnectionPorts groups the driven ports used by the ConnectionService.
// Backend is required; the rest may be nil.
type ConnectionPorts struct {
	Backend    driven.Backend
	States     driven.OAuthStateStore
	Exchanger  driven.CodeExchanger
	Identities map[domain.ProviderID]driven.IdentityFetcher
	Verifiers  map[domain.ProviderID]driven.TokenVerifier
	Popups     driven.PopupOpener
	Navigator  driven.Navigator
}

// userEditableKeyDenylist lists keys owned by the authorization flows.
var userEditableKeyDenylist = map[string]bool{
	domain.SettingConnected:   true,
	domain.SettingAccountID:   true,
	domain.SettingTokenHint:   true,
	domain.SettingPermissions: true,
}

// ConnectionService is the Connection Orchestrator.
type ConnectionService struct {
	registry *ProviderRegistry
	store    *ConnectionStore
	syncer   *BackendSync
	tracker  *FlowTracker
	ports    ConnectionPorts

	mu       sync.RWMutex
	settings domain.AppSettings

	now func() time.Time
}

// NewConnectionService wires the orchestrator.
func NewConnectionService(
	registry *ProviderRegistry,
	ports ConnectionPorts,
	settings domain.AppSettings,
) *ConnectionService {
	return &ConnectionService{
		registry: registry,
		store:    NewConnectionStore(registry.IDs(), registry.Rules()),
		syncer:   NewBackendSync(ports.Backend),
		tracker:  NewFlowTracker(),
		ports:    ports,
		settings: settings,
		now:      time.Now,
	}
}

// Store exposes the Configuration Store.
func (s *ConnectionService) Store() *ConnectionStore {
	return s.store
}

// ApplyFlowSettings replaces the flow timings. Attempts already running
// keep the timings they started with.
func (s *ConnectionService) ApplyFlowSettings(flows domain.FlowSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Flows = flows
}

func (s *ConnectionService) currentSettings() domain.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *ConnectionService) provider(id domain.ProviderID) (*domain.Provider, error) {
	return s.registry.Get(id)
}

func (s *ConnectionService) availableProvider(id domain.ProviderID) (*domain.Provider, error) {
	p, err := s.provider(id)
	if err != nil {
		return nil, err
	}
	if !p.IsAvailable() {
		return nil, domain.NewFlowError(domain.KindNotAvailable, id, p.DisplayName+" is coming soon", nil)
	}
	return p, nil
}

// Hydrate loads every available provider from the backend concurrently.
// Each load is bounded by the hydration timeout. A failed load leaves a
// provider with session state untouched and any other provider
// disconnected; failures are only logged.
func (s *ConnectionService) Hydrate(ctx context.Context) error {
	if s.ports.Backend == nil {
		return domain.ErrNotImplemented
	}
	logger.Section("Hydration")

	timeout := s.currentSettings().Flows.HydrationTimeout
	since := s.store.Revision()

	var wg sync.WaitGroup
	for _, p := range s.registry.Available() {
		wg.Add(1)
		go func(p domain.Provider) {
			defer wg.Done()
			loadCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			state, err := s.syncer.Load(loadCtx, &p)
			if err != nil && s.store.Established(p.ID) {
				logger.Warn("%s: hydration failed, keeping session state: %v", p.ID, err)
				return
			}
			if err != nil {
				logger.Warn("%s: hydration failed, showing as disconnected: %v", p.ID, err)
			}
			changed := s.store.Hydrate(p.ID, state, since)
			logger.Debug("%s: hydrated (connected=%t, propagated=%v)", p.ID, state.IsConnected(), changed)
		}(p)
	}
	wg.Wait()

	for _, w := range s.persist(ctx) {
		logger.Warn("hydration: %s", w)
	}
	return nil
}

// List returns the current view of every provider.
func (s *ConnectionService) List() []driving.ProviderView {
	providers := s.registry.List()
	views := make([]driving.ProviderView, 0, len(providers))
	for _, p := range providers {
		views = append(views, s.view(p))
	}
	return views
}

// Get returns the current view of a provider.
func (s *ConnectionService) Get(id domain.ProviderID) (*driving.ProviderView, error) {
	p, err := s.provider(id)
	if err != nil {
		return nil, err
	}
	v := s.view(*p)
	return &v, nil
}

func (s *ConnectionService) view(p domain.Provider) driving.ProviderView {
	return driving.ProviderView{
		Provider: p,
		State:    s.store.Get(p.ID),
		Phase:    s.tracker.Phase(p.ID),
	}
}

// SetEnabled toggles a provider without touching its connection.
func (s *ConnectionService) SetEnabled(ctx context.Context, id domain.ProviderID, enabled bool) ([]string, error) {
	p, err := s.availableProvider(id)
	if err != nil {
		return nil, err
	}
	s.store.SetEnabled(p.ID, enabled)
	return s.persist(ctx, p.ID), nil
}

// UpdateSettings merges user-editable settings and persists them.
func (s *ConnectionService) UpdateSettings(
	ctx context.Context,
	id domain.ProviderID,
	partial domain.Settings,
) ([]string, error) {
	p, err := s.availableProvider(id)
	if err != nil {
		return nil, err
	}
	for k, v := range partial {
		if userEditableKeyDenylist[k] {
			return nil, domain.NewFlowError(domain.KindValidationFailed, id,
				fmt.Sprintf("%q is managed by the authorization flow", k), nil)
		}
		for _, secret := range secretSettingKeys {
			if k == secret {
				return nil, domain.NewFlowError(domain.KindValidationFailed, id,
					fmt.Sprintf("%q cannot be stored as a setting", k), nil)
			}
		}
		if str, ok := v.(string); ok && domain.IsMasked(str) {
			return nil, domain.NewFlowError(domain.KindValidationFailed, id,
				fmt.Sprintf("%q holds a masked value", k), nil)
		}
	}
	if _, err := s.store.Merge(p.ID, partial); err != nil {
		return nil, domain.NewFlowError(domain.KindValidationFailed, id, "invalid settings", err)
	}
	return s.persist(ctx, p.ID), nil
}

// Connect starts the provider's preferred flow.
func (s *ConnectionService) Connect(ctx context.Context, id domain.ProviderID, token string) (*domain.ConnectResult, error) {
	if s.ports.Backend == nil {
		return nil, domain.ErrNotImplemented
	}
	p, err := s.availableProvider(id)
	if err != nil {
		return nil, err
	}

	// A supplied token takes precedence on providers that also accept one.
	if strings.TrimSpace(token) != "" && p.Capabilities.SupportsToken() {
		return s.connectToken(ctx, p, token)
	}

	switch p.Flow() {
	case domain.FlowRedirect:
		return s.beginRedirect(ctx, p)
	case domain.FlowPopup:
		return s.connectPopup(ctx, p)
	case domain.FlowToken:
		return s.connectToken(ctx, p, token)
	default:
		msg := "provider has no authorization flow"
		if p.ConnectedVia != "" {
			msg = "connect " + string(p.ConnectedVia) + " instead"
		}
		return nil, domain.NewFlowError(domain.KindUnsupportedFlow, id, msg, nil)
	}
}

// isConnected reports whether p, or the provider it rides on, is connected.
func (s *ConnectionService) isConnected(p *domain.Provider) bool {
	if p.ConnectedVia != "" {
		return s.store.Get(p.ConnectedVia).IsConnected()
	}
	return s.store.Get(p.ID).IsConnected()
}

// completeConnection merges a verified identity and persists the provider
// and every provider propagation touched.
func (s *ConnectionService) completeConnection(
	ctx context.Context,
	p *domain.Provider,
	settings domain.Settings,
) (*domain.ConnectResult, error) {
	if _, err := s.store.Merge(p.ID, settings); err != nil {
		return nil, domain.NewFlowError(domain.KindIdentityFetchFailed, p.ID, "incomplete identity", err)
	}
	if p.EnabledTiedToConnection {
		s.store.SetEnabled(p.ID, true)
	}
	state := s.store.Get(p.ID)
	return &domain.ConnectResult{
		Provider:  p.ID,
		Phase:     domain.PhaseConnected,
		Connected: true,
		AccountID: state.AccountID(),
		Resources: state.Settings.Strings(domain.SettingResources),
		Warnings:  s.persist(ctx, p.ID),
	}, nil
}

// persist saves ids plus every provider marked dirty by propagation.
// Failures are logged and returned as warnings.
func (s *ConnectionService) persist(ctx context.Context, ids ...domain.ProviderID) []string {
	for _, id := range s.store.TakeDirty() {
		ids = appendUnique(ids, id)
	}
	var warnings []string
	for _, id := range ids {
		if err := s.syncer.Save(ctx, id, s.store.Get(id)); err != nil {
			if errors.Is(err, domain.ErrNotImplemented) {
				continue
			}
			logger.Warn("%s: save failed: %v", id, err)
			warnings = append(warnings, err.Error())
		}
	}
	return warnings
}

// fail ends attempt as failed and returns the flow error. An attempt that
// no longer owns the provider's slot leaves the slot alone.
func (s *ConnectionService) fail(
	id domain.ProviderID,
	attempt string,
	kind domain.ErrorKind,
	msg string,
	cause error,
) error {
	s.tracker.Finish(id, attempt, domain.PhaseFailed)
	return s.reject(id, kind, msg, cause)
}

// reject returns a flow error without touching any attempt.
func (s *ConnectionService) reject(id domain.ProviderID, kind domain.ErrorKind, msg string, cause error) error {
	err := domain.NewFlowError(kind, id, msg, cause)
	logger.Warn("%v", err)
	return err
}
