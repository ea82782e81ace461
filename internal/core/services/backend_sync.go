package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

// secretSettingKeys are never accepted from, or sent to, the backend in
// the settings bag. Raw credentials only travel through StoreToken.
var secretSettingKeys = []string{"token", "accessToken", "refreshToken", "apiKey", "clientSecret"}

// BackendSync is the Backend Sync Adapter: it maps between backend records
// and connection states.
type BackendSync struct {
	backend driven.Backend
}

// NewBackendSync creates a sync adapter over a backend.
func NewBackendSync(backend driven.Backend) *BackendSync {
	return &BackendSync{backend: backend}
}

// Load reads a provider's state.
//
// The returned state is always usable: on failure it is the disconnected
// default, and the error only describes what went wrong. Transport failures
// fall back to the status check when the provider declares one.
func (b *BackendSync) Load(ctx context.Context, p *domain.Provider) (domain.ConnectionState, error) {
	if b.backend == nil {
		return domain.NewConnectionState(), domain.ErrNotImplemented
	}

	record, err := b.backend.Load(ctx, p.ID)
	if err == nil {
		return stateFromRecord(p.ID, record), nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewConnectionState(), nil
	}

	loadErr := domain.NewFlowError(domain.KindPersistenceUnavailable, p.ID, "load integration", err)
	if !p.Capabilities.HasStatusCheck() {
		return domain.NewConnectionState(), loadErr
	}

	logger.Debug("%s: load failed, falling back to status check: %v", p.ID, err)
	status, statusErr := b.backend.CheckStatus(ctx, p.ID)
	if statusErr != nil {
		return domain.NewConnectionState(), errors.Join(loadErr,
			fmt.Errorf("status check: %w", statusErr))
	}
	return stateFromStatus(status), nil
}

// Status reports whether the backend holds a working connection.
func (b *BackendSync) Status(ctx context.Context, p *domain.Provider) (domain.ConnectionState, error) {
	if b.backend == nil {
		return domain.NewConnectionState(), domain.ErrNotImplemented
	}
	status, err := b.backend.CheckStatus(ctx, p.ID)
	if err != nil {
		return domain.NewConnectionState(), domain.NewFlowError(domain.KindPersistenceUnavailable, p.ID, "status check", err)
	}
	return stateFromStatus(status), nil
}

// Save writes a provider's state. Sending the same state twice yields the
// same record.
func (b *BackendSync) Save(ctx context.Context, id domain.ProviderID, state domain.ConnectionState) error {
	if b.backend == nil {
		return domain.ErrNotImplemented
	}
	if err := b.backend.Save(ctx, id, writeFromState(state)); err != nil {
		return domain.NewFlowError(domain.KindPersistenceUnavailable, id, "save integration", err)
	}
	return nil
}

func stateFromRecord(id domain.ProviderID, record *driven.BackendRecord) domain.ConnectionState {
	state := domain.NewConnectionState()
	if record == nil {
		return state
	}
	for k, v := range record.Settings {
		state.Settings[k] = v
	}
	stripSecrets(state.Settings)

	if record.AccountID != "" {
		state.Settings[domain.SettingAccountID] = record.AccountID
	}
	if len(record.DependentResources) > 0 {
		resources := make([]string, len(record.DependentResources))
		copy(resources, record.DependentResources)
		state.Settings[domain.SettingResources] = resources
		if state.Settings.IsEmpty(domain.SettingDefaultResource) {
			state.Settings[domain.SettingDefaultResource] = resources[0]
		}
	}
	state.Settings[domain.SettingConnected] = record.Connected
	if record.Connected && state.AccountID() == "" {
		logger.Warn("%s: backend reports connected without account id; treating as disconnected", id)
		state.Settings[domain.SettingConnected] = false
	}

	if record.Enabled != nil {
		state.Enabled = *record.Enabled
	} else {
		state.Enabled = state.IsConnected()
	}
	return state
}

func stateFromStatus(status *driven.StatusReport) domain.ConnectionState {
	state := domain.NewConnectionState()
	if status == nil || !status.Connected || status.AccountID == "" {
		return state
	}
	identity := domain.Identity{AccountID: status.AccountID, Username: status.Username}
	for k, v := range identity.Settings() {
		state.Settings[k] = v
	}
	state.Enabled = true
	return state
}

func writeFromState(state domain.ConnectionState) driven.BackendWrite {
	settings := state.Settings.Clone()
	stripSecrets(settings)

	resources := settings.Strings(domain.SettingResources)
	if resources == nil {
		resources = []string{}
	}
	permissions := settings.Strings(domain.SettingPermissions)
	if permissions == nil {
		permissions = []string{}
	}
	return driven.BackendWrite{
		AccountID:          state.AccountID(),
		DependentResources: resources,
		Permissions:        permissions,
		Settings:           settings,
		Enabled:            state.Enabled,
	}
}

func stripSecrets(settings domain.Settings) {
	for _, k := range secretSettingKeys {
		delete(settings, k)
	}
}
