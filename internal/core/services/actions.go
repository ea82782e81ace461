package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

// Disconnect clears a provider's connection.
//
// Local state is cleared first and always; feature toggles survive so a
// reconnect restores them. The remote revoke and save are best-effort and
// their failures come back as warnings.
func (s *ConnectionService) Disconnect(ctx context.Context, id domain.ProviderID) (*driving.DisconnectResult, error) {
	p, err := s.provider(id)
	if err != nil {
		return nil, err
	}
	switch phase := s.tracker.Phase(p.ID); phase {
	case domain.PhaseAwaitingRedirect, domain.PhaseAwaitingCallback:
		// A pending redirect is abandoned; its state must not be redeemable.
		if s.ports.States != nil {
			if _, err := s.ports.States.Take(ctx, p.ID); err != nil {
				logger.Warn("%s: discard authorization state: %v", p.ID, err)
			}
		}
	default:
		if phase.IsInFlight() {
			return nil, domain.NewFlowError(domain.KindFlowInProgress, p.ID,
				"cannot disconnect while an authorization attempt is "+string(phase), nil)
		}
	}

	s.store.Clear(p.ID, p.ClearedOnDisconnect())
	if p.EnabledTiedToConnection {
		s.store.SetEnabled(p.ID, false)
	}
	s.tracker.Reset(p.ID)

	result := &driving.DisconnectResult{Provider: p.ID}
	if s.ports.Backend != nil && p.Capabilities.RequiresAuth() {
		if err := s.ports.Backend.RevokeToken(ctx, p.ID); err != nil {
			logger.Warn("%s: remote revoke failed, local state cleared: %v", p.ID, err)
			result.Warnings = append(result.Warnings,
				domain.NewFlowError(domain.KindPersistenceUnavailable, p.ID, "revoke credential", err).Error())
		}
	}
	result.Warnings = append(result.Warnings, s.persist(ctx, p.ID)...)
	logger.Info("%s: disconnected", p.ID)
	return result, nil
}

// InvokeAction runs a provider action after checking that the provider is
// connected and every required setting is present. Required settings may
// be overridden by same-named payload fields.
func (s *ConnectionService) InvokeAction(
	ctx context.Context,
	id domain.ProviderID,
	action string,
	payload map[string]any,
) (*domain.ActionResult, error) {
	if s.ports.Backend == nil {
		return nil, domain.ErrNotImplemented
	}
	p, err := s.availableProvider(id)
	if err != nil {
		return nil, err
	}
	spec, ok := p.Action(action)
	if !ok {
		return nil, domain.NewFlowError(domain.KindValidationFailed, id,
			fmt.Sprintf("unknown action %q", action), domain.ErrNotFound)
	}
	if !s.isConnected(p) {
		return nil, domain.NewFlowError(domain.KindValidationFailed, id, "provider is not connected", domain.ErrNotConnected)
	}

	settings := s.store.Get(p.ID).Settings
	body := make(map[string]any, len(payload)+len(spec.RequiredSettings))
	for k, v := range payload {
		body[k] = v
	}

	var missing []string
	for _, key := range spec.RequiredSettings {
		if !domain.IsEmptyValue(body[key]) {
			continue
		}
		if settings.IsEmpty(key) {
			missing = append(missing, key)
			continue
		}
		body[key] = settings[key]
	}
	for _, key := range spec.RequiredPayload {
		if domain.IsEmptyValue(body[key]) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, domain.NewFlowError(domain.KindValidationFailed, id,
			"missing required fields: "+strings.Join(missing, ", "), nil)
	}

	logger.Debug("%s: invoking %s", id, action)
	result, err := s.ports.Backend.InvokeAction(ctx, p.ID, action, body)
	if err != nil {
		return nil, domain.NewFlowError(domain.KindPersistenceUnavailable, id, "action "+action+" failed", err)
	}
	if result == nil {
		result = &domain.ActionResult{OK: true}
	}
	return result, nil
}
