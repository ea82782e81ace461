package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

// connectToken connects a provider from a manually entered API token.
//
// The raw token is verified, uploaded once and dropped; only its masked
// form reaches the Configuration Store.
func (s *ConnectionService) connectToken(ctx context.Context, p *domain.Provider, token string) (*domain.ConnectResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.NewFlowError(domain.KindValidationFailed, p.ID, "an API token is required", nil)
	}
	if domain.IsMasked(token) {
		return nil, domain.NewFlowError(domain.KindValidationFailed, p.ID, "the masked token cannot be submitted", nil)
	}

	// Verification and upload end only through Finish; a slow provider must
	// not let a second attempt in.
	attempt := uuid.NewString()
	if err := s.tracker.Begin(p.ID, attempt, domain.PhaseVerifying, time.Time{}); err != nil {
		return nil, err
	}

	var identity *domain.Identity
	if verifier := s.ports.Verifiers[p.ID]; verifier != nil {
		verified, err := verifier.VerifyToken(ctx, token)
		if err != nil {
			return nil, s.fail(p.ID, attempt, domain.KindValidationFailed, "token was rejected by "+p.DisplayName, err)
		}
		identity = verified
	}

	if err := s.ports.Backend.StoreToken(ctx, p.ID, token); err != nil {
		return nil, s.fail(p.ID, attempt, domain.KindPersistenceUnavailable, "store credential", err)
	}

	if identity == nil || identity.AccountID == "" {
		fromStatus, err := s.identityFromStatus(ctx, p)
		if err != nil {
			return nil, s.fail(p.ID, attempt, domain.KindIdentityFetchFailed, "resolve account through status check", err)
		}
		identity = fromStatus
	}

	settings := identity.Settings()
	settings[domain.SettingTokenHint] = domain.MaskSecret(token)

	result, err := s.completeConnection(ctx, p, settings)
	if err != nil {
		s.tracker.Finish(p.ID, attempt, domain.PhaseFailed)
		return nil, err
	}
	s.tracker.Finish(p.ID, attempt, domain.PhaseConnected)
	logger.Info("%s: connected with token %s", p.ID, settings.String(domain.SettingTokenHint))
	return result, nil
}
