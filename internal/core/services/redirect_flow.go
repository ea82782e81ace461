package services

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

// beginRedirect runs Idle -> AwaitingRedirect -> AwaitingCallback.
// The attempt lives in the state store until the callback or its TTL.
func (s *ConnectionService) beginRedirect(ctx context.Context, p *domain.Provider) (*domain.ConnectResult, error) {
	if s.ports.States == nil || s.ports.Exchanger == nil {
		return nil, domain.ErrNotImplemented
	}
	cfg := s.currentSettings()
	now := s.now()

	attemptID := uuid.NewString()
	if err := s.tracker.Begin(p.ID, attemptID, domain.PhaseAwaitingRedirect, now.Add(cfg.Flows.StateTTL)); err != nil {
		return nil, err
	}

	state, verifier, err := newRedirectSecrets()
	if err != nil {
		return nil, s.fail(p.ID, attemptID, domain.KindExchangeFailed, "generate authorization state", err)
	}

	attempt := &domain.OAuthAttempt{
		ID:           attemptID,
		Provider:     p.ID,
		Flow:         domain.FlowRedirect,
		CSRFToken:    state,
		CodeVerifier: verifier,
		RedirectURI:  cfg.Server.RedirectURI(p.ID),
		StartedAt:    now,
		ExpiresAt:    now.Add(cfg.Flows.StateTTL),
	}
	if err := s.ports.States.Save(ctx, attempt); err != nil {
		return nil, s.fail(p.ID, attemptID, domain.KindPersistenceUnavailable, "store authorization state", err)
	}

	authURL, err := s.ports.Exchanger.AuthCodeURL(p, attempt, codeChallenge(verifier))
	if err != nil {
		_, _ = s.ports.States.Take(ctx, p.ID)
		return nil, s.fail(p.ID, attemptID, domain.KindExchangeFailed, "build authorization URL", err)
	}

	if s.ports.Navigator != nil {
		if err := s.ports.Navigator.Navigate(ctx, authURL); err != nil {
			// The URL is still returned; the user can open it by hand.
			logger.Warn("%s: navigation failed: %v", p.ID, err)
		}
	}

	// A fast callback may already have claimed the attempt.
	s.tracker.Transition(p.ID, attemptID, domain.PhaseAwaitingRedirect, domain.PhaseAwaitingCallback)
	return &domain.ConnectResult{
		Provider: p.ID,
		Phase:    domain.PhaseAwaitingCallback,
		AuthURL:  authURL,
	}, nil
}

// CompleteRedirect handles the authorization callback:
// AwaitingCallback -> Exchanging -> Connected | Failed.
//
// The stored state is consumed before comparison, so it is single-use
// whatever the outcome. Nothing is merged unless every step succeeds.
func (s *ConnectionService) CompleteRedirect(
	ctx context.Context,
	id domain.ProviderID,
	code, state string,
) (*domain.ConnectResult, error) {
	if s.ports.Backend == nil || s.ports.States == nil || s.ports.Exchanger == nil {
		return nil, domain.ErrNotImplemented
	}
	p, err := s.availableProvider(id)
	if err != nil {
		return nil, err
	}

	attempt, err := s.ports.States.Take(ctx, p.ID)
	if err != nil {
		return nil, s.reject(p.ID, domain.KindPersistenceUnavailable, "read authorization state", err)
	}
	if attempt == nil {
		// Nothing pending: the state was redeemed already or never issued.
		// Whatever attempt holds the provider is not this callback's.
		return nil, s.reject(p.ID, domain.KindCSRFMismatch, "state does not match the pending authorization", nil)
	}
	if state == "" || subtle.ConstantTimeCompare([]byte(attempt.CSRFToken), []byte(state)) != 1 {
		// The stored state is consumed either way, so its attempt is over.
		return nil, s.fail(p.ID, attempt.ID, domain.KindCSRFMismatch, "state does not match the pending authorization", nil)
	}
	if code == "" {
		return nil, s.fail(p.ID, attempt.ID, domain.KindExchangeFailed, "callback carried no authorization code", nil)
	}

	if err := s.tracker.Claim(p.ID, attempt.ID, domain.PhaseExchanging,
		domain.PhaseAwaitingRedirect, domain.PhaseAwaitingCallback); err != nil {
		logger.Warn("%v", err)
		return nil, err
	}

	token, err := s.ports.Exchanger.Exchange(ctx, p, driven.ExchangeRequest{
		Code:         code,
		RedirectURI:  attempt.RedirectURI,
		CodeVerifier: attempt.CodeVerifier,
	})
	if err != nil {
		return nil, s.fail(p.ID, attempt.ID, domain.KindExchangeFailed, "exchange authorization code", err)
	}
	if token == nil || token.AccessToken == "" {
		return nil, s.fail(p.ID, attempt.ID, domain.KindExchangeFailed, "provider returned no access token", nil)
	}

	var identity *domain.Identity
	if fetcher := s.ports.Identities[p.ID]; fetcher != nil {
		identity, err = fetchIdentity(ctx, fetcher, token)
		if err != nil {
			return nil, s.fail(p.ID, attempt.ID, domain.KindIdentityFetchFailed, "fetch account identity", err)
		}
	}

	if err := s.ports.Backend.StoreToken(ctx, p.ID, token.AccessToken); err != nil {
		return nil, s.fail(p.ID, attempt.ID, domain.KindPersistenceUnavailable, "store credential", err)
	}

	if identity == nil {
		identity, err = s.identityFromStatus(ctx, p)
		if err != nil {
			return nil, s.fail(p.ID, attempt.ID, domain.KindIdentityFetchFailed, "resolve account through status check", err)
		}
	}

	settings := identity.Settings()
	settings[domain.SettingTokenHint] = domain.MaskSecret(token.AccessToken)
	if perms := token.Permissions(); len(perms) > 0 {
		settings[domain.SettingPermissions] = perms
	}

	result, err := s.completeConnection(ctx, p, settings)
	if err != nil {
		s.tracker.Finish(p.ID, attempt.ID, domain.PhaseFailed)
		return nil, err
	}
	s.tracker.Finish(p.ID, attempt.ID, domain.PhaseConnected)
	logger.Info("%s: connected as %s", p.ID, result.AccountID)
	return result, nil
}

// fetchIdentity resolves the account behind a fresh token.
func fetchIdentity(
	ctx context.Context,
	fetcher driven.IdentityFetcher,
	token *domain.OAuthToken,
) (*domain.Identity, error) {
	identity, err := fetcher.FetchIdentity(ctx, token)
	if err != nil {
		return nil, err
	}
	if identity == nil || identity.AccountID == "" {
		return nil, fmt.Errorf("%w: no account identifier", domain.ErrIdentityFetchFailed)
	}
	return identity, nil
}

// identityFromStatus resolves the account of a provider without a
// registered fetcher. The credential must already be stored.
func (s *ConnectionService) identityFromStatus(ctx context.Context, p *domain.Provider) (*domain.Identity, error) {
	status, err := s.ports.Backend.CheckStatus(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if status == nil || !status.Connected || status.AccountID == "" {
		return nil, fmt.Errorf("%w: backend reports no account", domain.ErrIdentityFetchFailed)
	}
	return &domain.Identity{AccountID: status.AccountID, Username: status.Username}, nil
}
