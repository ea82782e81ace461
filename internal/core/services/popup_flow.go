package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

// popupOutcome is why polling stopped.
type popupOutcome int

const (
	popupClosed popupOutcome = iota
	popupCancelled
	popupTimedOut
	popupContextDone
)

// connectPopup runs Idle -> PopupOpen -> PollingCompletion ->
// Connected | AssumedComplete | TimedOut.
//
// The popup gives no success signal. Once it closes the backend is asked
// whether the provider is connected now; a negative answer is re-checked
// once after the grace period and then treated as abandonment.
func (s *ConnectionService) connectPopup(ctx context.Context, p *domain.Provider) (*domain.ConnectResult, error) {
	if s.ports.Popups == nil || s.ports.Exchanger == nil {
		return nil, domain.ErrNotImplemented
	}
	cfg := s.currentSettings()
	flows := cfg.Flows
	now := s.now()

	attemptID := uuid.NewString()
	deadline := now.Add(flows.PopupTimeout + flows.PopupGracePeriod + time.Minute)
	if err := s.tracker.Begin(p.ID, attemptID, domain.PhasePopupOpen, deadline); err != nil {
		return nil, err
	}

	if cfg.Session.UserID == "" {
		return nil, s.fail(p.ID, attemptID, domain.KindValidationFailed, "session user id is not configured", nil)
	}
	state, err := newPopupState(cfg.Session.UserID)
	if err != nil {
		return nil, s.fail(p.ID, attemptID, domain.KindExchangeFailed, "generate state", err)
	}
	attempt := &domain.OAuthAttempt{
		ID:          attemptID,
		Provider:    p.ID,
		Flow:        domain.FlowPopup,
		CSRFToken:   state,
		RedirectURI: cfg.Backend.CallbackURI(p.ID),
		StartedAt:   now,
		ExpiresAt:   now.Add(flows.PopupTimeout),
	}
	authURL, err := s.ports.Exchanger.AuthCodeURL(p, attempt, "")
	if err != nil {
		return nil, s.fail(p.ID, attemptID, domain.KindExchangeFailed, "build authorization URL", err)
	}

	window, err := s.ports.Popups.Open(ctx, authURL, p.PopupWidth, p.PopupHeight)
	if err != nil {
		return nil, s.fail(p.ID, attemptID, domain.KindExchangeFailed, "open authorization popup", err)
	}
	closeWindow := sync.OnceFunc(func() { closePopup(p.ID, window) })
	defer closeWindow()

	cancelled := make(chan struct{})
	s.tracker.SetCancel(p.ID, attemptID, func() { close(cancelled) })
	s.tracker.Transition(p.ID, attemptID, domain.PhasePopupOpen, domain.PhasePollingCompletion)

	outcome := pollPopup(ctx, window, cancelled, flows.PopupPollInterval, flows.PopupTimeout)
	switch outcome {
	case popupTimedOut:
		closeWindow()
		s.tracker.Finish(p.ID, attemptID, domain.PhaseTimedOut)
		err := domain.NewFlowError(domain.KindTimeout, p.ID, "authorization window timed out", nil)
		logger.Warn("%v", err)
		return &domain.ConnectResult{Provider: p.ID, Phase: domain.PhaseTimedOut}, err
	case popupContextDone:
		closeWindow()
		s.tracker.Release(p.ID, attemptID)
		return nil, ctx.Err()
	case popupCancelled:
		closeWindow()
		logger.Debug("%s: popup cancelled by caller", p.ID)
	case popupClosed:
		closeWindow()
		logger.Debug("%s: popup closed", p.ID)
	}

	reconciled, connected := s.reconcile(ctx, p, flows.PopupGracePeriod)
	if !connected {
		s.tracker.Finish(p.ID, attemptID, domain.PhaseAssumedComplete)
		logger.Info("%s: popup closed without a connection; treating as abandoned", p.ID)
		return &domain.ConnectResult{
			Provider:  p.ID,
			Phase:     domain.PhaseAssumedComplete,
			Abandoned: true,
		}, nil
	}

	result, err := s.completeConnection(ctx, p, connectedSettings(reconciled))
	if err != nil {
		s.tracker.Finish(p.ID, attemptID, domain.PhaseFailed)
		return nil, err
	}
	s.tracker.Finish(p.ID, attemptID, domain.PhaseConnected)
	logger.Info("%s: connected as %s", p.ID, result.AccountID)
	return result, nil
}

// CancelPopup closes a pending popup. The attempt then reconciles exactly
// as if the user had closed the window.
func (s *ConnectionService) CancelPopup(id domain.ProviderID) error {
	if _, err := s.provider(id); err != nil {
		return err
	}
	if !s.tracker.Cancel(id) {
		return domain.NewFlowError(domain.KindValidationFailed, id, "no popup is pending", domain.ErrNotFound)
	}
	return nil
}

// pollPopup waits for the window to close, the caller to cancel, the
// context to end or the timeout. The ticker and timer are owned here and
// stopped on every return.
func pollPopup(
	ctx context.Context,
	window driven.PopupWindow,
	cancelled <-chan struct{},
	interval, timeout time.Duration,
) popupOutcome {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return popupContextDone
		case <-cancelled:
			return popupCancelled
		case <-deadline.C:
			return popupTimedOut
		case <-ticker.C:
			if window.Closed() {
				return popupClosed
			}
		}
	}
}

func closePopup(id domain.ProviderID, window driven.PopupWindow) {
	if err := window.Close(); err != nil {
		logger.Warn("%s: close popup: %v", id, err)
	}
}

// reconcile asks the backend whether the provider is connected, re-checking
// once after grace when the first answer is negative.
func (s *ConnectionService) reconcile(
	ctx context.Context,
	p *domain.Provider,
	grace time.Duration,
) (domain.ConnectionState, bool) {
	state := s.reconcileOnce(ctx, p)
	if state.IsConnected() || grace <= 0 {
		return state, state.IsConnected()
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return state, false
	case <-timer.C:
	}
	state = s.reconcileOnce(ctx, p)
	return state, state.IsConnected()
}

func (s *ConnectionService) reconcileOnce(ctx context.Context, p *domain.Provider) domain.ConnectionState {
	state, err := s.syncer.Load(ctx, p)
	if err != nil {
		logger.Warn("%s: reconciliation read failed: %v", p.ID, err)
	}
	if !state.IsConnected() && err == nil && p.Capabilities.HasStatusCheck() {
		// The record may lag the token store; the status endpoint does not.
		status, statusErr := s.syncer.Status(ctx, p)
		if statusErr == nil {
			return status
		}
		logger.Debug("%s: status check failed: %v", p.ID, statusErr)
	}
	return state
}

// connectedSettings picks the identity-bearing keys of a reconciled state.
func connectedSettings(state domain.ConnectionState) domain.Settings {
	out := domain.Settings{domain.SettingConnected: true}
	for _, k := range []string{
		domain.SettingAccountID,
		domain.SettingUsername,
		domain.SettingDisplayName,
		domain.SettingResources,
		domain.SettingDefaultResource,
		domain.SettingTokenHint,
		domain.SettingPermissions,
	} {
		if v, ok := state.Settings[k]; ok && !domain.IsEmptyValue(v) {
			out[k] = v
		}
	}
	return out
}
