package domain

import "time"

// FlowPhase is the state of a provider's authorization state machine.
type FlowPhase string

// Redirect flow phases.
const (
	PhaseIdle             FlowPhase = "idle"
	PhaseAwaitingRedirect FlowPhase = "awaiting-redirect"
	PhaseAwaitingCallback FlowPhase = "awaiting-callback"
	PhaseExchanging       FlowPhase = "exchanging"
	PhaseConnected        FlowPhase = "connected"
	PhaseFailed           FlowPhase = "failed"
)

// Popup flow phases. PhaseIdle and PhaseConnected are shared.
const (
	PhasePopupOpen         FlowPhase = "popup-open"
	PhasePollingCompletion FlowPhase = "polling-completion"
	PhaseAssumedComplete   FlowPhase = "assumed-complete"
	PhaseTimedOut          FlowPhase = "timed-out"
)

// Token flow phase.
const (
	PhaseVerifying FlowPhase = "verifying"
)

// IsInFlight returns true while an attempt owns the provider.
// A new flow cannot start for the provider in any of these phases.
func (p FlowPhase) IsInFlight() bool {
	switch p {
	case PhaseAwaitingRedirect, PhaseAwaitingCallback, PhaseExchanging,
		PhasePopupOpen, PhasePollingCompletion, PhaseVerifying:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for phases that end an attempt.
func (p FlowPhase) IsTerminal() bool {
	switch p {
	case PhaseConnected, PhaseFailed, PhaseAssumedComplete, PhaseTimedOut:
		return true
	default:
		return false
	}
}

// OAuthAttempt is an ephemeral, session-scoped authorization attempt.
// It is never persisted beyond the state store's TTL.
type OAuthAttempt struct {
	// ID uniquely identifies the attempt.
	ID string
	// Provider is the provider being authorized.
	Provider ProviderID
	// Flow is the flow shape of the attempt.
	Flow FlowKind
	// CSRFToken is the opaque random value bound to the attempt (the OAuth state).
	CSRFToken string
	// CodeVerifier is the PKCE verifier for redirect flows.
	CodeVerifier string
	// RedirectURI is where the provider sends the browser back.
	RedirectURI string
	// StartedAt is when the attempt was created.
	StartedAt time.Time
	// ExpiresAt is the hard deadline of the attempt.
	ExpiresAt time.Time
}

// IsExpired returns true once the attempt's deadline has passed.
func (a *OAuthAttempt) IsExpired(now time.Time) bool {
	if a.ExpiresAt.IsZero() {
		return false
	}
	return now.After(a.ExpiresAt)
}

// ConnectResult is the normalized outcome of a connect operation.
type ConnectResult struct {
	// Provider is the provider that was connected.
	Provider ProviderID `json:"provider"`
	// Phase is the terminal phase reached.
	Phase FlowPhase `json:"phase"`
	// Connected is true if the provider is connected after the operation.
	Connected bool `json:"connected"`
	// AccountID is the connected account identifier.
	AccountID string `json:"accountId,omitempty"`
	// Resources are dependent resources discovered during the flow.
	Resources []string `json:"resources,omitempty"`
	// Abandoned is true when a popup was closed without completing authorization.
	Abandoned bool `json:"abandoned,omitempty"`
	// AuthURL is set when a redirect flow is waiting for navigation.
	AuthURL string `json:"authUrl,omitempty"`
	// Warnings are non-blocking problems (e.g., a failed best-effort save).
	Warnings []string `json:"warnings,omitempty"`
}
