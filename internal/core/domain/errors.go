package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrNotConnected indicates the backend has no connection for the provider.
	ErrNotConnected = errors.New("not connected")

	// Flow Errors. Each corresponds to an ErrorKind.

	// ErrCSRFMismatch indicates the callback state does not match the stored token.
	ErrCSRFMismatch = errors.New("csrf state mismatch")

	// ErrExchangeFailed indicates the authorization code could not be exchanged.
	ErrExchangeFailed = errors.New("code exchange failed")

	// ErrIdentityFetchFailed indicates the account identity could not be fetched.
	ErrIdentityFetchFailed = errors.New("identity fetch failed")

	// ErrPersistenceUnavailable indicates the backend persistence service failed.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")

	// ErrTimeout indicates a popup flow exceeded its hard ceiling.
	ErrTimeout = errors.New("authorization timed out")

	// ErrValidationFailed indicates required settings are missing.
	ErrValidationFailed = errors.New("validation failed")

	// ErrFlowInProgress indicates an attempt is already in flight for the provider.
	ErrFlowInProgress = errors.New("authorization already in progress")

	// ErrNotAvailable indicates the provider is not yet available.
	ErrNotAvailable = errors.New("provider not available")

	// ErrUnknownProvider indicates the provider identifier is not registered.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrUnsupportedFlow indicates the provider does not support the requested flow.
	ErrUnsupportedFlow = errors.New("unsupported flow")
)

// ErrorKind classifies a FlowError.
type ErrorKind string

// Error kinds.
const (
	KindCSRFMismatch           ErrorKind = "CsrfMismatch"
	KindExchangeFailed         ErrorKind = "ExchangeFailed"
	KindIdentityFetchFailed    ErrorKind = "IdentityFetchFailed"
	KindPersistenceUnavailable ErrorKind = "PersistenceUnavailable"
	KindTimeout                ErrorKind = "Timeout"
	KindValidationFailed       ErrorKind = "ValidationFailed"
	KindFlowInProgress         ErrorKind = "FlowInProgress"
	KindNotAvailable           ErrorKind = "NotAvailable"
	KindUnknownProvider        ErrorKind = "UnknownProvider"
	KindUnsupportedFlow        ErrorKind = "UnsupportedFlow"
)

var kindSentinels = map[ErrorKind]error{
	KindCSRFMismatch:           ErrCSRFMismatch,
	KindExchangeFailed:         ErrExchangeFailed,
	KindIdentityFetchFailed:    ErrIdentityFetchFailed,
	KindPersistenceUnavailable: ErrPersistenceUnavailable,
	KindTimeout:                ErrTimeout,
	KindValidationFailed:       ErrValidationFailed,
	KindFlowInProgress:         ErrFlowInProgress,
	KindNotAvailable:           ErrNotAvailable,
	KindUnknownProvider:        ErrUnknownProvider,
	KindUnsupportedFlow:        ErrUnsupportedFlow,
}

// Sentinel returns the sentinel error for the kind.
func (k ErrorKind) Sentinel() error {
	return kindSentinels[k]
}

// FlowError is the structured failure of a user-initiated operation.
// It is the caller's responsibility to surface it.
type FlowError struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// Provider is the provider the operation targeted.
	Provider ProviderID
	// Message is a human-readable description.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

// NewFlowError creates a FlowError.
func NewFlowError(kind ErrorKind, provider ProviderID, message string, cause error) *FlowError {
	return &FlowError{Kind: kind, Provider: provider, Message: message, Err: cause}
}

func (e *FlowError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *FlowError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of the kind.
func (e *FlowError) Is(target error) bool {
	s := e.Kind.Sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of err, or "" if err is not a FlowError.
func KindOf(err error) ErrorKind {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
