// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Backend: per-user integration records on the host backend
//   - OAuthStateStore: short-lived CSRF state for redirect flows
//   - CodeExchanger: builds authorize URLs and exchanges codes for tokens
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - IdentityFetcher: per-provider account lookup. Without it the
//     redirect flow only records the token owner reported by the backend.
//   - TokenVerifier: validates manually entered API tokens before upload.
//   - PopupOpener: opens popup authorization windows. Without it popup
//     providers report ErrNotImplemented.
//   - Navigator: sends the user agent to the authorize URL. Without it the
//     URL is returned to the caller.
//   - SessionVault: holds the backend bearer token.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
