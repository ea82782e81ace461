// Package connectors holds the provider-specific clients the orchestrator
// uses to identify accounts. Each subpackage talks to one provider API and
// exposes a driven.IdentityFetcher or driven.TokenVerifier.
//
// Providers that authorize through a popup are reconciled through the
// backend and need no connector here.
package connectors
