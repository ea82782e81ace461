// Package github resolves GitHub accounts for the redirect authorization flow.
//
// After a code exchange the orchestrator needs the account behind the new
// token and the repositories it can reach, so GitHub Projects can default
// its owner and repository. Both come from the REST API through go-github.
//
// # Rate Limiting
//
// The client applies a dual-strategy limiter:
//
//  1. Proactive throttling: a token bucket caps requests at roughly 1.2 per
//     second.
//
//  2. Reactive handling: X-RateLimit-Remaining and X-RateLimit-Reset are
//     tracked from every response. When the remaining quota falls under a
//     small buffer the client waits for the reset.
//
// # Resource Listing
//
// Repositories are listed most recently updated first and capped at
// MaxRepositories, so the first entry is the natural default resource.
package github
