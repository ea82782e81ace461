// Package httpbackend implements driven.Backend against the persistence
// service's JSON API under /api/integrations.
//
// Requests carry the session token from a driven.SessionVault as a bearer
// credential and are rate limited per client.
package httpbackend
