// Package google resolves Google accounts for the Google Tasks provider.
//
// It contains:
//   - Service factories for the Tasks and OAuth2 userinfo APIs
//   - A TokenSource built from the freshly exchanged token
//   - Error mapping for common Google API errors (401, 403, 404, 429)
//   - Rate limiting to respect Google API quotas
//
// # OAuth2 Scopes
//
// The Google Tasks provider requests:
//   - https://www.googleapis.com/auth/tasks
//   - https://www.googleapis.com/auth/userinfo.email (non-sensitive)
//
// The authorize URL adds access_type=offline and prompt=consent so the
// backend receives a refresh token.
package google
