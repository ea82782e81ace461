// Package domain defines the core business entities for sercha-connect.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Provider: A third-party service the host application can connect to
//   - ConnectionState: The per-user enabled flag and settings bag of a provider
//   - OAuthAttempt: An in-flight, session-scoped authorization attempt
//   - PropagationRule: A default-fill relationship between two providers
//   - FlowError: A structured failure of a user-initiated operation
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
