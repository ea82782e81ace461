// Package sqlite provides a SQLite-backed implementation of driven.OAuthStateStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. Keeping in-flight attempts on disk lets a redirect callback be
// handled by a different process than the one that started the flow, for
// example when `sercha-connect connect` hands off to a running `serve`.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-connect/data/state.db
//
// # Thread Safety
//
// All operations are thread-safe. Take runs in a transaction so an attempt
// is handed to at most one caller.
package sqlite
