// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// ConnectionService is the Connection Orchestrator. It owns the
// Configuration Store (ConnectionStore), the Backend Sync Adapter
// (BackendSync) and the per-provider flow tracker, and runs the redirect,
// popup and token authorization flows.
package services
