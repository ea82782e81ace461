// Package tui provides an interactive terminal panel for sercha-connect.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Connections is the connection orchestrator.
	Connections driving.ConnectionService
}

// NewPorts creates a new Ports aggregate.
func NewPorts(connections driving.ConnectionService) *Ports {
	return &Ports{Connections: connections}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Connections == nil {
		return ErrMissingConnectionService
	}
	return nil
}
