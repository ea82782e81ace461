package mcp

import (
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Connections is the connection orchestrator.
	Connections driving.ConnectionService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Connections == nil {
		return ErrMissingConnectionService
	}
	return nil
}
