// Package mcp provides an MCP (Model Context Protocol) server adapter for
// sercha-connect. It lets AI assistants list integrations, connect and
// disconnect providers, edit settings and run provider actions.
package mcp

import "errors"

// ErrMissingConnectionService is returned when the connection service is not provided.
var ErrMissingConnectionService = errors.New("mcp: connection service is required")
