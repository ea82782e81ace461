package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for sercha-connect resources.
	uriScheme = "sercha-connect://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "integrations",
		Name:        "integrations",
		Description: "Every integration with its connection state",
		MIMEType:    "application/json",
	}, s.handleIntegrationsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "integrations/{provider}",
		Name:        "integration",
		Description: "Connection state and settings of one integration",
		MIMEType:    "application/json",
	}, s.handleIntegrationResource)
}

func (s *Server) handleIntegrationsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	views := s.ports.Connections.List()
	outs := make([]IntegrationOutput, len(views))
	for i, v := range views {
		outs[i] = toOutput(v)
	}
	return jsonResource(req.Params.URI, outs)
}

func (s *Server) handleIntegrationResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractProviderID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	view, err := s.ports.Connections.Get(domain.ProviderID(id))
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, toOutput(*view))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractProviderID extracts the provider from sercha-connect://integrations/{provider}.
func extractProviderID(uri string) string {
	prefix := uriScheme + "integrations/"
	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
