package mcp

import (
	"context"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driving"
)

// IntegrationOutput is the flattened view of one provider.
type IntegrationOutput struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Category     string         `json:"category"`
	Availability string         `json:"availability"`
	Flow         string         `json:"flow"`
	Enabled      bool           `json:"enabled"`
	Connected    bool           `json:"connected"`
	AccountID    string         `json:"account_id,omitempty"`
	Phase        string         `json:"phase"`
	Settings     map[string]any `json:"settings,omitempty"`
	Actions      []string       `json:"actions,omitempty"`
}

// ListInput is the input schema for the list_integrations tool.
type ListInput struct {
	ConnectedOnly bool `json:"connected_only,omitempty" jsonschema:"only return connected integrations"`
}

// ListOutput is the output schema for the list_integrations tool.
type ListOutput struct {
	Integrations []IntegrationOutput `json:"integrations"`
	Count        int                 `json:"count"`
}

// ProviderInput selects a provider.
type ProviderInput struct {
	Provider string `json:"provider" jsonschema:"the provider id, e.g. github or notion"`
}

// SetEnabledInput is the input schema for the set_enabled tool.
type SetEnabledInput struct {
	Provider string `json:"provider" jsonschema:"the provider id"`
	Enabled  bool   `json:"enabled" jsonschema:"whether the integration is switched on"`
}

// UpdateSettingsInput is the input schema for the update_settings tool.
type UpdateSettingsInput struct {
	Provider string         `json:"provider" jsonschema:"the provider id"`
	Settings map[string]any `json:"settings" jsonschema:"settings to merge, e.g. defaultResource"`
}

// ChangeOutput reports the provider after a change.
type ChangeOutput struct {
	Integration IntegrationOutput `json:"integration"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// ConnectInput is the input schema for the connect tool.
type ConnectInput struct {
	Provider string `json:"provider" jsonschema:"the provider id"`
	Token    string `json:"token,omitempty" jsonschema:"API token for providers connected with a token"`
}

// ConnectOutput is the output schema for the connect tool.
type ConnectOutput struct {
	Provider  string   `json:"provider"`
	Phase     string   `json:"phase"`
	Connected bool     `json:"connected"`
	AccountID string   `json:"account_id,omitempty"`
	AuthURL   string   `json:"auth_url,omitempty"`
	Abandoned bool     `json:"abandoned,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// DisconnectOutput is the output schema for the disconnect tool.
type DisconnectOutput struct {
	Provider string   `json:"provider"`
	Warnings []string `json:"warnings,omitempty"`
}

// ActionInput is the input schema for the invoke_action tool.
type ActionInput struct {
	Provider string         `json:"provider" jsonschema:"the provider id"`
	Action   string         `json:"action" jsonschema:"the action name, e.g. create-board"`
	Payload  map[string]any `json:"payload,omitempty" jsonschema:"action parameters"`
}

// ActionOutput is the output schema for the invoke_action tool.
type ActionOutput struct {
	OK          bool     `json:"ok"`
	ResourceIDs []string `json:"resource_ids,omitempty"`
	Message     string   `json:"message,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_integrations",
		Description: "List third-party integrations with their connection state",
	}, s.handleList)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "set_enabled",
		Description: "Switch an integration on or off without touching its connection",
	}, s.handleSetEnabled)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_settings",
		Description: "Merge user settings into an integration",
	}, s.handleUpdateSettings)
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "connect",
		Description: "Connect an integration. OAuth providers return an authorization URL " +
			"or open a sign-in window; token providers need the token argument",
	}, s.handleConnect)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "disconnect",
		Description: "Disconnect an integration and revoke its stored credential",
	}, s.handleDisconnect)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "invoke_action",
		Description: "Run a provider action such as creating a project board",
	}, s.handleAction)
}

func (s *Server) handleList(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ListInput,
) (*mcp.CallToolResult, ListOutput, error) {
	views := s.ports.Connections.List()
	out := ListOutput{Integrations: make([]IntegrationOutput, 0, len(views))}
	for _, v := range views {
		if input.ConnectedOnly && !v.State.IsConnected() {
			continue
		}
		out.Integrations = append(out.Integrations, toOutput(v))
	}
	out.Count = len(out.Integrations)
	return nil, out, nil
}

func (s *Server) handleSetEnabled(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SetEnabledInput,
) (*mcp.CallToolResult, ChangeOutput, error) {
	id := domain.ProviderID(input.Provider)
	warnings, err := s.ports.Connections.SetEnabled(ctx, id, input.Enabled)
	if err != nil {
		return nil, ChangeOutput{}, err
	}
	return s.change(id, warnings)
}

func (s *Server) handleUpdateSettings(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UpdateSettingsInput,
) (*mcp.CallToolResult, ChangeOutput, error) {
	id := domain.ProviderID(input.Provider)
	warnings, err := s.ports.Connections.UpdateSettings(ctx, id, domain.Settings(input.Settings))
	if err != nil {
		return nil, ChangeOutput{}, err
	}
	return s.change(id, warnings)
}

func (s *Server) handleConnect(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ConnectInput,
) (*mcp.CallToolResult, ConnectOutput, error) {
	result, err := s.ports.Connections.Connect(ctx, domain.ProviderID(input.Provider), input.Token)
	if err != nil {
		return nil, ConnectOutput{}, err
	}
	return nil, ConnectOutput{
		Provider:  string(result.Provider),
		Phase:     string(result.Phase),
		Connected: result.Connected,
		AccountID: result.AccountID,
		AuthURL:   result.AuthURL,
		Abandoned: result.Abandoned,
		Warnings:  result.Warnings,
	}, nil
}

func (s *Server) handleDisconnect(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProviderInput,
) (*mcp.CallToolResult, DisconnectOutput, error) {
	result, err := s.ports.Connections.Disconnect(ctx, domain.ProviderID(input.Provider))
	if err != nil {
		return nil, DisconnectOutput{}, err
	}
	return nil, DisconnectOutput{Provider: string(result.Provider), Warnings: result.Warnings}, nil
}

func (s *Server) handleAction(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ActionInput,
) (*mcp.CallToolResult, ActionOutput, error) {
	payload := input.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	result, err := s.ports.Connections.InvokeAction(ctx, domain.ProviderID(input.Provider), input.Action, payload)
	if err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{OK: result.OK, ResourceIDs: result.ResourceIDs, Message: result.Message}, nil
}

func (s *Server) change(id domain.ProviderID, warnings []string) (*mcp.CallToolResult, ChangeOutput, error) {
	view, err := s.ports.Connections.Get(id)
	if err != nil {
		return nil, ChangeOutput{}, err
	}
	return nil, ChangeOutput{Integration: toOutput(*view), Warnings: warnings}, nil
}

// toOutput flattens a provider view. Token hints stay masked as stored.
func toOutput(v driving.ProviderView) IntegrationOutput {
	out := IntegrationOutput{
		ID:           string(v.Provider.ID),
		Name:         v.Provider.DisplayName,
		Category:     string(v.Provider.Category),
		Availability: string(v.Provider.Availability),
		Flow:         string(v.Provider.Flow()),
		Enabled:      v.State.Enabled,
		Connected:    v.State.IsConnected(),
		AccountID:    v.State.AccountID(),
		Phase:        string(v.Phase),
		Settings:     map[string]any(v.State.Settings.Clone()),
	}
	for name := range v.Provider.Actions {
		out.Actions = append(out.Actions, name)
	}
	sort.Strings(out.Actions)
	return out
}
