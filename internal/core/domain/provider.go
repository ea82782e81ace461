package domain

// ProviderID identifies a third-party service.
type ProviderID string

// Built-in provider identifiers.
const (
	ProviderGitHub         ProviderID = "github"
	ProviderGitHubProjects ProviderID = "github-projects"
	ProviderClaude         ProviderID = "claude"
	ProviderSlack          ProviderID = "slack"
	ProviderJira           ProviderID = "jira"
	ProviderLinear         ProviderID = "linear"
	ProviderNotion         ProviderID = "notion"
	ProviderGoogleTasks    ProviderID = "google-tasks"
	ProviderAsana          ProviderID = "asana"
	ProviderTrello         ProviderID = "trello"
)

// String returns the identifier as a string.
func (id ProviderID) String() string {
	return string(id)
}

// Category groups providers for display.
type Category string

// Provider categories.
const (
	CategorySourceControl     Category = "source-control"
	CategoryAIAssistant       Category = "ai-assistant"
	CategoryChat              Category = "chat"
	CategoryProjectManagement Category = "project-management"
)

// Availability marks whether a provider can be connected today.
type Availability string

// Availability values.
const (
	AvailabilityAvailable  Availability = "available"
	AvailabilityComingSoon Availability = "coming-soon"
)

// FlowKind identifies the authorization flow shape used to connect a provider.
type FlowKind string

// Flow kinds.
const (
	FlowNone     FlowKind = "none"
	FlowRedirect FlowKind = "redirect"
	FlowPopup    FlowKind = "popup"
	FlowToken    FlowKind = "token"
)

// Provider is the static, immutable description of a third-party service.
type Provider struct {
	// ID is the unique identifier (e.g., "github").
	ID ProviderID
	// DisplayName is shown to users.
	DisplayName string
	// Category groups the provider in the panel.
	Category Category
	// Capabilities declares the supported flows and features.
	Capabilities Capability
	// RequiresSetup is true when the provider needs an authorization flow
	// or user-entered settings before it is usable.
	RequiresSetup bool
	// Availability is AvailabilityComingSoon for providers that cannot be connected yet.
	Availability Availability

	// IdentityFields are the settings keys cleared on disconnect.
	// SettingConnected and SettingAccountID are always cleared.
	IdentityFields []string
	// EnabledTiedToConnection turns enabled off when the provider disconnects.
	EnabledTiedToConnection bool
	// ConnectedVia names the provider whose connection this one rides on.
	// Empty for providers with their own flow.
	ConnectedVia ProviderID
	// Actions are the business actions the provider exposes, keyed by name.
	Actions map[string]ActionSpec
	// Scopes are the default OAuth scopes requested.
	Scopes []string
	// AuthURL is the default authorization endpoint.
	AuthURL string
	// TokenURL is the default code-exchange endpoint.
	TokenURL string
	// AuthParams are extra query parameters for the authorization URL.
	AuthParams map[string]string
	// PopupWidth and PopupHeight size the popup window for the login page.
	PopupWidth  int
	PopupHeight int
}

// IsAvailable returns true if the provider can be connected.
func (p *Provider) IsAvailable() bool {
	return p.Availability == AvailabilityAvailable
}

// Flow returns the provider's preferred flow.
func (p *Provider) Flow() FlowKind {
	return p.Capabilities.PreferredFlow()
}

// ClearedOnDisconnect returns every settings key removed by a disconnect.
func (p *Provider) ClearedOnDisconnect() []string {
	keys := []string{SettingAccountID, SettingTokenHint, SettingPermissions}
	seen := map[string]bool{SettingAccountID: true, SettingTokenHint: true, SettingPermissions: true}
	for _, k := range p.IdentityFields {
		if !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	return keys
}

// Action returns the named action spec.
func (p *Provider) Action(name string) (ActionSpec, bool) {
	spec, ok := p.Actions[name]
	return spec, ok
}

// ActionSpec declares a provider business action.
type ActionSpec struct {
	// Name is the action identifier (e.g., "create-board").
	Name string
	// Description is shown in help output.
	Description string
	// RequiredSettings must be non-empty in the provider's settings before invocation.
	RequiredSettings []string
	// RequiredPayload must be non-empty in the invocation payload.
	RequiredPayload []string
}

// ActionResult is the outcome of a provider business action.
type ActionResult struct {
	// OK is true if the backend reported success.
	OK bool `json:"ok"`
	// ResourceIDs are identifiers of resources created by the action.
	ResourceIDs []string `json:"resourceIds,omitempty"`
	// Message is a human-readable summary.
	Message string `json:"message,omitempty"`
}
