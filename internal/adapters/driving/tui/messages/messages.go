// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driving"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewIntegrations is the integration list.
	ViewIntegrations ViewType = iota
	// ViewDetail shows settings and actions of one integration.
	ViewDetail
	// ViewPrompt collects a token or a setting value.
	ViewPrompt
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewIntegrations:
		return "integrations"
	case ViewDetail:
		return "detail"
	case ViewPrompt:
		return "prompt"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// IntegrationsLoaded carries a fresh snapshot of every provider.
type IntegrationsLoaded struct {
	Views []driving.ProviderView
	Err   error
}

// IntegrationSelected opens the detail view for a provider.
type IntegrationSelected struct {
	Provider domain.ProviderID
}

// PromptRequested opens the input prompt.
type PromptRequested struct {
	Provider domain.ProviderID
	Purpose  PromptPurpose
}

// PromptPurpose says what a submitted prompt value is used for.
type PromptPurpose int

const (
	// PromptToken collects an API token.
	PromptToken PromptPurpose = iota
	// PromptSetting collects a key=value setting.
	PromptSetting
)

// ConnectFinished reports the end of a connect call.
type ConnectFinished struct {
	Provider domain.ProviderID
	Result   *domain.ConnectResult
	Err      error
}

// ChangeFinished reports the end of an enable or settings change.
type ChangeFinished struct {
	Provider domain.ProviderID
	Warnings []string
	Err      error
}

// DisconnectFinished reports the end of a disconnect.
type DisconnectFinished struct {
	Provider domain.ProviderID
	Result   *driving.DisconnectResult
	Err      error
}

// ActionFinished reports the end of a provider action.
type ActionFinished struct {
	Provider domain.ProviderID
	Action   string
	Result   *domain.ActionResult
	Err      error
}

// Tick asks the app to refresh while a flow is in flight.
type Tick struct{}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
