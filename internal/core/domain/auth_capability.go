package domain

import "strings"

// Capability represents the capability tags a provider declares.
// This is a bitfield allowing providers to support multiple connection methods.
type Capability uint8

const (
	// CapNone indicates the provider needs no authorization of its own.
	CapNone Capability = 0
	// CapRedirectOAuth indicates a full-page redirect OAuth flow is supported.
	CapRedirectOAuth Capability = 1 << 0
	// CapPopupOAuth indicates an isolated popup-window OAuth flow is supported.
	CapPopupOAuth Capability = 1 << 1
	// CapAPIToken indicates manual API-token entry is supported.
	CapAPIToken Capability = 1 << 2
	// CapStatusCheck indicates the backend offers a status-check fallback read.
	CapStatusCheck Capability = 1 << 3
	// CapActions indicates the provider exposes business actions.
	CapActions Capability = 1 << 4
)

// SupportsRedirect returns true if the redirect OAuth flow is supported.
func (c Capability) SupportsRedirect() bool {
	return c&CapRedirectOAuth != 0
}

// SupportsPopup returns true if the popup OAuth flow is supported.
func (c Capability) SupportsPopup() bool {
	return c&CapPopupOAuth != 0
}

// SupportsToken returns true if manual API-token entry is supported.
func (c Capability) SupportsToken() bool {
	return c&CapAPIToken != 0
}

// HasStatusCheck returns true if a status-check fallback exists.
func (c Capability) HasStatusCheck() bool {
	return c&CapStatusCheck != 0
}

// HasActions returns true if the provider exposes business actions.
func (c Capability) HasActions() bool {
	return c&CapActions != 0
}

// RequiresAuth returns true if any authorization flow applies.
func (c Capability) RequiresAuth() bool {
	return c.SupportsRedirect() || c.SupportsPopup() || c.SupportsToken()
}

// PreferredFlow returns the flow used when the caller does not choose one.
// Redirect wins over popup, popup over token entry.
func (c Capability) PreferredFlow() FlowKind {
	switch {
	case c.SupportsRedirect():
		return FlowRedirect
	case c.SupportsPopup():
		return FlowPopup
	case c.SupportsToken():
		return FlowToken
	default:
		return FlowNone
	}
}

// Tags returns the capability tags in a stable order.
func (c Capability) Tags() []string {
	var tags []string
	if c.SupportsRedirect() {
		tags = append(tags, "redirect")
	}
	if c.SupportsPopup() {
		tags = append(tags, "popup")
	}
	if c.SupportsToken() {
		tags = append(tags, "token")
	}
	if c.HasStatusCheck() {
		tags = append(tags, "status-check")
	}
	if c.HasActions() {
		tags = append(tags, "actions")
	}
	return tags
}

// String returns a human-readable representation.
func (c Capability) String() string {
	if c == CapNone {
		return "none"
	}
	return strings.Join(c.Tags(), ",")
}
