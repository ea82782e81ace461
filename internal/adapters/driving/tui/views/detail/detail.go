// Package detail provides the integration detail view for the TUI.
package detail

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driving"
)

// ActionRequested asks the app to invoke a provider action.
type ActionRequested struct {
	Provider domain.ProviderID
	Action   string
}

// View shows one provider's settings and actions.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	item     *driving.ProviderView
	actions  []string
	selected int
	width    int
	height   int
}

// NewView creates a new detail view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	return &View{styles: s, keymap: km}
}

// SetItem sets the provider shown.
func (v *View) SetItem(item driving.ProviderView) {
	same := v.item != nil && v.item.Provider.ID == item.Provider.ID
	v.item = &item
	v.actions = v.actions[:0]
	for name := range item.Provider.Actions {
		v.actions = append(v.actions, name)
	}
	sort.Strings(v.actions)
	if !same || v.selected >= len(v.actions) {
		v.selected = 0
	}
}

// Item returns the provider shown.
func (v *View) Item() *driving.ProviderView {
	return v.item
}

// Actions returns the action names in display order.
func (v *View) Actions() []string {
	return v.actions
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Update handles key messages.
func (v *View) Update(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.item == nil {
		return v, nil
	}
	id := v.item.Provider.ID
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Back):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewIntegrations} }
	case keymap.Matches(k, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}
	case keymap.Matches(k, v.keymap.Down):
		if v.selected < len(v.actions)-1 {
			v.selected++
		}
	case keymap.Matches(k, v.keymap.Edit):
		return v, func() tea.Msg {
			return messages.PromptRequested{Provider: id, Purpose: messages.PromptSetting}
		}
	case keymap.Matches(k, v.keymap.Select):
		if len(v.actions) == 0 {
			return v, nil
		}
		action := v.actions[v.selected]
		return v, func() tea.Msg { return ActionRequested{Provider: id, Action: action} }
	}
	return v, nil
}

// View renders the detail view.
func (v *View) View() string {
	if v.item == nil {
		return v.styles.Muted.Render("No integration selected.")
	}
	p := v.item.Provider

	var b strings.Builder
	b.WriteString(v.styles.Title.Render(p.DisplayName))
	b.WriteString("  ")
	b.WriteString(v.styles.Status(styles.Status{
		Available: p.IsAvailable(),
		Connected: v.item.State.IsConnected(),
		Phase:     v.item.Phase,
	}))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %s\n", v.styles.Muted.Render("Flow:"), p.Flow())
	fmt.Fprintf(&b, "%s %s\n", v.styles.Muted.Render("Capabilities:"), p.Capabilities)
	if p.ConnectedVia != "" {
		fmt.Fprintf(&b, "%s %s\n", v.styles.Muted.Render("Connected via:"), p.ConnectedVia)
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Subtitle.Render("Settings"))
	b.WriteString("\n")
	keys := make([]string, 0, len(v.item.State.Settings))
	for k := range v.item.State.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		b.WriteString(v.styles.Muted.Render("  (none)"))
		b.WriteString("\n")
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s = %v\n", k, v.item.State.Settings[k])
	}

	if len(v.actions) > 0 {
		b.WriteString("\n")
		b.WriteString(v.styles.Subtitle.Render("Actions"))
		b.WriteString("\n")
		for i, name := range v.actions {
			line := name
			if spec, ok := p.Action(name); ok && spec.Description != "" {
				line += " - " + spec.Description
			}
			if i == v.selected {
				b.WriteString(v.styles.Selected.Render("> " + line))
			} else {
				b.WriteString(v.styles.Normal.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
