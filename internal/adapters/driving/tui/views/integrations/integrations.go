// Package integrations provides the integration list view for the TUI.
package integrations

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driving"
)

// Intent is a user request the app turns into a service call.
type Intent struct {
	Kind     IntentKind
	Provider driving.ProviderView
}

// IntentKind names a list-level request.
type IntentKind int

// Intent kinds.
const (
	IntentConnect IntentKind = iota + 1
	IntentToken
	IntentDisconnect
	IntentToggle
	IntentCancel
	IntentRefresh
)

// View lists every provider with its status.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	items    []driving.ProviderView
	selected int
	width    int
	height   int
}

// NewView creates a new integration list view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	return &View{styles: s, keymap: km}
}

// SetItems replaces the provider list, keeping the cursor on the same provider.
func (v *View) SetItems(items []driving.ProviderView) {
	var current domain.ProviderID
	if p := v.Selected(); p != nil {
		current = p.Provider.ID
	}
	v.items = items
	v.selected = 0
	for i, item := range items {
		if item.Provider.ID == current {
			v.selected = i
			break
		}
	}
}

// Items returns the rendered providers.
func (v *View) Items() []driving.ProviderView {
	return v.items
}

// Selected returns the highlighted provider, or nil when the list is empty.
func (v *View) Selected() *driving.ProviderView {
	if v.selected < 0 || v.selected >= len(v.items) {
		return nil
	}
	return &v.items[v.selected]
}

// SelectedIndex returns the cursor position.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Update handles key messages. The returned intent is nil when the key only
// moved the cursor.
func (v *View) Update(msg tea.KeyMsg) (*Intent, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}
		return nil, nil
	case keymap.Matches(k, v.keymap.Down):
		if v.selected < len(v.items)-1 {
			v.selected++
		}
		return nil, nil
	case keymap.Matches(k, v.keymap.Refresh):
		return &Intent{Kind: IntentRefresh}, nil
	}

	item := v.Selected()
	if item == nil {
		return nil, nil
	}

	switch {
	case keymap.Matches(k, v.keymap.Select):
		id := item.Provider.ID
		return nil, func() tea.Msg { return messages.IntegrationSelected{Provider: id} }
	case keymap.Matches(k, v.keymap.Connect):
		return &Intent{Kind: IntentConnect, Provider: *item}, nil
	case keymap.Matches(k, v.keymap.Token):
		return &Intent{Kind: IntentToken, Provider: *item}, nil
	case keymap.Matches(k, v.keymap.Disconnect):
		return &Intent{Kind: IntentDisconnect, Provider: *item}, nil
	case keymap.Matches(k, v.keymap.Toggle):
		return &Intent{Kind: IntentToggle, Provider: *item}, nil
	case keymap.Matches(k, v.keymap.Cancel):
		return &Intent{Kind: IntentCancel, Provider: *item}, nil
	}
	return nil, nil
}

// View renders the list grouped by category.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Integrations"))
	b.WriteString("\n\n")

	if len(v.items) == 0 {
		b.WriteString(v.styles.Muted.Render("No integrations loaded."))
		return b.String()
	}

	var category domain.Category
	for i, item := range v.items {
		if item.Provider.Category != category {
			category = item.Provider.Category
			b.WriteString(v.styles.Subtitle.Render(string(category)))
			b.WriteString("\n")
		}
		b.WriteString(v.renderRow(i, item))
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderRow(i int, item driving.ProviderView) string {
	enabled := "[ ]"
	if item.State.Enabled {
		enabled = "[x]"
	}
	badge := v.styles.Status(styles.Status{
		Available: item.Provider.IsAvailable(),
		Connected: item.State.IsConnected(),
		Phase:     item.Phase,
	})
	account := ""
	if id := item.State.AccountID(); id != "" {
		account = v.styles.Muted.Render(id)
	}
	line := fmt.Sprintf("%s %-18s %s %s", enabled, item.Provider.DisplayName, badge, account)
	if i == v.selected {
		return v.styles.Selected.Render("> " + line)
	}
	return v.styles.Normal.Render("  " + line)
}
