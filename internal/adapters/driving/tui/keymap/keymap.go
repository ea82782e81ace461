// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Help shows the help view.
	Help key.Binding

	// Back returns to the previous view.
	Back key.Binding

	// Up navigates up in a list.
	Up key.Binding

	// Down navigates down in a list.
	Down key.Binding

	// Select opens the highlighted integration or runs the highlighted action.
	Select key.Binding

	// Connect starts the provider's authorization flow.
	Connect key.Binding

	// Token connects with a pasted API token.
	Token key.Binding

	// Disconnect clears the connection.
	Disconnect key.Binding

	// Toggle switches the integration on or off.
	Toggle key.Binding

	// Cancel closes a pending popup.
	Cancel key.Binding

	// Edit sets a setting value.
	Edit key.Binding

	// Refresh reloads state from the backend.
	Refresh key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Connect: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "connect"),
		),
		Token: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "token"),
		),
		Disconnect: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "disconnect"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "enable/disable"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "cancel popup"),
		),
		Edit: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "set"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// ListHelp returns the hints shown under the integration list.
func (k *KeyMap) ListHelp() []key.Binding {
	return []key.Binding{k.Select, k.Connect, k.Toggle, k.Disconnect, k.Help, k.Quit}
}

// DetailHelp returns the hints shown on the detail view.
func (k *KeyMap) DetailHelp() []key.Binding {
	return []key.Binding{k.Select, k.Edit, k.Connect, k.Back}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back},
		{k.Connect, k.Token, k.Cancel, k.Disconnect},
		{k.Toggle, k.Edit, k.Refresh},
		{k.Help, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
