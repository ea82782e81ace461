// Package styles holds the palette and lipgloss styles of the integrations panel.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
)

// Theme is the colour palette of the panel. It follows the popup landing page.
type Theme struct {
	Accent    lipgloss.Color
	Secondary lipgloss.Color
	Text      lipgloss.Color
	Dim       lipgloss.Color
	Frame     lipgloss.Color
	Bar       lipgloss.Color

	// Badge colours, one per status group.
	Connected lipgloss.Color
	Pending   lipgloss.Color
	Failed    lipgloss.Color
}

// DefaultTheme returns the Sercha palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#6675FF"),
		Secondary: lipgloss.Color("#8FA1B3"),
		Text:      lipgloss.Color("#E6E8EB"),
		Dim:       lipgloss.Color("#7B8088"),
		Frame:     lipgloss.Color("#C7C8CC"),
		Bar:       lipgloss.Color("#333F50"),
		Connected: lipgloss.Color("#3FB950"),
		Pending:   lipgloss.Color("#D29922"),
		Failed:    lipgloss.Color("#F85149"),
	}
}

// Styles are the rendered styles the panel draws with.
type Styles struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Normal    lipgloss.Style
	Muted     lipgloss.Style
	Selected  lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Help      lipgloss.Style
	StatusBar lipgloss.Style
	// InputField frames the settings editor.
	InputField lipgloss.Style

	badge lipgloss.Style
}

// NewStyles builds styles from theme, falling back to DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	text := lipgloss.NewStyle().Foreground(theme.Text)
	dim := lipgloss.NewStyle().Foreground(theme.Dim)

	return &Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		Subtitle:   lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Normal:     text,
		Muted:      dim,
		Selected:   text.Bold(true).Background(theme.Accent),
		Error:      lipgloss.NewStyle().Foreground(theme.Failed),
		Success:    lipgloss.NewStyle().Foreground(theme.Connected),
		Warning:    lipgloss.NewStyle().Foreground(theme.Pending),
		Help:       dim.Italic(true),
		StatusBar:  dim.Background(theme.Bar).Padding(0, 1),
		InputField: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(theme.Frame).Padding(0, 1),
		badge:      lipgloss.NewStyle().Width(20),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(nil)
}

// Status is the input of Styles.Status.
type Status struct {
	Available bool
	Connected bool
	Phase     domain.FlowPhase
}

// Status renders the status badge of an integration.
func (s *Styles) Status(view Status) string {
	switch {
	case !view.Available:
		return s.badge.Inherit(s.Muted).Render("coming soon")
	case view.Phase.IsInFlight():
		return s.badge.Inherit(s.Warning).Render(string(view.Phase))
	case view.Phase == domain.PhaseFailed || view.Phase == domain.PhaseTimedOut:
		return s.badge.Inherit(s.Error).Render(string(view.Phase))
	case view.Connected:
		return s.badge.Inherit(s.Success).Render("connected")
	default:
		return s.badge.Inherit(s.Muted).Render("not connected")
	}
}
