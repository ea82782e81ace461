package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/tui/views/detail"
	"github.com/custodia-labs/sercha-connect/internal/adapters/driving/tui/views/integrations"
	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driving"
)

// refreshInterval is how often the list is reloaded while a flow is in flight.
const refreshInterval = time.Second

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	listView   *integrations.View
	detailView *detail.View
	prompt     *input.Prompt
	statusBar  *status.Bar

	// promptFor is the provider and purpose of the open prompt.
	promptFor messages.PromptRequested
	// previousView is restored when the prompt or help closes.
	previousView messages.ViewType
	currentView  messages.ViewType

	// ticking is true while a refresh tick is scheduled.
	ticking bool

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		listView:    integrations.NewView(s, km),
		detailView:  detail.NewView(s, km),
		prompt:      input.NewPrompt(s),
		statusBar:   status.NewBar(s, km),
		currentView: messages.ViewIntegrations,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("sercha-connect - Integrations"),
		a.load(),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.IntegrationsLoaded:
		if msg.Err != nil {
			a.fail(msg.Err)
			return a, nil
		}
		a.listView.SetItems(msg.Views)
		if item := a.detailView.Item(); item != nil {
			for _, v := range msg.Views {
				if v.Provider.ID == item.Provider.ID {
					a.detailView.SetItem(v)
				}
			}
		}
		return a, a.scheduleTick(msg.Views)

	case messages.Tick:
		a.ticking = false
		return a, a.load()

	case messages.IntegrationSelected:
		view, err := a.ports.Connections.Get(msg.Provider)
		if err != nil {
			a.fail(err)
			return a, nil
		}
		a.detailView.SetItem(*view)
		a.switchTo(messages.ViewDetail)
		return a, nil

	case messages.ViewChanged:
		a.switchTo(msg.View)
		return a, nil

	case messages.PromptRequested:
		return a, a.openPrompt(msg)

	case detail.ActionRequested:
		a.statusBar.Set(status.StateWorking, fmt.Sprintf("Running %s", msg.Action))
		return a, a.invokeAction(msg.Provider, msg.Action)

	case messages.ConnectFinished:
		a.finishConnect(msg)
		return a, a.load()

	case messages.ChangeFinished:
		a.finish(msg.Err, msg.Warnings, fmt.Sprintf("%s updated", msg.Provider))
		return a, a.load()

	case messages.DisconnectFinished:
		var warnings []string
		if msg.Result != nil {
			warnings = msg.Result.Warnings
		}
		a.finish(msg.Err, warnings, fmt.Sprintf("%s disconnected", msg.Provider))
		return a, a.load()

	case messages.ActionFinished:
		done := fmt.Sprintf("%s finished", msg.Action)
		if msg.Result != nil && msg.Result.Message != "" {
			done = msg.Result.Message
		}
		a.finish(msg.Err, nil, done)
		return a, a.load()

	case messages.ErrorOccurred:
		a.fail(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	if a.currentView == messages.ViewPrompt {
		var cmd tea.Cmd
		a.prompt, cmd = a.prompt.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewPrompt:
		return a.handlePromptKey(msg)

	case messages.ViewHelp:
		if keymap.Matches(msg.String(), a.keymap.Back) || keymap.Matches(msg.String(), a.keymap.Help) {
			a.switchTo(a.previousView)
		}
		return a, nil

	case messages.ViewDetail:
		if keymap.Matches(msg.String(), a.keymap.Connect) {
			if item := a.detailView.Item(); item != nil {
				return a, a.connect(*item, false)
			}
		}
		var cmd tea.Cmd
		a.detailView, cmd = a.detailView.Update(msg)
		return a, cmd

	case messages.ViewIntegrations:
		switch {
		case keymap.Matches(msg.String(), a.keymap.Help):
			a.switchTo(messages.ViewHelp)
			return a, nil
		case msg.String() == "q":
			return a, tea.Quit
		}
		intent, cmd := a.listView.Update(msg)
		if intent == nil {
			return a, cmd
		}
		return a, a.dispatch(intent)
	}
	return a, nil
}

func (a *App) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.prompt.Blur()
		a.switchTo(a.previousView)
		return a, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(a.prompt.Value())
		a.prompt.Blur()
		a.switchTo(a.previousView)
		return a, a.submitPrompt(value)
	}
	var cmd tea.Cmd
	a.prompt, cmd = a.prompt.Update(msg)
	return a, cmd
}

// dispatch turns a list intent into a service call.
func (a *App) dispatch(intent *integrations.Intent) tea.Cmd {
	item := intent.Provider
	id := item.Provider.ID
	switch intent.Kind {
	case integrations.IntentRefresh:
		a.statusBar.Set(status.StateWorking, "Refreshing")
		return a.hydrate()
	case integrations.IntentConnect:
		return a.connect(item, false)
	case integrations.IntentToken:
		return a.connect(item, true)
	case integrations.IntentToggle:
		enabled := !item.State.Enabled
		a.statusBar.Set(status.StateWorking, fmt.Sprintf("Updating %s", id))
		return func() tea.Msg {
			warnings, err := a.ports.Connections.SetEnabled(a.ctx, id, enabled)
			return messages.ChangeFinished{Provider: id, Warnings: warnings, Err: err}
		}
	case integrations.IntentDisconnect:
		a.statusBar.Set(status.StateWorking, fmt.Sprintf("Disconnecting %s", id))
		return func() tea.Msg {
			result, err := a.ports.Connections.Disconnect(a.ctx, id)
			return messages.DisconnectFinished{Provider: id, Result: result, Err: err}
		}
	case integrations.IntentCancel:
		if err := a.ports.Connections.CancelPopup(id); err != nil {
			a.fail(err)
			return nil
		}
		a.statusBar.Set(status.StateWarning, fmt.Sprintf("%s popup cancelled", id))
		return a.load()
	}
	return nil
}

// connect starts the preferred flow, or opens the token prompt for token
// providers and when a token is explicitly requested.
func (a *App) connect(item driving.ProviderView, withToken bool) tea.Cmd {
	p := item.Provider
	caps := p.Capabilities
	if withToken || p.Flow() == domain.FlowToken {
		if !caps.SupportsToken() {
			a.fail(domain.NewFlowError(domain.KindUnsupportedFlow, p.ID, "token connection not supported", nil))
			return nil
		}
		return a.openPrompt(messages.PromptRequested{Provider: p.ID, Purpose: messages.PromptToken})
	}
	a.statusBar.Set(status.StateWorking, fmt.Sprintf("Connecting %s", p.ID))
	return tea.Batch(a.runConnect(p.ID, ""), a.tick())
}

func (a *App) runConnect(id domain.ProviderID, token string) tea.Cmd {
	return func() tea.Msg {
		result, err := a.ports.Connections.Connect(a.ctx, id, token)
		return messages.ConnectFinished{Provider: id, Result: result, Err: err}
	}
}

func (a *App) invokeAction(id domain.ProviderID, action string) tea.Cmd {
	return func() tea.Msg {
		result, err := a.ports.Connections.InvokeAction(a.ctx, id, action, map[string]any{})
		return messages.ActionFinished{Provider: id, Action: action, Result: result, Err: err}
	}
}

func (a *App) openPrompt(req messages.PromptRequested) tea.Cmd {
	a.promptFor = req
	a.switchTo(messages.ViewPrompt)
	if req.Purpose == messages.PromptToken {
		return a.prompt.Open(fmt.Sprintf("%s token", req.Provider), "paste API token", true)
	}
	return a.prompt.Open(fmt.Sprintf("%s setting", req.Provider), "key=value", false)
}

func (a *App) submitPrompt(value string) tea.Cmd {
	id := a.promptFor.Provider
	if value == "" {
		return nil
	}
	switch a.promptFor.Purpose {
	case messages.PromptToken:
		a.statusBar.Set(status.StateWorking, fmt.Sprintf("Verifying %s", id))
		return a.runConnect(id, value)
	case messages.PromptSetting:
		key, val, ok := strings.Cut(value, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			a.fail(fmt.Errorf("expected key=value, got %q", value))
			return nil
		}
		partial := domain.Settings{key: strings.TrimSpace(val)}
		a.statusBar.Set(status.StateWorking, fmt.Sprintf("Updating %s", id))
		return func() tea.Msg {
			warnings, err := a.ports.Connections.UpdateSettings(a.ctx, id, partial)
			return messages.ChangeFinished{Provider: id, Warnings: warnings, Err: err}
		}
	}
	return nil
}

func (a *App) finishConnect(msg messages.ConnectFinished) {
	if msg.Err != nil {
		a.fail(msg.Err)
		return
	}
	r := msg.Result
	switch {
	case r == nil:
		a.statusBar.Clear()
	case r.AuthURL != "":
		a.statusBar.Set(status.StateWarning, "Authorize in your browser: "+r.AuthURL)
	case r.Abandoned:
		a.statusBar.Set(status.StateWarning, fmt.Sprintf("%s sign-in window closed", msg.Provider))
	case r.Connected:
		a.finish(nil, r.Warnings, fmt.Sprintf("%s connected as %s", msg.Provider, r.AccountID))
	default:
		a.finish(nil, r.Warnings, fmt.Sprintf("%s: %s", msg.Provider, r.Phase))
	}
}

func (a *App) finish(err error, warnings []string, done string) {
	switch {
	case err != nil:
		a.fail(err)
	case len(warnings) > 0:
		a.err = nil
		a.statusBar.Set(status.StateWarning, strings.Join(warnings, "; "))
	default:
		a.err = nil
		a.statusBar.Set(status.StateDone, done)
	}
}

func (a *App) fail(err error) {
	a.err = err
	a.statusBar.Set(status.StateError, err.Error())
}

func (a *App) switchTo(view messages.ViewType) {
	if view == messages.ViewPrompt || view == messages.ViewHelp {
		if a.currentView != messages.ViewPrompt && a.currentView != messages.ViewHelp {
			a.previousView = a.currentView
		}
	}
	a.currentView = view
	if view == messages.ViewDetail {
		a.statusBar.SetBindings(a.keymap.DetailHelp())
	} else {
		a.statusBar.SetBindings(a.keymap.ListHelp())
	}
}

// load reads the orchestrator's in-memory view.
func (a *App) load() tea.Cmd {
	return func() tea.Msg {
		return messages.IntegrationsLoaded{Views: a.ports.Connections.List()}
	}
}

// hydrate reloads state from the backend.
func (a *App) hydrate() tea.Cmd {
	return func() tea.Msg {
		if err := a.ports.Connections.Hydrate(a.ctx); err != nil {
			return messages.IntegrationsLoaded{Err: err}
		}
		return messages.IntegrationsLoaded{Views: a.ports.Connections.List()}
	}
}

// scheduleTick keeps refreshing while any provider is mid-flow.
func (a *App) scheduleTick(views []driving.ProviderView) tea.Cmd {
	for _, v := range views {
		if v.Phase.IsInFlight() {
			return a.tick()
		}
	}
	return nil
}

func (a *App) tick() tea.Cmd {
	if a.ticking {
		return nil
	}
	a.ticking = true
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return messages.Tick{} })
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewDetail:
		body = a.detailView.View()
	case messages.ViewPrompt:
		body = a.prompt.View() + "\n\n" + a.styles.Help.Render("enter: submit | esc: cancel")
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		body = a.listView.View()
	}
	return body + "\n\n" + a.statusBar.View()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-12s %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// StatusMessage returns the status bar text.
func (a *App) StatusMessage() string {
	return a.statusBar.Message()
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.listView.SetDimensions(width, height)
	a.detailView.SetDimensions(width, height)
	a.prompt.SetWidth(width)
	a.statusBar.SetWidth(width)
}
