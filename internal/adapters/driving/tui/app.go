package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/messages"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/styles"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/views/chunkdetail"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/views/ingest"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/views/menu"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/views/search"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/views/settings"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	menuView        *menu.View
	ingestView      *ingest.View
	searchView      *search.View
	askView         *search.View
	chunkDetailView *chunkdetail.View
	settingsView    *settings.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// notice is a transient message shown above the active view.
	notice string

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	services := search.Services{
		Pipeline: ports.Pipeline,
		Answer:   ports.Answer,
		Saver:    ports.Saver,
		Defaults: ports.Defaults,
	}

	return &App{
		ports:           ports,
		ctx:             context.Background(),
		styles:          s,
		menuView:        menu.NewView(s),
		ingestView:      ingest.NewView(s, nil, ports.Pipeline),
		searchView:      search.NewView(s, nil, search.ModeSearch, services),
		askView:         search.NewView(s, nil, search.ModeAsk, services),
		chunkDetailView: chunkdetail.NewView(s),
		settingsView:    settings.NewView(s, ports.Settings),
		currentView:     messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and every view that calls services.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.ingestView.WithContext(ctx)
	a.searchView.WithContext(ctx)
	a.askView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("nexuspj - Case Law"),
		a.waitForPrompt(),
	)
}

// waitForPrompt blocks on the next prompt reload event.
func (a *App) waitForPrompt() tea.Cmd {
	events := a.ports.PromptEvents
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		name, ok := <-events
		if !ok {
			return nil
		}
		return messages.PromptReloaded{Name: name}
	}
}

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		a.notice = ""

		switch a.currentView {
		case messages.ViewMenu:
			a.menuView, cmd = a.menuView.Update(msg)
		case messages.ViewIngest:
			a.ingestView, cmd = a.ingestView.Update(msg)
		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
			a.err = a.searchView.Err()
		case messages.ViewAsk:
			a.askView, cmd = a.askView.Update(msg)
			a.err = a.askView.Err()
		case messages.ViewChunkDetail:
			a.chunkDetailView, cmd = a.chunkDetailView.Update(msg)
		case messages.ViewSettings:
			a.settingsView, cmd = a.settingsView.Update(msg)
		case messages.ViewHelp:
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
		}
		return a, cmd

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.AnswerCompleted:
		a.askView, cmd = a.askView.Update(msg)
		a.err = a.askView.Err()
		return a, cmd

	case messages.IngestCompleted:
		a.ingestView, cmd = a.ingestView.Update(msg)
		a.err = a.ingestView.Err()
		return a, cmd

	case messages.ResultsSaved:
		if a.currentView == messages.ViewAsk {
			a.askView, cmd = a.askView.Update(msg)
		} else {
			a.searchView, cmd = a.searchView.Update(msg)
		}
		return a, cmd

	case messages.ResultSelected:
		a.chunkDetailView.SetResult(msg.Result, a.currentView)
		a.currentView = messages.ViewChunkDetail
		return a, nil

	case messages.ViewChanged:
		from := a.currentView
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewIngest:
			a.ingestView.Reset()
			return a, a.ingestView.Init()
		case messages.ViewSearch:
			if from != messages.ViewChunkDetail {
				a.searchView.Reset()
			}
			return a, a.searchView.Init()
		case messages.ViewAsk:
			if from != messages.ViewChunkDetail {
				a.askView.Reset()
			}
			return a, a.askView.Init()
		case messages.ViewSettings:
			a.settingsView.Reset()
			return a, a.settingsView.Init()
		case messages.ViewMenu, messages.ViewHelp, messages.ViewChunkDetail:
			// No initialisation needed.
		}
		return a, nil

	case messages.SettingsLoaded, messages.SettingsSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.PromptReloaded:
		a.notice = fmt.Sprintf("Prompt %q reloaded", msg.Name)
		return a, a.waitForPrompt()

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewIngest:
			a.ingestView, cmd = a.ingestView.Update(msg)
		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
		case messages.ViewAsk:
			a.askView, cmd = a.askView.Update(msg)
		case messages.ViewMenu, messages.ViewChunkDetail, messages.ViewSettings, messages.ViewHelp:
			// These views don't display errors from commands.
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages (cursor blink etc.) to the active view.
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewIngest:
		a.ingestView, cmd = a.ingestView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewAsk:
		a.askView, cmd = a.askView.Update(msg)
	case messages.ViewChunkDetail:
		a.chunkDetailView, cmd = a.chunkDetailView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
		// Help view doesn't need to handle other messages
	}

	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	body := a.viewBody()
	if a.notice != "" {
		return a.styles.Success.Render(a.notice) + "\n" + body
	}
	return body
}

func (a *App) viewBody() string {
	switch a.currentView {
	case messages.ViewIngest:
		return a.ingestView.View()
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewAsk:
		return a.askView.View()
	case messages.ViewChunkDetail:
		return a.chunkDetailView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  1-6         Jump to option
  enter       Select option
  q           Quit

Ingest:
  (type)      Enter a query for NEXUS PJ
  enter       Fetch, chunk and index matching rulings

Search / Ask:
  (type)      Enter a query or question
  enter       Submit

Results:
  j/k, ↑/↓    Navigate results
  enter       Open chunk
  s           Save results to a file
  n           New query

Settings:
  j/k, ↑/↓    Navigate settings
  enter       Edit, then enter to save
  r           Reload

[esc] back to menu`
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

// Notice returns the transient notice, if any.
func (a *App) Notice() string {
	return a.notice
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.ingestView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.askView.SetDimensions(width, height)
	a.chunkDetailView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
