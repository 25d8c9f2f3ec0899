// Package search provides the query view for the TUI. The same view serves
// plain retrieval and answer synthesis, selected by Mode.
package search

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/components/input"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/components/list"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/components/status"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/keymap"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/messages"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/styles"
	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driving"
)

// Mode selects what the view does with a submitted query.
type Mode int

const (
	// ModeSearch retrieves and lists chunks.
	ModeSearch Mode = iota
	// ModeAsk retrieves chunks and synthesises an answer from them.
	ModeAsk
)

// ChunkSaver writes retrieved chunks somewhere durable and returns where.
type ChunkSaver interface {
	Save(results []domain.RetrievedChunk) (string, error)
}

// Services holds the collaborators of the view. Answer and Saver are optional.
type Services struct {
	Pipeline driving.PipelineService
	Answer   driving.AnswerService
	Saver    ChunkSaver
	Defaults domain.SearchOptions
}

// View represents the query view with input, results list, and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ResultList
	statusbar *status.Bar

	mode     Mode
	services Services
	ctx      context.Context

	answer     string
	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = input mode (typing), false = results mode (navigating)
}

// NewView creates a new query view.
func NewView(s *styles.Styles, km *keymap.KeyMap, mode Mode, services Services) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	label := "Search"
	if mode == ModeAsk {
		label = "Question"
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s, label, ""),
		list:       list.NewResultList(s),
		statusbar:  status.NewBar(s, km),
		mode:       mode,
		services:   services,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the query view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleResults(msg.Results, msg.Err)
		return v, nil

	case messages.AnswerCompleted:
		if msg.Err != nil || msg.Answer == nil {
			v.answer = ""
			v.handleResults(nil, msg.Err)
			return v, nil
		}
		v.answer = msg.Answer.Text
		v.handleResults(msg.Answer.Sources, nil)
		return v, nil

	case messages.ResultsSaved:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.statusbar.SetMessage("Saved " + msg.Path)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var inputCmd tea.Cmd
	v.input, inputCmd = v.input.Update(msg)
	if inputCmd != nil {
		cmds = append(cmds, inputCmd)
	}

	var listCmd tea.Cmd
	v.list, listCmd = v.list.Update(msg)
	if listCmd != nil {
		cmds = append(cmds, listCmd)
	}

	return v, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if msg.Type == tea.KeyEnter && v.focusInput {
		query := v.input.Value()
		if query == "" {
			return v, nil
		}
		v.focusInput = false
		v.input.Blur()
		if v.mode == ModeAsk {
			v.statusbar.StartAnswer(query)
			return v, v.performAsk(query)
		}
		v.statusbar.StartSearch(query)
		return v, v.performSearch(query)
	}

	if v.focusInput {
		v.input, _ = v.input.Update(msg)
		return v, nil
	}

	if msg.Type == tea.KeyEnter {
		result := v.list.SelectedResult()
		if result == nil {
			return v, nil
		}
		selected := *result
		return v, func() tea.Msg {
			return messages.ResultSelected{Result: selected}
		}
	}

	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyUp:
		v.list.MoveUp()
		return v, nil
	case tea.KeyDown:
		v.list.MoveDown()
		return v, nil
	}

	switch msg.String() {
	case "k":
		v.list.MoveUp()
	case "j":
		v.list.MoveDown()
	case "n":
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	case "s":
		return v, v.saveResults()
	}

	return v, nil
}

// options returns the defaults with the reranker always on, matching the
// interactive flows that show only the best few chunks.
func (v *View) options() domain.SearchOptions {
	opts := v.services.Defaults
	opts.UseReranker = true
	return opts
}

// performSearch runs retrieval and reports the results.
func (v *View) performSearch(query string) tea.Cmd {
	pipeline := v.services.Pipeline
	opts := v.options()
	ctx := v.ctx
	return func() tea.Msg {
		if pipeline == nil {
			return messages.ErrorOccurred{Err: ErrNoPipelineService}
		}
		results, err := pipeline.Search(ctx, query, opts)
		return messages.SearchCompleted{Results: results, Err: err}
	}
}

// performAsk runs retrieval plus synthesis and reports the answer.
func (v *View) performAsk(query string) tea.Cmd {
	answers := v.services.Answer
	opts := v.options()
	ctx := v.ctx
	return func() tea.Msg {
		if answers == nil {
			return messages.ErrorOccurred{Err: ErrNoAnswerService}
		}
		answer, err := answers.Ask(ctx, query, opts)
		return messages.AnswerCompleted{Answer: answer, Err: err}
	}
}

// saveResults writes the listed chunks through the saver.
func (v *View) saveResults() tea.Cmd {
	saver := v.services.Saver
	results := v.list.Results()
	return func() tea.Msg {
		if saver == nil || len(results) == 0 {
			return messages.ResultsSaved{Err: ErrNothingToSave}
		}
		path, err := saver.Save(results)
		return messages.ResultsSaved{Path: path, Err: err}
	}
}

// handleResults shows retrieved chunks or the error that replaced them.
func (v *View) handleResults(results []domain.RetrievedChunk, err error) {
	if err != nil {
		v.list.SetResults(nil)
		v.setError(err)
		return
	}

	v.err = nil
	v.list.SetResults(results)
	v.statusbar.ShowResults(results)

	v.focusInput = false
	v.input.Blur()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.ShowError(err)
}

// View renders the query view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	title := "NEXUS PJ · Search"
	if v.mode == ModeAsk {
		title = "NEXUS PJ · Ask"
	}

	sections := make([]string, 0, 12)
	sections = append(sections, v.styles.Title.Render(title), "", v.input.View(), "")

	if v.err != nil {
		if errors.Is(v.err, domain.ErrEmptyIndex) {
			sections = append(sections, v.styles.Warning.Render(status.NoCorpusHint), "")
		} else {
			sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
		}
	}

	if v.mode == ModeAsk && v.answer != "" {
		answerWidth := v.width - 4
		if answerWidth < 20 {
			answerWidth = 20
		}
		sections = append(sections,
			v.styles.Subtitle.Render("Answer"),
			v.styles.Answer.Width(answerWidth).Render(v.answer),
			"",
		)
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	reserved := 10
	if v.mode == ModeAsk {
		reserved = height / 2
	}
	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-reserved)
	v.statusbar.SetWidth(width)
}

// Mode returns the view mode.
func (v *View) Mode() Mode {
	return v.mode
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current query.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the query.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Answer returns the last synthesised answer text.
func (v *View) Answer() string {
	return v.answer
}

// Results returns the listed chunks.
func (v *View) Results() []domain.RetrievedChunk {
	return v.list.Results()
}

// SelectedIndex returns the index of the selected result.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// StatusMessage returns the status bar message.
func (v *View) StatusMessage() string {
	return v.statusbar.Message()
}

// Reset resets the view to initial input mode.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.answer = ""
	v.err = nil
	v.statusbar.Clear()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
