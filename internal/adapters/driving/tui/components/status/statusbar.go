// Package status renders the one-line status bar shared by the query and
// ingest views.
package status

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/keymap"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/styles"
	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

// State is the pipeline phase the bar is describing.
type State string

const (
	StateReady        State = "ready"
	StateSearching    State = "searching"
	StateSynthesising State = "synthesising"
	StateIngesting    State = "ingesting"
	StateIngested     State = "ingested"
	StateResults      State = "results"
	StateNoCorpus     State = "no_corpus"
	StateError        State = "error"
)

// NoCorpusHint is shown when a query runs against a collection nothing was
// ingested into.
const NoCorpusHint = "No rulings indexed yet. Ingest a query first."

const maxQueryWidth = 32

// Bar displays the current pipeline phase and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	query   string
	message string

	resultCount int
	topCase     string
	topScore    float64

	report *domain.IngestReport
	width  int
}

// NewBar creates a status bar in the ready state.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: 80}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update is a no-op; the owning view drives the bar.
func (s *Bar) Update(tea.Msg) (*Bar, tea.Cmd) {
	return s, nil
}

// StartSearch marks a retrieval for query as in flight.
func (s *Bar) StartSearch(query string) {
	s.begin(StateSearching, query)
}

// StartAnswer marks answer synthesis for query as in flight.
func (s *Bar) StartAnswer(query string) {
	s.begin(StateSynthesising, query)
}

// StartIngest marks an ingestion run for query as in flight.
func (s *Bar) StartIngest(query string) {
	s.begin(StateIngesting, query)
	s.report = nil
}

func (s *Bar) begin(state State, query string) {
	s.state = state
	s.query = strings.TrimSpace(query)
	s.message = ""
}

// ShowResults summarises retrieved chunks. The first chunk is the best match.
func (s *Bar) ShowResults(results []domain.RetrievedChunk) {
	s.state = StateResults
	s.message = ""
	s.resultCount = len(results)
	s.topCase, s.topScore = "", 0
	if len(results) > 0 {
		s.topCase = results[0].Chunk.CaseNumber
		s.topScore = results[0].Score
	}
}

// ShowReport summarises a finished ingestion run.
func (s *Bar) ShowReport(report *domain.IngestReport) {
	if report == nil {
		report = &domain.IngestReport{}
	}
	s.state = StateIngested
	s.message = ""
	s.report = report
}

// ShowError reports err. An empty index is rendered as a hint, not a failure.
func (s *Bar) ShowError(err error) {
	if errors.Is(err, domain.ErrEmptyIndex) {
		s.state = StateNoCorpus
		s.message = NoCorpusHint
		return
	}
	s.state = StateError
	s.message = err.Error()
}

// SetMessage overrides the summary with a one-off notice such as a saved path.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// Message returns the current notice or error text.
func (s *Bar) Message() string {
	return s.message
}

// ResultCount returns the number of chunks last shown.
func (s *Bar) ResultCount() int {
	return s.resultCount
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the bar to the ready state.
func (s *Bar) Clear() {
	*s = Bar{styles: s.styles, keymap: s.keymap, state: StateReady, width: s.width}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateSearching:
		return s.styles.Muted.Render(fmt.Sprintf("Searching %s...", quote(s.query)))
	case StateSynthesising:
		return s.styles.Muted.Render(fmt.Sprintf("Synthesising answer for %s...", quote(s.query)))
	case StateIngesting:
		return s.styles.Muted.Render(fmt.Sprintf("Ingesting %s...", quote(s.query)))
	case StateIngested:
		if s.message != "" {
			return s.styles.Success.Render(s.message)
		}
		return s.renderReport()
	case StateNoCorpus:
		return s.styles.Warning.Render(s.message)
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render("Error: " + s.message)
		}
		return s.styles.Error.Render("Error")
	case StateResults:
		if s.message != "" {
			return s.styles.Success.Render(s.message)
		}
		if s.resultCount == 0 {
			return s.styles.Muted.Render("No results")
		}
		summary := fmt.Sprintf("%d results", s.resultCount)
		if s.topCase != "" {
			summary += fmt.Sprintf(" · best %s (%.2f)", s.topCase, s.topScore)
		}
		return s.styles.Normal.Render(summary)
	}
	if s.message != "" {
		return s.styles.Success.Render(s.message)
	}
	return s.styles.Muted.Render("Ready")
}

func (s *Bar) renderReport() string {
	r := s.report
	if r == nil {
		return s.styles.Muted.Render("Ready")
	}
	summary := fmt.Sprintf("Indexed %d chunks from %d rulings", r.ChunksIndexed, r.HitsReceived)
	if !r.HasFailures() {
		return s.styles.Success.Render(summary)
	}
	return s.styles.Warning.Render(fmt.Sprintf("%s, %d rulings and %d chunks failed",
		summary, len(r.FailedHits), len(r.FailedChunks)))
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.state == StateResults && s.resultCount > 0 {
		bindings = s.keymap.ResultsHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

func quote(q string) string {
	r := []rune(q)
	if len(r) > maxQueryWidth {
		q = string(r[:maxQueryWidth-1]) + "…"
	}
	return fmt.Sprintf("%q", q)
}
