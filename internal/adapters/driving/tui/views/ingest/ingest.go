// Package ingest provides the view that pulls rulings from NEXUS PJ into the index.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/components/input"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/components/status"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/keymap"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/messages"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/styles"
	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driving"
)

// ErrNoPipelineService indicates that no pipeline service was provided.
var ErrNoPipelineService = errors.New("pipeline service is required")

// maxListedFailures caps the failures rendered under a report.
const maxListedFailures = 5

// View is the ingestion view: a query input and the last run's report.
type View struct {
	styles    *styles.Styles
	input     *input.QueryInput
	statusbar *status.Bar

	pipeline driving.PipelineService
	ctx      context.Context

	report  *domain.IngestReport
	running bool
	err     error
	width   int
	height  int
	ready   bool
}

// NewView creates a new ingest view.
func NewView(s *styles.Styles, km *keymap.KeyMap, pipeline driving.PipelineService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:    s,
		input:     input.NewQueryInput(s, "Ingest", "query sent to NEXUS PJ"),
		statusbar: status.NewBar(s, km),
		pipeline:  pipeline,
		ctx:       context.Background(),
		width:     80,
		height:    24,
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

// Update handles messages for the ingest view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.IngestCompleted:
		v.running = false
		v.input.Focus()
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		if msg.Report == nil {
			msg.Report = &domain.IngestReport{}
		}
		v.err = nil
		v.report = msg.Report
		v.statusbar.ShowReport(msg.Report)
		return v, nil

	case messages.ErrorOccurred:
		v.running = false
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.running {
		return v, nil
	}

	if msg.Type == tea.KeyEnter {
		query := v.input.Value()
		if query == "" {
			return v, nil
		}
		v.running = true
		v.err = nil
		v.input.Blur()
		v.statusbar.StartIngest(query)
		return v, v.performIngest(query)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) performIngest(query string) tea.Cmd {
	pipeline := v.pipeline
	ctx := v.ctx
	return func() tea.Msg {
		if pipeline == nil {
			return messages.ErrorOccurred{Err: ErrNoPipelineService}
		}
		report, err := pipeline.Ingest(ctx, query)
		return messages.IngestCompleted{Report: report, Err: err}
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.ShowError(err)
}

// View renders the ingest view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{v.styles.Title.Render("NEXUS PJ · Ingest"), "", v.input.View(), ""}

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	if v.report != nil {
		sections = append(sections, v.renderReport(), "")
	}

	sections = append(sections, v.styles.Help.Render("[enter] ingest  [esc] back"), "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderReport() string {
	r := v.report
	var b strings.Builder

	field := func(label, value string) {
		b.WriteString(v.styles.Label.Render(fmt.Sprintf("%-16s", label+":")))
		b.WriteString(v.styles.Normal.Render(value))
		b.WriteString("\n")
	}

	field("Provider query", r.Query.ProviderQuery)
	if len(r.Query.Keywords) > 0 {
		field("Keywords", strings.Join(r.Query.Keywords, ", "))
	}
	field("Hits", fmt.Sprintf("%d", r.HitsReceived))
	field("Chunks indexed", fmt.Sprintf("%d", r.ChunksIndexed))
	field("Duration", r.Duration.Round(time.Millisecond).String())

	if r.HasFailures() {
		b.WriteString("\n")
		b.WriteString(v.styles.Warning.Render(
			fmt.Sprintf("%d hit(s) and %d chunk(s) failed", len(r.FailedHits), len(r.FailedChunks))))
		b.WriteString("\n")
		for i := range r.FailedHits {
			if i == maxListedFailures {
				b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  ... and %d more", len(r.FailedHits)-i)))
				b.WriteString("\n")
				break
			}
			b.WriteString(v.styles.Muted.Render("  " + r.FailedHits[i].Error()))
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
}

// Report returns the last ingestion report.
func (v *View) Report() *domain.IngestReport {
	return v.report
}

// Running reports whether an ingestion is in flight.
func (v *View) Running() bool {
	return v.running
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// SetQuery sets the query input.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Reset clears the input, report and error.
func (v *View) Reset() {
	v.input.SetValue("")
	v.input.Focus()
	v.report = nil
	v.running = false
	v.err = nil
	v.statusbar.Clear()
}
