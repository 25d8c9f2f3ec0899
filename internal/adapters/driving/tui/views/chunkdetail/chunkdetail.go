// Package chunkdetail provides the view that shows one retrieved chunk in full.
package chunkdetail

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/messages"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/styles"
	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

// View is the chunk detail view.
type View struct {
	styles *styles.Styles

	result       *domain.RetrievedChunk
	back         messages.ViewType
	scrollOffset int
	width        int
	height       int
	ready        bool
}

// NewView creates a new chunk detail view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		back:   messages.ViewSearch,
		width:  80,
		height: 24,
	}
}

// SetResult sets the chunk to display and the view esc returns to.
func (v *View) SetResult(result domain.RetrievedChunk, back messages.ViewType) {
	v.result = &result
	v.back = back
	v.scrollOffset = 0
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the chunk detail view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "esc":
		back := v.back
		return v, func() tea.Msg {
			return messages.ViewChanged{View: back}
		}
	}

	return v, nil
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	available := v.height - 6
	if available < 1 {
		available = 1
	}
	return available
}

func (v *View) maxScrollOffset() int {
	maxOffset := len(v.buildContent()) - v.visibleLines()
	if maxOffset < 0 {
		maxOffset = 0
	}
	return maxOffset
}

// buildContent builds the provenance fields followed by the wrapped text.
func (v *View) buildContent() []string {
	if v.result == nil {
		return nil
	}
	c := v.result.Chunk

	lines := []string{
		v.formatField("Case", c.CaseNumber),
		v.formatField("Office", c.Office),
		v.formatField("Type", c.InfoType),
		v.formatField("Date", c.Date),
		v.formatField("Document", c.SourceDocumentID),
		v.formatField("Chunk", c.ID),
		v.formatField("Score", fmt.Sprintf("%.4f", v.result.Score)),
		"",
	}

	textWidth := v.width - 4
	if textWidth < 20 {
		textWidth = 20
	}
	wrapped := lipgloss.NewStyle().Width(textWidth).Render(c.Text)
	return append(lines, strings.Split(wrapped, "\n")...)
}

func (v *View) formatField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return v.styles.Label.Render(fmt.Sprintf("%-10s", label+":")) + " " + v.styles.Normal.Render(value)
}

// View renders the chunk detail view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Chunk"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", minInt(v.width-4, 60)))
	b.WriteString("\n\n")

	if v.result == nil {
		b.WriteString(v.styles.Muted.Render("No chunk selected"))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	lines := v.buildContent()
	visible := v.visibleLines()
	for i := v.scrollOffset; i < len(lines) && i < v.scrollOffset+visible; i++ {
		b.WriteString(lines[i])
		b.WriteString("\n")
	}

	if len(lines) > visible {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]",
			v.scrollOffset+1,
			minInt(v.scrollOffset+visible, len(lines)),
			len(lines))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] scroll  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Result returns the displayed chunk.
func (v *View) Result() *domain.RetrievedChunk {
	return v.result
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
