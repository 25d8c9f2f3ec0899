// Package settings provides the settings configuration view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/messages"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/styles"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driving"
)

// ErrNoSettingsService is returned when the view has no settings service.
var ErrNoSettingsService = errors.New("settings service not available")

// Key constants for key handling.
const (
	keyUp    = "up"
	keyDown  = "down"
	keyEnter = "enter"
	keyEsc   = "esc"
)

// Lines used by the title, error and help rows.
const chromeLines = 8

// View lists every setting as a key/value row and edits one at a time.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	rows   [][2]string
	loaded bool
	err    error
	status string

	selected int
	offset   int
	editing  bool
	input    textinput.Model

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	input := textinput.New()
	input.CharLimit = 512
	input.Width = 50

	return &View{
		styles:          s,
		settingsService: settingsService,
		input:           input,
		width:           80,
		height:          24,
	}
}

// Init initialises the view and loads settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

// loadSettings returns a command that loads the displayable settings.
func (v *View) loadSettings() tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: ErrNoSettingsService}
		}
		rows, err := svc.Display()
		return messages.SettingsLoaded{Rows: rows, Err: err}
	}
}

// saveSetting returns a command that persists one setting.
func (v *View) saveSetting(key, value string) tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsSaved{Key: key, Err: ErrNoSettingsService}
		}
		return messages.SettingsSaved{Key: key, Err: svc.Set(key, value)}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		v.loaded = true
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.rows = msg.Rows
		v.err = nil
		if v.selected >= len(v.rows) {
			v.selected = max(len(v.rows)-1, 0)
		}
		v.clampOffset()
		return v, nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			v.status = ""
			return v, nil
		}
		v.err = nil
		v.status = "Saved " + msg.Key
		return v, v.loadSettings()

	case tea.KeyMsg:
		if v.editing {
			return v.handleEditKeys(msg)
		}
		return v.handleListKeys(msg)
	}

	return v, nil
}

func (v *View) handleListKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case keyEsc:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case keyUp, "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < len(v.rows)-1 {
			v.selected++
		}
	case "r":
		v.status = ""
		return v, v.loadSettings()
	case keyEnter:
		if len(v.rows) == 0 {
			return v, nil
		}
		v.startEditing()
		return v, textinput.Blink
	}
	v.clampOffset()
	return v, nil
}

func (v *View) handleEditKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case keyEsc:
		v.stopEditing()
		return v, nil
	case keyEnter:
		key := v.rows[v.selected][0]
		value := strings.TrimSpace(v.input.Value())
		v.stopEditing()
		return v, v.saveSetting(key, value)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) startEditing() {
	key, value := v.rows[v.selected][0], v.rows[v.selected][1]
	v.editing = true
	v.status = ""
	v.input.Prompt = key + ": "
	if isSecret(key) {
		// Masked values are never echoed back into the editor.
		v.input.EchoMode = textinput.EchoPassword
		v.input.SetValue("")
	} else {
		v.input.EchoMode = textinput.EchoNormal
		v.input.SetValue(value)
	}
	v.input.CursorEnd()
	v.input.Focus()
}

func (v *View) stopEditing() {
	v.editing = false
	v.input.Blur()
	v.input.SetValue("")
}

// clampOffset keeps the selected row inside the visible window.
func (v *View) clampOffset() {
	visible := v.visibleRows()
	if v.selected < v.offset {
		v.offset = v.selected
	}
	if v.selected >= v.offset+visible {
		v.offset = v.selected - visible + 1
	}
	if v.offset < 0 {
		v.offset = 0
	}
}

func (v *View) visibleRows() int {
	return max(v.height-chromeLines, 3)
}

func isSecret(key string) bool {
	return strings.HasSuffix(key, ".api_key")
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	if !v.loaded {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	if len(v.rows) == 0 {
		b.WriteString(v.styles.Muted.Render("No settings available."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	keyWidth := 0
	for _, row := range v.rows {
		keyWidth = max(keyWidth, len(row[0]))
	}

	end := min(v.offset+v.visibleRows(), len(v.rows))
	for i := v.offset; i < end; i++ {
		row := v.rows[i]
		if i == v.selected && v.editing {
			b.WriteString("> ")
			b.WriteString(v.input.View())
			b.WriteString("\n")
			continue
		}

		value := row[1]
		if value == "" {
			value = "-"
		}
		line := fmt.Sprintf("%-*s  %s", keyWidth, row[0], value)
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + line))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}

	if v.status != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Success.Render(v.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

func (v *View) renderHelp() string {
	if v.editing {
		return v.styles.Help.Render("[enter] save  [esc] cancel")
	}
	return v.styles.Help.Render("[j/k] navigate  [enter] edit  [r] reload  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.Width = max(width-30, 20)
	v.clampOffset()
}

// Rows returns the currently loaded settings.
func (v *View) Rows() [][2]string {
	return v.rows
}

// Selected returns the index of the highlighted row.
func (v *View) Selected() int {
	return v.selected
}

// Editing reports whether a value is being edited.
func (v *View) Editing() bool {
	return v.editing
}

// Err returns the last load or save error.
func (v *View) Err() error {
	return v.err
}

// Status returns the last status message.
func (v *View) Status() string {
	return v.status
}

// Reset resets the view to initial state.
func (v *View) Reset() {
	v.selected = 0
	v.offset = 0
	v.err = nil
	v.status = ""
	v.stopEditing()
}
