// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

// SearchCompleted carries retrieved chunks back to the model.
type SearchCompleted struct {
	Results []domain.RetrievedChunk
	Err     error
}

// AnswerCompleted carries a synthesised answer back to the model.
type AnswerCompleted struct {
	Answer *domain.Answer
	Err    error
}

// IngestCompleted carries an ingestion report back to the model.
type IngestCompleted struct {
	Report *domain.IngestReport
	Err    error
}

// ResultSelected is sent when a retrieved chunk is opened.
type ResultSelected struct {
	Result domain.RetrievedChunk
}

// ResultsSaved is sent after the current results were written to disk.
type ResultsSaved struct {
	Path string
	Err  error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewIngest fetches rulings from the provider into the index.
	ViewIngest
	// ViewSearch is the query input and results view.
	ViewSearch
	// ViewAsk is the question input, answer and sources view.
	ViewAsk
	// ViewChunkDetail shows one retrieved chunk with its provenance.
	ViewChunkDetail
	// ViewSettings is the settings configuration view.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewIngest:
		return "ingest"
	case ViewSearch:
		return "search"
	case ViewAsk:
		return "ask"
	case ViewChunkDetail:
		return "chunk_detail"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// SettingsLoaded carries the displayable settings rows.
type SettingsLoaded struct {
	Rows [][2]string
	Err  error
}

// SettingsSaved signals a setting was updated.
type SettingsSaved struct {
	Key string
	Err error
}

// PromptReloaded signals a prompt template changed on disk.
type PromptReloaded struct {
	Name string
}
