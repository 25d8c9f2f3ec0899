// Package tui provides an interactive terminal user interface for nexuspj.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/views/search"
	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Pipeline ingests provider results and searches the index.
	Pipeline driving.PipelineService

	// Answer synthesises answers. Optional; the Ask view reports an error without it.
	Answer driving.AnswerService

	// Settings manages application settings.
	Settings driving.SettingsService

	// Saver writes displayed results to disk. Optional.
	Saver search.ChunkSaver

	// Defaults are the search options used by the Search and Ask views.
	Defaults domain.SearchOptions

	// PromptEvents delivers names of prompt templates reloaded from disk. Optional.
	PromptEvents <-chan string
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	pipeline driving.PipelineService,
	answer driving.AnswerService,
	settings driving.SettingsService,
) *Ports {
	return &Ports{
		Pipeline: pipeline,
		Answer:   answer,
		Settings: settings,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Pipeline == nil {
		return ErrMissingPipelineService
	}
	return nil
}
