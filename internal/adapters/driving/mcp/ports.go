package mcp

import (
	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driving"
)

// PromptSource reads prompt templates by name.
type PromptSource interface {
	Load(name string) (string, error)
}

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Pipeline provides ingestion and search.
	Pipeline driving.PipelineService

	// Answer synthesises answers. Optional: the ask tool is only
	// registered when set.
	Answer driving.AnswerService

	// Settings exposes the effective configuration as a resource. Optional.
	Settings driving.SettingsService

	// Prompts exposes prompt templates as resources. Optional.
	Prompts PromptSource

	// Defaults fill search options the caller leaves unset.
	Defaults domain.SearchOptions

	// Collection names the vector collection served, for client instructions.
	Collection string
}

func (p *Ports) collection() string {
	if p.Collection == "" {
		return domain.DefaultCollection
	}
	return p.Collection
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Pipeline == nil {
		return ErrMissingPipelineService
	}
	return nil
}
