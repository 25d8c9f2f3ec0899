// Package mcp provides an MCP (Model Context Protocol) server adapter for NEXUS PJ RAG.
// It lets AI assistants ingest jurisprudence, search the local index and ask for answers.
package mcp

import (
	"errors"
	"fmt"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

var (
	// ErrMissingPipelineService is returned when the pipeline service is not provided.
	ErrMissingPipelineService = errors.New("mcp: pipeline service is required")

	// ErrNoCorpus is the tool error for a query against an empty collection.
	ErrNoCorpus = errors.New("no rulings indexed yet, call the ingest tool with a query first")
)

// queryError maps an empty index to ErrNoCorpus, keeping the cause in the chain.
func queryError(err error) error {
	if errors.Is(err, domain.ErrEmptyIndex) {
		return fmt.Errorf("%w (%w)", ErrNoCorpus, err)
	}
	return err
}
