package driving

import (
	"context"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

// PipelineService exposes the two pipeline entry points to external actors.
// Each call is stateless apart from the shared vector index.
type PipelineService interface {
	// Ingest normalises the query, fetches hits from the provider and indexes
	// their chunks. Per-hit and per-chunk failures are listed in the report.
	Ingest(ctx context.Context, query string) (*domain.IngestReport, error)

	// Search retrieves chunks similar to query, optionally reranked.
	// Returns domain.ErrEmptyIndex when nothing has been ingested yet.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.RetrievedChunk, error)
}

// AnswerService synthesises natural-language answers from retrieved chunks.
type AnswerService interface {
	// Ask searches with opts and asks the LLM to answer from the results.
	Ask(ctx context.Context, query string, opts domain.SearchOptions) (*domain.Answer, error)
}
