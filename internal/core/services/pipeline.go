package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driving"
	"github.com/nexuspj/nexuspj-rag/internal/logger"
	"github.com/nexuspj/nexuspj-rag/internal/normalisers/query"
)

// Ensure PipelineService implements the interface.
var _ driving.PipelineService = (*PipelineService)(nil)

// PipelineService sequences ingestion and search. Apart from the index
// handle it holds no state between calls.
type PipelineService struct {
	provider  driven.DocumentSearchProvider
	segmenter driven.PostProcessorPipeline
	builder   *NodeBuilder
	index     *IndexService
	retriever *Retriever
	reranker  *RerankService
	lock      driven.WriterLock

	keywords      driven.KeywordExtractor
	searchTimeout time.Duration
}

// NewPipelineService wires the pipeline. reranker and lock may be nil;
// a nil lock means the caller serialises writers itself.
func NewPipelineService(
	provider driven.DocumentSearchProvider,
	segmenter driven.PostProcessorPipeline,
	index *IndexService,
	reranker *RerankService,
	lock driven.WriterLock,
) *PipelineService {
	return &PipelineService{
		provider:  provider,
		segmenter: segmenter,
		builder:   NewNodeBuilder(nil),
		index:     index,
		retriever: NewRetriever(index),
		reranker:  reranker,
		lock:      lock,
	}
}

// SetKeywordExtractor enables keyword queries towards the provider.
func (s *PipelineService) SetKeywordExtractor(extractor driven.KeywordExtractor) {
	s.keywords = extractor
}

// SetNodeBuilder replaces the node builder, e.g. for deterministic IDs.
func (s *PipelineService) SetNodeBuilder(builder *NodeBuilder) {
	if builder != nil {
		s.builder = builder
	}
}

// SetSearchTimeout bounds each provider call. Zero disables the bound.
func (s *PipelineService) SetSearchTimeout(d time.Duration) {
	s.searchTimeout = d
}

// PrepareQuery normalises raw and, when a keyword extractor is set, derives
// the keyword expression sent to the provider.
func (s *PipelineService) PrepareQuery(ctx context.Context, raw string) (domain.Query, error) {
	q := domain.Query{Raw: raw, Normalized: query.Normalize(raw)}
	if q.Normalized == "" {
		return q, fmt.Errorf("%w: query is empty after normalisation", domain.ErrInvalidInput)
	}
	q.ProviderQuery = q.Normalized

	if s.keywords == nil {
		return q, nil
	}

	phrases, err := s.keywords.Extract(ctx, q.Normalized)
	if err != nil {
		if ctx.Err() != nil {
			return q, ctx.Err()
		}
		logger.Warn("Keyword extraction failed, using full query: %v", err)
		return q, nil
	}
	q.Keywords = phrases
	q.ProviderQuery = query.ComposeKeywords(q.Normalized, phrases)
	logger.Debug("Keywords: %v", phrases)
	return q, nil
}

// Ingest fetches hits for raw from the provider, segments them and indexes
// the resulting chunks. A hit that fails to segment or yields no chunk is
// listed in the report and skipped. Chunks that fail to index are listed in
// the report and the returned error is a *domain.IngestionError.
func (s *PipelineService) Ingest(ctx context.Context, raw string) (*domain.IngestReport, error) {
	logger.Section("Ingest")
	start := time.Now()

	q, err := s.PrepareQuery(ctx, raw)
	if err != nil {
		return nil, err
	}
	report := &domain.IngestReport{Query: q}
	logger.Info("Provider query: %q", q.ProviderQuery)

	if s.lock != nil {
		handle, err := s.lock.Acquire(ctx, s.index.Collection())
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := handle.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("Release writer lock: %v", err)
			}
		}()
	}

	hits, err := s.searchProvider(ctx, q.ProviderQuery)
	if err != nil {
		return nil, err
	}
	report.HitsReceived = len(hits)
	logger.Info("Received %d hits", len(hits))

	var chunks []domain.Chunk
	for _, hit := range hits {
		texts, err := s.segmenter.Segment(ctx, hit.Content)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			report.FailedHits = append(report.FailedHits, domain.HitError{HitID: hit.ID, Err: err})
			logger.Warn("Segment hit %s: %v", hit.ID, err)
			continue
		}
		if len(texts) == 0 {
			report.FailedHits = append(report.FailedHits, domain.HitError{HitID: hit.ID, Err: domain.ErrChunkingDegenerate})
			logger.Debug("Hit %s yields no usable chunks", hit.ID)
			continue
		}
		chunks = append(chunks, s.builder.Build(hit, texts)...)
	}

	n, err := s.index.Upsert(ctx, chunks)
	report.ChunksIndexed = n
	report.Duration = time.Since(start)
	if err != nil {
		var ingestErr *domain.IngestionError
		if errors.As(err, &ingestErr) {
			report.FailedChunks = ingestErr.ChunkIDs
		}
		return report, err
	}

	logger.With("ingest finished",
		"hits", report.HitsReceived,
		"chunks", report.ChunksIndexed,
		"failed_hits", len(report.FailedHits),
		"duration", report.Duration)
	return report, nil
}

// Search retrieves chunks similar to raw and reranks them when requested.
func (s *PipelineService) Search(
	ctx context.Context, raw string, opts domain.SearchOptions,
) ([]domain.RetrievedChunk, error) {
	logger.Section("Search")
	opts = opts.WithDefaults()

	text := strings.TrimSpace(raw)
	logger.Debug("Query: %q, vector_top_k=%d, reranker_top_n=%d, use_reranker=%t",
		text, opts.VectorTopK, opts.RerankerTopN, opts.UseReranker)

	candidates, err := s.retriever.Retrieve(ctx, text, opts.VectorTopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	logger.Debug("Retrieved %d candidates", len(candidates))

	if !opts.UseReranker {
		return truncate(candidates, opts.RerankerTopN), nil
	}

	results, err := s.reranker.Rerank(ctx, text, candidates, opts.RerankerTopN)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}
	return results, nil
}

func (s *PipelineService) searchProvider(ctx context.Context, q string) ([]domain.Hit, error) {
	if s.searchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.searchTimeout)
		defer cancel()
	}

	hits, err := s.provider.Search(ctx, q)
	if err != nil {
		return nil, domain.NewProviderError(s.provider.Name(), "search", err)
	}
	return hits, nil
}
