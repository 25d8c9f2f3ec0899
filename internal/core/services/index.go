package services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
	"github.com/nexuspj/nexuspj-rag/internal/logger"
)

// DefaultEmbedConcurrency bounds parallel embedding calls during upsert.
const DefaultEmbedConcurrency = 4

// IndexService embeds chunks and keeps them in a vector store.
type IndexService struct {
	store        driven.VectorStore
	embedder     driven.EmbeddingService
	concurrency  int
	embedTimeout time.Duration
}

// IndexOption configures an IndexService.
type IndexOption func(*IndexService)

// WithConcurrency sets the number of parallel embedding calls.
func WithConcurrency(n int) IndexOption {
	return func(s *IndexService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithEmbeddingTimeout bounds each embedding call. Zero disables the bound.
func WithEmbeddingTimeout(d time.Duration) IndexOption {
	return func(s *IndexService) {
		if d >= 0 {
			s.embedTimeout = d
		}
	}
}

// NewIndexService creates an index over store using embedder for vectors.
func NewIndexService(store driven.VectorStore, embedder driven.EmbeddingService, opts ...IndexOption) *IndexService {
	s := &IndexService{
		store:       store,
		embedder:    embedder,
		concurrency: DefaultEmbedConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Collection returns the underlying collection name.
func (s *IndexService) Collection() string {
	return s.store.Collection()
}

// Count returns the number of indexed chunks.
func (s *IndexService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Upsert embeds every chunk and writes the successful ones in a single
// transaction. It returns the number of chunks written. When any chunk
// fails, the error is a *domain.IngestionError naming the failed chunk IDs;
// the other chunks of the batch are still written.
func (s *IndexService) Upsert(ctx context.Context, chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	logger.Debug("Embedding %d chunks (concurrency %d)", len(chunks), s.concurrency)

	vectors := make([][]float32, len(chunks))
	failures := make([]error, len(chunks))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i := range chunks {
		g.Go(func() error {
			vec, err := s.embed(ctx, chunks[i].Text)
			if err != nil {
				failures[i] = err
				return nil
			}
			vectors[i] = vec
			return nil
		})
	}
	_ = g.Wait()

	entries := make([]driven.VectorEntry, 0, len(chunks))
	var failedIDs []string
	var firstErr error
	for i, chunk := range chunks {
		if failures[i] != nil {
			failedIDs = append(failedIDs, chunk.ID)
			if firstErr == nil {
				firstErr = failures[i]
			}
			logger.Debug("Embedding failed for chunk %s: %v", chunk.ID, failures[i])
			continue
		}
		entries = append(entries, driven.VectorEntry{
			ID:      chunk.ID,
			Vector:  vectors[i],
			Payload: chunk.Payload(),
		})
	}

	if len(entries) > 0 {
		if err := s.store.Insert(ctx, entries); err != nil {
			ids := make([]string, len(chunks))
			for i, c := range chunks {
				ids[i] = c.ID
			}
			return 0, &domain.IngestionError{ChunkIDs: ids, Err: err}
		}
	}

	if len(failedIDs) > 0 {
		logger.Warn("%d of %d chunks failed to embed", len(failedIDs), len(chunks))
		return len(entries), &domain.IngestionError{ChunkIDs: failedIDs, Err: firstErr}
	}

	return len(entries), nil
}

// Query returns the k chunks most similar to text, most similar first.
// Returns domain.ErrEmptyIndex when nothing has been indexed.
func (s *IndexService) Query(ctx context.Context, text string, k int) ([]domain.RetrievedChunk, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, domain.ErrEmptyIndex
	}

	vec, err := s.embed(ctx, text)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}

	results := make([]domain.RetrievedChunk, 0, len(matches))
	for _, m := range matches {
		results = append(results, domain.RetrievedChunk{
			Chunk: domain.ChunkFromPayload(m.ID, m.Payload),
			Score: m.Similarity,
		})
	}
	return results, nil
}

func (s *IndexService) embed(ctx context.Context, text string) ([]float32, error) {
	if s.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.embedTimeout)
		defer cancel()
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, domain.NewProviderError(s.embedder.ModelName(), "embed", err)
	}
	if len(vec) == 0 {
		return nil, domain.NewProviderError(s.embedder.ModelName(), "embed", errors.New("empty embedding"))
	}
	return vec, nil
}
