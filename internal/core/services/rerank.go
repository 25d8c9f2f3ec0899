package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
	"github.com/nexuspj/nexuspj-rag/internal/logger"
	"github.com/nexuspj/nexuspj-rag/internal/vecmath"
)

// RerankService reorders retrieved candidates with a pairwise relevance model.
type RerankService struct {
	scorer  driven.RelevanceScorer
	timeout time.Duration
}

// NewRerankService creates a reranker. A nil scorer disables reranking.
func NewRerankService(scorer driven.RelevanceScorer, timeout time.Duration) *RerankService {
	return &RerankService{scorer: scorer, timeout: timeout}
}

// Enabled reports whether a scorer is configured.
func (s *RerankService) Enabled() bool {
	return s != nil && s.scorer != nil
}

// Rerank scores every (query, chunk text) pair and returns the candidates
// sorted by that score, truncated to topN when topN > 0. The vector
// similarity order only decides ties. Without a scorer the candidates pass
// through in their original order, truncated the same way. The result is
// always a subset of candidates.
func (s *RerankService) Rerank(
	ctx context.Context, query string, candidates []domain.RetrievedChunk, topN int,
) ([]domain.RetrievedChunk, error) {
	if !s.Enabled() || len(candidates) == 0 {
		return truncate(candidates, topN), nil
	}

	passages := make([]string, len(candidates))
	for i, c := range candidates {
		passages[i] = c.Chunk.Text
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	scores, err := s.scorer.Score(ctx, query, passages)
	if err != nil {
		return nil, domain.NewProviderError(s.scorer.Name(), "rerank", err)
	}
	if len(scores) != len(candidates) {
		return nil, domain.NewProviderError(s.scorer.Name(), "rerank",
			fmt.Errorf("got %d scores for %d passages", len(scores), len(candidates)))
	}
	logger.Debug("Reranked %d candidates with %s in %v", len(candidates), s.scorer.Name(), time.Since(start))

	ranked := vecmath.TopK(scores, topN)
	out := make([]domain.RetrievedChunk, len(ranked))
	for i, r := range ranked {
		out[i] = domain.RetrievedChunk{
			Chunk: candidates[r.Index].Chunk,
			Score: r.Score,
		}
	}
	return out, nil
}

func truncate(candidates []domain.RetrievedChunk, topN int) []domain.RetrievedChunk {
	out := make([]domain.RetrievedChunk, len(candidates))
	copy(out, candidates)
	if topN > 0 && topN < len(out) {
		out = out[:topN]
	}
	return out
}
