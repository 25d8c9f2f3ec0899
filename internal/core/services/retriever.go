package services

import (
	"context"
	"strings"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

// chunkQuerier is the part of IndexService the retriever needs.
type chunkQuerier interface {
	Query(ctx context.Context, text string, k int) ([]domain.RetrievedChunk, error)
	Count(ctx context.Context) (int, error)
}

// Retriever issues nearest-neighbour queries against the index.
type Retriever struct {
	index chunkQuerier
}

// NewRetriever creates a retriever over index.
func NewRetriever(index chunkQuerier) *Retriever {
	return &Retriever{index: index}
}

// Retrieve returns at most k chunks ordered by descending similarity.
// A non-nil empty slice is a valid result; domain.ErrEmptyIndex means no
// corpus has been ingested yet, including for a blank query.
func (r *Retriever) Retrieve(ctx context.Context, text string, k int) ([]domain.RetrievedChunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		count, err := r.index.Count(ctx)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, domain.ErrEmptyIndex
		}
		return []domain.RetrievedChunk{}, nil
	}
	if k <= 0 {
		k = domain.DefaultVectorTopK
	}

	results, err := r.index.Query(ctx, text, k)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []domain.RetrievedChunk{}
	}
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
