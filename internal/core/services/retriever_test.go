package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

// stubQuerier implements chunkQuerier for testing.
type stubQuerier struct {
	results []domain.RetrievedChunk
	err     error
	count   int
	lastK   int
	calls   int
}

func (s *stubQuerier) Count(_ context.Context) (int, error) {
	return s.count, nil
}

func (s *stubQuerier) Query(_ context.Context, _ string, k int) ([]domain.RetrievedChunk, error) {
	s.calls++
	s.lastK = k
	return s.results, s.err
}

func retrieved(ids ...string) []domain.RetrievedChunk {
	out := make([]domain.RetrievedChunk, len(ids))
	for i, id := range ids {
		out[i] = domain.RetrievedChunk{
			Chunk: domain.Chunk{ID: id, Text: "texto " + id},
			Score: 1 - float64(i)/10,
		}
	}
	return out
}

func TestRetriever_BlankQuery(t *testing.T) {
	querier := &stubQuerier{count: 3}
	retriever := NewRetriever(querier)

	results, err := retriever.Retrieve(context.Background(), "   ", 5)

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Equal(t, 0, querier.calls)
}

func TestRetriever_BlankQueryOnEmptyIndex(t *testing.T) {
	querier := &stubQuerier{}
	retriever := NewRetriever(querier)

	results, err := retriever.Retrieve(context.Background(), "   ", 5)

	assert.ErrorIs(t, err, domain.ErrEmptyIndex)
	assert.Nil(t, results)
	assert.Equal(t, 0, querier.calls)
}

func TestRetriever_DefaultK(t *testing.T) {
	querier := &stubQuerier{}
	retriever := NewRetriever(querier)

	results, err := retriever.Retrieve(context.Background(), "despido", 0)

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Equal(t, domain.DefaultVectorTopK, querier.lastK)
}

func TestRetriever_TruncatesToK(t *testing.T) {
	querier := &stubQuerier{results: retrieved("a", "b", "c")}
	retriever := NewRetriever(querier)

	results, err := retriever.Retrieve(context.Background(), "despido", 2)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Chunk.ID)
	assert.Equal(t, "b", results[1].Chunk.ID)
}

func TestRetriever_PropagatesErrors(t *testing.T) {
	retriever := NewRetriever(&stubQuerier{err: domain.ErrEmptyIndex})

	_, err := retriever.Retrieve(context.Background(), "despido", 2)

	assert.True(t, errors.Is(err, domain.ErrEmptyIndex))
}
