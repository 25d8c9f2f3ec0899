package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

func ids(chunks []domain.RetrievedChunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Chunk.ID
	}
	return out
}

func TestRerankService_Enabled(t *testing.T) {
	var nilService *RerankService
	assert.False(t, nilService.Enabled())
	assert.False(t, NewRerankService(nil, 0).Enabled())
	assert.True(t, NewRerankService(&mockScorer{}, 0).Enabled())
}

func TestRerankService_ReordersByScore(t *testing.T) {
	scorer := &mockScorer{scores: []float64{0.1, 0.9, 0.5}}
	service := NewRerankService(scorer, time.Second)

	results, err := service.Rerank(context.Background(), "despido", retrieved("a", "b", "c"), 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(results))
	assert.InDelta(t, 0.9, results[0].Score, 1e-9)
	assert.Equal(t, []string{"texto a", "texto b", "texto c"}, scorer.passages)
}

func TestRerankService_TiesKeepVectorOrder(t *testing.T) {
	scorer := &mockScorer{scores: []float64{0.5, 0.5, 0.7}}
	service := NewRerankService(scorer, 0)

	results, err := service.Rerank(context.Background(), "despido", retrieved("a", "b", "c"), 0)

	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids(results))
}

func TestRerankService_Disabled_PassesThrough(t *testing.T) {
	service := NewRerankService(nil, 0)
	candidates := retrieved("a", "b", "c")

	results, err := service.Rerank(context.Background(), "despido", candidates, 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(results))
	assert.Len(t, candidates, 3)
}

func TestRerankService_EmptyCandidates(t *testing.T) {
	scorer := &mockScorer{scoreErr: errors.New("should not be called")}
	service := NewRerankService(scorer, 0)

	results, err := service.Rerank(context.Background(), "despido", nil, 3)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Nil(t, scorer.passages)
}

func TestRerankService_ScorerError(t *testing.T) {
	service := NewRerankService(&mockScorer{scoreErr: errors.New("model offline")}, 0)

	_, err := service.Rerank(context.Background(), "despido", retrieved("a"), 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "mock-scorer")
}

func TestRerankService_ScoreCountMismatch(t *testing.T) {
	service := NewRerankService(&mockScorer{scores: []float64{1}}, 0)

	_, err := service.Rerank(context.Background(), "despido", retrieved("a", "b"), 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "got 1 scores for 2 passages")
}

func TestRerankService_ResultIsSubsetOfCandidates(t *testing.T) {
	service := NewRerankService(&mockScorer{scores: []float64{3, 1, 2, 0}}, 0)
	candidates := retrieved("a", "b", "c", "d")

	results, err := service.Rerank(context.Background(), "despido", candidates, 10)

	require.NoError(t, err)
	assert.ElementsMatch(t, ids(candidates), ids(results))
}
