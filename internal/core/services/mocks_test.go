package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService with a
// deterministic bag-of-words hash, so similar texts get similar vectors.
type mockEmbeddingService struct {
	mu       sync.Mutex
	embedErr error
	failOn   string
	calls    int
}

const mockDims = 32

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return nil, errors.New("embedding backend rejected input")
	}

	vec := make([]float32, mockDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(word, ".,;:()")))
		vec[h.Sum32()%mockDims]++
	}
	return vec, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		result[i] = vec
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return mockDims
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockSearchProvider implements driven.DocumentSearchProvider for testing.
type mockSearchProvider struct {
	hits      []domain.Hit
	searchErr error
	queries   []string
}

func (m *mockSearchProvider) Name() string {
	return "mock-provider"
}

func (m *mockSearchProvider) Search(_ context.Context, query string) ([]domain.Hit, error) {
	m.queries = append(m.queries, query)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.hits, nil
}

// mockScorer implements driven.RelevanceScorer for testing.
type mockScorer struct {
	scores   []float64
	scoreErr error
	passages []string
}

func (m *mockScorer) Name() string {
	return "mock-scorer"
}

func (m *mockScorer) Score(_ context.Context, _ string, passages []string) ([]float64, error) {
	m.passages = passages
	if m.scoreErr != nil {
		return nil, m.scoreErr
	}
	return m.scores, nil
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	response    string
	generateErr error
	prompts     []string
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.response, m.generateErr
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

// mockSegmenter implements driven.PostProcessorPipeline by splitting on
// blank lines.
type mockSegmenter struct {
	segmentErr error
	failOn     string
}

func (m *mockSegmenter) Segment(_ context.Context, text string) ([]string, error) {
	if m.segmentErr != nil {
		return nil, m.segmentErr
	}
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return nil, errors.New("segmenter failed")
	}
	var out []string
	for _, part := range strings.Split(text, "\n\n") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}

// mockKeywordExtractor implements driven.KeywordExtractor for testing.
type mockKeywordExtractor struct {
	phrases    []string
	extractErr error
}

func (m *mockKeywordExtractor) Extract(_ context.Context, _ string) ([]string, error) {
	return m.phrases, m.extractErr
}

// mockLock implements driven.WriterLock for testing.
type mockLock struct {
	acquireErr error
	acquired   []string
	released   int
}

func (m *mockLock) Acquire(_ context.Context, collection string) (driven.LockHandle, error) {
	if m.acquireErr != nil {
		return nil, m.acquireErr
	}
	m.acquired = append(m.acquired, collection)
	return m, nil
}

func (m *mockLock) Release(_ context.Context) error {
	m.released++
	return nil
}

// failingVectorStore wraps a store and fails every insert.
type failingVectorStore struct {
	driven.VectorStore
	insertErr error
}

func (f *failingVectorStore) Insert(_ context.Context, _ []driven.VectorEntry) error {
	return f.insertErr
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompt  string
	loadErr error
}

func (m *mockPromptStore) Load(_ string) (string, error) {
	return m.prompt, m.loadErr
}

func (m *mockPromptStore) Reload() {}

// sequentialIDs returns an IDGenerator yielding chunk-1, chunk-2, ...
func sequentialIDs() IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return "chunk-" + strconv.Itoa(n)
	}
}
