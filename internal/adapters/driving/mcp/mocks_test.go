package mcp

import (
	"context"
	"errors"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

// mockPipelineService is a mock implementation of driving.PipelineService.
type mockPipelineService struct {
	results    []domain.RetrievedChunk
	report     *domain.IngestReport
	err        error
	lastQuery  string
	lastOpts   domain.SearchOptions
	ingestCall int
}

func (m *mockPipelineService) Ingest(_ context.Context, query string) (*domain.IngestReport, error) {
	m.ingestCall++
	m.lastQuery = query
	return m.report, m.err
}

func (m *mockPipelineService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.RetrievedChunk, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer   *domain.Answer
	err      error
	lastOpts domain.SearchOptions
}

func (m *mockAnswerService) Ask(_ context.Context, _ string, opts domain.SearchOptions) (*domain.Answer, error) {
	m.lastOpts = opts
	return m.answer, m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	rows [][2]string
	err  error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := domain.DefaultAppSettings()
	return &s, m.err
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error { return m.err }

func (m *mockSettingsService) Set(_, _ string) error { return m.err }

func (m *mockSettingsService) Keys() []string { return nil }

func (m *mockSettingsService) Display() ([][2]string, error) { return m.rows, m.err }

func (m *mockSettingsService) SetEmbeddingProvider(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) SetLLMProvider(_ domain.AIProvider, _, _ string) error { return m.err }

func (m *mockSettingsService) SetReranker(_ domain.RerankerBackend, _ string) error { return m.err }

func (m *mockSettingsService) Validate() error { return m.err }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.err }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.err }

// mockPromptSource is a mock PromptSource keyed by name.
type mockPromptSource map[string]string

func (m mockPromptSource) Load(name string) (string, error) {
	text, ok := m[name]
	if !ok {
		return "", errors.New("unknown prompt")
	}
	return text, nil
}
