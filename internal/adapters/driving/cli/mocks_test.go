package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driving"
)

// mockPipelineService implements driving.PipelineService with canned results.
type mockPipelineService struct {
	results []domain.RetrievedChunk
	report  *domain.IngestReport
	err     error

	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockPipelineService) Ingest(_ context.Context, query string) (*domain.IngestReport, error) {
	m.lastQuery = query
	return m.report, m.err
}

func (m *mockPipelineService) Search(
	_ context.Context, query string, opts domain.SearchOptions,
) ([]domain.RetrievedChunk, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

// mockAnswerService implements driving.AnswerService.
type mockAnswerService struct {
	answer *domain.Answer
	err    error

	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockAnswerService) Ask(_ context.Context, query string, opts domain.SearchOptions) (*domain.Answer, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.answer, m.err
}

// mockSettingsService implements driving.SettingsService over an in-memory AppSettings.
type mockSettingsService struct {
	settings    domain.AppSettings
	set         map[string]string
	setErr      error
	validateErr error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), set: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"search.vector_top_k", "embedding.api_key"}
}

func (m *mockSettingsService) Display() ([][2]string, error) {
	return [][2]string{
		{"search.vector_top_k", "20"},
		{"embedding.api_key", "********"},
	}, nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM = domain.LLMSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetReranker(backend domain.RerankerBackend, url string) error {
	m.settings.Reranker = domain.RerankerSettings{Backend: backend, URL: url}
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }

func (m *mockSettingsService) ValidateLLMConfig() error { return nil }

// mockSaver records saved results.
type mockSaver struct {
	saved [][]domain.RetrievedChunk
	err   error
}

func (m *mockSaver) Save(results []domain.RetrievedChunk) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.saved = append(m.saved, results)
	return "chunks/chunkstest.txt", nil
}

var (
	_ driving.PipelineService = (*mockPipelineService)(nil)
	_ driving.AnswerService   = (*mockAnswerService)(nil)
	_ driving.SettingsService = (*mockSettingsService)(nil)
)

var errMockFailure = errors.New("mock failure")

func testChunks() []domain.RetrievedChunk {
	return []domain.RetrievedChunk{
		{
			Chunk: domain.Chunk{
				ID:               "c-1",
				Text:             "El despido de la trabajadora embarazada es nulo.",
				Office:           "Sala Segunda",
				CaseNumber:       "19-000123-0007-LA",
				InfoType:         "Sentencia",
				Date:             "2021-03-04",
				SourceDocumentID: "EXP-1",
			},
			Score: 0.91,
		},
	}
}

// testServices bundles the mocks installed by setupTestServices.
type testServices struct {
	pipeline *mockPipelineService
	answer   *mockAnswerService
	settings *mockSettingsService
	saver    *mockSaver
}

// setupTestServices installs mocks and returns them with a cleanup func that
// restores the previous services and resets every flag.
func setupTestServices() (*testServices, func()) {
	oldPipeline, oldAnswer, oldSettings := pipelineService, answerService, settingsService
	oldSaver, oldDefaults, oldBootstrap := chunkSaver, searchDefaults, bootstrap

	ts := &testServices{
		pipeline: &mockPipelineService{
			results: testChunks(),
			report: &domain.IngestReport{
				Query:         domain.Query{Raw: "despido", Normalized: "despido", ProviderQuery: "despido"},
				HitsReceived:  2,
				ChunksIndexed: 7,
			},
		},
		answer: &mockAnswerService{
			answer: &domain.Answer{Text: "El despido es nulo.", Sources: testChunks()},
		},
		settings: newMockSettingsService(),
		saver:    &mockSaver{},
	}

	bootstrap = nil
	pipelineService = ts.pipeline
	answerService = ts.answer
	settingsService = ts.settings
	chunkSaver = ts.saver
	searchDefaults = domain.SearchOptions{VectorTopK: 20, RerankerTopN: 3, UseReranker: true}

	return ts, func() {
		pipelineService, answerService, settingsService = oldPipeline, oldAnswer, oldSettings
		chunkSaver, searchDefaults, bootstrap = oldSaver, oldDefaults, oldBootstrap
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

// resetFlags restores every flag in the tree to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
