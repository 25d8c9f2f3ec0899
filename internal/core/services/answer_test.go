package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

// stubPipeline implements driving.PipelineService for testing.
type stubPipeline struct {
	results   []domain.RetrievedChunk
	searchErr error
}

func (s *stubPipeline) Ingest(_ context.Context, _ string) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, nil
}

func (s *stubPipeline) Search(_ context.Context, _ string, _ domain.SearchOptions) ([]domain.RetrievedChunk, error) {
	return s.results, s.searchErr
}

func sourceChunks() []domain.RetrievedChunk {
	return []domain.RetrievedChunk{
		{Chunk: domain.Chunk{ID: "c1", Text: despidoText, SourceDocumentID: "EXP-1", Office: "Sala I",
			CaseNumber: "19-000123-0007-LA", InfoType: "Sentencia", Date: "2021-03-04"}, Score: 0.8},
		{Chunk: domain.Chunk{ID: "c2", Text: pensionText, SourceDocumentID: "EXP-2"}, Score: 0.3},
	}
}

func TestAnswerService_Ask_NoLLM(t *testing.T) {
	service := NewAnswerService(&stubPipeline{results: sourceChunks()}, nil, 0)

	_, err := service.Ask(context.Background(), "despido", domain.SearchOptions{})

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestAnswerService_Ask(t *testing.T) {
	llm := &mockLLMService{response: "  El despido fue injustificado.\n"}
	service := NewAnswerService(&stubPipeline{results: sourceChunks()}, llm, 0)

	answer, err := service.Ask(context.Background(), "¿Fue injustificado el despido?", domain.SearchOptions{})

	require.NoError(t, err)
	assert.Equal(t, "El despido fue injustificado.", answer.Text)
	assert.Equal(t, "¿Fue injustificado el despido?", answer.Query)
	assert.Len(t, answer.Sources, 2)

	require.Len(t, llm.prompts, 1)
	prompt := llm.prompts[0]
	assert.Contains(t, prompt, "Consulta: ¿Fue injustificado el despido?")
	assert.Contains(t, prompt, "ID de la Sentencia: EXP-1")
	assert.Contains(t, prompt, "Despacho: Sala I")
	assert.Contains(t, prompt, despidoText)
	assert.NotContains(t, prompt, "{context_str}")
	assert.NotContains(t, prompt, "{query_str}")
}

func TestAnswerService_Ask_NoSourcesSkipsLLM(t *testing.T) {
	llm := &mockLLMService{response: "inventado"}
	service := NewAnswerService(&stubPipeline{results: []domain.RetrievedChunk{}}, llm, 0)

	answer, err := service.Ask(context.Background(), "despido", domain.SearchOptions{})

	require.NoError(t, err)
	assert.Empty(t, answer.Text)
	assert.Empty(t, llm.prompts)
}

func TestAnswerService_Ask_SearchError(t *testing.T) {
	llm := &mockLLMService{}
	service := NewAnswerService(&stubPipeline{searchErr: domain.ErrEmptyIndex}, llm, 0)

	_, err := service.Ask(context.Background(), "despido", domain.SearchOptions{})

	assert.ErrorIs(t, err, domain.ErrEmptyIndex)
	assert.Empty(t, llm.prompts)
}

func TestAnswerService_Ask_LLMError(t *testing.T) {
	llm := &mockLLMService{generateErr: errors.New("model not found")}
	service := NewAnswerService(&stubPipeline{results: sourceChunks()}, llm, 0)

	_, err := service.Ask(context.Background(), "despido", domain.SearchOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "mock-llm synthesize")
}

func TestAnswerService_CustomPrompt(t *testing.T) {
	llm := &mockLLMService{response: "ok"}
	service := NewAnswerService(&stubPipeline{results: sourceChunks()}, llm, 0)
	service.SetPromptStore(&mockPromptStore{prompt: "Q={query_str}"})

	_, err := service.Ask(context.Background(), "despido", domain.SearchOptions{})

	require.NoError(t, err)
	assert.Equal(t, "Q=despido", llm.prompts[0])
}

func TestAnswerService_PromptStoreErrorUsesDefault(t *testing.T) {
	llm := &mockLLMService{response: "ok"}
	service := NewAnswerService(&stubPipeline{results: sourceChunks()}, llm, 0)
	service.SetPromptStore(&mockPromptStore{loadErr: errors.New("missing")})

	_, err := service.Ask(context.Background(), "despido", domain.SearchOptions{})

	require.NoError(t, err)
	assert.Contains(t, llm.prompts[0], "La información de contexto se encuentra a continuación.")
}

func TestBuildContext(t *testing.T) {
	ctx := BuildContext(sourceChunks())

	expected := "ID de la Sentencia: EXP-1\nDespacho: Sala I\nExpediente: 19-000123-0007-LA\n" +
		"Tipo de información: Sentencia\nFecha: 2021-03-04\n" + despidoText +
		"\n\nID de la Sentencia: EXP-2\nDespacho: \nExpediente: \nTipo de información: \nFecha: \n" + pensionText
	assert.Equal(t, expected, ctx)
	assert.Empty(t, BuildContext(nil))
}
