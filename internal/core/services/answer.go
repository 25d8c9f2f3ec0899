package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driving"
	"github.com/nexuspj/nexuspj-rag/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)
var _ driven.PromptStoreAware = (*AnswerService)(nil)

// AnswerService synthesises answers from search results.
type AnswerService struct {
	search  driving.PipelineService
	llm     driven.LLMService
	prompts driven.PromptStore
	timeout time.Duration
}

// NewAnswerService creates an answer service.
func NewAnswerService(search driving.PipelineService, llm driven.LLMService, timeout time.Duration) *AnswerService {
	return &AnswerService{search: search, llm: llm, timeout: timeout}
}

// SetPromptStore sets the prompt store for loading a custom answer prompt.
func (s *AnswerService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Ask searches for query and asks the LLM to answer from the results.
// With no results the answer text is empty and the LLM is not called.
func (s *AnswerService) Ask(ctx context.Context, query string, opts domain.SearchOptions) (*domain.Answer, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	sources, err := s.search.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	answer := &domain.Answer{Query: query, Sources: sources}
	if len(sources) == 0 {
		return answer, nil
	}

	prompt := strings.NewReplacer(
		"{context_str}", BuildContext(sources),
		"{query_str}", query,
	).Replace(s.template())

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger.Debug("Synthesising answer from %d chunks with %s", len(sources), s.llm.ModelName())
	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0.1})
	if err != nil {
		return nil, domain.NewProviderError(s.llm.ModelName(), "synthesize", err)
	}
	answer.Text = strings.TrimSpace(text)
	return answer, nil
}

func (s *AnswerService) template() string {
	if s.prompts == nil {
		return driven.DefaultAnswerPrompt
	}
	tmpl, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil || strings.TrimSpace(tmpl) == "" {
		if err != nil {
			logger.Warn("Load answer prompt: %v", err)
		}
		return driven.DefaultAnswerPrompt
	}
	return tmpl
}

// BuildContext renders chunks with their metadata as LLM context, in order.
func BuildContext(chunks []domain.RetrievedChunk) string {
	var b strings.Builder
	for i, rc := range chunks {
		c := rc.Chunk
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "ID de la Sentencia: %s\nDespacho: %s\nExpediente: %s\nTipo de información: %s\nFecha: %s\n%s",
			c.SourceDocumentID, c.Office, c.CaseNumber, c.InfoType, c.Date, c.Text)
	}
	return b.String()
}
