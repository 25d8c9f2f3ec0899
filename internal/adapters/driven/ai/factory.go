// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/nexuspj/nexuspj-rag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/nexuspj/nexuspj-rag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/nexuspj/nexuspj-rag/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/nexuspj/nexuspj-rag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/nexuspj/nexuspj-rag/internal/adapters/driven/llm/openai"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driven/rerank/crossencoder"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driven/rerank/lexical"
	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// SystemPrompt frames every synthesis request.
const SystemPrompt = "Eres un asistente jurídico que responde consultas sobre jurisprudencia costarricense " +
	"usando únicamente el contexto proporcionado."

// embeddingDimensions lists the vector size of well-known embedding models.
var embeddingDimensions = map[string]int{
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"bge-m3":                 1024,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Services holds the AI collaborators built from settings. Any field may be
// nil when the corresponding provider is not configured.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
	Scorer    driven.RelevanceScorer
	Warnings  []string
}

// Close releases all resources held by Services.
func (r *Services) Close() {
	if r.Embedding != nil {
		_ = r.Embedding.Close()
	}
	if r.LLM != nil {
		_ = r.LLM.Close()
	}
}

// Build creates every AI service named by settings. The embedding service is
// required; a missing or unreachable LLM only adds a warning because search
// works without it.
func Build(settings *domain.AppSettings) (*Services, error) {
	embedding, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, err
	}
	if embedding == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable)
	}

	out := &Services{Embedding: embedding}

	scorer, err := CreateRelevanceScorer(&settings.Reranker)
	if err != nil {
		out.Close()
		return nil, err
	}
	out.Scorer = scorer

	llm, err := CreateLLMService(&settings.LLM)
	switch {
	case err != nil:
		out.Warnings = append(out.Warnings, fmt.Sprintf("answer synthesis disabled: %v", err))
	case llm == nil:
		out.Warnings = append(out.Warnings, "answer synthesis disabled: no LLM provider configured")
	default:
		out.LLM = llm
	}
	return out, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'nexuspj settings set embedding.provider ...' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'nexuspj settings set llm.provider ...' to fix",
			domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig creates an embedding service from settings and pings it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig creates an LLM service from settings and pings it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service named by settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		dimensions := embeddingDimensions[settings.Model]
		if dimensions == 0 {
			dimensions = ollamaembed.DefaultDimensions
		}
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateLLMService creates the LLM service named by settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			System:  SystemPrompt,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			System:  SystemPrompt,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			System:  SystemPrompt,
		})

	default:
		return nil, fmt.Errorf("%w: LLM provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateRelevanceScorer creates the reranker backend named by settings.
// Returns nil for the "none" backend.
func CreateRelevanceScorer(settings *domain.RerankerSettings) (driven.RelevanceScorer, error) {
	if settings == nil {
		return nil, nil
	}

	switch settings.Backend {
	case domain.RerankerNone, "":
		return nil, nil
	case domain.RerankerLexical:
		return lexical.NewScorer(), nil
	case domain.RerankerHTTP:
		return crossencoder.NewScorer(crossencoder.Config{
			URL:   settings.URL,
			Model: settings.Model,
		})
	default:
		return nil, fmt.Errorf("%w: reranker backend %q", domain.ErrUnsupportedType, settings.Backend)
	}
}
