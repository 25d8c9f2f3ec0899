package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// RerankerBackend identifies how candidate chunks are scored in the second stage.
type RerankerBackend string

// Available reranker backends.
const (
	// RerankerNone disables reranking; candidates pass through.
	RerankerNone RerankerBackend = "none"

	// RerankerHTTP calls a cross-encoder served over HTTP (TEI style /rerank).
	RerankerHTTP RerankerBackend = "http"

	// RerankerLexical scores by term overlap, no model required.
	RerankerLexical RerankerBackend = "lexical"
)

// IsValid returns true if the backend is recognised.
func (b RerankerBackend) IsValid() bool {
	switch b {
	case RerankerNone, RerankerHTTP, RerankerLexical:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b RerankerBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b RerankerBackend) Description() string {
	switch b {
	case RerankerNone:
		return "None (vector order only)"
	case RerankerHTTP:
		return "Cross-encoder (HTTP)"
	case RerankerLexical:
		return "Lexical overlap"
	default:
		return unknownDescription
	}
}

// LockBackend identifies the writer lock implementation.
type LockBackend string

// Available lock backends.
const (
	LockLocal LockBackend = "local"
	LockRedis LockBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b LockBackend) IsValid() bool {
	return b == LockLocal || b == LockRedis
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RerankerSettings holds second-stage ranking configuration.
type RerankerSettings struct {
	Backend RerankerBackend

	// URL is the cross-encoder endpoint (http backend only).
	URL string

	// Model is passed to the cross-encoder when the server hosts several.
	Model string
}

// SearchSettings holds defaults for search calls.
type SearchSettings struct {
	VectorTopK   int
	RerankerTopN int
	UseReranker  bool
}

// Options converts the settings into per-call search options.
func (s SearchSettings) Options() SearchOptions {
	return SearchOptions{
		VectorTopK:   s.VectorTopK,
		RerankerTopN: s.RerankerTopN,
		UseReranker:  s.UseReranker,
	}
}

// ProviderSettings holds document search provider configuration.
type ProviderSettings struct {
	// URL is the search endpoint.
	URL string

	// PageSize is the number of hits requested per query.
	PageSize int

	// RatePerSecond caps outgoing requests.
	RatePerSecond float64
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	// Dir is the directory holding the index database.
	Dir string

	// Collection is the corpus name.
	Collection string

	// Ephemeral keeps the index in memory only.
	Ephemeral bool
}

// IngestSettings holds ingestion behaviour.
type IngestSettings struct {
	// Concurrency bounds parallel embedding calls.
	Concurrency int

	// UseKeywords sends extracted keywords to the provider instead of the query.
	UseKeywords bool

	// KeywordTopN is the number of phrases kept by the extractor.
	KeywordTopN int
}

// LockSettings holds writer lock configuration.
type LockSettings struct {
	Backend   LockBackend
	RedisAddr string
	TTL       time.Duration
}

// TimeoutSettings bounds each external call.
type TimeoutSettings struct {
	Search    time.Duration
	Embedding time.Duration
	Rerank    time.Duration
	Synthesis time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Reranker  RerankerSettings
	Search    SearchSettings
	Provider  ProviderSettings
	Index     IndexSettings
	Ingest    IngestSettings
	Lock      LockSettings
	Timeouts  TimeoutSettings
	Pipeline  PipelineConfig
}

// Well-known defaults.
const (
	DefaultCollection       = "sentencias"
	DefaultProviderURL      = "https://nexuspj.poder-judicial.go.cr/api/search"
	DefaultProviderPageSize = 10
	DefaultOllamaURL        = "http://localhost:11434"
)

// DefaultAppSettings returns settings with sensible defaults.
// Everything runs locally against Ollama out of the box.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
			BaseURL:  DefaultOllamaURL,
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModels()[AIProviderOllama],
			BaseURL:  DefaultOllamaURL,
		},
		Reranker: RerankerSettings{
			Backend: RerankerLexical,
		},
		Search: SearchSettings{
			VectorTopK:   DefaultVectorTopK,
			RerankerTopN: DefaultRerankerTopN,
			UseReranker:  true,
		},
		Provider: ProviderSettings{
			URL:           DefaultProviderURL,
			PageSize:      DefaultProviderPageSize,
			RatePerSecond: 2,
		},
		Index: IndexSettings{
			Collection: DefaultCollection,
		},
		Ingest: IngestSettings{
			Concurrency: 4,
			UseKeywords: false,
			KeywordTopN: 2,
		},
		Lock: LockSettings{
			Backend: LockLocal,
			TTL:     10 * time.Minute,
		},
		Timeouts: TimeoutSettings{
			Search:    30 * time.Second,
			Embedding: 60 * time.Second,
			Rerank:    30 * time.Second,
			Synthesis: 2 * time.Minute,
		},
		Pipeline: DefaultPipelineConfig(),
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// AllRerankerBackends returns all reranker backends.
func AllRerankerBackends() []RerankerBackend {
	return []RerankerBackend{
		RerankerNone,
		RerankerHTTP,
		RerankerLexical,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// PipelineConfig holds segmenter pipeline configuration.
// Uses generic map-based config so new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig returns the default segmenter: recursive split
// followed by cleaning.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker", "cleaner"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": 1024,
				"overlap":    15,
			},
			"cleaner": {
				"min_length": 100,
			},
		},
	}
}
