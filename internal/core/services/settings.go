package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyRerankerBackend  = "reranker.backend"
	keyRerankerURL      = "reranker.url"
	keyRerankerModel    = "reranker.model"
	keyVectorTopK       = "search.vector_top_k"
	keyRerankerTopN     = "search.reranker_top_n"
	keyUseReranker      = "search.use_reranker"
	keyProviderURL      = "provider.url"
	keyProviderPageSize = "provider.page_size"
	keyProviderRate     = "provider.rate_per_second"
	keyIndexDir         = "index.dir"
	keyIndexCollection  = "index.collection"
	keyIndexEphemeral   = "index.ephemeral"
	keyIngestWorkers    = "ingest.concurrency"
	keyUseKeywords      = "ingest.use_keywords"
	keyKeywordTopN      = "ingest.keyword_top_n"
	keyLockBackend      = "lock.backend"
	keyLockRedisAddr    = "lock.redis_addr"
	keyLockTTL          = "lock.ttl"
	keyTimeoutSearch    = "timeouts.search"
	keyTimeoutEmbedding = "timeouts.embedding"
	keyTimeoutRerank    = "timeouts.rerank"
	keyTimeoutSynthesis = "timeouts.synthesis"
	keyChunkSize        = "chunker.chunk_size"
	keyChunkOverlap     = "chunker.overlap"
	keyMinLength        = "cleaner.min_length"
)

// binding ties a config key to one field of AppSettings. Exactly one of the
// pointer accessors is set, or proc names a processor config entry.
type binding struct {
	key      string
	str      func(*domain.AppSettings) *string
	num      func(*domain.AppSettings) *int
	flag     func(*domain.AppSettings) *bool
	real     func(*domain.AppSettings) *float64
	dur      func(*domain.AppSettings) *time.Duration
	proc     [2]string
	validate func(string) error
	secret   bool
}

// bindings lists every persisted setting in display order.
var bindings = []binding{
	{key: keyEmbedProvider, str: func(a *domain.AppSettings) *string { return (*string)(&a.Embedding.Provider) }, validate: validProvider},
	{key: keyEmbedModel, str: func(a *domain.AppSettings) *string { return &a.Embedding.Model }},
	{key: keyEmbedBaseURL, str: func(a *domain.AppSettings) *string { return &a.Embedding.BaseURL }},
	{key: keyEmbedAPIKey, str: func(a *domain.AppSettings) *string { return &a.Embedding.APIKey }, secret: true},
	{key: keyLLMProvider, str: func(a *domain.AppSettings) *string { return (*string)(&a.LLM.Provider) }, validate: validProvider},
	{key: keyLLMModel, str: func(a *domain.AppSettings) *string { return &a.LLM.Model }},
	{key: keyLLMBaseURL, str: func(a *domain.AppSettings) *string { return &a.LLM.BaseURL }},
	{key: keyLLMAPIKey, str: func(a *domain.AppSettings) *string { return &a.LLM.APIKey }, secret: true},
	{key: keyRerankerBackend, str: func(a *domain.AppSettings) *string { return (*string)(&a.Reranker.Backend) }, validate: validReranker},
	{key: keyRerankerURL, str: func(a *domain.AppSettings) *string { return &a.Reranker.URL }},
	{key: keyRerankerModel, str: func(a *domain.AppSettings) *string { return &a.Reranker.Model }},
	{key: keyVectorTopK, num: func(a *domain.AppSettings) *int { return &a.Search.VectorTopK }},
	{key: keyRerankerTopN, num: func(a *domain.AppSettings) *int { return &a.Search.RerankerTopN }},
	{key: keyUseReranker, flag: func(a *domain.AppSettings) *bool { return &a.Search.UseReranker }},
	{key: keyProviderURL, str: func(a *domain.AppSettings) *string { return &a.Provider.URL }},
	{key: keyProviderPageSize, num: func(a *domain.AppSettings) *int { return &a.Provider.PageSize }},
	{key: keyProviderRate, real: func(a *domain.AppSettings) *float64 { return &a.Provider.RatePerSecond }},
	{key: keyIndexDir, str: func(a *domain.AppSettings) *string { return &a.Index.Dir }},
	{key: keyIndexCollection, str: func(a *domain.AppSettings) *string { return &a.Index.Collection }},
	{key: keyIndexEphemeral, flag: func(a *domain.AppSettings) *bool { return &a.Index.Ephemeral }},
	{key: keyIngestWorkers, num: func(a *domain.AppSettings) *int { return &a.Ingest.Concurrency }},
	{key: keyUseKeywords, flag: func(a *domain.AppSettings) *bool { return &a.Ingest.UseKeywords }},
	{key: keyKeywordTopN, num: func(a *domain.AppSettings) *int { return &a.Ingest.KeywordTopN }},
	{key: keyLockBackend, str: func(a *domain.AppSettings) *string { return (*string)(&a.Lock.Backend) }, validate: validLock},
	{key: keyLockRedisAddr, str: func(a *domain.AppSettings) *string { return &a.Lock.RedisAddr }},
	{key: keyLockTTL, dur: func(a *domain.AppSettings) *time.Duration { return &a.Lock.TTL }},
	{key: keyTimeoutSearch, dur: func(a *domain.AppSettings) *time.Duration { return &a.Timeouts.Search }},
	{key: keyTimeoutEmbedding, dur: func(a *domain.AppSettings) *time.Duration { return &a.Timeouts.Embedding }},
	{key: keyTimeoutRerank, dur: func(a *domain.AppSettings) *time.Duration { return &a.Timeouts.Rerank }},
	{key: keyTimeoutSynthesis, dur: func(a *domain.AppSettings) *time.Duration { return &a.Timeouts.Synthesis }},
	{key: keyChunkSize, proc: [2]string{"chunker", "chunk_size"}},
	{key: keyChunkOverlap, proc: [2]string{"chunker", "overlap"}},
	{key: keyMinLength, proc: [2]string{"cleaner", "min_length"}},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings: stored values over defaults.
// Missing API keys fall back to OPENAI_API_KEY and ANTHROPIC_API_KEY.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()
	settings.Pipeline = clonePipeline(settings.Pipeline)

	for _, b := range bindings {
		val, ok := s.configStore.Get(b.key)
		if !ok {
			continue
		}
		if err := b.assign(&settings, val); err != nil {
			// Invalid stored values fall back to defaults
			continue
		}
	}

	settings.Embedding.APIKey = s.withEnvKey(settings.Embedding.Provider, settings.Embedding.APIKey)
	settings.LLM.APIKey = s.withEnvKey(settings.LLM.Provider, settings.LLM.APIKey)

	return &settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	for _, b := range bindings {
		val := b.value(settings)
		if b.secret && val == "" {
			continue
		}
		if err := s.configStore.Set(b.key, val); err != nil {
			return fmt.Errorf("save %s: %w", b.key, err)
		}
	}
	return nil
}

// Set updates a single setting from its string form.
func (s *SettingsService) Set(key, value string) error {
	b, ok := lookupBinding(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	scratch := domain.DefaultAppSettings()
	scratch.Pipeline = clonePipeline(scratch.Pipeline)
	if err := b.assign(&scratch, value); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	if err := s.configStore.Set(key, b.value(&scratch)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns all settable keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(bindings))
	for i, b := range bindings {
		keys[i] = b.key
	}
	return keys
}

// Display returns key/value pairs for printing, secrets masked.
func (s *SettingsService) Display() ([][2]string, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	out := make([][2]string, 0, len(bindings))
	for _, b := range bindings {
		val := fmt.Sprint(b.value(settings))
		if b.secret && val != "" {
			val = "********"
		}
		out = append(out, [2]string{b.key, val})
	}
	return out, nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate provider supports embeddings
	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		apiKey = s.withEnvKey(provider, "")
		if apiKey == "" {
			return fmt.Errorf("API key required for %s", provider)
		}
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		apiKey = s.withEnvKey(provider, "")
		if apiKey == "" {
			return fmt.Errorf("API key required for %s", provider)
		}
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetReranker configures the reranker backend.
func (s *SettingsService) SetReranker(backend domain.RerankerBackend, url string) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid reranker backend: %s", backend)
	}
	if backend == domain.RerankerHTTP && url == "" {
		return fmt.Errorf("reranker %s requires a URL", backend)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Reranker.Backend = backend
	settings.Reranker.URL = url
	settings.Search.UseReranker = backend != domain.RerankerNone

	return s.Save(settings)
}

// Validate checks that current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if !settings.Embedding.IsConfigured() {
		errs = append(errs, fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider))
	}
	if settings.Reranker.Backend == domain.RerankerHTTP && settings.Reranker.URL == "" {
		errs = append(errs, errors.New("reranker.url is required for the http reranker"))
	}
	if settings.Lock.Backend == domain.LockRedis && settings.Lock.RedisAddr == "" {
		errs = append(errs, errors.New("lock.redis_addr is required for the redis lock"))
	}
	if settings.Search.VectorTopK <= 0 {
		errs = append(errs, fmt.Errorf("search.vector_top_k must be positive, got %d", settings.Search.VectorTopK))
	}
	if settings.Index.Collection == "" {
		errs = append(errs, errors.New("index.collection must not be empty"))
	}
	size, _ := toInt(settings.Pipeline.GetProcessorConfig("chunker")["chunk_size"])
	overlap, _ := toInt(settings.Pipeline.GetProcessorConfig("chunker")["overlap"])
	if size <= 0 || overlap < 0 || overlap >= size {
		errs = append(errs, fmt.Errorf("chunker overlap %d must be smaller than chunk size %d", overlap, size))
	}

	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

func (s *SettingsService) withEnvKey(provider domain.AIProvider, key string) string {
	if key != "" {
		return key
	}
	switch provider {
	case domain.AIProviderOpenAI:
		return s.getenv("OPENAI_API_KEY")
	case domain.AIProviderAnthropic:
		return s.getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}

// assign parses val (a stored value or a string) into the bound field.
func (b binding) assign(a *domain.AppSettings, val any) error {
	if str, ok := val.(string); ok && b.validate != nil {
		if err := b.validate(str); err != nil {
			return err
		}
	}

	switch {
	case b.str != nil:
		str, ok := val.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", val)
		}
		*b.str(a) = str
	case b.num != nil, b.proc[0] != "":
		n, err := toInt(val)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("must not be negative, got %d", n)
		}
		if b.num != nil {
			*b.num(a) = n
		} else {
			setProcessorInt(a, b.proc[0], b.proc[1], n)
		}
	case b.flag != nil:
		v, err := toBool(val)
		if err != nil {
			return err
		}
		*b.flag(a) = v
	case b.real != nil:
		f, err := toFloat(val)
		if err != nil {
			return err
		}
		if f < 0 {
			return fmt.Errorf("must not be negative, got %g", f)
		}
		*b.real(a) = f
	case b.dur != nil:
		d, err := toDuration(val)
		if err != nil {
			return err
		}
		*b.dur(a) = d
	}
	return nil
}

// value returns the field in its storage form. Durations are stored as strings.
func (b binding) value(a *domain.AppSettings) any {
	switch {
	case b.str != nil:
		return *b.str(a)
	case b.num != nil:
		return *b.num(a)
	case b.flag != nil:
		return *b.flag(a)
	case b.real != nil:
		return *b.real(a)
	case b.dur != nil:
		return b.dur(a).String()
	case b.proc[0] != "":
		n, _ := toInt(a.Pipeline.GetProcessorConfig(b.proc[0])[b.proc[1]])
		return n
	}
	return nil
}

func lookupBinding(key string) (binding, bool) {
	for _, b := range bindings {
		if b.key == key {
			return b, true
		}
	}
	return binding{}, false
}

func setProcessorInt(a *domain.AppSettings, processor, key string, n int) {
	if a.Pipeline.ProcessorConfigs == nil {
		a.Pipeline.ProcessorConfigs = make(map[string]map[string]any)
	}
	cfg := a.Pipeline.ProcessorConfigs[processor]
	if cfg == nil {
		cfg = make(map[string]any)
		a.Pipeline.ProcessorConfigs[processor] = cfg
	}
	cfg[key] = n
}

func clonePipeline(c domain.PipelineConfig) domain.PipelineConfig {
	out := domain.PipelineConfig{
		Processors:       append([]string(nil), c.Processors...),
		ProcessorConfigs: make(map[string]map[string]any, len(c.ProcessorConfigs)),
	}
	for name, cfg := range c.ProcessorConfigs {
		m := make(map[string]any, len(cfg))
		for k, v := range cfg {
			m[k] = v
		}
		out.ProcessorConfigs[name] = m
	}
	return out
}

func validProvider(v string) error {
	if !domain.AIProvider(v).IsValid() {
		return fmt.Errorf("unknown provider %q", v)
	}
	return nil
}

func validReranker(v string) error {
	if !domain.RerankerBackend(v).IsValid() {
		return fmt.Errorf("unknown reranker backend %q", v)
	}
	return nil
}

func validLock(v string) error {
	if !domain.LockBackend(v).IsValid() {
		return fmt.Errorf("unknown lock backend %q", v)
	}
	return nil
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a configured URL for local providers and clears it for
// cloud ones.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return domain.DefaultOllamaURL
	}
	return current
}

func toInt(val any) (int, error) {
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", val)
	}
}

func toBool(val any) (bool, error) {
	switch v := val.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	default:
		return false, fmt.Errorf("expected boolean, got %T", val)
	}
}

func toFloat(val any) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("expected number, got %T", val)
	}
}

func toDuration(val any) (time.Duration, error) {
	switch v := val.(type) {
	case string:
		return time.ParseDuration(strings.TrimSpace(v))
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("expected duration, got %T", val)
	}
}
