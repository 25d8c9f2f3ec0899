package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/nexuspj/nexuspj-rag/internal/adapters/driven/ai"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driven/config/file"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driven/dump"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driven/keywords"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driven/lock/local"
	redislock "github.com/nexuspj/nexuspj-rag/internal/adapters/driven/lock/redis"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driven/provider/nexus"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driven/storage/memory"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driven/storage/sqlite"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/cli"
	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
	"github.com/nexuspj/nexuspj-rag/internal/core/services"
	"github.com/nexuspj/nexuspj-rag/internal/logger"
	"github.com/nexuspj/nexuspj-rag/internal/postprocessors"
)

// bootstrap assembles the services a command needs from the stored settings.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	// API keys may come from a .env file next to the working directory.
	_ = godotenv.Load()

	configStore, err := openConfigStore(opts)
	if err != nil {
		return nil, err
	}
	settingsSvc := services.NewSettingsService(configStore, ai.NewConfigValidator())

	out := &cli.Services{Settings: settingsSvc}
	if !opts.NeedPipeline {
		return out, nil
	}

	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	aiServices, err := ai.Build(settings)
	if err != nil {
		return nil, err
	}
	closers = append(closers, aiServices.Close)
	for _, w := range aiServices.Warnings {
		logger.Warn("%s", w)
	}

	store, err := openVectorStore(settings.Index)
	if err != nil {
		closeAll()
		return nil, err
	}
	closers = append(closers, func() { _ = store.Close() })

	segmenter, err := buildSegmenter(settings.Pipeline)
	if err != nil {
		closeAll()
		return nil, err
	}

	writerLock, closeLock := buildLock(settings.Lock)
	closers = append(closers, closeLock)

	index := services.NewIndexService(store, aiServices.Embedding,
		services.WithConcurrency(settings.Ingest.Concurrency),
		services.WithEmbeddingTimeout(settings.Timeouts.Embedding),
	)
	provider := nexus.NewProvider(nexus.Config{
		URL:           settings.Provider.URL,
		PageSize:      settings.Provider.PageSize,
		RatePerSecond: settings.Provider.RatePerSecond,
		Timeout:       settings.Timeouts.Search,
	})
	var reranker *services.RerankService
	if aiServices.Scorer != nil {
		reranker = services.NewRerankService(aiServices.Scorer, settings.Timeouts.Rerank)
	}

	pipeline := services.NewPipelineService(provider, segmenter, index, reranker, writerLock)
	pipeline.SetSearchTimeout(settings.Timeouts.Search)
	if settings.Ingest.UseKeywords {
		pipeline.SetKeywordExtractor(keywords.NewExtractor(aiServices.Embedding, keywords.Config{
			TopN:        settings.Ingest.KeywordTopN,
			Concurrency: settings.Ingest.Concurrency,
		}))
	}

	out.Pipeline = pipeline
	out.Saver = dump.NewWriter("")
	out.Defaults = settings.Search.Options()

	prompts, err := file.NewPromptStore("")
	if err != nil {
		logger.Warn("Prompt templates unavailable: %v", err)
	} else {
		out.Prompts = prompts
		watchCtx, cancel := context.WithCancel(ctx)
		closers = append(closers, cancel)
		if events, werr := prompts.Watch(watchCtx); werr != nil {
			logger.Debug("Not watching prompts: %v", werr)
		} else {
			out.PromptEvents = events
		}
	}

	if aiServices.LLM != nil {
		answer := services.NewAnswerService(pipeline, aiServices.LLM, settings.Timeouts.Synthesis)
		if prompts != nil {
			answer.SetPromptStore(prompts)
		}
		out.Answer = answer
	}

	logger.Debug("Services ready: collection=%s reranker=%s llm=%t",
		settings.Index.Collection, settings.Reranker.Backend, aiServices.LLM != nil)

	out.Close = closeAll
	return out, nil
}

func openConfigStore(opts cli.Options) (driven.ConfigStore, error) {
	switch {
	case opts.NoConfig:
		return memory.NewConfigStore(), nil
	case opts.ConfigPath != "":
		store, err := file.OpenConfigStore(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("opening config %s: %w", opts.ConfigPath, err)
		}
		return store, nil
	default:
		store, err := file.NewConfigStore("")
		if err != nil {
			return nil, fmt.Errorf("opening config: %w", err)
		}
		return store, nil
	}
}

func openVectorStore(cfg domain.IndexSettings) (driven.VectorStore, error) {
	if cfg.Ephemeral {
		return memory.NewVectorStore(cfg.Collection), nil
	}
	store, err := sqlite.Open(cfg.Dir, cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	return store, nil
}

func buildSegmenter(cfg domain.PipelineConfig) (*postprocessors.Pipeline, error) {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := postprocessors.BuildPipeline(registry, cfg)
	if err != nil {
		return nil, fmt.Errorf("building segmenter: %w", err)
	}
	return pipeline, nil
}

// buildLock returns the writer lock named by cfg and a func releasing its client.
func buildLock(cfg domain.LockSettings) (driven.WriterLock, func()) {
	if cfg.Backend != domain.LockRedis {
		return local.NewLock(), func() {}
	}
	client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	return redislock.NewLock(client, cfg.TTL), func() { _ = client.Close() }
}
