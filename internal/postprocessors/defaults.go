package postprocessors

import (
	"fmt"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
	"github.com/nexuspj/nexuspj-rag/internal/postprocessors/chunker"
	"github.com/nexuspj/nexuspj-rag/internal/postprocessors/cleaner"
)

// RegisterDefaults registers the built-in chunker and cleaner.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", Spec{
		Stage:   StageSplit,
		Keys:    []string{"chunk_size", "overlap", "separators"},
		Builder: buildChunker,
	})
	r.Register("cleaner", Spec{
		Stage:   StageFilter,
		Keys:    []string{"min_length"},
		Builder: buildCleaner,
	})
}

// BuildPipeline validates cfg against the registry and constructs the
// segmenter it describes.
func BuildPipeline(r *Registry, cfg domain.PipelineConfig) (*Pipeline, error) {
	if err := r.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	pipeline := NewPipeline()
	for _, name := range cfg.Processors {
		proc, err := r.Build(name, cfg.GetProcessorConfig(name))
		if err != nil {
			return nil, err
		}
		pipeline.Add(proc)
	}
	return pipeline, nil
}

// NewDefaultPipeline returns the standard segmenter: chunker then cleaner,
// with default settings.
func NewDefaultPipeline() *Pipeline {
	return NewPipeline(chunker.New(), cleaner.New())
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Target characters per chunk (default: 1024)
//   - overlap (int): Overlapping characters between chunks (default: 15)
//   - separators ([]string): Separator priority list
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		if size <= 0 {
			return nil, fmt.Errorf("chunker: chunk_size must be positive, got %d", size)
		}
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
		if overlap < 0 {
			return nil, fmt.Errorf("chunker: overlap cannot be negative, got %d", overlap)
		}
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	if seps := getStringsFromConfig(cfg, "separators"); len(seps) > 0 {
		opts = append(opts, chunker.WithSeparators(seps))
	}

	return chunker.New(opts...), nil
}

// buildCleaner creates a cleaner processor from generic config.
// Supported config keys:
//   - min_length (int): Chunks not longer than this are dropped (default: 100)
func buildCleaner(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []cleaner.Option

	if n, ok := getIntFromConfig(cfg, "min_length"); ok {
		if n < 0 {
			return nil, fmt.Errorf("cleaner: min_length cannot be negative, got %d", n)
		}
		opts = append(opts, cleaner.WithMinLength(n))
	}

	return cleaner.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func getStringsFromConfig(cfg map[string]any, key string) []string {
	switch v := cfg[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
