// Package keywords extracts key phrases from a query by embedding similarity.
//
// Candidate phrases are the word n-grams of the query that neither start nor
// end on a stopword. Each candidate is embedded and ranked by cosine
// similarity to the embedding of the whole query; the best TopN are kept.
package keywords

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
	"github.com/nexuspj/nexuspj-rag/internal/vecmath"
)

// Ensure Extractor implements the interface.
var _ driven.KeywordExtractor = (*Extractor)(nil)

// Default configuration values.
const (
	DefaultTopN        = 2
	DefaultMaxNGram    = 2
	DefaultBatchSize   = 16
	DefaultConcurrency = 4
)

var stopwords = map[string]bool{
	"a": true, "al": true, "ante": true, "como": true, "con": true, "cual": true,
	"de": true, "del": true, "dice": true, "el": true, "en": true, "entre": true,
	"es": true, "esta": true, "este": true, "la": true, "las": true, "le": true,
	"lo": true, "los": true, "mas": true, "no": true, "o": true, "para": true,
	"pero": true, "por": true, "que": true, "se": true, "si": true, "sin": true,
	"sobre": true, "su": true, "sus": true, "un": true, "una": true, "y": true,
}

// Config tunes the extractor.
type Config struct {
	// TopN is the number of phrases returned (default: 2).
	TopN int

	// MaxNGram is the longest candidate in words (default: 2).
	MaxNGram int

	// BatchSize is the number of candidates per embedding call (default: 16).
	BatchSize int

	// Concurrency bounds parallel embedding calls (default: 4).
	Concurrency int
}

// Extractor ranks query n-grams against the query embedding.
type Extractor struct {
	embedder driven.EmbeddingService
	cfg      Config
}

// NewExtractor creates an extractor over embedder.
func NewExtractor(embedder driven.EmbeddingService, cfg Config) *Extractor {
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.MaxNGram <= 0 {
		cfg.MaxNGram = DefaultMaxNGram
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Extractor{embedder: embedder, cfg: cfg}
}

// Extract returns up to TopN distinct phrases from text, best first.
func (e *Extractor) Extract(ctx context.Context, text string) ([]string, error) {
	candidates := Candidates(text, e.cfg.MaxNGram)
	if len(candidates) == 0 {
		return nil, nil
	}
	if len(candidates) <= e.cfg.TopN {
		return candidates, nil
	}

	doc, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	vectors := make([][]float32, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for start := 0; start < len(candidates); start += e.cfg.BatchSize {
		end := min(start+e.cfg.BatchSize, len(candidates))
		g.Go(func() error {
			batch, err := e.embedder.EmbedBatch(gctx, candidates[start:end])
			if err != nil {
				return fmt.Errorf("embed candidates: %w", err)
			}
			if len(batch) != end-start {
				return fmt.Errorf("embed candidates: got %d vectors for %d phrases", len(batch), end-start)
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scores := make([]float64, len(candidates))
	for i, v := range vectors {
		scores[i] = vecmath.Cosine(doc, v)
	}

	ranked := vecmath.TopK(scores, e.cfg.TopN)
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = candidates[r.Index]
	}
	return out, nil
}

// Candidates lists the distinct n-grams of text, up to maxN words long, in
// order of first occurrence. N-grams starting or ending on a stopword are
// skipped.
func Candidates(text string, maxN int) []string {
	words := strings.Fields(text)
	seen := make(map[string]bool)
	var out []string
	for i := range words {
		for n := 1; n <= maxN && i+n <= len(words); n++ {
			if stopwords[words[i]] || stopwords[words[i+n-1]] {
				continue
			}
			phrase := strings.Join(words[i:i+n], " ")
			if seen[phrase] {
				continue
			}
			seen[phrase] = true
			out = append(out, phrase)
		}
	}
	return out
}
