package driven

import "context"

// KeywordExtractor derives key phrases from a normalised query.
type KeywordExtractor interface {
	// Extract returns distinct phrases found in text. Order is not significant;
	// callers reorder by first occurrence.
	Extract(ctx context.Context, text string) ([]string, error)
}
