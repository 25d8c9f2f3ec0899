package driven

import "context"

// RelevanceScorer scores (query, passage) pairs with a pairwise relevance model.
// Each pair is scored independently; higher is more relevant.
type RelevanceScorer interface {
	// Name identifies the scorer in logs and errors.
	Name() string

	// Score returns one score per passage, in input order.
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}
