package domain

import "time"

// Search defaults used when a caller leaves options unset.
const (
	DefaultVectorTopK   = 20
	DefaultRerankerTopN = 3
)

// Query is the ephemeral representation of one user query.
type Query struct {
	// Raw is the text as typed by the user.
	Raw string

	// Normalized is Raw after case folding and punctuation stripping.
	Normalized string

	// Keywords holds the extracted phrases, ordered by first occurrence.
	Keywords []string

	// ProviderQuery is the string actually sent to the search provider.
	ProviderQuery string
}

// SearchOptions configures a search call.
type SearchOptions struct {
	// VectorTopK is the number of nearest neighbours to fetch from the index.
	VectorTopK int

	// RerankerTopN limits the final result size. Zero means no limit.
	RerankerTopN int

	// UseReranker enables second-stage reordering.
	UseReranker bool
}

// WithDefaults fills zero values with the package defaults.
func (o SearchOptions) WithDefaults() SearchOptions {
	if o.VectorTopK <= 0 {
		o.VectorTopK = DefaultVectorTopK
	}
	if o.RerankerTopN < 0 {
		o.RerankerTopN = 0
	}
	return o
}

// RetrievedChunk is one entry of an ordered retrieval result.
type RetrievedChunk struct {
	Chunk Chunk `json:"chunk"`

	// Score is the cosine similarity, or the relevance score after reranking.
	Score float64 `json:"score"`
}

// IngestReport summarises one ingestion run. Failures are listed per hit and
// per chunk so that a caller can retry a narrow scope.
type IngestReport struct {
	Query         Query
	HitsReceived  int
	ChunksIndexed int
	FailedHits    []HitError
	FailedChunks  []string
	Duration      time.Duration
}

// HasFailures reports whether any hit or chunk failed.
func (r *IngestReport) HasFailures() bool {
	return len(r.FailedHits) > 0 || len(r.FailedChunks) > 0
}

// Answer is a synthesised natural-language response with its supporting chunks.
type Answer struct {
	Query   string           `json:"query"`
	Text    string           `json:"text"`
	Sources []RetrievedChunk `json:"sources"`
}
