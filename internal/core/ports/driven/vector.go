package driven

import "context"

// VectorStore persists chunk vectors in one named collection and serves
// nearest-neighbour queries over them. The collection is append-only.
type VectorStore interface {
	// Collection returns the collection name.
	Collection() string

	// Insert writes all entries in a single transaction.
	Insert(ctx context.Context, entries []VectorEntry) error

	// Search returns the k entries most similar to query by cosine similarity,
	// descending, ties broken by insertion order.
	// Returns domain.ErrEmptyIndex when the collection holds no entries.
	Search(ctx context.Context, query []float32, k int) ([]VectorMatch, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// VectorEntry is one row of a collection.
type VectorEntry struct {
	// ID is the chunk identifier.
	ID string

	// Vector is the chunk embedding.
	Vector []float32

	// Payload is the chunk metadata, see domain.Chunk.Payload.
	Payload map[string]string
}

// VectorMatch represents a similarity search result.
type VectorMatch struct {
	// ID is the matched chunk.
	ID string

	// Payload is the stored chunk metadata.
	Payload map[string]string

	// Similarity is the cosine similarity score (-1 to 1).
	Similarity float64
}
