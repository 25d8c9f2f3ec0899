package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
	"github.com/nexuspj/nexuspj-rag/internal/vecmath"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Used for ephemeral collections and tests.
type VectorStore struct {
	mu         sync.RWMutex
	collection string
	dims       int
	ids        map[string]struct{}
	entries    []driven.VectorEntry
}

// NewVectorStore creates an empty in-memory collection.
func NewVectorStore(collection string) *VectorStore {
	return &VectorStore{
		collection: collection,
		ids:        make(map[string]struct{}),
	}
}

// Collection returns the collection name.
func (s *VectorStore) Collection() string {
	return s.collection
}

// Insert appends entries. The batch is rejected as a whole when any entry
// has a duplicate ID or a vector of the wrong size.
func (s *VectorStore) Insert(_ context.Context, entries []driven.VectorEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dims := s.dims
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if len(e.Vector) == 0 {
			return s.storageErr("insert", fmt.Errorf("entry %s: empty vector", e.ID))
		}
		if dims == 0 {
			dims = len(e.Vector)
		}
		if len(e.Vector) != dims {
			return s.storageErr("insert", fmt.Errorf("entry %s: vector has %d dimensions, collection has %d",
				e.ID, len(e.Vector), dims))
		}
		if _, ok := s.ids[e.ID]; ok {
			return s.storageErr("insert", fmt.Errorf("entry %s: duplicate id", e.ID))
		}
		if _, ok := seen[e.ID]; ok {
			return s.storageErr("insert", fmt.Errorf("entry %s: duplicate id", e.ID))
		}
		seen[e.ID] = struct{}{}
	}

	for _, e := range entries {
		vec := make([]float32, len(e.Vector))
		copy(vec, e.Vector)
		s.entries = append(s.entries, driven.VectorEntry{
			ID:      e.ID,
			Vector:  vec,
			Payload: maps.Clone(e.Payload),
		})
		s.ids[e.ID] = struct{}{}
	}
	s.dims = dims
	return nil
}

// Search scans every entry and returns the k most similar.
func (s *VectorStore) Search(_ context.Context, query []float32, k int) ([]driven.VectorMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil, domain.ErrEmptyIndex
	}
	if len(query) != s.dims {
		return nil, s.storageErr("search", fmt.Errorf("query has %d dimensions, collection has %d", len(query), s.dims))
	}

	scores := make([]float64, len(s.entries))
	for i, e := range s.entries {
		scores[i] = vecmath.Cosine(query, e.Vector)
	}

	ranked := vecmath.TopK(scores, k)
	matches := make([]driven.VectorMatch, len(ranked))
	for i, r := range ranked {
		e := s.entries[r.Index]
		matches[i] = driven.VectorMatch{
			ID:         e.ID,
			Payload:    maps.Clone(e.Payload),
			Similarity: r.Score,
		}
	}
	return matches, nil
}

// Count returns the number of stored entries.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Close is a no-op for the memory store.
func (s *VectorStore) Close() error {
	return nil
}

func (s *VectorStore) storageErr(op string, err error) error {
	return &domain.StorageError{Op: op, Collection: s.collection, Err: err}
}
