package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or processor type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrProviderUnavailable indicates the search, embedding, reranker or synthesis
	// provider is unreachable or returned an error. It is surfaced, never retried silently.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrStorageUnavailable indicates the index path cannot be created or written,
	// or the collection is corrupt. Retryable by the caller.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrEmptyIndex indicates a search against a collection that has never been ingested.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrChunkingDegenerate indicates a hit whose content yields zero usable chunks.
	ErrChunkingDegenerate = errors.New("content yields no usable chunks")

	// ErrIngestionFailed indicates one or more chunks could not be embedded or written.
	ErrIngestionFailed = errors.New("ingestion failed")

	// ErrWriterBusy indicates another writer holds the collection lock.
	ErrWriterBusy = errors.New("collection is being written by another process")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Answer synthesis is disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// ProviderError describes a failed call to an external provider.
// It matches ErrProviderUnavailable and whatever caused it (for example
// context.DeadlineExceeded when the call timed out).
type ProviderError struct {
	// Provider names the collaborator ("nexus", "ollama", "reranker", ...).
	Provider string

	// Op is the operation that failed ("search", "embed", "score", "generate").
	Op string

	// Err is the underlying cause.
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Provider, e.Op, ErrProviderUnavailable, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *ProviderError) Unwrap() []error {
	return []error{ErrProviderUnavailable, e.Err}
}

// NewProviderError wraps err as a ProviderError. A nil err yields nil.
func NewProviderError(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

// StorageError describes a failed vector store operation.
type StorageError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s collection %q: %v: %v", e.Op, e.Collection, ErrStorageUnavailable, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *StorageError) Unwrap() []error {
	return []error{ErrStorageUnavailable, e.Err}
}

// HitError reports a hit that contributed nothing to the index.
type HitError struct {
	HitID string
	Err   error
}

func (e *HitError) Error() string {
	return fmt.Sprintf("hit %s: %v", e.HitID, e.Err)
}

func (e *HitError) Unwrap() error {
	return e.Err
}

// IngestionError names the chunks that failed to embed or write so that
// the caller can retry just those.
type IngestionError struct {
	ChunkIDs []string
	Err      error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("%v: %d chunk(s) [%s]: %v",
		ErrIngestionFailed, len(e.ChunkIDs), strings.Join(e.ChunkIDs, ", "), e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *IngestionError) Unwrap() []error {
	return []error{ErrIngestionFailed, e.Err}
}
