package driven

import (
	"context"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

// DocumentSearchProvider fetches candidate documents for a query string
// from an external legal-search service.
type DocumentSearchProvider interface {
	// Name identifies the provider in logs and errors.
	Name() string

	// Search returns zero or more hits for the query.
	// Failures are reported as *domain.ProviderError.
	Search(ctx context.Context, query string) ([]domain.Hit, error)
}
