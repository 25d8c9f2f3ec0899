// Package domain defines the core entities of the jurisprudence pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Hit: A raw document returned by the search provider
//   - Chunk: A bounded, cleaned unit of text with provenance metadata
//   - Query: One user query with its normalised and keyword forms
//   - RetrievedChunk: A chunk with its similarity or relevance score
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
