package services

import (
	"github.com/google/uuid"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

// IDGenerator returns a fresh chunk identifier on every call.
type IDGenerator func() string

// NodeBuilder turns segmented text into chunks carrying the hit's metadata.
type NodeBuilder struct {
	newID IDGenerator
}

// NewNodeBuilder creates a node builder. A nil generator uses random UUIDs.
func NewNodeBuilder(gen IDGenerator) *NodeBuilder {
	if gen == nil {
		gen = uuid.NewString
	}
	return &NodeBuilder{newID: gen}
}

// Build returns one chunk per text, in order. Metadata is copied verbatim
// from hit and every chunk gets a new identifier, so identical content
// ingested twice yields distinct chunks.
func (b *NodeBuilder) Build(hit domain.Hit, texts []string) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(texts))
	for _, text := range texts {
		chunks = append(chunks, domain.Chunk{
			ID:               b.newID(),
			Text:             text,
			Office:           hit.Office,
			CaseNumber:       hit.CaseNumber,
			InfoType:         hit.InfoType,
			Date:             hit.Date,
			SourceDocumentID: hit.ID,
		})
	}
	return chunks
}
