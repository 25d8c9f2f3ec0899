// Package chunker provides a recursive, separator-driven text chunking processor.
package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

// DefaultChunkSize is the default target number of characters per chunk.
const DefaultChunkSize = 1024

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 15

// DefaultSeparators are tried in order; clause boundaries first, newline last.
var DefaultSeparators = []string{", ", ". ", " (", ") ", ": ", " - ", "\n"}

// Processor splits text recursively on a priority list of separators.
// A piece that still exceeds the chunk size once every separator has been
// tried is emitted whole. Separators stay at the start of the piece that
// follows them.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithSeparators replaces the separator priority list.
func WithSeparators(separators []string) Option {
	return func(p *Processor) {
		if len(separators) > 0 {
			p.separators = append([]string(nil), separators...)
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits every input piece and returns the concatenated result.
func (p *Processor) Process(ctx context.Context, pieces []string) ([]string, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithSeparators(p.separators),
		textsplitter.WithChunkSize(p.chunkSize),
		textsplitter.WithChunkOverlap(p.overlap),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
		textsplitter.WithKeepSeparator(true),
	)

	var out []string
	for i, piece := range pieces {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(piece) == "" {
			// Empty content produces no chunks
			continue
		}
		parts, err := splitter.SplitText(piece)
		if err != nil {
			return nil, fmt.Errorf("split piece %d: %w", i, err)
		}
		out = append(out, parts...)
	}

	return out, nil
}
