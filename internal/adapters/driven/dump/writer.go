// Package dump writes retrieved chunks to plain text files for offline review.
package dump

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

// DefaultDir is the directory dumps are written to when none is given.
const DefaultDir = "chunks"

const separator = "--------------------------------------------------"

// Writer saves chunk listings as chunks<uuid>.txt files.
type Writer struct {
	dir   string
	newID func() string
}

// NewWriter creates a writer rooted at dir. An empty dir means DefaultDir
// relative to the working directory.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = DefaultDir
	}
	return &Writer{dir: dir, newID: uuid.NewString}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Save writes results in order to a new file and returns its path.
func (w *Writer) Save(results []domain.RetrievedChunk) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating dump directory: %w", err)
	}

	path := filepath.Join(w.dir, "chunks"+w.newID()+".txt")
	if err := os.WriteFile(path, []byte(Format(results)), 0o644); err != nil {
		return "", fmt.Errorf("writing dump: %w", err)
	}
	return path, nil
}

// Format renders results as Spanish labelled blocks, one per chunk.
func Format(results []domain.RetrievedChunk) string {
	var b strings.Builder
	for _, r := range results {
		c := r.Chunk
		b.WriteString(separator + "\n")
		b.WriteString("Chunk: " + c.Text + "\n")
		b.WriteString("ID del Chunk: " + c.ID + "\n")
		b.WriteString("ID de la Sentencia: " + c.SourceDocumentID + "\n")
		b.WriteString("Despacho: " + c.Office + "\n")
		b.WriteString("Expediente: " + c.CaseNumber + "\n")
		b.WriteString("Tipo de información: " + c.InfoType + "\n")
		b.WriteString("Fecha: " + c.Date + "\n")
		b.WriteString(separator + "\n")
		b.WriteString("\n")
	}
	return b.String()
}
