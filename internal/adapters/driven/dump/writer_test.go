package dump

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

func sampleResults() []domain.RetrievedChunk {
	return []domain.RetrievedChunk{
		{
			Chunk: domain.Chunk{
				ID:               "c-1",
				Text:             "El despido de la trabajadora embarazada es nulo.",
				Office:           "Sala Segunda",
				CaseNumber:       "19-000123-0007-LA",
				InfoType:         "Sentencia",
				Date:             "2021-03-04",
				SourceDocumentID: "EXP-1",
			},
			Score: 0.91,
		},
		{
			Chunk: domain.Chunk{ID: "c-2", Text: "Segundo fragmento.", SourceDocumentID: "EXP-2"},
			Score: 0.4,
		},
	}
}

func TestFormat(t *testing.T) {
	out := Format(sampleResults()[:1])

	expected := separator + "\n" +
		"Chunk: El despido de la trabajadora embarazada es nulo.\n" +
		"ID del Chunk: c-1\n" +
		"ID de la Sentencia: EXP-1\n" +
		"Despacho: Sala Segunda\n" +
		"Expediente: 19-000123-0007-LA\n" +
		"Tipo de información: Sentencia\n" +
		"Fecha: 2021-03-04\n" +
		separator + "\n\n"
	assert.Equal(t, expected, out)
}

func TestFormat_KeepsOrder(t *testing.T) {
	out := Format(sampleResults())

	first := strings.Index(out, "ID del Chunk: c-1")
	second := strings.Index(out, "ID del Chunk: c-2")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
	assert.Equal(t, 4, strings.Count(out, separator))
}

func TestFormat_Empty(t *testing.T) {
	assert.Empty(t, Format(nil))
}

func TestWriter_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chunks")
	w := NewWriter(dir)
	w.newID = func() string { return "fixed" }

	path, err := w.Save(sampleResults())

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chunksfixed.txt"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Format(sampleResults()), string(data))
}

func TestWriter_Save_UniqueNames(t *testing.T) {
	w := NewWriter(t.TempDir())

	first, err := w.Save(sampleResults())
	require.NoError(t, err)
	second, err := w.Save(sampleResults())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(filepath.Base(first), "chunks"))
	assert.True(t, strings.HasSuffix(first, ".txt"))
}

func TestWriter_Save_DirIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewWriter(file).Save(sampleResults())

	assert.Error(t, err)
}

func TestNewWriter_DefaultDir(t *testing.T) {
	assert.Equal(t, DefaultDir, NewWriter("").Dir())
}
