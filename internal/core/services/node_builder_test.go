package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

func testHit() domain.Hit {
	return domain.Hit{
		ID:         "EXP-1",
		Office:     "Sala I",
		CaseNumber: "19-000123-0007-LA",
		InfoType:   "Sentencia",
		Date:       "2021-03-04",
		Content:    "contenido completo",
	}
}

func TestNodeBuilder_Build_CopiesMetadata(t *testing.T) {
	builder := NewNodeBuilder(sequentialIDs())

	chunks := builder.Build(testHit(), []string{"uno", "dos"})

	require.Len(t, chunks, 2)
	for i, c := range chunks {
		assert.Equal(t, "EXP-1", c.SourceDocumentID)
		assert.Equal(t, "Sala I", c.Office)
		assert.Equal(t, "19-000123-0007-LA", c.CaseNumber)
		assert.Equal(t, "Sentencia", c.InfoType)
		assert.Equal(t, "2021-03-04", c.Date)
		assert.Equal(t, []string{"uno", "dos"}[i], c.Text)
	}
	assert.Equal(t, "chunk-1", chunks[0].ID)
	assert.Equal(t, "chunk-2", chunks[1].ID)
}

func TestNodeBuilder_Build_Empty(t *testing.T) {
	builder := NewNodeBuilder(nil)

	chunks := builder.Build(testHit(), nil)

	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)
}

func TestNodeBuilder_Build_FreshIDsForIdenticalText(t *testing.T) {
	builder := NewNodeBuilder(nil)

	first := builder.Build(testHit(), []string{"mismo texto"})
	second := builder.Build(testHit(), []string{"mismo texto"})

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.NotEmpty(t, first[0].ID)
	assert.NotEqual(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[0].Text, second[0].Text)
}
