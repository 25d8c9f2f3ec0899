package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
)

// setupTestStore opens a collection in a temporary directory.
func setupTestStore(t *testing.T) (*VectorStore, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := Open(dir, "sentencias")
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })

	return store, dir
}

func testEntry(id string, vec ...float32) driven.VectorEntry {
	return driven.VectorEntry{
		ID:     id,
		Vector: vec,
		Payload: domain.Chunk{
			ID:               id,
			Text:             "texto " + id,
			Office:           "Sala I",
			SourceDocumentID: "EXP-" + id,
		}.Payload(),
	}
}

func TestOpen_CreatesDatabase(t *testing.T) {
	store, dir := setupTestStore(t)

	assert.Equal(t, filepath.Join(dir, DBFile), store.Path())
	assert.Equal(t, "sentencias", store.Collection())
	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestOpen_EmptyName(t *testing.T) {
	_, err := Open(t.TempDir(), "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOpen_UnwritablePath(t *testing.T) {
	// A regular file where the directory should be.
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	_, err := Open(filepath.Join(file, "index"), "sentencias")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	var storageErr *domain.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "open", storageErr.Op)
	assert.Equal(t, "sentencias", storageErr.Collection)
}

func TestOpen_Idempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(dir, "sentencias")
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, []driven.VectorEntry{testEntry("a", 1, 0)}))
	require.NoError(t, store.Close())

	reopened, err := Open(dir, "sentencias")
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestVectorStore_SearchEmpty(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.Search(context.Background(), []float32{1, 0}, 3)

	assert.ErrorIs(t, err, domain.ErrEmptyIndex)
}

func TestVectorStore_InsertAndSearch(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)

	require.NoError(t, store.Insert(ctx, []driven.VectorEntry{
		testEntry("far", 0, 1),
		testEntry("near", 1, 0.1),
		testEntry("mid", 1, 1),
	}))

	matches, err := store.Search(ctx, []float32{1, 0}, 2)

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "near", matches[0].ID)
	assert.Equal(t, "mid", matches[1].ID)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)

	chunk := domain.ChunkFromPayload(matches[0].ID, matches[0].Payload)
	assert.Equal(t, "texto near", chunk.Text)
	assert.Equal(t, "Sala I", chunk.Office)
	assert.Equal(t, "EXP-near", chunk.SourceDocumentID)
}

func TestVectorStore_TiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)
	require.NoError(t, store.Insert(ctx, []driven.VectorEntry{testEntry("first", 3, 0)}))
	require.NoError(t, store.Insert(ctx, []driven.VectorEntry{testEntry("second", 1, 0)}))
	require.NoError(t, store.Insert(ctx, []driven.VectorEntry{testEntry("third", 2, 0)}))

	matches, err := store.Search(ctx, []float32{1, 0}, 10)

	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "first", matches[0].ID)
	assert.Equal(t, "second", matches[1].ID)
	assert.Equal(t, "third", matches[2].ID)
}

func TestVectorStore_VectorRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.125, 0}

	assert.Equal(t, vec, bytesToFloat32Slice(float32SliceToBytes(vec)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}

func TestVectorStore_InsertIsAtomic(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)
	require.NoError(t, store.Insert(ctx, []driven.VectorEntry{testEntry("a", 1, 0)}))

	tests := []struct {
		name  string
		batch []driven.VectorEntry
	}{
		{"wrong dimensions", []driven.VectorEntry{testEntry("b", 1, 0), testEntry("c", 1, 0, 0)}},
		{"existing id", []driven.VectorEntry{testEntry("b", 1, 0), testEntry("a", 0, 1)}},
		{"repeated id", []driven.VectorEntry{testEntry("b", 1, 0), testEntry("b", 0, 1)}},
		{"empty vector", []driven.VectorEntry{testEntry("b")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Insert(ctx, tt.batch)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
			count, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestVectorStore_InsertEmptyBatch(t *testing.T) {
	store, _ := setupTestStore(t)

	assert.NoError(t, store.Insert(context.Background(), nil))
}

func TestVectorStore_CollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store, dir := setupTestStore(t)
	require.NoError(t, store.Insert(ctx, []driven.VectorEntry{testEntry("a", 1, 0)}))

	other, err := Open(dir, "laboral")
	require.NoError(t, err)
	defer other.Close()

	_, err = other.Search(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrEmptyIndex)

	// Different collections may use different embedding sizes.
	require.NoError(t, other.Insert(ctx, []driven.VectorEntry{testEntry("a", 1, 0, 0)}))

	collections, err := store.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"sentencias": 1, "laboral": 1}, collections)
}

func TestVectorStore_SearchDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)
	require.NoError(t, store.Insert(ctx, []driven.VectorEntry{testEntry("a", 1, 0)}))

	_, err := store.Search(ctx, []float32{1, 0, 0}, 1)

	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestVectorStore_MigrationsApplyOnce(t *testing.T) {
	store, dir := setupTestStore(t)
	require.NoError(t, store.Close())

	reopened, err := Open(dir, "sentencias")
	require.NoError(t, err)
	defer reopened.Close()

	var n int
	require.NoError(t, reopened.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 1, n)
}
