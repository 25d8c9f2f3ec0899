package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuspj/nexuspj-rag/internal/adapters/driven/storage/memory"
	"github.com/nexuspj/nexuspj-rag/internal/adapters/driven/storage/sqlite"
	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/postprocessors"
)

const (
	despidoText = "La Sala considera que el despido del trabajador fue injustificado porque " +
		"el patrono no demostró la falta grave alegada en la carta de despido y por ello " +
		"corresponde el pago de preaviso y cesantía conforme al Código de Trabajo vigente."
	pensionText = "La pensión alimentaria provisional se fija tomando en cuenta las necesidades " +
		"de los menores y la capacidad económica del obligado alimentario según la prueba " +
		"documental aportada por la madre durante el proceso judicial."
)

func testHits() []domain.Hit {
	return []domain.Hit{
		{ID: "EXP-1", Office: "Sala I", CaseNumber: "19-000123-0007-LA", InfoType: "Sentencia", Date: "2021-03-04", Content: despidoText},
		{ID: "EXP-2", Office: "Juzgado de Familia", CaseNumber: "20-000456-0186-FA", InfoType: "Sentencia", Date: "2022-07-15", Content: pensionText},
	}
}

type pipelineFixture struct {
	service  *PipelineService
	provider *mockSearchProvider
	embedder *mockEmbeddingService
	store    *memory.VectorStore
	lock     *mockLock
}

func newPipelineFixture(t *testing.T, scorer *mockScorer) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		provider: &mockSearchProvider{hits: testHits()},
		embedder: &mockEmbeddingService{},
		store:    memory.NewVectorStore("sentencias"),
		lock:     &mockLock{},
	}
	var reranker *RerankService
	if scorer != nil {
		reranker = NewRerankService(scorer, 0)
	}
	index := NewIndexService(f.store, f.embedder)
	f.service = NewPipelineService(f.provider, postprocessors.NewDefaultPipeline(), index, reranker, f.lock)
	f.service.SetNodeBuilder(NewNodeBuilder(sequentialIDs()))
	return f
}

func TestPipelineService_SearchBeforeIngest(t *testing.T) {
	f := newPipelineFixture(t, nil)

	_, err := f.service.Search(context.Background(), "despido", domain.SearchOptions{})

	assert.ErrorIs(t, err, domain.ErrEmptyIndex)
}

func TestPipelineService_IngestThenSearch(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, nil)

	report, err := f.service.Ingest(ctx, "¿Despido injustificado?")
	require.NoError(t, err)
	assert.Equal(t, 2, report.HitsReceived)
	assert.Equal(t, 2, report.ChunksIndexed)
	assert.False(t, report.HasFailures())
	assert.Equal(t, []string{"despido injustificado"}, f.provider.queries)

	results, err := f.service.Search(ctx, "despido injustificado del trabajador", domain.SearchOptions{VectorTopK: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	top := results[0].Chunk
	assert.Equal(t, "EXP-1", top.SourceDocumentID)
	assert.Equal(t, "Sala I", top.Office)
	assert.Equal(t, "19-000123-0007-LA", top.CaseNumber)
	assert.Equal(t, despidoText, top.Text)
}

func TestPipelineService_RoundTripPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	provider := &mockSearchProvider{hits: testHits()}
	embedder := &mockEmbeddingService{}

	store, err := sqlite.Open(dir, "sentencias")
	require.NoError(t, err)
	service := NewPipelineService(provider, postprocessors.NewDefaultPipeline(), NewIndexService(store, embedder), nil, nil)

	_, err = service.Search(ctx, "despido", domain.SearchOptions{})
	require.ErrorIs(t, err, domain.ErrEmptyIndex)

	report, err := service.Ingest(ctx, "despido injustificado")
	require.NoError(t, err)
	assert.Equal(t, 2, report.ChunksIndexed)
	require.NoError(t, store.Close())

	// A new process sees the same corpus.
	reopened, err := sqlite.Open(dir, "sentencias")
	require.NoError(t, err)
	defer reopened.Close()
	service = NewPipelineService(provider, postprocessors.NewDefaultPipeline(), NewIndexService(reopened, embedder), nil, nil)

	results, err := service.Search(ctx, "despido injustificado del trabajador", domain.SearchOptions{VectorTopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "EXP-1", results[0].Chunk.SourceDocumentID)
	assert.Equal(t, "Sala I", results[0].Chunk.Office)
}

func TestPipelineService_IngestTakesWriterLock(t *testing.T) {
	f := newPipelineFixture(t, nil)

	_, err := f.service.Ingest(context.Background(), "despido")
	require.NoError(t, err)

	assert.Equal(t, []string{"sentencias"}, f.lock.acquired)
	assert.Equal(t, 1, f.lock.released)
}

func TestPipelineService_IngestLockBusy(t *testing.T) {
	f := newPipelineFixture(t, nil)
	f.lock.acquireErr = domain.ErrWriterBusy

	_, err := f.service.Ingest(context.Background(), "despido")

	assert.ErrorIs(t, err, domain.ErrWriterBusy)
	assert.Empty(t, f.provider.queries)
}

func TestPipelineService_IngestEmptyQuery(t *testing.T) {
	f := newPipelineFixture(t, nil)

	_, err := f.service.Ingest(context.Background(), " ¿? ")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.provider.queries)
}

func TestPipelineService_IngestProviderError(t *testing.T) {
	f := newPipelineFixture(t, nil)
	f.provider.searchErr = errors.New("503 service unavailable")

	_, err := f.service.Ingest(context.Background(), "despido")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	count, _ := f.store.Count(context.Background())
	assert.Equal(t, 0, count)
}

func TestPipelineService_IngestNoHits(t *testing.T) {
	f := newPipelineFixture(t, nil)
	f.provider.hits = nil

	report, err := f.service.Ingest(context.Background(), "despido")

	require.NoError(t, err)
	assert.Equal(t, 0, report.HitsReceived)
	assert.Equal(t, 0, report.ChunksIndexed)
}

func TestPipelineService_IngestSkipsDegenerateHit(t *testing.T) {
	f := newPipelineFixture(t, nil)
	f.provider.hits = append(testHits(), domain.Hit{ID: "EXP-3", Content: "Sin lugar."})

	report, err := f.service.Ingest(context.Background(), "despido")

	require.NoError(t, err)
	assert.Equal(t, 3, report.HitsReceived)
	assert.Equal(t, 2, report.ChunksIndexed)
	require.Len(t, report.FailedHits, 1)
	assert.Equal(t, "EXP-3", report.FailedHits[0].HitID)
	assert.ErrorIs(t, report.FailedHits[0].Err, domain.ErrChunkingDegenerate)
}

func TestPipelineService_IngestIsolatesSegmenterFailure(t *testing.T) {
	f := newPipelineFixture(t, nil)
	f.service.segmenter = &mockSegmenter{failOn: "pensión"}

	report, err := f.service.Ingest(context.Background(), "despido")

	require.NoError(t, err)
	assert.Equal(t, 1, report.ChunksIndexed)
	require.Len(t, report.FailedHits, 1)
	assert.Equal(t, "EXP-2", report.FailedHits[0].HitID)
}

func TestPipelineService_IngestReportsFailedChunks(t *testing.T) {
	f := newPipelineFixture(t, nil)
	f.embedder.failOn = "alimentaria"

	report, err := f.service.Ingest(context.Background(), "despido")

	require.Error(t, err)
	require.NotNil(t, report)
	assert.ErrorIs(t, err, domain.ErrIngestionFailed)
	assert.Equal(t, 1, report.ChunksIndexed)
	assert.Equal(t, []string{"chunk-2"}, report.FailedChunks)
}

func TestPipelineService_IngestTwiceKeepsBothCopies(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, nil)

	_, err := f.service.Ingest(ctx, "despido")
	require.NoError(t, err)
	_, err = f.service.Ingest(ctx, "despido")
	require.NoError(t, err)

	count, _ := f.store.Count(ctx)
	assert.Equal(t, 4, count)
}

func TestPipelineService_KeywordQuery(t *testing.T) {
	f := newPipelineFixture(t, nil)
	f.service.SetKeywordExtractor(&mockKeywordExtractor{phrases: []string{"despido", "sala primera"}})

	q, err := f.service.PrepareQuery(context.Background(), "¿Qué dijo la Sala Primera sobre el despido?")

	require.NoError(t, err)
	assert.Equal(t, "que dijo la sala primera sobre el despido", q.Normalized)
	assert.Equal(t, "sala primera & despido", q.ProviderQuery)
}

func TestPipelineService_KeywordFailureFallsBack(t *testing.T) {
	f := newPipelineFixture(t, nil)
	f.service.SetKeywordExtractor(&mockKeywordExtractor{extractErr: errors.New("model missing")})

	q, err := f.service.PrepareQuery(context.Background(), "Despido, injustificado.")

	require.NoError(t, err)
	assert.Equal(t, "despido injustificado", q.ProviderQuery)
	assert.Empty(t, q.Keywords)
}

func TestPipelineService_SearchBlankQuery(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, nil)
	_, err := f.service.Ingest(ctx, "despido")
	require.NoError(t, err)

	results, err := f.service.Search(ctx, "   ", domain.SearchOptions{})

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestPipelineService_SearchBlankQueryNeverIngested(t *testing.T) {
	f := newPipelineFixture(t, nil)

	results, err := f.service.Search(context.Background(), "   ", domain.SearchOptions{})

	assert.ErrorIs(t, err, domain.ErrEmptyIndex)
	assert.Nil(t, results)
}

func TestPipelineService_SearchWithoutRerankerTruncates(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, nil)
	_, err := f.service.Ingest(ctx, "despido")
	require.NoError(t, err)

	results, err := f.service.Search(ctx, "despido", domain.SearchOptions{VectorTopK: 5, RerankerTopN: 1})

	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestPipelineService_SearchWithReranker(t *testing.T) {
	ctx := context.Background()
	scorer := &mockScorer{scores: []float64{0.1, 0.9}}
	f := newPipelineFixture(t, scorer)
	_, err := f.service.Ingest(ctx, "despido")
	require.NoError(t, err)

	results, err := f.service.Search(ctx, "despido injustificado del trabajador",
		domain.SearchOptions{VectorTopK: 5, RerankerTopN: 1, UseReranker: true})

	require.NoError(t, err)
	require.Len(t, results, 1)
	// The scorer prefers the second vector candidate.
	assert.Equal(t, "EXP-2", results[0].Chunk.SourceDocumentID)
	assert.InDelta(t, 0.9, results[0].Score, 1e-9)
}

func TestPipelineService_SearchRerankerError(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, &mockScorer{scoreErr: errors.New("timeout")})
	_, err := f.service.Ingest(ctx, "despido")
	require.NoError(t, err)

	_, err = f.service.Search(ctx, "despido", domain.SearchOptions{UseReranker: true})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "rerank")
}

func TestPipelineService_SearchRerankerRequestedButUnset(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, nil)
	_, err := f.service.Ingest(ctx, "despido")
	require.NoError(t, err)

	results, err := f.service.Search(ctx, "despido", domain.SearchOptions{RerankerTopN: 1, UseReranker: true})

	require.NoError(t, err)
	assert.Len(t, results, 1)
}
