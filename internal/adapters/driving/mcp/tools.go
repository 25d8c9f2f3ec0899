package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query  string `json:"query" jsonschema:"the legal question to search the index for"`
	TopK   int    `json:"top_k,omitempty" jsonschema:"number of nearest chunks fetched from the index (default 20)"`
	TopN   int    `json:"top_n,omitempty" jsonschema:"number of chunks kept after reranking (default 3)"`
	Rerank *bool  `json:"rerank,omitempty" jsonschema:"reorder candidates with the reranker (default true)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []ChunkOutput `json:"results"`
	Count   int           `json:"count"`
}

// ChunkOutput represents a single retrieved chunk with its provenance.
type ChunkOutput struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Office     string  `json:"office,omitempty"`
	CaseNumber string  `json:"case_number,omitempty"`
	InfoType   string  `json:"info_type,omitempty"`
	Date       string  `json:"date,omitempty"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Query string `json:"query" jsonschema:"the query sent to NEXUS PJ; matching rulings are chunked and indexed"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	ProviderQuery string   `json:"provider_query"`
	HitsReceived  int      `json:"hits_received"`
	ChunksIndexed int      `json:"chunks_indexed"`
	FailedHits    []string `json:"failed_hits,omitempty"`
	FailedChunks  []string `json:"failed_chunks,omitempty"`
	DurationMS    int64    `json:"duration_ms"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query string `json:"query" jsonschema:"the legal question to answer"`
	TopN  int    `json:"top_n,omitempty" jsonschema:"number of supporting chunks given to the model (default 3)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string        `json:"answer"`
	Sources []ChunkOutput `json:"sources"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the local jurisprudence index for chunks relevant to a question",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Fetch rulings from NEXUS PJ for a query and add their chunks to the index",
	}, s.handleIngest)

	if s.ports.Answer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a legal question from the indexed jurisprudence",
		}, s.handleAsk)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := s.ports.Defaults
	if input.TopK > 0 {
		opts.VectorTopK = input.TopK
	}
	if input.TopN > 0 {
		opts.RerankerTopN = input.TopN
	}
	if input.Rerank != nil {
		opts.UseReranker = *input.Rerank
	}

	results, err := s.ports.Pipeline.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, queryError(err)
	}

	return nil, SearchOutput{
		Results: toChunkOutputs(results),
		Count:   len(results),
	}, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	report, err := s.ports.Pipeline.Ingest(ctx, input.Query)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	output := IngestOutput{
		ProviderQuery: report.Query.ProviderQuery,
		HitsReceived:  report.HitsReceived,
		ChunksIndexed: report.ChunksIndexed,
		FailedChunks:  report.FailedChunks,
		DurationMS:    report.Duration.Milliseconds(),
	}
	for _, failed := range report.FailedHits {
		output.FailedHits = append(output.FailedHits, failed.Error())
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	opts := s.ports.Defaults
	if input.TopN > 0 {
		opts.RerankerTopN = input.TopN
	}

	answer, err := s.ports.Answer.Ask(ctx, input.Query, opts)
	if err != nil {
		return nil, AskOutput{}, queryError(err)
	}

	return nil, AskOutput{
		Answer:  answer.Text,
		Sources: toChunkOutputs(answer.Sources),
	}, nil
}

func toChunkOutputs(results []domain.RetrievedChunk) []ChunkOutput {
	out := make([]ChunkOutput, len(results))
	for i := range results {
		c := results[i].Chunk
		out[i] = ChunkOutput{
			ChunkID:    c.ID,
			DocumentID: c.SourceDocumentID,
			Office:     c.Office,
			CaseNumber: c.CaseNumber,
			InfoType:   c.InfoType,
			Date:       c.Date,
			Score:      results[i].Score,
			Text:       c.Text,
		}
	}
	return out
}
