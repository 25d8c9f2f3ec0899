package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Server exposes the ingestion and retrieval pipeline as MCP tools.
type Server struct {
	ports        *Ports
	server       *mcp.Server
	instructions string
}

// NewServer creates a server over ports. The instructions sent to clients
// name the collection and the search defaults in effect.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports:        ports,
		instructions: buildInstructions(ports),
	}
	s.server = mcp.NewServer(&mcp.Implementation{Name: "nexuspj", Version: Version}, &mcp.ServerOptions{
		Instructions: s.instructions,
		InitializedHandler: func(context.Context, *mcp.InitializedRequest) {
			logger.Debug("MCP client initialised (collection %q)", ports.collection())
		},
	})

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Instructions returns the usage notes sent to clients on initialisation.
func (s *Server) Instructions() string {
	return s.instructions
}

func buildInstructions(p *Ports) string {
	opts := p.Defaults.WithDefaults()

	var b strings.Builder
	fmt.Fprintf(&b, "Costa Rican case law from NEXUS PJ, chunked and indexed in the local collection %q.\n",
		p.collection())
	b.WriteString("Call ingest with a query before searching; search and ask report that no rulings are " +
		"indexed until a corpus exists.\n")
	fmt.Fprintf(&b, "search returns chunks with office, case number and date (defaults: top_k=%d, top_n=%d, %s).\n",
		opts.VectorTopK, opts.RerankerTopN, rerankerNote(opts))
	if p.Answer != nil {
		b.WriteString("ask answers a question in Spanish from the best matching chunks.")
	} else {
		b.WriteString("ask is not available: no LLM is configured.")
	}
	return b.String()
}

func rerankerNote(opts domain.SearchOptions) string {
	if opts.UseReranker {
		return "reranked"
	}
	return "vector order"
}

// Run serves over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("MCP server on stdio (collection %q)", s.ports.collection())
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	logger.Info("MCP server on %s (collection %q)", addr, s.ports.collection())
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
