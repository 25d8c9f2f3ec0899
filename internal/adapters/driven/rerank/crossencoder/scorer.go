// Package crossencoder scores passages with a cross-encoder served over HTTP.
//
// The wire format is the /rerank endpoint of Hugging Face text-embeddings-inference:
// the request carries the query and the passages, the response lists one
// {index, score} pair per passage in arbitrary order.
package crossencoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
)

// Ensure Scorer implements the interface.
var _ driven.RelevanceScorer = (*Scorer)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second
	DefaultModel   = "cross-encoder/ms-marco-MiniLM-L-2-v2"
)

// Config holds configuration for the HTTP cross-encoder.
type Config struct {
	// URL is the full /rerank endpoint (required).
	URL string

	// Model is sent along when the server hosts several models.
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Scorer calls a remote cross-encoder.
type Scorer struct {
	client *http.Client
	url    string
	model  string
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	Model     string   `json:"model,omitempty"`
	RawScores bool     `json:"raw_scores"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewScorer creates an HTTP cross-encoder scorer.
func NewScorer(cfg Config) (*Scorer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("reranker: URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Scorer{
		client: &http.Client{Timeout: cfg.Timeout},
		url:    cfg.URL,
		model:  cfg.Model,
	}, nil
}

// Name identifies the scorer.
func (s *Scorer) Name() string {
	if s.model != "" {
		return "reranker " + s.model
	}
	return "reranker"
}

// Score returns one relevance score per passage, in input order.
func (s *Scorer) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return []float64{}, nil
	}

	jsonBody, err := json.Marshal(rerankRequest{
		Query: query,
		Texts: passages,
		Model: s.model,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("reranker error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var results []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(results) != len(passages) {
		return nil, fmt.Errorf("reranker: got %d scores for %d passages", len(results), len(passages))
	}

	scores := make([]float64, len(passages))
	seen := make([]bool, len(passages))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(passages) || seen[r.Index] {
			return nil, fmt.Errorf("reranker: invalid result index %d", r.Index)
		}
		seen[r.Index] = true
		scores[r.Index] = r.Score
	}
	return scores, nil
}
