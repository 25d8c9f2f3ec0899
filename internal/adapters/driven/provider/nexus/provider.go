// Package nexus implements the document search provider for NEXUS PJ,
// the public jurisprudence search service of the Costa Rican judiciary.
package nexus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.DocumentSearchProvider = (*Provider)(nil)

// ProviderName identifies NEXUS PJ in errors and logs.
const ProviderName = "nexus"

// Default configuration values.
const (
	DefaultURL       = domain.DefaultProviderURL
	DefaultPageSize  = domain.DefaultProviderPageSize
	DefaultSortField = "contenidosInteresOrden"
	DefaultTimeout   = 30 * time.Second
)

// ErrRateLimited is returned when the service answers 429.
var ErrRateLimited = errors.New("rate limited")

// Config holds configuration for the NEXUS PJ provider.
type Config struct {
	// URL is the search endpoint (default: the public NEXUS PJ API).
	URL string

	// PageSize is the number of hits requested per query (default: 10).
	PageSize int

	// SortField orders hits server side (default: contenidosInteresOrden).
	SortField string

	// RatePerSecond caps outgoing requests; <= 0 disables the cap.
	RatePerSecond float64

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Provider queries NEXUS PJ.
type Provider struct {
	client    *http.Client
	url       string
	pageSize  int
	sortField string
	limiter   *RateLimiter
}

type searchRequest struct {
	Q        string     `json:"q"`
	NQ       string     `json:"nq"`
	Advanced bool       `json:"advanced"`
	Facets   []string   `json:"facets"`
	Size     int        `json:"size"`
	Page     int        `json:"page"`
	Sort     searchSort `json:"sort"`
	Exp      string     `json:"exp"`
}

type searchSort struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

type searchResponse struct {
	Hits []searchHit `json:"hits"`
}

type searchHit struct {
	IDDocument      flexString `json:"idDocument"`
	Despacho        flexString `json:"despacho"`
	Expediente      flexString `json:"expediente"`
	TipoInformacion flexString `json:"tipoInformacion"`
	Date            flexString `json:"date"`
	Content         string     `json:"content"`
}

// flexString accepts a JSON string, number or null.
type flexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// NewProvider creates a NEXUS PJ provider.
func NewProvider(cfg Config) *Provider {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.SortField == "" {
		cfg.SortField = DefaultSortField
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Provider{
		client:    client,
		url:       cfg.URL,
		pageSize:  cfg.PageSize,
		sortField: cfg.SortField,
		limiter:   NewRateLimiter(cfg.RatePerSecond, 1),
	}
}

// Name identifies the provider.
func (p *Provider) Name() string {
	return ProviderName
}

// Search returns the hits NEXUS PJ holds for query.
func (p *Provider) Search(ctx context.Context, query string) ([]domain.Hit, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, domain.NewProviderError(ProviderName, "search", err)
	}

	hits, err := p.search(ctx, query)
	if err != nil {
		return nil, domain.NewProviderError(ProviderName, "search", err)
	}
	return hits, nil
}

func (p *Provider) search(ctx context.Context, query string) ([]domain.Hit, error) {
	jsonBody, err := json.Marshal(searchRequest{
		Q:      query,
		Facets: []string{},
		Size:   p.pageSize,
		Page:   1,
		Sort:   searchSort{Field: p.sortField, Order: "desc"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		p.limiter.Backoff(retryAfter(resp.Header.Get("Retry-After")))
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	hits := make([]domain.Hit, 0, len(parsed.Hits))
	for _, h := range parsed.Hits {
		hits = append(hits, domain.Hit{
			ID:         string(h.IDDocument),
			Office:     string(h.Despacho),
			CaseNumber: string(h.Expediente),
			InfoType:   string(h.TipoInformacion),
			Date:       string(h.Date),
			Content:    h.Content,
		})
	}
	return hits, nil
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
