package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewEmbeddingService(Config{BaseURL: server.URL + "/"})
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	service := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultBaseURL, service.baseURL)
	assert.Equal(t, DefaultModel, service.ModelName())
	assert.Equal(t, DefaultDimensions, service.Dimensions())
	assert.NoError(t, service.Close())
}

func TestEmbeddingService_EmbedBatch(t *testing.T) {
	var got embedRequest
	service := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1, 0}, {0, 1}}})
	})

	vecs, err := service.EmbedBatch(context.Background(), []string{"despido", "pensión"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, []string{"despido", "pensión"}, got.Input)
}

func TestEmbeddingService_Embed(t *testing.T) {
	service := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{0.5, 0.5}}})
	})

	vec, err := service.Embed(context.Background(), "despido")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vec)
}

func TestEmbeddingService_EmbedBatch_Empty(t *testing.T) {
	service := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})

	vecs, err := service.EmbedBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbeddingService_Embed_StatusError(t *testing.T) {
	service := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	})

	_, err := service.Embed(context.Background(), "despido")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "model not found")
}

func TestEmbeddingService_Embed_CountMismatch(t *testing.T) {
	service := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{})
	})

	_, err := service.Embed(context.Background(), "despido")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 0 embeddings for 1 inputs")
}

func TestEmbeddingService_Embed_Cancelled(t *testing.T) {
	service := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1}}})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Embed(ctx, "despido")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbeddingService_Ping(t *testing.T) {
	tests := []struct {
		name    string
		models  string
		wantErr string
	}{
		{"exact name", `{"models":[{"name":"nomic-embed-text"}]}`, ""},
		{"latest tag", `{"models":[{"name":"llama3.2:latest"},{"name":"nomic-embed-text:latest"}]}`, ""},
		{"not pulled", `{"models":[{"name":"llama3.2:latest"}]}`, "ollama pull nomic-embed-text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/tags", r.URL.Path)
				_, _ = w.Write([]byte(tt.models))
			})

			err := service.Ping(context.Background())

			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestEmbeddingService_Ping_Unreachable(t *testing.T) {
	service := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})

	err := service.Ping(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping failed")
}
