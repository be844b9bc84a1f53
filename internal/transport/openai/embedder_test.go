package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/peruna/internal/domain"
	"github.com/kailas-cloud/peruna/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

type embeddingItem struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// openaiEmbeddingResponse mirrors the OpenAI-compatible API embedding response.
type openaiEmbeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingItem `json:"data"`
	Model  string          `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func writeEmbeddings(w http.ResponseWriter, items []embeddingItem, tokens int) {
	resp := openaiEmbeddingResponse{Object: "list", Model: "test-model", Data: items}
	resp.Usage.PromptTokens = tokens
	resp.Usage.TotalTokens = tokens
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestEmbedder(url string) *Embedder {
	return NewEmbedder(&Config{
		APIKey:   "test-key",
		BaseURL:  url,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})
}

func TestEmbedder_Embed(t *testing.T) {
	expectedVec := []float32{0.1, 0.2, 0.3, 0.4}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Input) != 1 || req.Input[0] != "leadership" {
			t.Errorf("unexpected input: %v", req.Input)
		}
		writeEmbeddings(w, []embeddingItem{{Object: "embedding", Embedding: expectedVec}}, 10)
	}))
	defer server.Close()

	result, err := newTestEmbedder(server.URL).Embed(context.Background(), "leadership")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(result.Embedding) != len(expectedVec) {
		t.Fatalf("expected %d dims, got %d", len(expectedVec), len(result.Embedding))
	}
	for i, v := range expectedVec {
		if result.Embedding[i] != v {
			t.Errorf("dim %d: expected %f, got %f", i, v, result.Embedding[i])
		}
	}
	if result.PromptTokens != 10 || result.TotalTokens != 10 {
		t.Errorf("unexpected usage: %+v", result)
	}
}

func TestEmbedder_DefaultModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != DefaultModel {
			t.Errorf("expected model %s, got %s", DefaultModel, req.Model)
		}
		writeEmbeddings(w, []embeddingItem{{Embedding: []float32{1}}}, 1)
	}))
	defer server.Close()

	emb := NewEmbedder(&Config{APIKey: "k", BaseURL: server.URL})
	if _, err := emb.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
}

func TestEmbedder_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeEmbeddings(w, nil, 0)
	}))
	defer server.Close()

	_, err := newTestEmbedder(server.URL).Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedder_BatchEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Reversed order: the embedder must sort by index.
		writeEmbeddings(w, []embeddingItem{
			{Embedding: []float32{0, 0, 1}, Index: 2},
			{Embedding: []float32{0, 1, 0}, Index: 1},
			{Embedding: []float32{1, 0, 0}, Index: 0},
		}, 30)
	}))
	defer server.Close()

	result, err := newTestEmbedder(server.URL).BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("BatchEmbed failed: %v", err)
	}
	if len(result.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(result.Embeddings))
	}
	for i, vec := range result.Embeddings {
		if vec[i] != 1 {
			t.Errorf("embedding %d out of order: %v", i, vec)
		}
	}
	if result.TotalTokens != 30 {
		t.Errorf("expected 30 tokens, got %d", result.TotalTokens)
	}
}

func TestEmbedder_BatchEmbed_Empty(t *testing.T) {
	emb := newTestEmbedder("http://127.0.0.1:0")
	result, err := emb.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embeddings != nil {
		t.Errorf("expected nil embeddings, got %v", result.Embeddings)
	}
}

func TestEmbedder_BatchEmbed_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeEmbeddings(w, []embeddingItem{{Embedding: []float32{1}}}, 1)
	}))
	defer server.Close()

	_, err := newTestEmbedder(server.URL).BatchEmbed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedder_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer server.Close()

	_, err := newTestEmbedder(server.URL).Embed(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedder_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	emb := NewEmbedder(&Config{
		APIKey:  "k",
		BaseURL: server.URL,
		Timeout: 50 * time.Millisecond,
	})

	_, err := emb.Embed(context.Background(), "slow")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestExtractDetail(t *testing.T) {
	if got := extractDetail([]byte(`{"detail":"bad key"}`)); got != "bad key" {
		t.Errorf("expected 'bad key', got %q", got)
	}
	if got := extractDetail([]byte(`not json`)); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
