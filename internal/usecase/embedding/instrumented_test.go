package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/peruna/internal/domain"
)

type mockEmbedder struct {
	result     domain.EmbeddingResult
	err        error
	batchErr   error
	batchCalls int
	batchSizes []int
	healthErr  error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return m.result, m.err
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	m.batchSizes = append(m.batchSizes, len(texts))
	if m.batchErr != nil {
		return domain.BatchEmbeddingResult{}, m.batchErr
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = m.result.Embedding
	}
	return domain.BatchEmbeddingResult{
		Embeddings:  embeddings,
		TotalTokens: m.result.TotalTokens * len(texts),
	}, nil
}

func (m *mockEmbedder) HealthCheck(_ context.Context) error { return m.healthErr }

// plainMockEmbedder has no BatchEmbed.
type plainMockEmbedder struct {
	result domain.EmbeddingResult
	calls  int
}

func (m *plainMockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, nil
}

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, TotalTokens: 4}}
	p := NewInstrumentedEmbedder(inner, "openai", "text-embedding-ada-002", 3, zap.NewNop())

	res, err := p.Embed(context.Background(), "leadership")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 3 || res.TotalTokens != 4 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestInstrumentedEmbedder_ErrorBecomesProviderError(t *testing.T) {
	inner := &mockEmbedder{err: context.DeadlineExceeded}
	p := NewInstrumentedEmbedder(inner, "openai", "m", 0, zap.NewNop())

	_, err := p.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected the cause to be kept, got %v", err)
	}
}

func TestInstrumentedEmbedder_MalformedVector(t *testing.T) {
	tests := []struct {
		name string
		vec  []float32
	}{
		{"empty", nil},
		{"wrong dimensions", []float32{1, 2}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: tc.vec}}
			p := NewInstrumentedEmbedder(inner, "openai", "m", 3, zap.NewNop())

			_, err := p.Embed(context.Background(), "x")
			if !errors.Is(err, domain.ErrEmbeddingProviderError) {
				t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
			}
		})
	}
}

func TestInstrumentedEmbedder_BatchEmbed_Chunks(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 1}}
	p := NewInstrumentedEmbedder(inner, "openai", "m", 1, zap.NewNop())

	texts := make([]string, DefaultMaxAPIBatchSize+10)
	res, err := p.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.batchCalls != 2 {
		t.Fatalf("expected 2 chunks, got %d", inner.batchCalls)
	}
	if inner.batchSizes[0] != DefaultMaxAPIBatchSize || inner.batchSizes[1] != 10 {
		t.Errorf("unexpected chunk sizes %v", inner.batchSizes)
	}
	if len(res.Embeddings) != len(texts) || res.TotalTokens != len(texts) {
		t.Errorf("unexpected totals: %d vectors, %d tokens", len(res.Embeddings), res.TotalTokens)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_Empty(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "openai", "m", 0, zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 0 || inner.batchCalls != 0 {
		t.Error("empty input must not reach the provider")
	}
}

func TestInstrumentedEmbedder_BatchEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{batchErr: errors.New("rate limited")}
	p := NewInstrumentedEmbedder(inner, "openai", "m", 0, zap.NewNop())

	_, err := p.BatchEmbed(context.Background(), []string{"a"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_FallbackToSingle(t *testing.T) {
	inner := &plainMockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.5}}}
	p := NewInstrumentedEmbedder(inner, "local", "keywords", 0, zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 3 || len(res.Embeddings) != 3 {
		t.Errorf("expected 3 single calls, got %d", inner.calls)
	}
}

func TestInstrumentedEmbedder_HealthCheck(t *testing.T) {
	inner := &mockEmbedder{healthErr: errors.New("down")}
	p := NewInstrumentedEmbedder(inner, "openai", "m", 0, zap.NewNop())
	if err := p.HealthCheck(context.Background()); err == nil {
		t.Error("expected health error to propagate")
	}

	plain := NewInstrumentedEmbedder(&plainMockEmbedder{}, "local", "m", 0, zap.NewNop())
	if err := plain.HealthCheck(context.Background()); err != nil {
		t.Errorf("embedder without health check should be healthy, got %v", err)
	}
}
