package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/peruna/internal/db"
	"github.com/kailas-cloud/peruna/internal/domain"
)

type mockEmbedder struct {
	result     domain.EmbeddingResult
	err        error
	batchErr   error
	embedCalls int
	batchCalls int
	batchSizes []int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.embedCalls++
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
		Embeddings:   embeddings,
		PromptTokens: m.result.PromptTokens * len(texts),
		TotalTokens:  m.result.TotalTokens * len(texts),
	}, nil
}

// singleEmbedder has no batch call.
type singleEmbedder struct {
	vec   []float32
	calls int
}

func (s *singleEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	s.calls++
	return domain.EmbeddingResult{Embedding: s.vec, TotalTokens: 1}, nil
}

// mockKVStore is an in-memory kv; getFn/setFn override it.
type mockKVStore struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	getFn   func(ctx context.Context, key string) ([]byte, error)
	setFn   func(ctx context.Context, key string, value []byte) error
	setKeys []string
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	m.setKeys = append(m.setKeys, key)
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.data[key] = value
	return nil
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.ttls[key] = ttl
	return m.Set(ctx, key, value)
}

func newTestCachedEmbedder(t *testing.T, inner domain.Embedder, opts ...Option) (*CachedEmbedder, *mockKVStore) {
	t.Helper()
	ms := newMockKVStore()
	return New(inner, ms, nil, zap.NewNop(), opts...), ms
}
