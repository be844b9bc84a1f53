package retrieval

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/kailas-cloud/peruna/internal/domain"
	domdoc "github.com/kailas-cloud/peruna/internal/domain/document"
	"github.com/kailas-cloud/peruna/internal/domain/search/result"
	"github.com/kailas-cloud/peruna/internal/knowledge"
	"github.com/kailas-cloud/peruna/internal/repository/docstore"
	"github.com/kailas-cloud/peruna/internal/usecase/embedding"
)

// countingEmbedder wraps an embedder and counts calls.
type countingEmbedder struct {
	inner Embedder
	err   error
	calls atomic.Int32
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	c.calls.Add(1)
	if c.err != nil {
		return domain.EmbeddingResult{}, c.err
	}
	return c.inner.Embed(ctx, text)
}

type docsSource struct {
	docs []domdoc.Document
	err  error
	gate chan struct{} // when set, Load blocks until closed
}

func (s *docsSource) Load(_ context.Context) ([]domdoc.Document, error) {
	if s.gate != nil {
		<-s.gate
	}
	return s.docs, s.err
}

type mockQuerier struct {
	matches []result.Match
	err     error
	topK    int
}

func (m *mockQuerier) Query(_ context.Context, _ []float32, topK int) ([]result.Match, error) {
	m.topK = topK
	return m.matches, m.err
}

// seedEngine builds an engine over the embedded knowledge base with the keyword strategy.
func seedEngine(t *testing.T) (*Engine, *docstore.Store, *countingEmbedder) {
	t.Helper()
	kw := embedding.NewKeywordEmbedder()
	store := docstore.New(knowledge.NewSource(""), kw, nil)
	emb := &countingEmbedder{inner: kw}
	return New(emb, NewStoreRanker(store), Config{}, nil), store, emb
}

func fixtureEngine(t *testing.T, docs ...domdoc.Document) *Engine {
	t.Helper()
	kw := embedding.NewKeywordEmbedder()
	store := docstore.New(&docsSource{docs: docs}, kw, nil)
	return New(kw, NewStoreRanker(store), Config{}, nil)
}

func mustDoc(t *testing.T, id, text, category string) domdoc.Document {
	t.Helper()
	d, err := domdoc.New(id, "", text, category, nil, domdoc.Metadata{})
	if err != nil {
		t.Fatalf("document %s: %v", id, err)
	}
	return d
}

func match(t *testing.T, id string, score float64) result.Match {
	t.Helper()
	return result.New(mustDoc(t, id, "text of "+id, ""), score)
}
