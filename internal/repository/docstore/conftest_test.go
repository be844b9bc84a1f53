package docstore

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kailas-cloud/peruna/internal/domain"
	"github.com/kailas-cloud/peruna/internal/domain/document"
)

type mockSource struct {
	docs  []document.Document
	err   error
	calls atomic.Int32
	gate  chan struct{} // when set, Load blocks until closed
}

func (m *mockSource) Load(_ context.Context) ([]document.Document, error) {
	m.calls.Add(1)
	if m.gate != nil {
		<-m.gate
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.docs, nil
}

// letterEmbedder maps text to a 3-dim presence vector over "a", "b", "c".
type letterEmbedder struct {
	mu    sync.Mutex
	calls int
	texts []string
	err   error
	dims  map[string]int // per-text dimension override
}

func (e *letterEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.texts = append(e.texts, text)
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	n := 3
	if d, ok := e.dims[text]; ok {
		n = d
	}
	vec := make([]float32, n)
	for i, l := range []string{"a", "b", "c"} {
		if i < n && strings.Contains(text, l) {
			vec[i] = 1
		}
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}

func mustDoc(t *testing.T, id, text string) document.Document {
	t.Helper()
	d, err := document.New(id, "", text, "organizations", nil, document.Metadata{})
	if err != nil {
		t.Fatalf("document.New(%s): %v", id, err)
	}
	return d
}
