// Package docstore holds the knowledge base in memory together with one
// feature vector per document.
package docstore

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/peruna/internal/domain"
	"github.com/kailas-cloud/peruna/internal/domain/document"
	"github.com/kailas-cloud/peruna/internal/metrics"
)

// source supplies the static document set.
type source interface {
	Load(ctx context.Context) ([]document.Document, error)
}

// Entry pairs a document with its feature vector.
type Entry struct {
	Document document.Document
	Vector   []float32
}

// Option configures a Store.
type Option func(*Store)

// WithText overrides the text that gets vectorized for each document.
// The default is the document body.
func WithText(fn func(document.Document) string) Option {
	return func(s *Store) { s.text = fn }
}

// Store is an immutable-after-load cache of (document, vector) pairs.
// Concurrent Initialize calls share one load; a failed load leaves the
// store empty so a later call can retry.
type Store struct {
	source   source
	embedder domain.Embedder
	text     func(document.Document) string
	logger   *zap.Logger

	group singleflight.Group

	mu          sync.RWMutex
	entries     []Entry
	dimensions  int
	initialized bool
}

// New creates an uninitialized store.
func New(src source, embedder domain.Embedder, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		source:   src,
		embedder: embedder,
		text:     func(d document.Document) string { return d.Text() },
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the documents and computes their vectors once.
// Calls after a successful load return nil without side effects. The load
// itself is detached from ctx cancellation; ctx only bounds the wait.
func (s *Store) Initialize(ctx context.Context) error {
	if s.Initialized() {
		return nil
	}

	ch := s.group.DoChan("init", func() (any, error) {
		if s.Initialized() {
			return nil, nil
		}
		return nil, s.load(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait for store init: %w", ctx.Err())
	case res := <-ch:
		return res.Err
	}
}

// Initialized reports whether a load has completed.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// All returns the entries in insertion order, or nil before initialization.
func (s *Store) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Dimensions returns the shared vector length, 0 before initialization.
func (s *Store) Dimensions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimensions
}

func (s *Store) load(ctx context.Context) error {
	docs, err := s.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	seen := make(map[string]struct{}, len(docs))
	texts := make([]string, len(docs))
	for i, d := range docs {
		if _, dup := seen[d.ID()]; dup {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, d.ID())
		}
		seen[d.ID()] = struct{}{}
		texts[i] = s.text(d)
	}

	vectors, err := s.vectorize(ctx, texts)
	if err != nil {
		return err
	}

	dims := 0
	entries := make([]Entry, len(docs))
	for i, d := range docs {
		if i == 0 {
			dims = len(vectors[i])
		}
		if len(vectors[i]) != dims {
			return fmt.Errorf("document %s: %w", d.ID(), domain.NewDimensionMismatch(dims, len(vectors[i])))
		}
		entries[i] = Entry{Document: d, Vector: vectors[i]}
	}

	s.mu.Lock()
	s.entries = entries
	s.dimensions = dims
	s.initialized = true
	s.mu.Unlock()

	metrics.StoreDocuments.Set(float64(len(entries)))
	s.logger.Info("Document store initialized",
		zap.Int("documents", len(entries)),
		zap.Int("dimensions", dims),
	)
	return nil
}

func (s *Store) vectorize(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var (
		res domain.BatchEmbeddingResult
		err error
	)
	if be, ok := s.embedder.(domain.BatchEmbedder); ok {
		res, err = be.BatchEmbed(ctx, texts)
	} else {
		res, err = domain.BatchFallback(ctx, s.embedder, texts)
	}
	if err != nil {
		return nil, fmt.Errorf("vectorize %d documents: %w", len(texts), err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d vectors for %d documents: %w",
			len(res.Embeddings), len(texts), domain.ErrEmbeddingProviderError)
	}
	return res.Embeddings, nil
}
