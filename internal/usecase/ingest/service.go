// Package ingest embeds knowledge-base documents and loads them into the
// remote vector index in throttled batches.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/peruna/internal/domain"
	domdoc "github.com/kailas-cloud/peruna/internal/domain/document"
)

// Defaults for Config.
const (
	DefaultBatchSize  = 10
	DefaultBatchDelay = 500 * time.Millisecond
)

// Index is the vector index being loaded.
type Index interface {
	EnsureIndex(ctx context.Context, dim int) error
	Recreate(ctx context.Context, dim int) error
	Upsert(ctx context.Context, docs []domdoc.Document, vectors [][]float32) error
}

// Config tunes an import run.
type Config struct {
	BatchSize int
	// BatchDelay is the minimum spacing between embedding batches.
	BatchDelay time.Duration
	// Recreate drops and recreates the index before the first write.
	Recreate bool
	// Text renders the embedded text of a document; nil embeds the body.
	Text func(domdoc.Document) string
}

// Report summarizes a finished run.
type Report struct {
	Documents   int
	Batches     int
	Dimensions  int
	TotalTokens int
}

// Service runs imports.
type Service struct {
	embedder domain.Embedder
	index    Index
	logger   *zap.Logger
}

// New creates an import service.
func New(embedder domain.Embedder, index Index, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{embedder: embedder, index: index, logger: logger}
}

// Run embeds docs batch by batch and upserts each batch. The index is
// created (or recreated) for the dimension of the first batch.
func (s *Service) Run(ctx context.Context, docs []domdoc.Document, cfg Config) (Report, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = 0
	}
	if cfg.Text == nil {
		cfg.Text = func(d domdoc.Document) string { return d.Text() }
	}

	limit := rate.Inf
	if cfg.BatchDelay > 0 {
		limit = rate.Every(cfg.BatchDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	var rep Report
	for offset := 0; offset < len(docs); offset += cfg.BatchSize {
		batch := docs[offset:min(offset+cfg.BatchSize, len(docs))]

		if err := limiter.Wait(ctx); err != nil {
			return rep, fmt.Errorf("batch %d: %w", rep.Batches+1, err)
		}

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = cfg.Text(batch[i])
		}
		res, err := s.embed(ctx, texts)
		if err != nil {
			return rep, fmt.Errorf("embed batch %d: %w", rep.Batches+1, err)
		}

		if len(res.Embeddings) != len(batch) {
			return rep, fmt.Errorf("batch %d: got %d vectors for %d documents: %w",
				rep.Batches+1, len(res.Embeddings), len(batch), domain.ErrEmbeddingProviderError)
		}

		if rep.Batches == 0 {
			if err := s.prepare(ctx, res.Embeddings, cfg.Recreate); err != nil {
				return rep, err
			}
			rep.Dimensions = len(res.Embeddings[0])
		}
		for i, v := range res.Embeddings {
			if len(v) != rep.Dimensions {
				return rep, fmt.Errorf("document %s: %w", batch[i].ID(),
					domain.NewDimensionMismatch(rep.Dimensions, len(v)))
			}
		}

		if err := s.index.Upsert(ctx, batch, res.Embeddings); err != nil {
			return rep, fmt.Errorf("upsert batch %d: %w", rep.Batches+1, err)
		}

		rep.Batches++
		rep.Documents += len(batch)
		rep.TotalTokens += res.TotalTokens
		s.logger.Info("Imported batch",
			zap.Int("batch", rep.Batches),
			zap.Int("documents", rep.Documents),
			zap.Int("total", len(docs)),
		)
	}
	return rep, nil
}

func (s *Service) prepare(ctx context.Context, vectors [][]float32, recreate bool) error {
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return fmt.Errorf("first batch: %w: empty vector", domain.ErrEmbeddingProviderError)
	}
	dim := len(vectors[0])
	if recreate {
		if err := s.index.Recreate(ctx, dim); err != nil {
			return fmt.Errorf("recreate index: %w", err)
		}
		return nil
	}
	if err := s.index.EnsureIndex(ctx, dim); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	return nil
}

func (s *Service) embed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := s.embedder.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, s.embedder, texts)
}
