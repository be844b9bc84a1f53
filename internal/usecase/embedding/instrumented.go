package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/peruna/internal/domain"
)

// DefaultMaxAPIBatchSize is the largest batch sent in a single provider request.
const DefaultMaxAPIBatchSize = 256

// InstrumentedEmbedder wraps an Embedder with logging and dimension checks.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner      domain.Embedder
	provider   string
	model      string
	dimensions int
	logger     *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder. dimensions > 0 enables a length check on
// every returned vector; a provider returning another length is treated as malformed.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string, dimensions int, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:      inner,
		provider:   provider,
		model:      model,
		dimensions: dimensions,
		logger:     logger,
	}
}

// Embed delegates to the inner embedder and validates the vector it returns.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()

	result, err := p.inner.Embed(ctx, text)

	duration := time.Since(start)

	if err != nil {
		p.logger.Warn("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", asProviderError(err))
	}

	if err := p.checkDimensions(result.Embedding); err != nil {
		p.logger.Warn("Malformed embedding response",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, err
	}

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// BatchEmbed splits texts into provider-sized chunks and delegates each.
func (p *InstrumentedEmbedder) BatchEmbed(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()

	var out domain.BatchEmbeddingResult
	for offset := 0; offset < len(texts); offset += DefaultMaxAPIBatchSize {
		end := min(offset+DefaultMaxAPIBatchSize, len(texts))
		chunk := texts[offset:end]

		res, err := p.embedInner(ctx, chunk)
		if err != nil {
			p.logger.Warn("Batch embedding request failed",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", asProviderError(err))
		}
		if len(res.Embeddings) != len(chunk) {
			return domain.BatchEmbeddingResult{}, fmt.Errorf(
				"batch embed: got %d vectors for %d texts: %w",
				len(res.Embeddings), len(chunk), domain.ErrEmbeddingProviderError)
		}
		for _, v := range res.Embeddings {
			if err := p.checkDimensions(v); err != nil {
				return domain.BatchEmbeddingResult{}, err
			}
		}

		out.Embeddings = append(out.Embeddings, res.Embeddings...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}

	p.logger.Debug("Batch embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("total_tokens", out.TotalTokens),
	)

	return out, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

func (p *InstrumentedEmbedder) embedInner(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if be, ok := p.inner.(domain.BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("inner batch embed: %w", err)
		}
		return res, nil
	}
	res, err := domain.BatchFallback(ctx, p.inner, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("inner batch fallback: %w", err)
	}
	return res, nil
}

func (p *InstrumentedEmbedder) checkDimensions(v []float32) error {
	if len(v) == 0 {
		return fmt.Errorf("empty embedding vector: %w", domain.ErrEmbeddingProviderError)
	}
	if p.dimensions > 0 && len(v) != p.dimensions {
		return fmt.Errorf("embedding has %d dimensions, want %d: %w",
			len(v), p.dimensions, domain.ErrEmbeddingProviderError)
	}
	return nil
}

// asProviderError makes sure every failure from a remote strategy matches
// domain.ErrEmbeddingProviderError, context expiry included.
func asProviderError(err error) error {
	if errors.Is(err, domain.ErrEmbeddingProviderError) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
}
