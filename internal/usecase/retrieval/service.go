// Package retrieval ranks knowledge-base documents against a query.
package retrieval

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/peruna/internal/domain"
	domdoc "github.com/kailas-cloud/peruna/internal/domain/document"
	"github.com/kailas-cloud/peruna/internal/domain/search/result"
	"github.com/kailas-cloud/peruna/internal/metrics"
)

// Defaults for Config.
const (
	DefaultThreshold        = 0.1
	DefaultTopK             = 3
	DefaultCategoryTopK     = 5
	DefaultCategoryTemplate = "{category} organizations at SMU"
)

// Config tunes ranking. Zero values take the defaults.
type Config struct {
	// Threshold keeps only matches scoring strictly above it.
	Threshold *float64
	TopK      int
	// CategoryTopK is the default result count for category searches.
	CategoryTopK int
	// CategoryTemplate rewrites a category into a query; "{category}" is replaced.
	CategoryTemplate string
}

func (c Config) withDefaults() Config {
	if c.Threshold == nil {
		t := DefaultThreshold
		c.Threshold = &t
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.CategoryTopK <= 0 {
		c.CategoryTopK = DefaultCategoryTopK
	}
	if c.CategoryTemplate == "" {
		c.CategoryTemplate = DefaultCategoryTemplate
	}
	return c
}

// Outcome is a search result. Degraded is set when a backend or provider
// failure was swallowed and Matches is empty because of it.
type Outcome struct {
	Matches  []result.Match
	Degraded bool
}

// Documents returns the matched documents in rank order.
func (o Outcome) Documents() []domdoc.Document {
	return result.Documents(o.Matches)
}

// Engine orchestrates extraction, scoring, ranking and thresholding.
// It never returns errors: retrieval is best-effort enrichment.
type Engine struct {
	embed     Embedder
	ranker    Ranker
	threshold float64
	topK      int
	catTopK   int
	catTmpl   string
	logger    *zap.Logger
}

// New creates a retrieval engine.
func New(embed Embedder, ranker Ranker, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Engine{
		embed:     embed,
		ranker:    ranker,
		threshold: *cfg.Threshold,
		topK:      cfg.TopK,
		catTopK:   cfg.CategoryTopK,
		catTmpl:   cfg.CategoryTemplate,
		logger:    logger,
	}
}

// Threshold returns the configured relevance threshold.
func (e *Engine) Threshold() float64 { return e.threshold }

// Search returns at most topK documents relevant to query, best first.
// topK <= 0 uses the configured default.
func (e *Engine) Search(ctx context.Context, query string, topK int) []domdoc.Document {
	return e.Retrieve(ctx, query, topK).Documents()
}

// SearchMatches is Search with scores.
func (e *Engine) SearchMatches(ctx context.Context, query string, topK int) []result.Match {
	return e.Retrieve(ctx, query, topK).Matches
}

// SearchByCategory biases the query with the category name and delegates to Search.
// topK <= 0 uses the configured category default.
func (e *Engine) SearchByCategory(ctx context.Context, category string, topK int) []domdoc.Document {
	return e.RetrieveByCategory(ctx, category, topK).Documents()
}

// RetrieveByCategory is SearchByCategory reporting degradation.
func (e *Engine) RetrieveByCategory(ctx context.Context, category string, topK int) Outcome {
	if topK <= 0 {
		topK = e.catTopK
	}
	return e.Retrieve(ctx, e.CategoryQuery(category), topK)
}

// CategoryQuery renders the category rewrite template.
func (e *Engine) CategoryQuery(category string) string {
	return strings.ReplaceAll(e.catTmpl, "{category}", strings.TrimSpace(category))
}

// Retrieve runs one search. Failures are logged, counted and turned into a
// degraded empty outcome.
func (e *Engine) Retrieve(ctx context.Context, query string, topK int) Outcome {
	if topK <= 0 {
		topK = e.topK
	}
	backend := e.ranker.Backend()
	start := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	}()

	if strings.TrimSpace(query) == "" {
		e.record(backend, "empty", 0)
		return Outcome{}
	}

	emb, err := e.embed.Embed(ctx, query)
	if err != nil {
		return e.degrade(backend, query, "extract", err)
	}

	candidates, err := e.ranker.Rank(ctx, emb.Embedding, topK)
	if err != nil {
		return e.degrade(backend, query, "rank", err)
	}

	matches := make([]result.Match, 0, min(topK, len(candidates)))
	for i := range candidates {
		if len(matches) == topK {
			break
		}
		if candidates[i].Score() > e.threshold {
			matches = append(matches, candidates[i])
		}
	}

	if len(matches) == 0 {
		e.record(backend, "empty", 0)
		return Outcome{}
	}
	e.record(backend, "hit", len(matches))
	return Outcome{Matches: matches}
}

func (e *Engine) degrade(backend, query, stage string, err error) Outcome {
	level := e.logger.Warn
	if errors.Is(err, domain.ErrDimensionMismatch) {
		level = e.logger.Error
	}
	level("Retrieval degraded to empty result",
		zap.String("backend", backend),
		zap.String("stage", stage),
		zap.Int("query_len", len(query)),
		zap.Error(err),
	)
	e.record(backend, "degraded", 0)
	return Outcome{Degraded: true}
}

func (e *Engine) record(backend, outcome string, n int) {
	metrics.SearchTotal.WithLabelValues(backend, outcome).Inc()
	metrics.SearchResults.WithLabelValues(backend).Observe(float64(n))
}
