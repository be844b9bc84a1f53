package peruna

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/peruna/internal/bootstrap"
	"github.com/kailas-cloud/peruna/internal/config"
	"github.com/kailas-cloud/peruna/internal/db"
	dbRedis "github.com/kailas-cloud/peruna/internal/db/redis"
	"github.com/kailas-cloud/peruna/internal/domain"
	domdoc "github.com/kailas-cloud/peruna/internal/domain/document"
	"github.com/kailas-cloud/peruna/internal/knowledge"
	"github.com/kailas-cloud/peruna/internal/repository/docstore"
	"github.com/kailas-cloud/peruna/internal/repository/index"
	chatuc "github.com/kailas-cloud/peruna/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/peruna/internal/usecase/health"
	"github.com/kailas-cloud/peruna/internal/usecase/retrieval"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped in tests.
type searchUseCase interface {
	Retrieve(ctx context.Context, query string, topK int) retrieval.Outcome
	RetrieveByCategory(ctx context.Context, category string, topK int) retrieval.Outcome
}

type chatUseCase interface {
	Greeting() chatuc.Reply
	Fallback() chatuc.Reply
	Respond(ctx context.Context, message string) (chatuc.Reply, error)
}

// Client is the peruna entry point.
type Client struct {
	store     *dbRedis.Store
	searchSvc searchUseCase
	chatSvc   chatUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and loads the knowledge base. Without options it
// ranks the built-in seed with the local keyword strategy.
// The provided context bounds the database readiness check and the load.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.index != "" {
		if len(cfg.addrs) == 0 {
			return nil, errors.New("peruna: index requires a database (use WithRedis)")
		}
		if len(cfg.documents) > 0 || cfg.knowledgePath != "" {
			return nil, errors.New("peruna: the index serves its own documents; drop WithDocuments and WithKnowledgeFile")
		}
		if cfg.embedder == nil && cfg.apiKey == "" {
			return nil, errors.New("peruna: index requires remote embeddings (use WithOpenAI or WithEmbedder)")
		}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var store *dbRedis.Store
	if len(cfg.addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
		if err != nil {
			return nil, fmt.Errorf("peruna: create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("peruna: database not ready: %w", err)
		}
	}

	c, err := wireClient(ctx, cfg, store, obs)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return c, nil
}

func wireClient(ctx context.Context, cfg *clientConfig, store *dbRedis.Store, obs *observer) (*Client, error) {
	// Pass nil interfaces, never a typed nil *Store.
	var (
		kv     db.KVStore
		pinger healthuc.DBPinger
	)
	if store != nil {
		kv = store
		pinger = store
	}

	embedders := buildEmbedders(cfg, kv)

	var (
		ranker       retrieval.Ranker
		knowledgeChk healthuc.KnowledgeLoader
	)
	if cfg.index != "" {
		ranker = retrieval.NewIndexRanker(index.New(store, index.Config{Name: cfg.index, HNSW: true}))
	} else {
		src, err := newSource(cfg)
		if err != nil {
			return nil, err
		}
		var storeOpts []docstore.Option
		if embedders.Remote {
			storeOpts = append(storeOpts, docstore.WithText(knowledge.EmbeddingText))
		}
		docs := docstore.New(src, embedders.Document, nil, storeOpts...)
		if err := docs.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("peruna: load knowledge base: %w", err)
		}
		ranker = retrieval.NewStoreRanker(docs)
		knowledgeChk = docs
	}

	engine := retrieval.New(embedders.Query, ranker, retrieval.Config{
		Threshold:    cfg.threshold,
		TopK:         cfg.topK,
		CategoryTopK: cfg.categoryTopK,
	}, nil)

	var embeddingChk healthuc.EmbeddingChecker
	if hc, ok := embedders.Document.(domain.HealthChecker); ok && embedders.Remote {
		embeddingChk = hc
	}

	return &Client{
		store:     store,
		searchSvc: engine,
		chatSvc:   chatuc.New(engine, nil, nil),
		healthSvc: healthuc.New(knowledgeChk, pinger, embeddingChk, nil),
		obs:       obs,
	}, nil
}

// buildEmbedders prefers a custom embedder, then the remote provider, then
// the keyword strategy.
func buildEmbedders(cfg *clientConfig, kv db.KVStore) bootstrap.Embedders {
	if cfg.embedder != nil {
		e := &embedderAdapter{inner: cfg.embedder}
		return bootstrap.Embedders{Document: e, Query: e, Remote: true}
	}

	sc := config.Config{}
	sc.Retrieval.Strategy = config.StrategyKeyword
	if cfg.apiKey != "" {
		sc.Retrieval.Strategy = config.StrategyOpenAI
		sc.Embedding = config.EmbeddingConfig{
			APIKey:     cfg.apiKey,
			BaseURL:    cfg.baseURL,
			Model:      cfg.model,
			Dimensions: cfg.dimensions,
			TimeoutSec: int(cfg.timeout / time.Second),
		}
		sc.Cache.Enabled = kv != nil
	}
	sc.ApplyDefaults()
	return bootstrap.BuildEmbedders(sc, kv, nil)
}

// documentSource supplies the in-memory knowledge base.
type documentSource interface {
	Load(ctx context.Context) ([]domdoc.Document, error)
}

func newSource(cfg *clientConfig) (documentSource, error) {
	if len(cfg.documents) == 0 {
		return knowledge.NewSource(cfg.knowledgePath), nil
	}
	docs := make([]domdoc.Document, len(cfg.documents))
	for i, d := range cfg.documents {
		dd, err := d.toDomain()
		if err != nil {
			return nil, fmt.Errorf("peruna: document %d: %w", i, err)
		}
		docs[i] = dd
	}
	return sliceSource(docs), nil
}

// sliceSource serves documents given in memory.
type sliceSource []domdoc.Document

func (s sliceSource) Load(_ context.Context) ([]domdoc.Document, error) {
	return append([]domdoc.Document(nil), s...), nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Search returns up to topK documents scoring above the threshold, best
// first. topK <= 0 uses the default. Provider failures yield an empty,
// degraded result rather than an error.
func (c *Client) Search(ctx context.Context, query string, topK int) SearchResult {
	start := time.Now()
	out := c.searchSvc.Retrieve(ctx, query, topK)
	c.obs.observe("search", start, degradedErr(out))
	return resultFromOutcome(out)
}

// SearchByCategory searches with the query "{category} organizations at SMU".
func (c *Client) SearchByCategory(ctx context.Context, category string, topK int) SearchResult {
	start := time.Now()
	out := c.searchSvc.RetrieveByCategory(ctx, category, topK)
	c.obs.observe("search_category", start, degradedErr(out))
	return resultFromOutcome(out)
}

// Chat answers a message or a selected quick-reply option. It fails for an
// empty message (ErrInvalidQuery) or a finished context; show Fallback then.
func (c *Client) Chat(ctx context.Context, message string) (Reply, error) {
	start := time.Now()
	r, err := c.chatSvc.Respond(ctx, message)
	if err != nil {
		c.obs.observe("chat", start, err)
		return Reply{}, fmt.Errorf("chat: %w", err)
	}

	var obsErr error
	if r.Kind == chatuc.KindFallback {
		obsErr = errDegraded
	}
	c.obs.observe("chat", start, obsErr)
	return replyFromDomain(r), nil
}

// Greeting returns the opening message.
func (c *Client) Greeting() Reply {
	return replyFromDomain(c.chatSvc.Greeting())
}

// Fallback returns the reply shown when the knowledge base is unavailable.
func (c *Client) Fallback() Reply {
	return replyFromDomain(c.chatSvc.Fallback())
}

func degradedErr(out retrieval.Outcome) error {
	if out.Degraded {
		return errDegraded
	}
	return nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
