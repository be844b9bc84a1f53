// Package bootstrap assembles the components shared by the peruna binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/peruna/internal/config"
	"github.com/kailas-cloud/peruna/internal/db"
	dbRedis "github.com/kailas-cloud/peruna/internal/db/redis"
	"github.com/kailas-cloud/peruna/internal/domain"
	"github.com/kailas-cloud/peruna/internal/metrics"
	"github.com/kailas-cloud/peruna/internal/repository/embcache"
	openaiEmb "github.com/kailas-cloud/peruna/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/peruna/internal/usecase/embedding"
)

// Embedders holds the document-side and query-side strategies. Both always
// produce vectors of the same space.
type Embedders struct {
	Document   domain.Embedder
	Query      domain.Embedder
	Dimensions int // 0 when the provider decides
	Remote     bool
}

// OpenStore connects to Redis/Valkey and waits until it answers.
// It returns nil without error when no component needs the database.
func OpenStore(ctx context.Context, cfg config.Config) (*dbRedis.Store, error) {
	if !cfg.NeedsDatabase() {
		return nil, nil
	}
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}
	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	return store, nil
}

// BuildEmbedders picks the strategy from cfg. kv is used for the embedding
// cache when enabled and may be nil otherwise.
func BuildEmbedders(cfg config.Config, kv db.KVStore, logger *zap.Logger) Embedders {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retrieval.Strategy == config.StrategyKeyword {
		kw := embeddinguc.NewKeywordEmbedder()
		return Embedders{Document: kw, Query: kw, Dimensions: kw.Dimensions()}
	}

	emb := buildRemote(cfg, kv, logger)
	var query domain.Embedder = emb
	if cfg.Embedding.Instruction != "" {
		query = domain.NewInstructionEmbedder(emb, cfg.Embedding.Instruction)
	}
	return Embedders{
		Document:   emb,
		Query:      query,
		Dimensions: cfg.Embedding.Dimensions,
		Remote:     true,
	}
}

// buildRemote assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildRemote(cfg config.Config, kv db.KVStore, logger *zap.Logger) domain.Embedder {
	ec := cfg.Embedding
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Timeout:    time.Duration(ec.TimeoutSec) * time.Second,
		Provider:   ec.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.Cache.Enabled && kv != nil {
		ns := cfg.Cache.Namespace
		if ns == "" {
			ns = ec.Model
		}
		embedder = embcache.New(base, kv, metrics.EmbeddingCacheTotal, logger,
			embcache.WithTTL(time.Duration(cfg.Cache.TTLHours)*time.Hour),
			embcache.WithNamespace(ns),
		)
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, ec.Dimensions, logger)
}
