package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/peruna/internal/bootstrap"
	"github.com/kailas-cloud/peruna/internal/config"
	"github.com/kailas-cloud/peruna/internal/db"
	"github.com/kailas-cloud/peruna/internal/domain"
	"github.com/kailas-cloud/peruna/internal/knowledge"
	logpkg "github.com/kailas-cloud/peruna/internal/logger"
	"github.com/kailas-cloud/peruna/internal/metrics"
	"github.com/kailas-cloud/peruna/internal/repository/docstore"
	"github.com/kailas-cloud/peruna/internal/repository/index"
	chiTransport "github.com/kailas-cloud/peruna/internal/transport/chi"
	chatuc "github.com/kailas-cloud/peruna/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/peruna/internal/usecase/health"
	"github.com/kailas-cloud/peruna/internal/usecase/retrieval"
	"github.com/kailas-cloud/peruna/internal/version"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic("failed to load .env: " + err.Error())
	}

	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting peruna API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("strategy", cfg.Retrieval.Strategy),
	)

	// Register metrics explicitly (no init())
	metrics.Register()

	ctx := context.Background()
	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}

	// Pass nil interfaces, never a typed nil *Store.
	var (
		kv     db.KVStore
		pinger healthuc.DBPinger
	)
	if store != nil {
		defer store.Close()
		kv = store
		pinger = store
		logger.Info("Connected to database", zap.Strings("db_addrs", cfg.Database.Addrs))
	}

	embedders := bootstrap.BuildEmbedders(cfg, kv, logger)
	logger.Info("Embedders created",
		zap.Bool("remote", embedders.Remote),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", embedders.Dimensions),
	)

	var (
		ranker       retrieval.Ranker
		knowledgeChk healthuc.KnowledgeLoader
	)
	switch cfg.Retrieval.Strategy {
	case config.StrategyIndex:
		repo := index.New(store, index.Config{
			Name:           cfg.Index.Name,
			HNSW:           true,
			M:              cfg.Index.HNSWM,
			EFConstruction: cfg.Index.HNSWEFConstruct,
		})
		if n, err := repo.Count(ctx); err != nil {
			logger.Warn("Vector index unavailable, run peruna-import", zap.String("index", repo.Name()), zap.Error(err))
		} else {
			logger.Info("Vector index ready", zap.String("index", repo.Name()), zap.Int("documents", n))
		}
		ranker = retrieval.NewIndexRanker(repo)
	default:
		var opts []docstore.Option
		if embedders.Remote {
			opts = append(opts, docstore.WithText(knowledge.EmbeddingText))
		}
		docs := docstore.New(knowledge.NewSource(cfg.Knowledge.Path), embedders.Document, logger, opts...)
		// Failure is not fatal: the store retries on the first query.
		if err := docs.Initialize(ctx); err != nil {
			logger.Warn("Knowledge base not loaded yet", zap.Error(err))
		} else {
			logger.Info("Knowledge base loaded", zap.Int("documents", docs.Len()))
		}
		ranker = retrieval.NewStoreRanker(docs)
		knowledgeChk = docs
	}

	engine := retrieval.New(embedders.Query, ranker, retrieval.Config{
		Threshold:        cfg.Retrieval.Threshold,
		TopK:             cfg.Retrieval.TopK,
		CategoryTopK:     cfg.Retrieval.CategoryTopK,
		CategoryTemplate: cfg.Retrieval.CategoryTemplate,
	}, logger)
	chatSvc := chatuc.New(engine, chatuc.NewComposer(), logger)

	var embeddingChk healthuc.EmbeddingChecker
	if embedders.Remote {
		embeddingChk = newEmbeddingHealthChecker(embedders.Document)
	}
	healthSvc := healthuc.New(knowledgeChk, pinger, embeddingChk, logger)

	server := chiTransport.NewServer(chatSvc, engine, healthSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		CORSMaxAge:     time.Duration(cfg.CORS.MaxAgeSec) * time.Second,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
