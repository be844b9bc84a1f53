// Package main implements peruna-import, which loads the knowledge base into
// the Redis/Valkey vector index served by the "index" retrieval strategy.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/peruna/internal/bootstrap"
	"github.com/kailas-cloud/peruna/internal/config"
	"github.com/kailas-cloud/peruna/internal/knowledge"
	logpkg "github.com/kailas-cloud/peruna/internal/logger"
	"github.com/kailas-cloud/peruna/internal/metrics"
	"github.com/kailas-cloud/peruna/internal/repository/index"
	"github.com/kailas-cloud/peruna/internal/usecase/ingest"
	"github.com/kailas-cloud/peruna/internal/version"
)

var (
	csvPath       string
	knowledgePath string
	recreate      bool
	batchSize     int
	batchDelay    time.Duration
	dryRun        bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "peruna-import",
	Short: "Load the knowledge base into the vector index",
	Long: `peruna-import embeds the knowledge base with the configured remote provider
and upserts it into the Redis/Valkey vector index.

Configuration is read from config/{ENV}.yaml like the server.

Examples:
  # Import the organizations export, replacing the index
  peruna-import --csv smu_organizations.csv --recreate

  # Import the built-in knowledge base
  peruna-import

  # Parse the export and print what would be embedded
  peruna-import --csv smu_organizations.csv --dry-run`,
	Version:      version.Version,
	SilenceUsage: true,
	RunE:         runImport,
}

func init() {
	rootCmd.Flags().StringVar(&csvPath, "csv", "", "Organizations CSV export to import")
	rootCmd.Flags().StringVar(&knowledgePath, "knowledge", "", "Knowledge YAML file (defaults to config, then the built-in seed)")
	rootCmd.Flags().BoolVar(&recreate, "recreate", false, "Drop and recreate the index before importing")
	rootCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Documents per embedding batch (defaults to config)")
	rootCmd.Flags().DurationVar(&batchDelay, "delay", 0, "Minimum delay between batches (defaults to config)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and print documents without embedding")
}

func runImport(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if knowledgePath == "" {
		knowledgePath = cfg.Knowledge.Path
	}
	docs, err := loadDocuments(cmd.Context(), csvPath, knowledgePath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dryRun {
		for i := range docs {
			fmt.Fprintf(out, "%s\n%s\n\n", docs[i].ID(), knowledge.EmbeddingText(docs[i]))
		}
		fmt.Fprintf(out, "%d documents\n", len(docs))
		return nil
	}

	if cfg.Retrieval.Strategy == config.StrategyKeyword {
		return fmt.Errorf("retrieval.strategy %q does not use the vector index", cfg.Retrieval.Strategy)
	}
	// The index lives in the database even when the server strategy only caches.
	cfg.Retrieval.Strategy = config.StrategyIndex
	if len(cfg.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()
	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	embedders := bootstrap.BuildEmbedders(cfg, store, logger)
	repo := index.New(store, index.Config{
		Name:           cfg.Index.Name,
		HNSW:           true,
		M:              cfg.Index.HNSWM,
		EFConstruction: cfg.Index.HNSWEFConstruct,
	})

	if batchSize <= 0 {
		batchSize = cfg.Index.BatchSize
	}
	if batchDelay <= 0 {
		batchDelay = time.Duration(cfg.Index.BatchDelayMs) * time.Millisecond
	}

	logger.Info("Importing knowledge base",
		zap.String("index", repo.Name()),
		zap.Int("documents", len(docs)),
		zap.Int("batch_size", batchSize),
		zap.Duration("delay", batchDelay),
		zap.Bool("recreate", recreate),
	)

	rep, err := ingest.New(embedders.Document, repo, logger).Run(ctx, docs, ingest.Config{
		BatchSize:  batchSize,
		BatchDelay: batchDelay,
		Recreate:   recreate,
		Text:       knowledge.EmbeddingText,
	})
	if err != nil {
		return fmt.Errorf("import after %d documents: %w", rep.Documents, err)
	}

	total, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count index: %w", err)
	}
	fmt.Fprintf(out, "Imported %d documents in %d batches (%d dimensions, %d tokens); index %s holds %d\n",
		rep.Documents, rep.Batches, rep.Dimensions, rep.TotalTokens, repo.Name(), total)
	return nil
}
