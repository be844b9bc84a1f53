package peruna

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
	timeout    time.Duration
	embedder   Embedder

	addrs    []string
	password string
	index    string

	knowledgePath string
	documents     []Document

	threshold    *float64
	topK         int
	categoryTopK int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithOpenAI switches to remote embeddings from an OpenAI-compatible API.
// An empty model keeps text-embedding-ada-002.
func WithOpenAI(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
		c.model = model
	})
}

// WithBaseURL points the remote embeddings at another OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = url
	})
}

// WithDimensions requests vectors of the given size from the provider.
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithTimeout bounds every remote embedding call. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithEmbedder sets a custom embedding strategy. It takes precedence over
// WithOpenAI and must embed documents and queries into the same space.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithRedis connects to Redis or Valkey. Remote vectors are cached there,
// and WithIndex serves the knowledge base from its vector index.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithIndex ranks inside the named vector index, loaded by peruna-import,
// instead of in memory. Requires WithRedis.
func WithIndex(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = name
	})
}

// WithKnowledgeFile loads the knowledge base from a YAML file instead of the built-in seed.
func WithKnowledgeFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.knowledgePath = path
	})
}

// WithDocuments replaces the knowledge base with docs.
func WithDocuments(docs ...Document) Option {
	return optionFunc(func(c *clientConfig) {
		c.documents = append(c.documents, docs...)
	})
}

// WithThreshold keeps only matches scoring strictly above t. Default: 0.1.
func WithThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.threshold = &t
	})
}

// WithTopK sets the default result counts of Search and SearchByCategory.
// Defaults: 3 and 5.
func WithTopK(k, categoryK int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
		c.categoryTopK = categoryK
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
