package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Retrieval strategies.
const (
	// StrategyKeyword vectorizes with the local keyword dictionary.
	StrategyKeyword = "keyword"
	// StrategyOpenAI vectorizes with a remote embeddings API and ranks in memory.
	StrategyOpenAI = "openai"
	// StrategyIndex vectorizes remotely and ranks inside the Redis vector index.
	StrategyIndex = "index"
)

// Config holds the peruna server configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Index     IndexConfig     `yaml:"index"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// RetrievalConfig selects the strategy and tunes ranking.
type RetrievalConfig struct {
	Strategy string `yaml:"strategy"` // keyword (default), openai, index
	// Threshold is a pointer so that an explicit 0 survives defaulting.
	Threshold        *float64 `yaml:"threshold"`
	TopK             int      `yaml:"top_k"`
	CategoryTopK     int      `yaml:"category_top_k"`
	CategoryTemplate string   `yaml:"category_template"`
}

// EmbeddingConfig holds remote embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // metrics label (default: openai)
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	TimeoutSec int    `yaml:"timeout_sec"`
	// Instruction is prepended to query texts before embedding.
	Instruction string `yaml:"instruction"`
}

// DatabaseConfig holds Redis/Valkey connection settings shared by the cache and the index.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CacheConfig holds the embedding cache settings.
type CacheConfig struct {
	Enabled   bool   `yaml:"enabled"`
	TTLHours  int    `yaml:"ttl_hours"` // 0 = no expiry
	Namespace string `yaml:"namespace"`
}

// IndexConfig holds the remote vector index settings.
type IndexConfig struct {
	Name            string `yaml:"name"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
	BatchSize       int    `yaml:"batch_size"`
	BatchDelayMs    int    `yaml:"batch_delay_ms"`
}

// KnowledgeConfig locates the knowledge base.
type KnowledgeConfig struct {
	Path string `yaml:"path"` // empty = embedded seed
}

// CORSConfig holds the browser widget CORS policy.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxAgeSec      int      `yaml:"max_age_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadDotEnv loads .env files into the process environment without overriding
// variables already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Retrieval.Strategy == "" {
		c.Retrieval.Strategy = StrategyKeyword
	}
	if c.Retrieval.Threshold == nil {
		t := 0.1
		c.Retrieval.Threshold = &t
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 3
	}
	if c.Retrieval.CategoryTopK <= 0 {
		c.Retrieval.CategoryTopK = 5
	}
	if c.Retrieval.CategoryTemplate == "" {
		c.Retrieval.CategoryTemplate = "{category} organizations at SMU"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-ada-002"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.Name == "" {
		c.Index.Name = "peruna-knowledge"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Index.BatchSize <= 0 {
		c.Index.BatchSize = 10
	}
	if c.Index.BatchDelayMs <= 0 {
		c.Index.BatchDelayMs = 500
	}
	if c.CORS.MaxAgeSec <= 0 {
		c.CORS.MaxAgeSec = 300
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Retrieval.Strategy {
	case StrategyKeyword:
	case StrategyOpenAI, StrategyIndex:
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding.api_key is required for strategy %q", c.Retrieval.Strategy)
		}
	default:
		return fmt.Errorf("retrieval.strategy must be %q, %q or %q, got %q",
			StrategyKeyword, StrategyOpenAI, StrategyIndex, c.Retrieval.Strategy)
	}

	if t := c.Retrieval.Threshold; t != nil && (*t < -1 || *t > 1) {
		return fmt.Errorf("retrieval.threshold must be between -1 and 1, got %v", *t)
	}
	if !strings.Contains(c.Retrieval.CategoryTemplate, "{category}") {
		return fmt.Errorf("retrieval.category_template must contain {category}")
	}

	if c.NeedsDatabase() && len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required when the cache or the index strategy is enabled")
	}
	return nil
}

// NeedsDatabase reports whether any component talks to Redis/Valkey.
func (c *Config) NeedsDatabase() bool {
	return c.Cache.Enabled || c.Retrieval.Strategy == StrategyIndex
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
