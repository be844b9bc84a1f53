package health

import "context"

// KnowledgeLoader loads the knowledge base, a no-op once loaded.
type KnowledgeLoader interface {
	Initialize(ctx context.Context) error
}

// DBPinger checks Redis/Valkey availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
