package retrieval

import (
	"context"

	"github.com/kailas-cloud/peruna/internal/domain"
	"github.com/kailas-cloud/peruna/internal/domain/search/result"
	"github.com/kailas-cloud/peruna/internal/repository/docstore"
)

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Ranker scores a query vector against a document backend and returns
// candidates best first. The engine applies the threshold and the cut.
type Ranker interface {
	Backend() string
	Rank(ctx context.Context, vec []float32, topK int) ([]result.Match, error)
}

// EntrySource is the in-memory document store.
type EntrySource interface {
	Initialize(ctx context.Context) error
	All() []docstore.Entry
}

// IndexQuerier is the remote vector index.
type IndexQuerier interface {
	Query(ctx context.Context, vec []float32, topK int) ([]result.Match, error)
}
