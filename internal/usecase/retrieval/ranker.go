package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/peruna/internal/domain"
	"github.com/kailas-cloud/peruna/internal/domain/search/result"
	"github.com/kailas-cloud/peruna/internal/domain/vector"
)

// Backend names reported in metrics and logs.
const (
	BackendStore = "store"
	BackendIndex = "index"
)

// StoreRanker scores every stored vector by cosine similarity.
type StoreRanker struct {
	store EntrySource
}

// NewStoreRanker creates a brute-force ranker over the document store.
func NewStoreRanker(store EntrySource) *StoreRanker {
	return &StoreRanker{store: store}
}

// Backend implements Ranker.
func (r *StoreRanker) Backend() string { return BackendStore }

// Rank lazily initializes the store, then returns every document sorted by
// descending score. Equal scores keep insertion order.
func (r *StoreRanker) Rank(ctx context.Context, vec []float32, _ int) ([]result.Match, error) {
	if err := r.store.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUninitializedStore, err)
	}

	entries := r.store.All()
	matches := make([]result.Match, len(entries))
	for i := range entries {
		score, err := vector.CosineSimilarity(vec, entries[i].Vector)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", entries[i].Document.ID(), err)
		}
		matches[i] = result.New(entries[i].Document, score)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score() > matches[j].Score()
	})
	return matches, nil
}

// IndexRanker delegates nearest-neighbour search to the remote index.
type IndexRanker struct {
	index IndexQuerier
}

// NewIndexRanker creates a ranker backed by the remote vector index.
func NewIndexRanker(index IndexQuerier) *IndexRanker {
	return &IndexRanker{index: index}
}

// Backend implements Ranker.
func (r *IndexRanker) Backend() string { return BackendIndex }

// Rank returns at most topK nearest documents.
func (r *IndexRanker) Rank(ctx context.Context, vec []float32, topK int) ([]result.Match, error) {
	matches, err := r.index.Query(ctx, vec, topK)
	if err != nil {
		return nil, err
	}
	// Not every provider orders hits.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score() > matches[j].Score()
	})
	return matches, nil
}
