// Package index keeps the knowledge base in a Redis/Valkey FT vector index
// and answers nearest-neighbour queries against it.
package index

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/peruna/internal/db"
	"github.com/kailas-cloud/peruna/internal/domain"
	domdoc "github.com/kailas-cloud/peruna/internal/domain/document"
	"github.com/kailas-cloud/peruna/internal/domain/search/result"
)

// DefaultName is the FT index name used when none is configured.
const DefaultName = "peruna-knowledge"

var keyPrefix = domain.KeyPrefix + "doc:"

// store is the consumer interface for the vector index (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index string) (int, error)
}

// Config selects the index name and vector algorithm.
type Config struct {
	Name string
	HNSW bool // FLAT when false
	// M and EFConstruction tune HNSW; 0 keeps the server defaults.
	M              int
	EFConstruction int
}

// Repo is the remote vector index.
type Repo struct {
	store store
	name  string
	hnsw  bool
	m     int
	ef    int
}

// New creates an index repository.
func New(s store, cfg Config) *Repo {
	name := cfg.Name
	if name == "" {
		name = DefaultName
	}
	return &Repo{store: s, name: name, hnsw: cfg.HNSW, m: cfg.M, ef: cfg.EFConstruction}
}

// Name returns the FT index name.
func (r *Repo) Name() string { return r.name }

// EnsureIndex creates the FT index for dim-sized vectors unless it exists.
func (r *Repo) EnsureIndex(ctx context.Context, dim int) error {
	exists, err := r.store.IndexExists(ctx, r.name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.name, err)
	}
	if exists {
		return nil
	}

	def, err := r.definition(dim)
	if err != nil {
		return err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", r.name, err)
	}
	return nil
}

// Recreate drops the index (keeping documents) and creates it for dim.
func (r *Repo) Recreate(ctx context.Context, dim int) error {
	if err := r.store.DropIndex(ctx, r.name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", r.name, err)
	}
	return r.EnsureIndex(ctx, dim)
}

// Upsert writes documents with their vectors in one pipelined round-trip.
func (r *Repo) Upsert(ctx context.Context, docs []domdoc.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("upsert: %d documents but %d vectors", len(docs), len(vectors))
	}
	if len(docs) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(docs))
	for i := range docs {
		if len(vectors[i]) == 0 {
			return fmt.Errorf("upsert %s: %w", docs[i].ID(), domain.ErrInvalidDocument)
		}
		items[i] = db.HashSetItem{
			Key:    keyPrefix + docs[i].ID(),
			Fields: buildHashFields(&docs[i], vectors[i]),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d documents: %w", len(docs), err)
	}
	return nil
}

// Query returns up to topK documents nearest to vec, best first.
// Failures wrap domain.ErrIndexProviderError.
func (r *Repo) Query(ctx context.Context, vec []float32, topK int) ([]result.Match, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.name,
		VectorField:  fieldVector,
		Vector:       vec,
		K:            topK,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", domain.ErrIndexProviderError, r.name, err)
	}

	matches := make([]result.Match, 0, len(res.Entries))
	for _, e := range res.Entries {
		id := strings.TrimPrefix(e.Key, keyPrefix)
		matches = append(matches, result.New(parseHashFields(id, e.Fields), e.Score))
	}
	return matches, nil
}

// Count returns the number of indexed documents.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.name)
	if err != nil {
		return 0, fmt.Errorf("%w: count %s: %w", domain.ErrIndexProviderError, r.name, err)
	}
	return n, nil
}

func (r *Repo) definition(dim int) (*db.IndexDefinition, error) {
	b := db.NewIndex(r.name).
		Prefix(keyPrefix).
		Text(fieldTitle).
		Text(fieldText).
		Tag(fieldCategory).
		TagWithOpts(fieldTags, tagSeparator, false).
		Tag(fieldGroupType)
	if r.hnsw {
		b = b.VectorHNSW(fieldVector, dim, r.m, r.ef)
	} else {
		b = b.VectorFlat(fieldVector, dim, 0)
	}
	def, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("index definition: %w", err)
	}
	return def, nil
}
