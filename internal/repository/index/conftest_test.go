package index

import (
	"context"
	"testing"

	"github.com/kailas-cloud/peruna/internal/db"
	domdoc "github.com/kailas-cloud/peruna/internal/domain/document"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	createFn      func(ctx context.Context, def *db.IndexDefinition) error
	dropFn        func(ctx context.Context, name string) error
	existsFn      func(ctx context.Context, name string) (bool, error)
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchCountFn func(ctx context.Context, index string) (int, error)
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createFn != nil {
		return m.createFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropFn != nil {
		return m.dropFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index)
	}
	return 0, nil
}

func testDoc(t *testing.T) domdoc.Document {
	t.Helper()
	d, err := domdoc.New("org-1", "Mustang Band", "The Mustang Band performs at every home game.",
		"organizations", []string{"music", "performance"}, domdoc.Metadata{
			Duration:     "Year-round",
			ContactEmail: "band@smu.edu",
			GroupType:    "Performing Arts",
		})
	if err != nil {
		t.Fatalf("domdoc.New: %v", err)
	}
	return d
}
