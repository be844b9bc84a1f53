package index

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/peruna/internal/db"
	"github.com/kailas-cloud/peruna/internal/domain"
	domdoc "github.com/kailas-cloud/peruna/internal/domain/document"
)

func TestEnsureIndex_CreatesWhenMissing(t *testing.T) {
	var created *db.IndexDefinition
	ms := &mockStore{
		createFn: func(_ context.Context, def *db.IndexDefinition) error {
			created = def
			return nil
		},
	}
	r := New(ms, Config{})

	if err := r.EnsureIndex(context.Background(), 1536); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected CreateIndex call")
	}
	if created.Name != DefaultName {
		t.Errorf("name = %q, want %q", created.Name, DefaultName)
	}
	if len(created.Prefixes) != 1 || created.Prefixes[0] != "peruna:doc:" {
		t.Errorf("unexpected prefixes: %v", created.Prefixes)
	}
	last := created.Fields[len(created.Fields)-1]
	if last.Type != db.IndexFieldVector || last.VectorDim != 1536 || last.VectorAlgo != db.VectorFlat {
		t.Errorf("unexpected vector field: %+v", last)
	}
}

func TestEnsureIndex_HNSW(t *testing.T) {
	var vec db.IndexField
	ms := &mockStore{
		createFn: func(_ context.Context, def *db.IndexDefinition) error {
			vec = def.Fields[len(def.Fields)-1]
			return nil
		},
	}
	cfg := Config{HNSW: true, M: 16, EFConstruction: 200}
	if err := New(ms, cfg).EnsureIndex(context.Background(), 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vec.VectorAlgo != db.VectorHNSW {
		t.Errorf("algo = %q, want HNSW", vec.VectorAlgo)
	}
	if vec.VectorM != 16 || vec.VectorEFConstruct != 200 {
		t.Errorf("hnsw params = %d/%d, want 16/200", vec.VectorM, vec.VectorEFConstruct)
	}
}

func TestEnsureIndex_ExistingIsNoop(t *testing.T) {
	ms := &mockStore{
		existsFn: func(context.Context, string) (bool, error) { return true, nil },
		createFn: func(context.Context, *db.IndexDefinition) error {
			t.Fatal("CreateIndex must not be called")
			return nil
		},
	}
	if err := New(ms, Config{Name: "kb"}).EnsureIndex(context.Background(), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureIndex_RaceAlreadyExists(t *testing.T) {
	ms := &mockStore{
		createFn: func(context.Context, *db.IndexDefinition) error { return db.ErrIndexExists },
	}
	if err := New(ms, Config{}).EnsureIndex(context.Background(), 3); err != nil {
		t.Fatalf("ErrIndexExists should be swallowed: %v", err)
	}
}

func TestEnsureIndex_InvalidDim(t *testing.T) {
	if err := New(&mockStore{}, Config{}).EnsureIndex(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero dim")
	}
}

func TestRecreate_DropsMissingIndexQuietly(t *testing.T) {
	var dropped, created bool
	ms := &mockStore{
		dropFn: func(context.Context, string) error {
			dropped = true
			return db.ErrIndexNotFound
		},
		createFn: func(context.Context, *db.IndexDefinition) error {
			created = true
			return nil
		},
	}
	if err := New(ms, Config{}).Recreate(context.Background(), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dropped || !created {
		t.Errorf("dropped=%v created=%v", dropped, created)
	}
}

func TestUpsert(t *testing.T) {
	var got []db.HashSetItem
	ms := &mockStore{
		hsetMultiFn: func(_ context.Context, items []db.HashSetItem) error {
			got = items
			return nil
		},
	}
	doc := testDoc(t)
	err := New(ms, Config{}).Upsert(context.Background(), []domdoc.Document{doc}, [][]float32{{1, 0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Key != "peruna:doc:org-1" {
		t.Fatalf("unexpected items: %+v", got)
	}
	f := got[0].Fields
	if f["title"] != "Mustang Band" || f["tags"] != "music,performance" || f["contact_email"] != "band@smu.edu" {
		t.Errorf("unexpected fields: %v", f)
	}
	if _, ok := f["recruitment_period"]; ok {
		t.Error("empty optional fields must be omitted")
	}
	if len(f["vector"]) != 8 {
		t.Errorf("vector blob length = %d, want 8", len(f["vector"]))
	}
}

func TestUpsert_Mismatch(t *testing.T) {
	err := New(&mockStore{}, Config{}).Upsert(context.Background(), []domdoc.Document{testDoc(t)}, nil)
	if err == nil {
		t.Fatal("expected error for docs/vectors length mismatch")
	}
}

func TestUpsert_EmptyVector(t *testing.T) {
	err := New(&mockStore{}, Config{}).Upsert(context.Background(),
		[]domdoc.Document{testDoc(t)}, [][]float32{{}})
	if !errors.Is(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestQuery(t *testing.T) {
	ms := &mockStore{
		searchKNNFn: func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
			if q.IndexName != DefaultName || q.K != 3 || q.VectorField != "vector" {
				t.Errorf("unexpected query: %+v", q)
			}
			return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
				{Key: "peruna:doc:org-7", Score: 0.92, Fields: map[string]string{
					"title": "Mustang Band", "text": "Band.", "tags": "music, performance",
					"contact_name": "Jane Doe",
				}},
				{Key: "peruna:doc:greek-life", Score: 0.4, Fields: map[string]string{"text": "Greek."}},
			}}, nil
		},
	}

	matches, err := New(ms, Config{}).Query(context.Background(), []float32{1}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	first := matches[0].Document()
	if first.ID() != "org-7" || matches[0].Score() != 0.92 {
		t.Errorf("unexpected first match: %s %f", first.ID(), matches[0].Score())
	}
	if tags := first.Tags(); len(tags) != 2 || tags[1] != "performance" {
		t.Errorf("unexpected tags: %v", tags)
	}
	if first.Metadata().ContactName != "Jane Doe" {
		t.Errorf("unexpected metadata: %+v", first.Metadata())
	}
	second := matches[1].Document()
	if second.Title() != "" || !second.Metadata().IsZero() {
		t.Error("missing optional fields should decode to empty values")
	}
}

func TestQuery_Error(t *testing.T) {
	ms := &mockStore{
		searchKNNFn: func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
			return nil, db.ErrIndexNotFound
		},
	}
	_, err := New(ms, Config{}).Query(context.Background(), []float32{1}, 3)
	if !errors.Is(err, domain.ErrIndexProviderError) {
		t.Errorf("expected ErrIndexProviderError, got %v", err)
	}
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("cause should be preserved, got %v", err)
	}
}

func TestCount(t *testing.T) {
	ms := &mockStore{
		searchCountFn: func(_ context.Context, index string) (int, error) {
			if index != "kb" {
				t.Errorf("unexpected index %q", index)
			}
			return 22, nil
		},
	}
	n, err := New(ms, Config{Name: "kb"}).Count(context.Background())
	if err != nil || n != 22 {
		t.Fatalf("Count = %d, %v", n, err)
	}
}
