package peruna

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/peruna/internal/domain"
	domdoc "github.com/kailas-cloud/peruna/internal/domain/document"
	"github.com/kailas-cloud/peruna/internal/domain/search/result"
	chatuc "github.com/kailas-cloud/peruna/internal/usecase/chat"
	"github.com/kailas-cloud/peruna/internal/usecase/retrieval"
)

func TestNew_DefaultKeywordSeed(t *testing.T) {
	c, err := New(context.Background())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	res := c.Search(context.Background(), "I want to develop leadership skills", 3)
	if res.Degraded {
		t.Fatal("unexpected degraded result")
	}
	if len(res.Matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(res.Matches))
	}
	for i, m := range res.Matches {
		if m.Document.Category != "leadership" {
			t.Errorf("match %d: category = %q, want leadership", i, m.Document.Category)
		}
		if m.Score <= 0.1 {
			t.Errorf("match %d: score %v not above threshold", i, m.Score)
		}
		if i > 0 && m.Score > res.Matches[i-1].Score {
			t.Errorf("scores not descending at %d", i)
		}
	}
}

func TestNew_IndexOptionErrors(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"without redis", []Option{WithIndex("kb"), WithOpenAI("sk-test", "")}},
		{"with documents", []Option{
			WithIndex("kb"), WithRedis("localhost:6379", ""), WithOpenAI("sk-test", ""),
			WithDocuments(Document{ID: "a", Text: "a"}),
		}},
		{"without remote embeddings", []Option{WithIndex("kb"), WithRedis("localhost:6379", "")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(context.Background(), tt.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNew_CustomEmbedderAndDocuments(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(context.Background(),
		WithEmbedder(chessEmbedder()),
		WithDocuments(
			Document{ID: "chess", Title: "Chess Club", Text: "Weekly games.", Category: "organizations"},
			Document{ID: "yoga", Title: "Yoga Club", Text: "Morning sessions."},
		),
		WithTopK(5, 5),
		WithPrometheus(reg),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res := c.Search(context.Background(), "chess", 0)
	if len(res.Matches) != 1 || res.Matches[0].Document.ID != "chess" {
		t.Fatalf("expected only the chess club, got %+v", res.Matches)
	}
	if res.Matches[0].Score != 1 {
		t.Errorf("expected score 1, got %v", res.Matches[0].Score)
	}
	if res.Matches[0].Document.Title != "Chess Club" {
		t.Errorf("unexpected title %q", res.Matches[0].Document.Title)
	}

	ops := testutil.ToFloat64(newOrExisting(t, reg).operations.WithLabelValues("search", "ok"))
	if ops != 1 {
		t.Errorf("expected 1 search counted, got %v", ops)
	}
}

func TestNew_InvalidDocument(t *testing.T) {
	_, err := New(context.Background(), WithDocuments(Document{ID: "bad id!", Text: "x"}))
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestNew_EmbedderFailure(t *testing.T) {
	down := errors.New("connection refused")
	emb := &mockEmbedder{fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
		return EmbeddingResult{}, down
	}}

	_, err := New(context.Background(), WithEmbedder(emb))
	if !errors.Is(err, ErrEmbeddingProviderError) || !errors.Is(err, down) {
		t.Fatalf("expected provider error wrapping the cause, got %v", err)
	}
}

func TestSearch_Degraded(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatal(err)
	}
	search := &mockSearchUC{out: retrieval.Outcome{Degraded: true}}
	c := &Client{searchSvc: search, obs: obs}

	res := c.SearchByCategory(context.Background(), "greek", 2)
	if !res.Degraded || len(res.Matches) != 0 {
		t.Fatalf("expected empty degraded result, got %+v", res)
	}
	if search.lastQuery != "greek" || search.lastK != 2 {
		t.Errorf("unexpected call %q/%d", search.lastQuery, search.lastK)
	}
	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("search_category", "degraded")); got != 1 {
		t.Errorf("expected 1 degraded operation, got %v", got)
	}
}

func TestSearch_ConvertsMatches(t *testing.T) {
	d, err := domdoc.New("greek-recruitment", "Greek Recruitment", "Fall recruitment.", "greek life",
		[]string{"greek"}, domdoc.Metadata{ContactEmail: "greek@smu.edu"})
	if err != nil {
		t.Fatal(err)
	}
	c := &Client{searchSvc: &mockSearchUC{out: retrieval.Outcome{Matches: []result.Match{result.New(d, 0.5)}}}}

	res := c.Search(context.Background(), "greek", 1)
	if len(res.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(res.Matches))
	}
	got := res.Matches[0]
	if got.Score != 0.5 || got.Document.ContactEmail != "greek@smu.edu" || got.Document.Tags[0] != "greek" {
		t.Errorf("unexpected match %+v", got)
	}
}

func TestChat(t *testing.T) {
	c, err := New(context.Background())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	reply, err := c.Chat(context.Background(), "I want to develop leadership skills")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply.Kind != "query" || len(reply.Sources) != 3 || reply.ID == "" {
		t.Errorf("unexpected reply %+v", reply)
	}

	if _, err := c.Chat(context.Background(), "  "); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}

	if g := c.Greeting(); g.Kind != "greeting" || len(g.Options) != 5 {
		t.Errorf("unexpected greeting %+v", g)
	}
	if f := c.Fallback(); f.Kind != "fallback" {
		t.Errorf("unexpected fallback %+v", f)
	}
}

func TestChat_FallbackCountedDegraded(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatal(err)
	}
	c := &Client{chatSvc: &mockChatUC{reply: chatuc.Reply{Kind: chatuc.KindFallback}}, obs: obs}

	reply, err := c.Chat(context.Background(), "anything")
	if err != nil {
		t.Fatalf("fallback must not be an error, got %v", err)
	}
	if reply.Kind != "fallback" {
		t.Errorf("unexpected kind %q", reply.Kind)
	}
	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("chat", "degraded")); got != 1 {
		t.Errorf("expected 1 degraded chat, got %v", got)
	}
}

func TestChat_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &Client{chatSvc: &mockChatUC{err: context.Canceled}}

	if _, err := c.Chat(ctx, "hello"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHealth_Default(t *testing.T) {
	c, err := New(context.Background())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h := c.Health(context.Background())
	if h.Status != "ok" {
		t.Errorf("expected ok, got %q", h.Status)
	}
	if h.Checks["knowledge"] != "ok" {
		t.Errorf("expected knowledge check ok, got %v", h.Checks)
	}
	if _, ok := h.Checks["database"]; ok {
		t.Error("no database check expected without WithRedis")
	}
}

func TestEmbedderAdapter(t *testing.T) {
	a := &embedderAdapter{inner: chessEmbedder()}
	res, err := a.Embed(context.Background(), "Chess")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 2 || res.Embedding[0] != 1 || res.TotalTokens != 1 {
		t.Errorf("unexpected result %+v", res)
	}

	fail := &embedderAdapter{inner: &mockEmbedder{fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
		return EmbeddingResult{}, errors.New("boom")
	}}}
	if _, err := fail.Embed(context.Background(), "x"); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second observer: %v", err)
	}
	if first.metrics.operations != second.metrics.operations {
		t.Error("expected the registered counter to be reused")
	}
}

func TestObserver_Nil(t *testing.T) {
	var o *observer
	o.observe("search", time.Now(), nil)
}

// newOrExisting returns the metrics registered on reg.
func newOrExisting(t *testing.T, reg prometheus.Registerer) *clientMetrics {
	t.Helper()
	m, err := newClientMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}
	return m
}
