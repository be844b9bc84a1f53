package chat

import (
	"context"
	"testing"

	domdoc "github.com/kailas-cloud/peruna/internal/domain/document"
	"github.com/kailas-cloud/peruna/internal/domain/search/result"
	"github.com/kailas-cloud/peruna/internal/usecase/retrieval"
)

type retrieveCall struct {
	query    string
	category string
	topK     int
}

// mockRetriever returns outcomes keyed by query (or category) and records calls.
type mockRetriever struct {
	outcomes map[string]retrieval.Outcome
	fallback retrieval.Outcome
	calls    []retrieveCall
}

func (m *mockRetriever) Retrieve(_ context.Context, query string, topK int) retrieval.Outcome {
	m.calls = append(m.calls, retrieveCall{query: query, topK: topK})
	if out, ok := m.outcomes[query]; ok {
		return out
	}
	return m.fallback
}

func (m *mockRetriever) RetrieveByCategory(_ context.Context, category string, topK int) retrieval.Outcome {
	m.calls = append(m.calls, retrieveCall{category: category, topK: topK})
	if out, ok := m.outcomes["category:"+category]; ok {
		return out
	}
	return m.fallback
}

func org(t *testing.T, id, title, text string, meta domdoc.Metadata) domdoc.Document {
	t.Helper()
	d, err := domdoc.New(id, title, text, "organizations", nil, meta)
	if err != nil {
		t.Fatalf("document %s: %v", id, err)
	}
	return d
}

func outcome(docs ...domdoc.Document) retrieval.Outcome {
	matches := make([]result.Match, len(docs))
	for i, d := range docs {
		matches[i] = result.New(d, 0.9-float64(i)*0.1)
	}
	return retrieval.Outcome{Matches: matches}
}
