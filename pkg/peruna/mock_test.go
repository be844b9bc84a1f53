package peruna

import (
	"context"
	"strings"

	chatuc "github.com/kailas-cloud/peruna/internal/usecase/chat"
	"github.com/kailas-cloud/peruna/internal/usecase/retrieval"
)

// --- Embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// chessEmbedder puts chess texts on one axis and everything else on the other.
func chessEmbedder() *mockEmbedder {
	return &mockEmbedder{fn: func(_ context.Context, text string) (EmbeddingResult, error) {
		if strings.Contains(strings.ToLower(text), "chess") {
			return EmbeddingResult{Embedding: []float32{1, 0}, TotalTokens: 1}, nil
		}
		return EmbeddingResult{Embedding: []float32{0, 1}, TotalTokens: 1}, nil
	}}
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	out       retrieval.Outcome
	lastQuery string
	lastK     int
}

func (m *mockSearchUC) Retrieve(_ context.Context, query string, topK int) retrieval.Outcome {
	m.lastQuery, m.lastK = query, topK
	return m.out
}

func (m *mockSearchUC) RetrieveByCategory(_ context.Context, category string, topK int) retrieval.Outcome {
	m.lastQuery, m.lastK = category, topK
	return m.out
}

// --- chatUseCase mock ---

type mockChatUC struct {
	reply chatuc.Reply
	err   error
}

func (m *mockChatUC) Greeting() chatuc.Reply { return chatuc.Reply{Kind: chatuc.KindGreeting} }

func (m *mockChatUC) Fallback() chatuc.Reply { return chatuc.Reply{Kind: chatuc.KindFallback} }

func (m *mockChatUC) Respond(_ context.Context, _ string) (chatuc.Reply, error) {
	return m.reply, m.err
}
