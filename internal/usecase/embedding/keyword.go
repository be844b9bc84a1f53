package embedding

import (
	"context"
	"strings"

	"github.com/kailas-cloud/peruna/internal/domain"
)

// DefaultKeywords is the ordered campus-involvement dictionary. The order defines the
// vector layout, so appending is safe but reordering changes every stored vector.
var DefaultKeywords = []string{
	// leadership
	"leadership", "crain", "caswell", "emerging", "workshop", "training",
	"scholarship", "hunt", "hilltop", "mentoring", "development", "summit",

	// organizations
	"organization", "club", "program council", "student foundation", "corral",
	"smu connect", "samsa", "association", "debate", "mock trial", "senate",
	"government", "involvement", "student org", "multicultural", "diversity",

	// greek life
	"greek", "fraternity", "sorority", "panhellenic", "ifc", "nphc",
	"multicultural greek", "mgc", "recruitment", "intake", "divine nine",

	// service
	"volunteer", "service", "alternative breaks", "mustang heroes", "big event",
	"community engagement", "cel", "embrey", "human rights", "advocacy",

	// events
	"event", "family weekend", "boulevard", "tailgate", "celebration of lights",
	"homecoming", "parade", "pigskin", "founders day", "peruna palooza",

	// recreation
	"dedman", "recreation", "intramurals", "club sports", "outdoor adventures",
	"fitness", "climbing", "wellness", "sports", "workout", "yoga",

	// academic
	"academic", "alec", "tutoring", "writing center", "pre-health", "pre-law",
	"advising", "learning", "support", "lsat",

	// arts
	"meadows", "art", "museum", "performance", "concert", "theater", "exhibition",
	"film", "dance", "music",

	// campus locations
	"hughes-trigg", "dallas hall", "virginia-snider", "dedman center",
	"loyd all-sports", "meadows museum",

	// general
	"smu", "student", "campus", "opportunity", "community", "activity",
	"foundation", "office", "center", "mustang", "peruna",
}

// KeywordEmbedder is the local feature strategy: a bag-of-words presence vector over a
// fixed dictionary. Component i is 1 when the lowercased text contains keyword i as a
// substring. It performs no I/O and never fails.
type KeywordEmbedder struct {
	keywords []string
}

// NewKeywordEmbedder creates a keyword-presence embedder. With no keywords it uses DefaultKeywords.
// Keywords are lowercased; the given order is kept.
func NewKeywordEmbedder(keywords ...string) *KeywordEmbedder {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	kw := make([]string, len(keywords))
	for i, k := range keywords {
		kw[i] = strings.ToLower(k)
	}
	return &KeywordEmbedder{keywords: kw}
}

// Dimensions returns the dictionary size, which is the length of every vector produced.
func (e *KeywordEmbedder) Dimensions() int { return len(e.keywords) }

// Keywords returns a copy of the dictionary in vector order.
func (e *KeywordEmbedder) Keywords() []string {
	out := make([]string, len(e.keywords))
	copy(out, e.keywords)
	return out
}

// Embed implements domain.Embedder.
func (e *KeywordEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: e.Vector(text)}, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (e *KeywordEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.Vector(t)
	}
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}

// Vector computes the presence vector for text.
func (e *KeywordEmbedder) Vector(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.keywords))
	if lower == "" {
		return vec
	}
	for i, k := range e.keywords {
		if strings.Contains(lower, k) {
			vec[i] = 1
		}
	}
	return vec
}
