package result

import domdoc "github.com/kailas-cloud/peruna/internal/domain/document"

// Match is a single scored search hit.
type Match struct {
	doc   domdoc.Document
	score float64
}

// New creates a search match.
func New(doc domdoc.Document, score float64) Match {
	return Match{doc: doc, score: score}
}

// Document returns the matched document.
func (m *Match) Document() domdoc.Document { return m.doc }

// Score returns the similarity score, in [-1,1] ([0,1] for non-negative vectors).
func (m *Match) Score() float64 { return m.score }

// Documents strips scores, keeping order.
func Documents(matches []Match) []domdoc.Document {
	out := make([]domdoc.Document, len(matches))
	for i := range matches {
		out[i] = matches[i].doc
	}
	return out
}
