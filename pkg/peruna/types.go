package peruna

import (
	domdoc "github.com/kailas-cloud/peruna/internal/domain/document"
	"github.com/kailas-cloud/peruna/internal/domain/search/result"
	chatuc "github.com/kailas-cloud/peruna/internal/usecase/chat"
	"github.com/kailas-cloud/peruna/internal/usecase/retrieval"
)

// Document is a knowledge-base snippet. Only ID and Text are required.
type Document struct {
	ID                string
	Title             string
	Text              string
	Category          string
	Tags              []string
	Duration          string
	RecruitmentPeriod string
	ContactName       string
	ContactEmail      string
	GroupType         string
}

// Match is a document with its similarity score.
type Match struct {
	Document Document
	Score    float64
}

// SearchResult holds matches best first. Degraded reports that the provider
// or the index failed and Matches is empty because of it.
type SearchResult struct {
	Matches  []Match
	Degraded bool
}

// Reply is one assistant message with its quick-reply options.
type Reply struct {
	ID      string
	Kind    string // greeting, query, detail, category, fallback
	Text    string
	Options []string
	Sources []string // ids of the quoted documents
}

func (d Document) toDomain() (domdoc.Document, error) {
	return domdoc.New(d.ID, d.Title, d.Text, d.Category, d.Tags, domdoc.Metadata{
		Duration:          d.Duration,
		RecruitmentPeriod: d.RecruitmentPeriod,
		ContactName:       d.ContactName,
		ContactEmail:      d.ContactEmail,
		GroupType:         d.GroupType,
	})
}

func documentFromDomain(d *domdoc.Document) Document {
	meta := d.Metadata()
	return Document{
		ID:                d.ID(),
		Title:             d.Title(),
		Text:              d.Text(),
		Category:          d.Category(),
		Tags:              d.Tags(),
		Duration:          meta.Duration,
		RecruitmentPeriod: meta.RecruitmentPeriod,
		ContactName:       meta.ContactName,
		ContactEmail:      meta.ContactEmail,
		GroupType:         meta.GroupType,
	}
}

func resultFromOutcome(out retrieval.Outcome) SearchResult {
	matches := make([]Match, len(out.Matches))
	for i := range out.Matches {
		matches[i] = matchFromDomain(&out.Matches[i])
	}
	return SearchResult{Matches: matches, Degraded: out.Degraded}
}

func matchFromDomain(m *result.Match) Match {
	doc := m.Document()
	return Match{Document: documentFromDomain(&doc), Score: m.Score()}
}

func replyFromDomain(r chatuc.Reply) Reply {
	return Reply{
		ID:      r.ID,
		Kind:    string(r.Kind),
		Text:    r.Text,
		Options: r.Options,
		Sources: r.Sources,
	}
}
