package document

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/peruna/internal/domain"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxTextSize is the maximum document body size in bytes.
const MaxTextSize = 16384

// Metadata holds the optional fields an import file or a remote index may attach.
// Any of them may be empty.
type Metadata struct {
	Duration          string `yaml:"duration,omitempty"`
	RecruitmentPeriod string `yaml:"recruitment_period,omitempty"`
	ContactName       string `yaml:"contact_name,omitempty"`
	ContactEmail      string `yaml:"contact_email,omitempty"`
	GroupType         string `yaml:"group_type,omitempty"`
}

// IsZero reports whether no optional field is set.
func (m Metadata) IsZero() bool {
	return m == Metadata{}
}

// Document is a knowledge snippet (immutable value object).
type Document struct {
	id       string
	title    string
	text     string
	category string
	tags     []string
	meta     Metadata
}

// New validates and creates a Document.
// ID: ^[a-zA-Z0-9_-]+$, 1-128 chars. Text: non-empty, max 16KB.
// Tags are treated as a set: blanks are dropped, duplicates collapse, first occurrence wins the order.
func New(id, title, text, category string, tags []string, meta Metadata) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("%w: id is required", domain.ErrInvalidDocument)
	}
	if len(id) > 128 {
		return Document{}, fmt.Errorf("%w: id too long (max 128)", domain.ErrInvalidDocument)
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("%w: id %q must be alphanumeric with underscores and hyphens",
			domain.ErrInvalidDocument, id)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Document{}, fmt.Errorf("%w: document %s has empty text", domain.ErrInvalidDocument, id)
	}
	if len(text) > MaxTextSize {
		return Document{}, fmt.Errorf("%w: document %s text too large (max %d bytes)",
			domain.ErrInvalidDocument, id, MaxTextSize)
	}

	return Document{
		id:       id,
		title:    strings.TrimSpace(title),
		text:     text,
		category: strings.TrimSpace(category),
		tags:     tagSet(tags),
		meta:     meta,
	}, nil
}

// Reconstruct creates a Document without validation (remote index hydration).
func Reconstruct(id, title, text, category string, tags []string, meta Metadata) Document {
	return Document{id: id, title: title, text: text, category: category, tags: tags, meta: meta}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the optional display title.
func (d *Document) Title() string { return d.title }

// Text returns the document body.
func (d *Document) Text() string { return d.text }

// Category returns the category tag (leadership, organizations, greek life, ...).
func (d *Document) Category() string { return d.category }

// Tags returns a copy of the auxiliary match tags.
func (d *Document) Tags() []string {
	if d.tags == nil {
		return nil
	}
	out := make([]string, len(d.tags))
	copy(out, d.tags)
	return out
}

// HasTag reports whether tag is in the document's tag set (case-insensitive).
func (d *Document) HasTag(tag string) bool {
	for _, t := range d.tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Metadata returns the optional metadata fields.
func (d *Document) Metadata() Metadata { return d.meta }

func tagSet(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
