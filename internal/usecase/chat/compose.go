package chat

import (
	"fmt"
	"strings"

	domdoc "github.com/kailas-cloud/peruna/internal/domain/document"
)

const (
	excerptLen     = 150
	optionTitleLen = 25
	ellipsis       = "..."
	detailPrefix   = "More about:"
)

// Template is a scripted reply text with its quick-reply options.
type Template struct {
	Text    string
	Options []string
}

// Rule selects a template for an utterance.
type Rule struct {
	Name     string
	Keywords []string
	Template Template
}

// Matches reports whether the lowercased utterance contains any keyword.
// A rule without keywords matches everything.
func (r Rule) Matches(lower string) bool {
	if len(r.Keywords) == 0 {
		return true
	}
	for _, k := range r.Keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// DefaultRules returns the reply rules in evaluation order. The last rule
// has no keywords and always matches.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "organizations",
			Keywords: []string{"organization", "club"},
			Template: Template{
				Text:    "SMU has over 200 student organizations! Here are some that might interest you:",
				Options: []string{"Show more organizations", "Filter by category", "How to join"},
			},
		},
		{
			Name:     "greek",
			Keywords: []string{"greek", "fraternity", "sorority"},
			Template: Template{
				Text: "SMU has a vibrant Greek life with several fraternities and sororities. " +
					"Here are some relevant organizations:",
				Options: []string{"Fraternities", "Sororities", "Rush information"},
			},
		},
		{
			Name: "default",
			Template: Template{
				Text:    "I found some SMU organizations that might interest you:",
				Options: []string{"Tell me more", "Show different options", "How to get involved"},
			},
		},
	}
}

// Composer merges retrieved documents into a scripted template.
type Composer struct {
	rules []Rule
}

// NewComposer creates a composer. With no rules it uses DefaultRules.
// A catch-all rule is appended when the last rule has keywords.
func NewComposer(rules ...Rule) *Composer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if len(rules[len(rules)-1].Keywords) > 0 {
		def := DefaultRules()
		rules = append(rules, def[len(def)-1])
	}
	return &Composer{rules: rules}
}

// Template returns the first rule matching the utterance.
func (c *Composer) Template(utterance string) (string, Template) {
	lower := strings.ToLower(utterance)
	for _, r := range c.rules {
		if r.Matches(lower) {
			return r.Name, r.Template
		}
	}
	last := c.rules[len(c.rules)-1]
	return last.Name, last.Template
}

// Compose builds a reply from the matching template and docs.
// With documents, each is appended as a numbered excerpt and the options become
// "More about" links for the first two followed by the template's first option.
func (c *Composer) Compose(utterance string, docs []domdoc.Document) Template {
	_, tmpl := c.Template(utterance)
	if len(docs) == 0 {
		return Template{Text: tmpl.Text, Options: copyOptions(tmpl.Options)}
	}

	var b strings.Builder
	b.WriteString(tmpl.Text)
	for i := range docs {
		title := docs[i].Title()
		if title == "" {
			title = "Organization"
		}
		fmt.Fprintf(&b, "\n\n%d. %s\n%s", i+1, title, truncate(docs[i].Text(), excerptLen))
	}

	options := make([]string, 0, 3)
	for i := range docs[:min(2, len(docs))] {
		options = append(options, detailOption(docs[i].Title()))
	}
	if len(tmpl.Options) > 0 {
		options = append(options, tmpl.Options[0])
	}
	return Template{Text: b.String(), Options: options}
}

func detailOption(title string) string {
	return detailPrefix + " " + truncate(title, optionTitleLen)
}

// truncate cuts s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + ellipsis
}

func copyOptions(opts []string) []string {
	out := make([]string, len(opts))
	copy(out, opts)
	return out
}
