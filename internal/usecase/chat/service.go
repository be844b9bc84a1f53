// Package chat turns a user message into a scripted reply enriched with
// retrieved knowledge-base documents.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/peruna/internal/domain"
	domdoc "github.com/kailas-cloud/peruna/internal/domain/document"
	"github.com/kailas-cloud/peruna/internal/metrics"
	"github.com/kailas-cloud/peruna/internal/usecase/retrieval"
)

// Kind classifies a reply.
type Kind string

// Reply kinds.
const (
	KindGreeting Kind = "greeting"
	KindQuery    Kind = "query"
	KindDetail   Kind = "detail"
	KindCategory Kind = "category"
	KindFallback Kind = "fallback"
)

// Reply is one bot message.
type Reply struct {
	ID      string
	Kind    Kind
	Rule    string
	Text    string
	Options []string
	// Sources lists the ids of the documents quoted in Text.
	Sources []string
}

// Retriever is the retrieval engine as seen by the chat service.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) retrieval.Outcome
	RetrieveByCategory(ctx context.Context, category string, topK int) retrieval.Outcome
}

var (
	greeting = Template{
		Text: "Hi Mustang! I'm Peruna. I can help you find involvement and leadership " +
			"opportunities at SMU. What are you interested in?",
		Options: []string{
			"Student Organizations",
			"Leadership Programs",
			"Campus Events",
			"Volunteer Opportunities",
			"Greek Life",
		},
	}

	fallback = Template{
		Text:    "I'm having trouble accessing my knowledge base right now. Can you try asking something else?",
		Options: []string{"Student Organizations", "Leadership Programs", "Campus Events"},
	}

	categoryOptions = []string{"Academic orgs", "Cultural orgs", "Service orgs", "Greek life", "Sports clubs"}
	detailOptions   = []string{"Show similar organizations", "How to join", "Back to all organizations"}
)

// categoryKeys maps a word in a category option to the category searched.
var categoryKeys = []struct {
	word     string
	category string
}{
	{"Academic", "academic"},
	{"Cultural", "cultural"},
	{"Service", "service"},
	{"Greek", "greek"},
	{"Sports", "sports"},
}

// Service answers chat messages.
type Service struct {
	retriever Retriever
	composer  *Composer
	logger    *zap.Logger
}

// New creates a chat service. A nil composer uses the default rules.
func New(retriever Retriever, composer *Composer, logger *zap.Logger) *Service {
	if composer == nil {
		composer = NewComposer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{retriever: retriever, composer: composer, logger: logger}
}

// Greeting returns the opening message.
func (s *Service) Greeting() Reply {
	return s.reply(KindGreeting, "", Template{Text: greeting.Text, Options: copyOptions(greeting.Options)}, nil)
}

// Fallback returns the reply shown when the knowledge base is unavailable.
func (s *Service) Fallback() Reply {
	return s.reply(KindFallback, "", Template{Text: fallback.Text, Options: copyOptions(fallback.Options)}, nil)
}

// Respond answers a typed message or a selected quick-reply option.
// It fails only for an empty message or a finished context; retrieval
// failures produce the fallback reply.
func (s *Service) Respond(ctx context.Context, message string) (Reply, error) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return Reply{}, fmt.Errorf("%w: empty message", domain.ErrInvalidQuery)
	}
	if err := ctx.Err(); err != nil {
		return Reply{}, fmt.Errorf("respond: %w", err)
	}

	if strings.HasPrefix(msg, detailPrefix) {
		if r, ok := s.detail(ctx, msg); ok {
			return r, nil
		}
	} else if category := categoryOf(msg); category != "" {
		return s.category(ctx, category), nil
	}
	return s.query(ctx, msg), nil
}

func (s *Service) query(ctx context.Context, msg string) Reply {
	out := s.retriever.Retrieve(ctx, msg, 0)
	if out.Degraded {
		return s.Fallback()
	}
	docs := out.Documents()
	rule, _ := s.composer.Template(msg)
	return s.reply(KindQuery, rule, s.composer.Compose(msg, docs), docs)
}

// detail answers a "More about: <title>" option. ok is false when the title
// matched nothing and the caller should treat the option as a plain query.
func (s *Service) detail(ctx context.Context, msg string) (Reply, bool) {
	title := strings.TrimSpace(strings.TrimPrefix(msg, detailPrefix))
	title = strings.TrimSpace(strings.TrimSuffix(title, ellipsis))
	if title == "" {
		return Reply{}, false
	}

	out := s.retriever.Retrieve(ctx, `"`+title+`"`, 1)
	if out.Degraded {
		return s.Fallback(), true
	}
	docs := out.Documents()
	if len(docs) == 0 {
		return Reply{}, false
	}

	card := Template{Text: detailText(docs[0]), Options: copyOptions(detailOptions)}
	return s.reply(KindDetail, "", card, docs[:1]), true
}

func (s *Service) category(ctx context.Context, category string) Reply {
	out := s.retriever.RetrieveByCategory(ctx, category, 0)
	if out.Degraded {
		return s.Fallback()
	}
	docs := out.Documents()
	if len(docs) == 0 {
		return s.reply(KindCategory, category, Template{
			Text:    fmt.Sprintf("I couldn't find any %s organizations. Would you like to see other categories?", category),
			Options: copyOptions(categoryOptions),
		}, nil)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here are some %s organizations at SMU:", category)
	options := make([]string, 0, 5)
	for i := range docs {
		fmt.Fprintf(&b, "\n\n%d. %s\n%s", i+1, docs[i].Title(), truncate(docs[i].Text(), excerptLen))
		if i < 3 {
			options = append(options, detailOption(docs[i].Title()))
		}
	}
	options = append(options, "See other categories", "Back to main menu")
	return s.reply(KindCategory, category, Template{Text: b.String(), Options: options}, docs)
}

func (s *Service) reply(kind Kind, rule string, t Template, docs []domdoc.Document) Reply {
	metrics.ChatRepliesTotal.WithLabelValues(string(kind)).Inc()

	var sources []string
	for i := range docs {
		sources = append(sources, docs[i].ID())
	}
	r := Reply{
		ID:      uuid.NewString(),
		Kind:    kind,
		Rule:    rule,
		Text:    t.Text,
		Options: t.Options,
		Sources: sources,
	}
	s.logger.Debug("Chat reply",
		zap.String("reply_id", r.ID),
		zap.String("kind", string(kind)),
		zap.String("rule", rule),
		zap.Strings("sources", sources),
	)
	return r
}

// categoryOf extracts the category from a category quick-reply option,
// or returns "" when msg is not one.
func categoryOf(msg string) string {
	if !strings.Contains(msg, "orgs") && !strings.Contains(msg, "clubs") && !strings.Contains(msg, "life") {
		return ""
	}
	for _, k := range categoryKeys {
		if strings.Contains(msg, k.word) {
			return k.category
		}
	}
	return ""
}

func detailText(d domdoc.Document) string {
	meta := d.Metadata()
	lines := []string{d.Title(), "", d.Text(), ""}
	for _, f := range []struct{ label, value string }{
		{"Type", meta.GroupType},
		{"Duration", meta.Duration},
		{"Recruitment", meta.RecruitmentPeriod},
		{"Contact", meta.ContactName},
		{"Email", meta.ContactEmail},
	} {
		if f.value != "" {
			lines = append(lines, f.label+": "+f.value)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
