package knowledge

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	domdoc "github.com/kailas-cloud/peruna/internal/domain/document"
)

// Column names of the organizations export.
const (
	colName        = "name"
	colDescription = "description"
	colDuration    = "duration"
	colRecruitment = "recruitment_period"
	colCategories  = "category_tags"
	colGroupType   = "group_type_lookup"
	colPaid        = "paid_unpaid"
	colContact     = "contact"
	colEmail       = "contact_email"
)

// ReadOrganizationsCSV converts an organizations export (header row required)
// into documents with ids org-1, org-2, ... in row order. Unknown columns are
// ignored; rows with neither name nor description are skipped.
func ReadOrganizationsCSV(r io.Reader) ([]domdoc.Document, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols[colName]; !ok {
		return nil, fmt.Errorf("csv header: missing %q column", colName)
	}

	var docs []domdoc.Document
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row, err)
		}

		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		o := organization{
			name:        get(colName),
			description: get(colDescription),
			duration:    get(colDuration),
			recruitment: get(colRecruitment),
			categories:  get(colCategories),
			groupType:   get(colGroupType),
			paid:        get(colPaid),
			contact:     get(colContact),
			email:       get(colEmail),
		}
		if o.name == "" && o.description == "" {
			continue
		}

		d, err := o.document(fmt.Sprintf("org-%d", row))
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", row, err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

type organization struct {
	name        string
	description string
	duration    string
	recruitment string
	categories  string
	groupType   string
	paid        string
	contact     string
	email       string
}

func (o organization) document(id string) (domdoc.Document, error) {
	var tags []string
	addTag := func(s string) {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			tags = append(tags, s)
		}
	}
	addTag(o.duration)
	addTag(o.recruitment)
	for _, c := range strings.Split(o.categories, ",") {
		addTag(c)
	}
	addTag(o.groupType)
	addTag(o.paid)

	return domdoc.New(id, o.name, o.text(), categoryFor(o.groupType), tags, domdoc.Metadata{
		Duration:          o.duration,
		RecruitmentPeriod: o.recruitment,
		ContactName:       o.contact,
		ContactEmail:      o.email,
		GroupType:         o.groupType,
	})
}

func (o organization) text() string {
	parts := make([]string, 0, 5)
	if o.name != "" {
		parts = append(parts, o.name+".")
	}
	if o.description != "" {
		parts = append(parts, o.description)
	}
	if o.duration != "" {
		parts = append(parts, "Duration: "+o.duration+".")
	}
	if o.recruitment != "" {
		parts = append(parts, "Recruitment Period: "+o.recruitment+".")
	}
	if o.paid != "" {
		parts = append(parts, "This is a "+o.paid+" organization.")
	}
	return strings.Join(parts, " ")
}

func categoryFor(groupType string) string {
	gt := strings.ToLower(groupType)
	switch {
	case strings.Contains(gt, "greek"):
		return "greek life"
	case strings.Contains(gt, "academic"):
		return "academic"
	default:
		return "organizations"
	}
}

// EmbeddingText is the text vectorized for the remote index: the document
// plus its type, category and tags.
func EmbeddingText(d domdoc.Document) string {
	lines := []string{
		"Organization: " + d.Title(),
		d.Text(),
		"Type: " + d.Metadata().GroupType,
		"Category: " + d.Category(),
		"Tags: " + strings.Join(d.Tags(), ", "),
	}
	return strings.Join(lines, "\n")
}
