package index

import (
	"encoding/binary"
	"math"
	"strings"

	domdoc "github.com/kailas-cloud/peruna/internal/domain/document"
)

// Hash field names of an indexed document.
const (
	fieldTitle       = "title"
	fieldText        = "text"
	fieldCategory    = "category"
	fieldTags        = "tags"
	fieldDuration    = "duration"
	fieldRecruitment = "recruitment_period"
	fieldContact     = "contact_name"
	fieldEmail       = "contact_email"
	fieldGroupType   = "group_type"
	fieldVector      = "vector"
)

const tagSeparator = ","

// returnFields are fetched with every KNN hit; the vector stays server side.
var returnFields = []string{
	fieldTitle, fieldText, fieldCategory, fieldTags,
	fieldDuration, fieldRecruitment, fieldContact, fieldEmail, fieldGroupType,
}

// buildHashFields flattens a document and its vector for HSET.
// Empty optional fields are omitted.
func buildHashFields(doc *domdoc.Document, vec []float32) map[string]string {
	meta := doc.Metadata()
	m := map[string]string{
		fieldText:   doc.Text(),
		fieldVector: vectorToBytes(vec),
	}
	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	put(fieldTitle, doc.Title())
	put(fieldCategory, doc.Category())
	put(fieldTags, strings.Join(doc.Tags(), tagSeparator))
	put(fieldDuration, meta.Duration)
	put(fieldRecruitment, meta.RecruitmentPeriod)
	put(fieldContact, meta.ContactName)
	put(fieldEmail, meta.ContactEmail)
	put(fieldGroupType, meta.GroupType)
	return m
}

// parseHashFields rebuilds a document from returned fields. Missing optional
// fields decode to empty values.
func parseHashFields(id string, m map[string]string) domdoc.Document {
	var tags []string
	if raw := m[fieldTags]; raw != "" {
		for _, t := range strings.Split(raw, tagSeparator) {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	return domdoc.Reconstruct(id, m[fieldTitle], m[fieldText], m[fieldCategory], tags, domdoc.Metadata{
		Duration:          m[fieldDuration],
		RecruitmentPeriod: m[fieldRecruitment],
		ContactName:       m[fieldContact],
		ContactEmail:      m[fieldEmail],
		GroupType:         m[fieldGroupType],
	})
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
