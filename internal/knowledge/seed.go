// Package knowledge supplies the static document set: the embedded seed,
// an external YAML file, or an organizations CSV export.
package knowledge

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	domdoc "github.com/kailas-cloud/peruna/internal/domain/document"
)

//go:embed seed.yaml
var seedYAML []byte

type fileDocument struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Text     string   `yaml:"text"`
	Category string   `yaml:"category"`
	Tags     []string `yaml:"tags"`

	domdoc.Metadata `yaml:",inline"`
}

type file struct {
	Documents []fileDocument `yaml:"documents"`
}

// Source loads the knowledge base from Path, or from the embedded seed
// when Path is empty.
type Source struct {
	Path string
}

// NewSource creates a source. An empty path selects the embedded seed.
func NewSource(path string) *Source {
	return &Source{Path: path}
}

// Load implements the document store's source contract.
func (s *Source) Load(_ context.Context) ([]domdoc.Document, error) {
	if s.Path == "" {
		return Seed()
	}
	return Load(s.Path)
}

// Seed parses the embedded knowledge base.
func Seed() ([]domdoc.Document, error) {
	docs, err := Parse(bytes.NewReader(seedYAML))
	if err != nil {
		return nil, fmt.Errorf("embedded seed: %w", err)
	}
	return docs, nil
}

// Load reads a knowledge-base YAML file.
func Load(path string) ([]domdoc.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open knowledge file: %w", err)
	}
	defer f.Close()

	docs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

// Parse decodes a knowledge-base YAML document and validates every entry.
func Parse(r io.Reader) ([]domdoc.Document, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse knowledge yaml: %w", err)
	}

	docs := make([]domdoc.Document, 0, len(f.Documents))
	for i, fd := range f.Documents {
		d, err := domdoc.New(fd.ID, fd.Title, fd.Text, fd.Category, fd.Tags, fd.Metadata)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}
