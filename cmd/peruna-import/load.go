package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	domdoc "github.com/kailas-cloud/peruna/internal/domain/document"
	"github.com/kailas-cloud/peruna/internal/knowledge"
)

// loadDocuments reads the CSV export when csvPath is set, else the knowledge
// YAML at knowledgePath (the built-in seed when empty).
func loadDocuments(ctx context.Context, csvPath, knowledgePath string) ([]domdoc.Document, error) {
	if csvPath == "" {
		docs, err := knowledge.NewSource(knowledgePath).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load knowledge: %w", err)
		}
		return docs, nil
	}

	f, err := os.Open(filepath.Clean(csvPath))
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	docs, err := knowledge.ReadOrganizationsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", csvPath, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s contains no organizations", csvPath)
	}
	return docs, nil
}
