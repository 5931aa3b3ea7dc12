// Package seed imports the bundled website catalog into an empty catalog
// table.
package seed

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/dmitrijs2005/atlist/internal/logging"
	"github.com/dmitrijs2005/atlist/internal/server/models"
	"github.com/dmitrijs2005/atlist/internal/server/repositories/catalog"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Sites []struct {
		ID       string `yaml:"id"`
		Name     string `yaml:"name"`
		Category string `yaml:"category"`
		URL      string `yaml:"url"`
	} `yaml:"sites"`
}

// Parse decodes a catalog file and validates every entry.
func Parse(data []byte) ([]models.CatalogEntry, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	out := make([]models.CatalogEntry, 0, len(f.Sites))
	seen := make(map[string]struct{}, len(f.Sites))
	for _, s := range f.Sites {
		e := models.CatalogEntry{ID: s.ID, Name: s.Name, URL: s.URL}
		if s.Category != "" {
			category := s.Category
			e.Category = &category
		}
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", e.ID)
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out, nil
}

// Default returns the bundled catalog.
func Default() ([]models.CatalogEntry, error) {
	return Parse(defaultCatalog)
}

// Catalog writes entries when the table is empty and reports how many
// were written. A non-empty catalog is left alone.
func Catalog(ctx context.Context, repo catalog.Repository, entries []models.CatalogEntry, l logging.Logger) (int, error) {
	n, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count catalog: %w", err)
	}
	if n > 0 {
		l.Info(ctx, "catalog already populated, skipping seed", "entries", n)
		return 0, nil
	}

	for i := range entries {
		if err := repo.Upsert(ctx, &entries[i]); err != nil {
			return i, fmt.Errorf("failed to seed %q: %w", entries[i].ID, err)
		}
	}
	l.Info(ctx, "catalog seeded", "entries", len(entries))
	return len(entries), nil
}
