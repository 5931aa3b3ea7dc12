package models

import "strings"

// CatalogEntry is one embeddable site of the global catalog.
type CatalogEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	URL      string `json:"url"`
}

// Valid reports whether the entry can be opened. Invalid entries stay in
// admin listings but never resolve to a URL.
func (e CatalogEntry) Valid() bool {
	return e.ID != "" && strings.TrimSpace(e.URL) != ""
}

// DisplayName falls back to the id for entries without a name.
func (e CatalogEntry) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}
