// Package catalog holds the session's copy of the global site catalog.
package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/atlist/internal/client/models"
	"github.com/dmitrijs2005/atlist/internal/logging"
)

type State int

const (
	Loading State = iota
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "loading"
	}
}

// Source lists the catalog from the record store.
type Source interface {
	ListCatalog(ctx context.Context) ([]models.CatalogEntry, error)
}

type Cache struct {
	src    Source
	logger logging.Logger

	mu        sync.RWMutex
	state     State
	entries   []models.CatalogEntry
	byID      map[string]models.CatalogEntry
	listeners map[int]func()
	nextID    int
}

func NewCache(src Source, l logging.Logger) *Cache {
	return &Cache{
		src:       src,
		logger:    l.With("module", "catalog"),
		byID:      map[string]models.CatalogEntry{},
		listeners: map[int]func(){},
	}
}

// Load fetches the catalog once per session. It is a no-op when the
// catalog is already loaded.
func (c *Cache) Load(ctx context.Context) error {
	if c.Ready() {
		return nil
	}
	return c.Reload(ctx)
}

// Reload fetches the catalog again, e.g. after an admin edit. On failure the
// previous entries are kept; a cache that never loaded moves to Failed.
// Listeners run after every successful fetch.
func (c *Cache) Reload(ctx context.Context) error {
	entries, err := c.src.ListCatalog(ctx)
	if err != nil {
		c.mu.Lock()
		if c.state != Loaded {
			c.state = Failed
		}
		c.mu.Unlock()
		c.logger.Warn(ctx, "catalog load failed", "err", err)
		return err
	}

	c.set(entries)
	c.logger.Debug(ctx, "catalog loaded", "entries", len(entries))

	c.mu.RLock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

func (c *Cache) set(entries []models.CatalogEntry) {
	sorted := append([]models.CatalogEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].DisplayName()) < strings.ToLower(sorted[j].DisplayName())
	})

	byID := make(map[string]models.CatalogEntry, len(sorted))
	for _, e := range sorted {
		byID[e.ID] = e
	}

	c.mu.Lock()
	c.entries = sorted
	c.byID = byID
	c.state = Loaded
	c.mu.Unlock()
}

// OnLoaded registers fn to run after each successful fetch. The returned
// func unregisters it.
func (c *Cache) OnLoaded(fn func()) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Cache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Ready reports whether the catalog has loaded. Failed counts as not ready.
func (c *Cache) Ready() bool {
	return c.State() == Loaded
}

// Lookup returns the entry for id, valid or not.
func (c *Cache) Lookup(id string) (models.CatalogEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[id]
	return e, ok
}

// Resolves reports whether id names a valid catalog entry.
func (c *Cache) Resolves(id string) bool {
	e, ok := c.Lookup(id)
	return ok && e.Valid()
}

// Entries returns all entries ordered by display name, invalid ones
// included.
func (c *Cache) Entries() []models.CatalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.CatalogEntry(nil), c.entries...)
}

// ResolveURL returns the URL to open for id: the catalog URL of a valid
// entry, else the built-in fallback.
func (c *Cache) ResolveURL(id string) (string, bool) {
	if e, ok := c.Lookup(id); ok && e.Valid() {
		return strings.TrimSpace(e.URL), true
	}
	return models.FallbackURL(id)
}
