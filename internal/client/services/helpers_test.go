package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/atlist/internal/client/models"
	"github.com/dmitrijs2005/atlist/internal/client/prefsync"
	"github.com/dmitrijs2005/atlist/internal/client/repositories/localstore"
	"github.com/dmitrijs2005/atlist/internal/logging"
)

type memRepo struct {
	localstore.Repository
	mu   sync.Mutex
	data map[string][]byte
}

func newMemRepo() *memRepo { return &memRepo{data: map[string][]byte{}} }

func (m *memRepo) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memRepo) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memRepo) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memRepo) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func deps(local localstore.Repository) prefsync.Deps {
	return prefsync.Deps{Local: local, Logger: logging.Nop()}
}

func ptr[T any](v T) *T { return &v }

type fakeCatalog struct {
	ready     bool
	valid     map[string]bool
	listeners []func()
}

func newFakeCatalog(ready bool, ids ...string) *fakeCatalog {
	c := &fakeCatalog{ready: ready, valid: map[string]bool{}}
	for _, id := range ids {
		c.valid[id] = true
	}
	return c
}

func (c *fakeCatalog) Ready() bool             { return c.ready }
func (c *fakeCatalog) Resolves(id string) bool { return c.ready && c.valid[id] }

func (c *fakeCatalog) ResolveURL(id string) (string, bool) {
	if c.Resolves(id) {
		return "https://" + id + ".test/", true
	}
	return models.FallbackURL(id)
}

func (c *fakeCatalog) OnLoaded(fn func()) func() {
	c.listeners = append(c.listeners, fn)
	return func() { c.listeners = nil }
}

func (c *fakeCatalog) load() {
	c.ready = true
	for _, fn := range c.listeners {
		fn()
	}
}
