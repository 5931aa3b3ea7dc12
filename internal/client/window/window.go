// Package window decides which embedded site views stay mounted.
//
// With preload on every selected site is mounted. With preload off the
// mounted set is a FIFO of at most MaxWarm ids: ids that left the selection
// are dropped, the focused id is appended when missing, and the oldest
// entries are evicted first. Re-focusing an already mounted id does not
// move it, so this is not an LRU.
package window

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/atlist/internal/client/models"
	"github.com/dmitrijs2005/atlist/internal/logging"
)

// MaxWarm bounds the mounted set when preload is off.
const MaxWarm = 2

// Next computes the mounted set from the previous one. It is total and
// never mutates its inputs.
func Next(prev []string, selection []string, focused string, mode models.PreloadMode) []string {
	if mode == models.PreloadOn {
		return dedupe(selection)
	}

	present := make(map[string]struct{}, len(selection))
	for _, id := range selection {
		present[id] = struct{}{}
	}

	out := make([]string, 0, MaxWarm+1)
	seen := make(map[string]struct{}, len(prev)+1)
	for _, id := range prev {
		if _, ok := present[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	if focused != "" {
		if _, ok := present[focused]; ok {
			if _, mounted := seen[focused]; !mounted {
				out = append(out, focused)
			}
		}
	}

	for len(out) > MaxWarm {
		if out[0] == focused {
			// the focused view is never evicted; drop the next oldest
			out = slices.Delete(out, 1, 2)
			continue
		}
		out = out[1:]
	}
	return out
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Manager holds the window state and recomputes it on every input change.
type Manager struct {
	logger logging.Logger

	mu        sync.Mutex
	selection []string
	focused   string
	mode      models.PreloadMode
	mounted   []string
}

func NewManager(mode models.PreloadMode, l logging.Logger) *Manager {
	if l == nil {
		l = logging.Nop()
	}
	return &Manager{mode: mode, logger: l.With("module", "window")}
}

func (m *Manager) recompute() []string {
	m.mounted = Next(m.mounted, m.selection, m.focused, m.mode)
	m.logger.Debug(context.Background(), "mounted set recomputed", "mounted", m.mounted, "mode", string(m.mode))
	return slices.Clone(m.mounted)
}

func (m *Manager) SetSelection(ids []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection = slices.Clone(ids)
	return m.recompute()
}

func (m *Manager) SetFocused(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focused = id
	return m.recompute()
}

func (m *Manager) SetMode(mode models.PreloadMode) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
	return m.recompute()
}

// Apply sets all three inputs at once.
func (m *Manager) Apply(sel models.Selection, mode models.PreloadMode) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection = sel.IDs()
	m.focused = sel.Focused
	m.mode = mode
	return m.recompute()
}

func (m *Manager) Mounted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.mounted)
}
