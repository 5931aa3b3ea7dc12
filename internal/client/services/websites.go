package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/atlist/internal/client/models"
	"github.com/dmitrijs2005/atlist/internal/client/prefsync"
	"github.com/dmitrijs2005/atlist/internal/client/repositories/localstore"
	"github.com/dmitrijs2005/atlist/internal/common"
	"github.com/dmitrijs2005/atlist/internal/logging"
)

type SelectionRemote interface {
	LoadSelection(ctx context.Context, id models.Identity) (models.SelectionPatch, error)
	SaveSelection(ctx context.Context, id models.Identity, v models.Selection) error
	DeleteSelection(ctx context.Context, id models.Identity) error
}

// Catalog is the read side of the catalog cache used by selection rules.
type Catalog interface {
	Ready() bool
	Resolves(id string) bool
	ResolveURL(id string) (string, bool)
	OnLoaded(fn func()) (cancel func())
}

type WebsitesService struct {
	*prefsync.Synchronizer[models.Selection, models.SelectionPatch]
	catalog      Catalog
	logger       logging.Logger
	stopOnLoaded func()
}

func NewWebsitesService(deps prefsync.Deps, remote SelectionRemote, catalog Catalog) *WebsitesService {
	l := deps.Logger
	if l == nil {
		l = logging.Nop()
	}
	s := &WebsitesService{catalog: catalog, logger: l.With("module", "websites")}
	s.Synchronizer = prefsync.New(deps, prefsync.Binding[models.Selection, models.SelectionPatch]{
		Kind:       localstore.KindSelection,
		Defaults:   models.DefaultSelection,
		Load:       remote.LoadSelection,
		Save:       remote.SaveSelection,
		Clear:      remote.DeleteSelection,
		AfterMerge: s.prune,
		SameRemote: func(a, b models.Selection) bool { return slices.Equal(a.Sites, b.Sites) },
	})
	s.stopOnLoaded = catalog.OnLoaded(func() {
		s.PruneToCatalog(context.Background())
	})
	return s
}

// Close stops reacting to catalog loads.
func (s *WebsitesService) Close() {
	if s.stopOnLoaded != nil {
		s.stopOnLoaded()
	}
}

func anchorFocus(sel models.Selection) models.Selection {
	if sel.Focused != "" && sel.Contains(sel.Focused) {
		return sel
	}
	sel.Focused = ""
	if len(sel.Sites) > 0 {
		sel.Focused = sel.Sites[0].SiteID
	}
	return sel
}

// reachable reports whether id can be opened: a valid catalog entry or a
// built-in fallback URL.
func (s *WebsitesService) reachable(id string) bool {
	if s.catalog.Resolves(id) {
		return true
	}
	_, ok := models.FallbackURL(id)
	return ok
}

// prune drops unreachable and duplicate entries and re-anchors focus. Until
// the catalog has loaded only focus is re-anchored. When pruning removes the
// last entry, the default selection narrowed to the catalog is used instead.
func (s *WebsitesService) prune(sel models.Selection) models.Selection {
	if !s.catalog.Ready() {
		return anchorFocus(sel)
	}

	kept := make([]models.SelectionEntry, 0, len(sel.Sites))
	seen := make(map[string]struct{}, len(sel.Sites))
	for _, e := range sel.Sites {
		if _, dup := seen[e.SiteID]; dup || !s.reachable(e.SiteID) {
			continue
		}
		seen[e.SiteID] = struct{}{}
		kept = append(kept, e)
	}

	if len(kept) == 0 && len(sel.Sites) > 0 {
		for _, e := range models.DefaultSelection().Sites {
			if s.catalog.Resolves(e.SiteID) {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			kept = models.DefaultSelection().Sites
		}
	}

	sel.Sites = kept
	return anchorFocus(sel)
}

// PruneToCatalog removes entries the catalog cannot resolve. It runs when
// the catalog loads and on every hydrate, and is idempotent.
func (s *WebsitesService) PruneToCatalog(ctx context.Context) models.Selection {
	cur := s.Current()
	if !s.catalog.Ready() || samePruned(cur, s.prune(cur)) {
		return cur
	}
	out := s.Update(ctx, s.prune)
	s.logger.Debug(ctx, "selection pruned", "sites", out.IDs())
	return out
}

func samePruned(a, b models.Selection) bool {
	return a.Focused == b.Focused && slices.Equal(a.Sites, b.Sites)
}

// Activate appends id unless it is already selected or the loaded catalog
// cannot resolve it. It reports whether the selection changed.
func (s *WebsitesService) Activate(ctx context.Context, id string) (models.Selection, bool) {
	if id == "" {
		return s.Current(), false
	}
	var added bool
	out := s.Update(ctx, func(cur models.Selection) models.Selection {
		if cur.Contains(id) {
			return cur
		}
		if s.catalog.Ready() && !s.catalog.Resolves(id) {
			return cur
		}
		next := cur.Clone()
		next.Sites = append(next.Sites, models.SelectionEntry{SiteID: id})
		if next.Focused == "" {
			next.Focused = id
		}
		added = true
		return next
	})
	return out, added
}

// Deactivate removes id. Focus on id moves to the new first entry.
func (s *WebsitesService) Deactivate(ctx context.Context, id string) models.Selection {
	return s.Update(ctx, func(cur models.Selection) models.Selection {
		i := cur.Index(id)
		if i < 0 {
			return cur
		}
		next := cur.Clone()
		next.Sites = slices.Delete(next.Sites, i, i+1)
		if next.Focused == id {
			next.Focused = ""
		}
		return anchorFocus(next)
	})
}

// Reorder replaces the sequence with order. Colors of known ids are kept;
// duplicates collapse to their first position. The result is pruned
// against the catalog and focus stays put when its id survived.
func (s *WebsitesService) Reorder(ctx context.Context, order []string) models.Selection {
	return s.Update(ctx, func(cur models.Selection) models.Selection {
		colors := make(map[string]string, len(cur.Sites))
		for _, e := range cur.Sites {
			colors[e.SiteID] = e.Color
		}
		sites := make([]models.SelectionEntry, 0, len(order))
		seen := make(map[string]struct{}, len(order))
		for _, id := range order {
			if _, dup := seen[id]; dup || id == "" {
				continue
			}
			seen[id] = struct{}{}
			sites = append(sites, models.SelectionEntry{SiteID: id, Color: colors[id]})
		}
		next := models.Selection{Sites: sites, Focused: cur.Focused}
		return anchorFocus(s.prune(next))
	})
}

// SetColor sets or, with an empty color, clears the custom color of id.
func (s *WebsitesService) SetColor(ctx context.Context, id, color string) (models.Selection, error) {
	if color != "" && !models.ValidColor(color) {
		return s.Current(), fmt.Errorf("%w: %q is not a color", common.ErrorValidation, color)
	}
	var found bool
	out := s.Update(ctx, func(cur models.Selection) models.Selection {
		i := cur.Index(id)
		if i < 0 {
			return cur
		}
		found = true
		next := cur.Clone()
		next.Sites[i].Color = color
		return next
	})
	if !found {
		return out, fmt.Errorf("%w: %s is not active", common.ErrorNotFound, id)
	}
	return out, nil
}

// Focus moves focus to id, which must be active.
func (s *WebsitesService) Focus(ctx context.Context, id string) (models.Selection, error) {
	var found bool
	out := s.Update(ctx, func(cur models.Selection) models.Selection {
		if !cur.Contains(id) {
			return cur
		}
		found = true
		next := cur.Clone()
		next.Focused = id
		return next
	})
	if !found {
		return out, fmt.Errorf("%w: %s is not active", common.ErrorNotFound, id)
	}
	return out, nil
}

// Locked reports whether id sits behind the membership paywall. Advisory:
// Activate does not consult it.
func (s *WebsitesService) Locked(id string, hasMembership bool) bool {
	return !hasMembership && !models.IsFreeSite(id)
}

func (s *WebsitesService) ResolveURL(id string) (string, bool) {
	return s.catalog.ResolveURL(id)
}
