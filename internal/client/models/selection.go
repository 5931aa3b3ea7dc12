package models

import (
	"fmt"

	"github.com/dmitrijs2005/atlist/internal/common"
)

// SelectionEntry is one activated site. Position is the index in
// Selection.Sites.
type SelectionEntry struct {
	SiteID string `json:"siteId"`
	Color  string `json:"color,omitempty"`
}

// Selection is the user's ordered list of active sites plus the site that
// currently has focus. Focus is device-local and never sent to the store.
type Selection struct {
	Sites   []SelectionEntry `json:"sites"`
	Focused string           `json:"focused,omitempty"`
}

type SelectionPatch struct {
	Sites   *[]SelectionEntry `json:"sites,omitempty"`
	Focused *string           `json:"focused,omitempty"`
}

func (s Selection) Apply(p SelectionPatch) Selection {
	out := s.Clone()
	if p.Sites != nil {
		out.Sites = append([]SelectionEntry(nil), (*p.Sites)...)
	}
	if p.Focused != nil {
		out.Focused = *p.Focused
	}
	return out
}

// Validate rejects patches with empty or duplicate site ids.
func (p SelectionPatch) Validate() error {
	if p.Sites == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(*p.Sites))
	for i, e := range *p.Sites {
		if e.SiteID == "" {
			return fmt.Errorf("%w: entry %d has no site id", common.ErrMalformedRecord, i)
		}
		if _, dup := seen[e.SiteID]; dup {
			return fmt.Errorf("%w: duplicate site %q", common.ErrMalformedRecord, e.SiteID)
		}
		seen[e.SiteID] = struct{}{}
		if e.Color != "" && !ValidColor(e.Color) {
			return fmt.Errorf("%w: bad color %q for %s", common.ErrMalformedRecord, e.Color, e.SiteID)
		}
	}
	return nil
}

func (s Selection) Clone() Selection {
	out := Selection{Focused: s.Focused}
	if s.Sites != nil {
		out.Sites = append([]SelectionEntry(nil), s.Sites...)
	}
	return out
}

func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s.Sites))
	for _, e := range s.Sites {
		ids = append(ids, e.SiteID)
	}
	return ids
}

// Index returns the position of id, or -1.
func (s Selection) Index(id string) int {
	for i, e := range s.Sites {
		if e.SiteID == id {
			return i
		}
	}
	return -1
}

func (s Selection) Contains(id string) bool { return s.Index(id) >= 0 }

// SitesPatch builds a patch replacing the site list only.
func SitesPatch(sites []SelectionEntry) SelectionPatch {
	cp := append([]SelectionEntry{}, sites...)
	return SelectionPatch{Sites: &cp}
}

func FocusPatch(id string) SelectionPatch {
	return SelectionPatch{Focused: &id}
}
