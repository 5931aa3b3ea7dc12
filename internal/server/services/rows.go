package services

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/atlist/internal/common"
	"github.com/dmitrijs2005/atlist/internal/rpc"
	"github.com/dmitrijs2005/atlist/internal/server/models"
)

// columns lists the wire columns of every collection.
var columns = map[string][]string{
	rpc.CollectionProfiles: {"id", "full_name", "username", "email", "avatar_text", "avatar_color", "role", "membership_active", "updated_at"},
	rpc.CollectionSettings: {"user_id", "theme", "notifications_enabled", "preload_enabled", "two_factor_enabled", "updated_at"},
	rpc.CollectionWebsites: {"user_id", "website_id", "position", "custom_color"},
	rpc.CollectionCatalog:  {"id", "name", "category", "url"},
	rpc.CollectionTickets:  {"id", "from_user_id", "category", "subject", "body", "email", "status", "created_at"},
}

func knownColumn(collection, column string) bool {
	return slices.Contains(columns[collection], column)
}

func checkColumns(collection string, keys map[string]any) error {
	for k := range keys {
		if !knownColumn(collection, k) {
			return fmt.Errorf("%w: unknown column %q in %s", common.ErrorValidation, k, collection)
		}
	}
	return nil
}

// rowReader collects the first decoding error so callers can read every
// column and check once.
type rowReader struct {
	row rpc.Row
	err error
}

func (rr *rowReader) fail(err error) {
	if rr.err == nil {
		rr.err = fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
}

func (rr *rowReader) str(key string) *string {
	v, ok, err := rr.row.Str(key)
	if err != nil {
		rr.fail(err)
		return nil
	}
	if !ok {
		return nil
	}
	return &v
}

func (rr *rowReader) boolean(key string) *bool {
	v, ok, err := rr.row.Bool(key)
	if err != nil {
		rr.fail(err)
		return nil
	}
	if !ok {
		return nil
	}
	return &v
}

func (rr *rowReader) integer(key string) *int64 {
	v, ok, err := rr.row.Int(key)
	if err != nil {
		rr.fail(err)
		return nil
	}
	if !ok {
		return nil
	}
	return &v
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func timestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func profileRow(p *models.Profile) rpc.Row {
	return rpc.Row{
		"id":                p.ID,
		"full_name":         deref(p.FullName),
		"username":          deref(p.Username),
		"email":             deref(p.Email),
		"avatar_text":       deref(p.AvatarText),
		"avatar_color":      deref(p.AvatarColor),
		"role":              p.Role,
		"membership_active": p.MembershipActive,
		"updated_at":        timestamp(p.UpdatedAt),
	}
}

func profileFromRow(r rpc.Row) (*models.Profile, *string, *bool, error) {
	rr := &rowReader{row: r}
	p := &models.Profile{
		FullName:    rr.str("full_name"),
		Username:    rr.str("username"),
		Email:       rr.str("email"),
		AvatarText:  rr.str("avatar_text"),
		AvatarColor: rr.str("avatar_color"),
	}
	if id := rr.str("id"); id != nil {
		p.ID = *id
	}
	role := rr.str("role")
	membership := rr.boolean("membership_active")
	if rr.err != nil {
		return nil, nil, nil, rr.err
	}
	if role != nil && *role != models.RoleUser && *role != models.RoleAdmin {
		return nil, nil, nil, fmt.Errorf("%w: unknown role %q", common.ErrorValidation, *role)
	}
	return p, role, membership, nil
}

func settingsRow(s *models.Settings) rpc.Row {
	return rpc.Row{
		"user_id":               s.UserID,
		"theme":                 deref(s.Theme),
		"notifications_enabled": deref(s.NotificationsEnabled),
		"preload_enabled":       deref(s.PreloadEnabled),
		"two_factor_enabled":    deref(s.TwoFactorEnabled),
		"updated_at":            timestamp(s.UpdatedAt),
	}
}

var themes = []string{"light", "dark", "system"}

func settingsFromRow(r rpc.Row) (*models.Settings, error) {
	rr := &rowReader{row: r}
	s := &models.Settings{
		Theme:                rr.str("theme"),
		NotificationsEnabled: rr.boolean("notifications_enabled"),
		PreloadEnabled:       rr.boolean("preload_enabled"),
		TwoFactorEnabled:     rr.boolean("two_factor_enabled"),
	}
	if id := rr.str("user_id"); id != nil {
		s.UserID = *id
	}
	if rr.err != nil {
		return nil, rr.err
	}
	if s.Theme != nil && !slices.Contains(themes, *s.Theme) {
		return nil, fmt.Errorf("%w: unknown theme %q", common.ErrorValidation, *s.Theme)
	}
	return s, nil
}

func websiteRow(w models.UserWebsite) rpc.Row {
	return rpc.Row{
		"user_id":      w.UserID,
		"website_id":   w.WebsiteID,
		"position":     w.Position,
		"custom_color": deref(w.CustomColor),
	}
}

// websitesFromRows orders rows by position, keeping input order for ties,
// and renumbers them densely from zero. Duplicate sites are rejected.
func websitesFromRows(rows []rpc.Row) ([]models.UserWebsite, error) {
	type positioned struct {
		w   models.UserWebsite
		pos int64
	}

	items := make([]positioned, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, r := range rows {
		rr := &rowReader{row: r}
		id := rr.str("website_id")
		color := rr.str("custom_color")
		pos := rr.integer("position")
		if rr.err != nil {
			return nil, rr.err
		}
		if id == nil || *id == "" {
			return nil, fmt.Errorf("%w: row %d has no website_id", common.ErrorValidation, i)
		}
		if _, dup := seen[*id]; dup {
			return nil, fmt.Errorf("%w: duplicate website_id %q", common.ErrorValidation, *id)
		}
		seen[*id] = struct{}{}

		p := int64(i)
		if pos != nil {
			p = *pos
		}
		if color != nil && *color == "" {
			color = nil
		}
		items = append(items, positioned{w: models.UserWebsite{WebsiteID: *id, CustomColor: color}, pos: p})
	}

	slices.SortStableFunc(items, func(a, b positioned) int { return cmp.Compare(a.pos, b.pos) })

	out := make([]models.UserWebsite, len(items))
	for i, it := range items {
		it.w.Position = int64(i)
		out[i] = it.w
	}
	return out, nil
}

func catalogRow(e models.CatalogEntry) rpc.Row {
	return rpc.Row{
		"id":       e.ID,
		"name":     e.Name,
		"category": deref(e.Category),
		"url":      e.URL,
	}
}

func catalogFromRow(r rpc.Row) (*models.CatalogEntry, error) {
	rr := &rowReader{row: r}
	id := rr.str("id")
	name := rr.str("name")
	url := rr.str("url")
	e := &models.CatalogEntry{Category: rr.str("category")}
	if rr.err != nil {
		return nil, rr.err
	}
	if id != nil {
		e.ID = *id
	}
	if name != nil {
		e.Name = *name
	}
	if url != nil {
		e.URL = *url
	}
	if e.Category != nil && *e.Category == "" {
		e.Category = nil
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func ticketRow(t models.Ticket) rpc.Row {
	return rpc.Row{
		"id":           t.ID,
		"from_user_id": t.FromUserID,
		"category":     t.Category,
		"subject":      t.Subject,
		"body":         t.Body,
		"email":        t.Email,
		"status":       t.Status,
		"created_at":   timestamp(t.CreatedAt),
	}
}

var ticketCategories = []string{"bug", "feature", "support"}

func ticketFromRow(r rpc.Row) (*models.Ticket, error) {
	for _, k := range []string{"id", "status", "created_at"} {
		if _, ok := r[k]; ok {
			return nil, fmt.Errorf("%w: %s is assigned by the store", common.ErrorValidation, k)
		}
	}

	rr := &rowReader{row: r}
	category := rr.str("category")
	subject := rr.str("subject")
	body := rr.str("body")
	email := rr.str("email")
	if rr.err != nil {
		return nil, rr.err
	}

	t := &models.Ticket{}
	if category == nil || !slices.Contains(ticketCategories, *category) {
		return nil, fmt.Errorf("%w: ticket category must be one of %v", common.ErrorValidation, ticketCategories)
	}
	t.Category = *category
	if body == nil || *body == "" {
		return nil, fmt.Errorf("%w: ticket body is required", common.ErrorValidation)
	}
	t.Body = *body
	if subject != nil {
		t.Subject = *subject
	}
	if email != nil {
		t.Email = *email
	}
	return t, nil
}

// matches reports whether every filter column equals the row value.
func matches(r rpc.Row, f rpc.Filter) bool {
	for k, want := range f {
		if !sameValue(r[k], want) {
			return false
		}
	}
	return true
}

func sameValue(a, b any) bool {
	fa, aNum := number(a)
	fb, bNum := number(b)
	if aNum && bNum {
		return fa == fb
	}
	return a == b
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// sortRows orders rows ascending by column; nulls sort first.
func sortRows(rows []rpc.Row, column string) {
	slices.SortStableFunc(rows, func(a, b rpc.Row) int {
		return compareValues(a[column], b[column])
	})
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return cmp.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	}
	return 0
}
