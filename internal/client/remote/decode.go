package remote

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/atlist/internal/client/models"
	"github.com/dmitrijs2005/atlist/internal/common"
	"github.com/dmitrijs2005/atlist/internal/rpc"
)

// fieldErr collects the first decode error of a row.
type fieldErr struct{ err error }

func (f *fieldErr) str(r rpc.Row, key string) *string {
	v, ok, err := r.Str(key)
	if err != nil && f.err == nil {
		f.err = err
	}
	if !ok {
		return nil
	}
	return &v
}

func (f *fieldErr) boolean(r rpc.Row, key string) *bool {
	v, ok, err := r.Bool(key)
	if err != nil && f.err == nil {
		f.err = err
	}
	if !ok {
		return nil
	}
	return &v
}

func (f *fieldErr) integer(r rpc.Row, key string) *int64 {
	v, ok, err := r.Int(key)
	if err != nil && f.err == nil {
		f.err = err
	}
	if !ok {
		return nil
	}
	return &v
}

func decodeSettings(r rpc.Row) (models.SettingsPatch, error) {
	var fe fieldErr
	var p models.SettingsPatch

	if s := fe.str(r, "theme"); s != nil {
		t := models.Theme(*s)
		p.Theme = &t
	}
	p.NotificationsEnabled = fe.boolean(r, "notifications_enabled")
	if b := fe.boolean(r, "preload_enabled"); b != nil {
		m := models.PreloadModeFromBool(*b)
		p.PreloadMode = &m
	}
	p.TwoFactorEnabled = fe.boolean(r, "two_factor_enabled")

	if fe.err != nil {
		return models.SettingsPatch{}, fe.err
	}
	if err := p.Validate(); err != nil {
		return models.SettingsPatch{}, err
	}
	return p, nil
}

func encodeSettings(id models.Identity, s models.Settings) rpc.Row {
	return rpc.Row{
		"user_id":               string(id),
		"theme":                 string(s.Theme),
		"notifications_enabled": s.NotificationsEnabled,
		"preload_enabled":       s.PreloadMode == models.PreloadOn,
		"two_factor_enabled":    s.TwoFactorEnabled,
	}
}

func decodeProfile(r rpc.Row) (models.ProfilePatch, error) {
	var fe fieldErr
	var p models.ProfilePatch

	p.DisplayName = fe.str(r, "full_name")
	p.Username = fe.str(r, "username")
	p.Email = fe.str(r, "email")
	p.AvatarLabel = fe.str(r, "avatar_text")
	p.AvatarColor = fe.str(r, "avatar_color")
	if s := fe.str(r, "role"); s != nil {
		role := models.Role(*s)
		p.Role = &role
	}
	p.MembershipActive = fe.boolean(r, "membership_active")

	if fe.err != nil {
		return models.ProfilePatch{}, fe.err
	}
	if err := p.Validate(); err != nil {
		return models.ProfilePatch{}, err
	}
	return p, nil
}

// encodeProfile never includes role or membership_active.
func encodeProfile(id models.Identity, p models.Profile) rpc.Row {
	return rpc.Row{
		"id":           string(id),
		"full_name":    p.DisplayName,
		"username":     p.Username,
		"email":        p.Email,
		"avatar_text":  p.AvatarLabel,
		"avatar_color": p.AvatarColor,
	}
}

func decodeSelection(rows []rpc.Row) (models.SelectionPatch, error) {
	type positioned struct {
		entry models.SelectionEntry
		pos   int64
	}
	items := make([]positioned, 0, len(rows))

	for i, r := range rows {
		var fe fieldErr
		id := fe.str(r, "website_id")
		color := fe.str(r, "custom_color")
		pos := fe.integer(r, "position")
		if fe.err != nil {
			return models.SelectionPatch{}, fe.err
		}
		if id == nil || *id == "" {
			return models.SelectionPatch{}, fmt.Errorf("%w: row %d has no website_id", common.ErrMalformedRecord, i)
		}
		item := positioned{entry: models.SelectionEntry{SiteID: *id}, pos: int64(i)}
		if color != nil {
			item.entry.Color = *color
		}
		if pos != nil {
			item.pos = *pos
		}
		items = append(items, item)
	}

	slices.SortStableFunc(items, func(a, b positioned) int { return cmp.Compare(a.pos, b.pos) })

	sites := make([]models.SelectionEntry, 0, len(items))
	for _, it := range items {
		sites = append(sites, it.entry)
	}
	p := models.SitesPatch(sites)
	if err := p.Validate(); err != nil {
		return models.SelectionPatch{}, err
	}
	return p, nil
}

func encodeSelection(id models.Identity, s models.Selection) []rpc.Row {
	rows := make([]rpc.Row, 0, len(s.Sites))
	for i, e := range s.Sites {
		var color any
		if e.Color != "" {
			color = e.Color
		}
		rows = append(rows, rpc.Row{
			"user_id":      string(id),
			"website_id":   e.SiteID,
			"position":     i,
			"custom_color": color,
		})
	}
	return rows
}

func decodeCatalogEntry(r rpc.Row) (models.CatalogEntry, error) {
	var fe fieldErr
	id := fe.str(r, "id")
	name := fe.str(r, "name")
	category := fe.str(r, "category")
	url := fe.str(r, "url")
	if fe.err != nil {
		return models.CatalogEntry{}, fe.err
	}
	if id == nil || *id == "" {
		return models.CatalogEntry{}, fmt.Errorf("%w: catalog row without id", common.ErrMalformedRecord)
	}

	e := models.CatalogEntry{ID: *id}
	if name != nil {
		e.Name = *name
	}
	if category != nil {
		e.Category = *category
	}
	if url != nil {
		e.URL = *url
	}
	return e, nil
}

func encodeCatalogEntry(e models.CatalogEntry) rpc.Row {
	var category any
	if e.Category != "" {
		category = e.Category
	}
	return rpc.Row{
		"id":       e.ID,
		"name":     e.Name,
		"category": category,
		"url":      e.URL,
	}
}

func decodeTicket(r rpc.Row) (models.Ticket, error) {
	var fe fieldErr
	id := fe.str(r, "id")
	category := fe.str(r, "category")
	subject := fe.str(r, "subject")
	body := fe.str(r, "body")
	email := fe.str(r, "email")
	status := fe.str(r, "status")
	created := fe.str(r, "created_at")
	if fe.err != nil {
		return models.Ticket{}, fe.err
	}
	if id == nil || category == nil {
		return models.Ticket{}, fmt.Errorf("%w: ticket row without id or category", common.ErrMalformedRecord)
	}

	t := models.Ticket{ID: *id, Category: models.TicketCategory(*category)}
	if subject != nil {
		t.Subject = *subject
	}
	if body != nil {
		t.Body = *body
	}
	if email != nil {
		t.Email = *email
	}
	if status != nil {
		t.Status = *status
	}
	if created != nil {
		ts, err := time.Parse(time.RFC3339, *created)
		if err != nil {
			return models.Ticket{}, fmt.Errorf("%w: created_at %q", common.ErrMalformedRecord, *created)
		}
		t.CreatedAt = ts
	}
	return t, nil
}
