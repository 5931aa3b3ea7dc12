package services

import (
	"context"
	"slices"
	"time"

	"github.com/dmitrijs2005/atlist/internal/common"
	"github.com/dmitrijs2005/atlist/internal/dbx"
	"github.com/dmitrijs2005/atlist/internal/server/models"
	"github.com/dmitrijs2005/atlist/internal/server/repositories/catalog"
	"github.com/dmitrijs2005/atlist/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/atlist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/atlist/internal/server/repositories/settings"
	"github.com/dmitrijs2005/atlist/internal/server/repositories/tickets"
	"github.com/dmitrijs2005/atlist/internal/server/repositories/websites"
)

// fakeStore backs every fake repository. Transactions are not isolated.
type fakeStore struct {
	profiles map[string]*models.Profile
	settings map[string]*models.Settings
	websites map[string][]models.UserWebsite
	catalog  map[string]models.CatalogEntry
	tickets  []models.Ticket
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: map[string]*models.Profile{},
		settings: map[string]*models.Settings{},
		websites: map[string][]models.UserWebsite{},
		catalog:  map[string]models.CatalogEntry{},
	}
}

type fakeManager struct {
	repomanager.RepositoryManager
	st *fakeStore
}

func (m fakeManager) Profiles(dbx.DBTX) profiles.Repository { return fakeProfiles{st: m.st} }
func (m fakeManager) Settings(dbx.DBTX) settings.Repository { return fakeSettings{st: m.st} }
func (m fakeManager) Websites(dbx.DBTX) websites.Repository { return fakeWebsites{st: m.st} }
func (m fakeManager) Catalog(dbx.DBTX) catalog.Repository   { return fakeCatalog{st: m.st} }
func (m fakeManager) Tickets(dbx.DBTX) tickets.Repository   { return fakeTickets{st: m.st} }

type fakeProfiles struct {
	profiles.Repository
	st *fakeStore
}

func (f fakeProfiles) Get(_ context.Context, id string) (*models.Profile, error) {
	p, ok := f.st.profiles[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f fakeProfiles) Upsert(_ context.Context, p *models.Profile) error {
	cur, ok := f.st.profiles[p.ID]
	if !ok {
		cur = &models.Profile{ID: p.ID, Role: models.RoleUser}
		f.st.profiles[p.ID] = cur
	}
	for _, c := range []struct{ dst, src **string }{
		{&cur.FullName, &p.FullName}, {&cur.Username, &p.Username}, {&cur.Email, &p.Email},
		{&cur.AvatarText, &p.AvatarText}, {&cur.AvatarColor, &p.AvatarColor},
	} {
		if *c.src != nil {
			*c.dst = *c.src
		}
	}
	return nil
}

func (f fakeProfiles) UpdatePrivileges(_ context.Context, id string, role string, membership bool) (int64, error) {
	p, ok := f.st.profiles[id]
	if !ok {
		return 0, nil
	}
	p.Role, p.MembershipActive = role, membership
	return 1, nil
}

func (f fakeProfiles) Delete(_ context.Context, id string) (int64, error) {
	if _, ok := f.st.profiles[id]; !ok {
		return 0, nil
	}
	delete(f.st.profiles, id)
	return 1, nil
}

type fakeSettings struct {
	settings.Repository
	st *fakeStore
}

func (f fakeSettings) Get(_ context.Context, id string) (*models.Settings, error) {
	s, ok := f.st.settings[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return s, nil
}

func (f fakeSettings) Upsert(_ context.Context, s *models.Settings) error {
	f.st.settings[s.UserID] = s
	return nil
}

func (f fakeSettings) Delete(_ context.Context, id string) (int64, error) {
	if _, ok := f.st.settings[id]; !ok {
		return 0, nil
	}
	delete(f.st.settings, id)
	return 1, nil
}

type fakeWebsites struct {
	websites.Repository
	st *fakeStore
}

func (f fakeWebsites) List(_ context.Context, id string) ([]models.UserWebsite, error) {
	return slices.Clone(f.st.websites[id]), nil
}

func (f fakeWebsites) Insert(_ context.Context, w *models.UserWebsite) error {
	f.st.websites[w.UserID] = append(f.st.websites[w.UserID], *w)
	return nil
}

func (f fakeWebsites) DeleteAll(_ context.Context, id string) (int64, error) {
	n := len(f.st.websites[id])
	delete(f.st.websites, id)
	return int64(n), nil
}

type fakeCatalog struct {
	catalog.Repository
	st *fakeStore
}

func (f fakeCatalog) List(context.Context) ([]models.CatalogEntry, error) {
	out := make([]models.CatalogEntry, 0, len(f.st.catalog))
	for _, e := range f.st.catalog {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b models.CatalogEntry) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return out, nil
}

func (f fakeCatalog) Upsert(_ context.Context, e *models.CatalogEntry) error {
	f.st.catalog[e.ID] = *e
	return nil
}

func (f fakeCatalog) Delete(_ context.Context, id string) (int64, error) {
	if _, ok := f.st.catalog[id]; !ok {
		return 0, nil
	}
	delete(f.st.catalog, id)
	return 1, nil
}

func (f fakeCatalog) Count(context.Context) (int64, error) {
	return int64(len(f.st.catalog)), nil
}

type fakeTickets struct {
	tickets.Repository
	st *fakeStore
}

func (f fakeTickets) Create(_ context.Context, t *models.Ticket) (*models.Ticket, error) {
	t.Status = models.TicketStatusOpen
	t.CreatedAt = time.Date(2026, 3, 1, 12, 0, len(f.st.tickets), 0, time.UTC)
	f.st.tickets = append(f.st.tickets, *t)
	return t, nil
}

func (f fakeTickets) List(context.Context) ([]models.Ticket, error) {
	return slices.Clone(f.st.tickets), nil
}
