package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/atlist/internal/common"
	"github.com/dmitrijs2005/atlist/internal/logging"
	"github.com/dmitrijs2005/atlist/internal/rpc"
	"github.com/dmitrijs2005/atlist/internal/server/config"
	"github.com/dmitrijs2005/atlist/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newRecordService(t *testing.T, st *fakeStore) (*RecordService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewRecordService(db, fakeManager{st: st}, &config.Config{TicketRateLimit: 2}, logging.Nop())
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("t-%d", n)
	}
	return s, mock
}

func seedAdmin(st *fakeStore, id string) {
	st.profiles[id] = &models.Profile{ID: id, Role: models.RoleAdmin}
}

func TestRead_UnknownCollectionAndColumn(t *testing.T) {
	s, _ := newRecordService(t, newFakeStore())
	ctx := context.Background()

	_, err := s.Read(ctx, "u1", rpc.ReadRequest{Collection: "secrets"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Read(ctx, "u1", rpc.ReadRequest{Collection: rpc.CollectionCatalog, Filter: rpc.Filter{"color": "red"}})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Read(ctx, "u1", rpc.ReadRequest{Collection: rpc.CollectionCatalog, Order: "popularity"})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestRead_ScopedToCaller(t *testing.T) {
	st := newFakeStore()
	st.profiles["u1"] = &models.Profile{ID: "u1", FullName: ptr("Ann"), Role: models.RoleUser}
	st.profiles["u2"] = &models.Profile{ID: "u2", FullName: ptr("Bob"), Role: models.RoleUser}
	s, _ := newRecordService(t, st)
	ctx := context.Background()

	rows, err := s.Read(ctx, "u1", rpc.ReadRequest{Collection: rpc.CollectionProfiles, Filter: rpc.Filter{"id": "u1"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ann", rows[0]["full_name"])
	assert.Nil(t, rows[0]["username"])

	rows, err = s.Read(ctx, "u1", rpc.ReadRequest{Collection: rpc.CollectionProfiles})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "u1", rows[0]["id"])

	_, err = s.Read(ctx, "u1", rpc.ReadRequest{Collection: rpc.CollectionProfiles, Filter: rpc.Filter{"id": "u2"}})
	assert.ErrorIs(t, err, common.ErrorForbidden)
}

func TestRead_MissingRowsAreEmpty(t *testing.T) {
	s, _ := newRecordService(t, newFakeStore())

	rows, err := s.Read(context.Background(), "u1", rpc.ReadRequest{Collection: rpc.CollectionSettings, Filter: rpc.Filter{"user_id": "u1"}})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRead_CatalogFilterAndOrder(t *testing.T) {
	st := newFakeStore()
	st.catalog["eBay"] = models.CatalogEntry{ID: "eBay", Name: "eBay", Category: ptr("Shopping"), URL: "https://www.ebay.com"}
	st.catalog["Amazon"] = models.CatalogEntry{ID: "Amazon", Name: "Amazon", Category: ptr("Shopping"), URL: "https://www.amazon.com"}
	st.catalog["HN"] = models.CatalogEntry{ID: "HN", Name: "Hacker News", URL: "https://news.ycombinator.com"}
	s, _ := newRecordService(t, st)

	rows, err := s.Read(context.Background(), "anyone", rpc.ReadRequest{
		Collection: rpc.CollectionCatalog,
		Filter:     rpc.Filter{"category": "Shopping"},
		Order:      "url",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Amazon", rows[0]["id"])
	assert.Equal(t, "eBay", rows[1]["id"])
}

func TestUpsertProfiles_OwnerCannotChangePrivileges(t *testing.T) {
	st := newFakeStore()
	st.profiles["u1"] = &models.Profile{ID: "u1", Role: models.RoleUser, MembershipActive: false}
	s, mock := newRecordService(t, st)
	mock.ExpectBegin()
	mock.ExpectCommit()

	n, err := s.Upsert(context.Background(), "u1", rpc.UpsertRequest{
		Collection: rpc.CollectionProfiles,
		Rows:       []rpc.Row{{"id": "u1", "full_name": "Ann", "role": "admin", "membership_active": true}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	p := st.profiles["u1"]
	assert.Equal(t, "Ann", *p.FullName)
	assert.Equal(t, models.RoleUser, p.Role)
	assert.False(t, p.MembershipActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertProfiles_OtherIdentityForbidden(t *testing.T) {
	s, _ := newRecordService(t, newFakeStore())

	_, err := s.Upsert(context.Background(), "u1", rpc.UpsertRequest{
		Collection: rpc.CollectionProfiles,
		Rows:       []rpc.Row{{"id": "u2", "full_name": "Mallory"}},
	})
	assert.ErrorIs(t, err, common.ErrorForbidden)
}

func TestUpsertProfiles_AdminGrantsMembership(t *testing.T) {
	st := newFakeStore()
	seedAdmin(st, "root")
	st.profiles["u2"] = &models.Profile{ID: "u2", Role: models.RoleUser}
	s, mock := newRecordService(t, st)
	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := s.Upsert(context.Background(), "root", rpc.UpsertRequest{
		Collection: rpc.CollectionProfiles,
		Rows:       []rpc.Row{{"id": "u2", "membership_active": true}},
	})
	require.NoError(t, err)
	assert.True(t, st.profiles["u2"].MembershipActive)
	assert.Equal(t, models.RoleUser, st.profiles["u2"].Role)
}

func TestUpsertSettings_StampsCaller(t *testing.T) {
	st := newFakeStore()
	s, _ := newRecordService(t, st)

	_, err := s.Upsert(context.Background(), "u1", rpc.UpsertRequest{
		Collection: rpc.CollectionSettings,
		Rows:       []rpc.Row{{"theme": "dark", "notifications_enabled": true}},
	})
	require.NoError(t, err)
	require.Contains(t, st.settings, "u1")
	assert.Equal(t, "dark", *st.settings["u1"].Theme)

	_, err = s.Upsert(context.Background(), "u1", rpc.UpsertRequest{
		Collection: rpc.CollectionSettings,
		Rows:       []rpc.Row{{"theme": "neon"}},
	})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestUpsertWebsites_ReplacesSelection(t *testing.T) {
	st := newFakeStore()
	st.websites["u1"] = []models.UserWebsite{{UserID: "u1", WebsiteID: "Old", Position: 0}}
	s, mock := newRecordService(t, st)
	mock.ExpectBegin()
	mock.ExpectCommit()

	n, err := s.Upsert(context.Background(), "u1", rpc.UpsertRequest{
		Collection: rpc.CollectionWebsites,
		Rows: []rpc.Row{
			{"website_id": "eBay", "position": float64(5)},
			{"website_id": "Amazon", "position": float64(2), "custom_color": "#ff0000"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got := st.websites["u1"]
	require.Len(t, got, 2)
	assert.Equal(t, "Amazon", got[0].WebsiteID)
	assert.Equal(t, int64(0), got[0].Position)
	assert.Equal(t, "eBay", got[1].WebsiteID)
	assert.Equal(t, int64(1), got[1].Position)
	assert.Equal(t, "u1", got[1].UserID)

	rows, err := s.Read(context.Background(), "u1", rpc.ReadRequest{Collection: rpc.CollectionWebsites, Order: "position"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "#ff0000", rows[0]["custom_color"])
}

func TestUpsertWebsites_EmptyClearsSelection(t *testing.T) {
	st := newFakeStore()
	st.websites["u1"] = []models.UserWebsite{{UserID: "u1", WebsiteID: "Old"}}
	s, mock := newRecordService(t, st)
	mock.ExpectBegin()
	mock.ExpectCommit()

	n, err := s.Upsert(context.Background(), "u1", rpc.UpsertRequest{Collection: rpc.CollectionWebsites})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, st.websites["u1"])
}

func TestUpsertWebsites_Rejects(t *testing.T) {
	s, _ := newRecordService(t, newFakeStore())
	ctx := context.Background()

	_, err := s.Upsert(ctx, "u1", rpc.UpsertRequest{
		Collection: rpc.CollectionWebsites,
		Rows:       []rpc.Row{{"website_id": "A"}, {"website_id": "A"}},
	})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Upsert(ctx, "u1", rpc.UpsertRequest{
		Collection: rpc.CollectionWebsites,
		Rows:       []rpc.Row{{"website_id": "A", "user_id": "u2"}},
	})
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = s.Upsert(ctx, "u1", rpc.UpsertRequest{
		Collection: rpc.CollectionWebsites,
		Rows:       []rpc.Row{{"website_id": "A", "position": 1.5}},
	})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestUpsertCatalog_AdminOnly(t *testing.T) {
	st := newFakeStore()
	seedAdmin(st, "root")
	s, mock := newRecordService(t, st)
	ctx := context.Background()
	row := rpc.Row{"id": "eBay", "name": "eBay", "url": "https://www.ebay.com", "category": "Shopping"}

	_, err := s.Upsert(ctx, "u1", rpc.UpsertRequest{Collection: rpc.CollectionCatalog, Rows: []rpc.Row{row}})
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = s.Upsert(ctx, "root", rpc.UpsertRequest{
		Collection: rpc.CollectionCatalog,
		Rows:       []rpc.Row{{"id": "bad", "name": "Bad", "url": "ftp://example.com"}},
	})
	assert.ErrorIs(t, err, common.ErrorValidation)

	mock.ExpectBegin()
	mock.ExpectCommit()
	n, err := s.Upsert(ctx, "root", rpc.UpsertRequest{Collection: rpc.CollectionCatalog, Rows: []rpc.Row{row}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, "https://www.ebay.com", st.catalog["eBay"].URL)
}

func TestTickets_InsertOnlyAndRateLimited(t *testing.T) {
	st := newFakeStore()
	seedAdmin(st, "root")
	s, _ := newRecordService(t, st)
	ctx := context.Background()
	ticket := func() rpc.Row { return rpc.Row{"category": "bug", "body": "it broke"} }

	for i := 0; i < 2; i++ {
		n, err := s.Upsert(ctx, "u1", rpc.UpsertRequest{Collection: rpc.CollectionTickets, Rows: []rpc.Row{ticket()}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	}
	_, err := s.Upsert(ctx, "u1", rpc.UpsertRequest{Collection: rpc.CollectionTickets, Rows: []rpc.Row{ticket()}})
	assert.ErrorIs(t, err, common.ErrRateLimited)

	// other identities have their own allowance
	_, err = s.Upsert(ctx, "u2", rpc.UpsertRequest{Collection: rpc.CollectionTickets, Rows: []rpc.Row{{"category": "feature", "body": "dark mode"}}})
	require.NoError(t, err)

	_, err = s.Upsert(ctx, "u1", rpc.UpsertRequest{Collection: rpc.CollectionTickets, Rows: []rpc.Row{{"id": "mine", "category": "bug", "body": "x"}}})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Read(ctx, "u1", rpc.ReadRequest{Collection: rpc.CollectionTickets})
	assert.ErrorIs(t, err, common.ErrorForbidden)

	rows, err := s.Read(ctx, "root", rpc.ReadRequest{Collection: rpc.CollectionTickets, Filter: rpc.Filter{"category": "bug"}, Order: "created_at"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "t-1", rows[0]["id"])
	assert.Equal(t, "u1", rows[0]["from_user_id"])
	assert.Equal(t, "open", rows[0]["status"])
	assert.Equal(t, "2026-03-01T12:00:00Z", rows[0]["created_at"])
}

func TestDeleteProfile_Cascades(t *testing.T) {
	st := newFakeStore()
	st.profiles["u1"] = &models.Profile{ID: "u1", Role: models.RoleUser}
	st.settings["u1"] = &models.Settings{UserID: "u1"}
	st.websites["u1"] = []models.UserWebsite{{UserID: "u1", WebsiteID: "Amazon"}}
	st.profiles["u2"] = &models.Profile{ID: "u2", Role: models.RoleUser}
	s, mock := newRecordService(t, st)
	mock.ExpectBegin()
	mock.ExpectCommit()

	n, err := s.Delete(context.Background(), "u1", rpc.DeleteRequest{Collection: rpc.CollectionProfiles, Filter: rpc.Filter{"id": "u1"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NotContains(t, st.profiles, "u1")
	assert.NotContains(t, st.settings, "u1")
	assert.NotContains(t, st.websites, "u1")
	assert.Contains(t, st.profiles, "u2")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_Policy(t *testing.T) {
	st := newFakeStore()
	seedAdmin(st, "root")
	st.catalog["eBay"] = models.CatalogEntry{ID: "eBay", Name: "eBay", URL: "https://www.ebay.com"}
	s, _ := newRecordService(t, st)
	ctx := context.Background()

	_, err := s.Delete(ctx, "u1", rpc.DeleteRequest{Collection: rpc.CollectionSettings, Filter: rpc.Filter{"user_id": "u2"}})
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = s.Delete(ctx, "u1", rpc.DeleteRequest{Collection: rpc.CollectionCatalog, Filter: rpc.Filter{"id": "eBay"}})
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = s.Delete(ctx, "root", rpc.DeleteRequest{Collection: rpc.CollectionCatalog})
	assert.ErrorIs(t, err, common.ErrorValidation)

	n, err := s.Delete(ctx, "root", rpc.DeleteRequest{Collection: rpc.CollectionCatalog, Filter: rpc.Filter{"id": "eBay"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Delete(ctx, "u1", rpc.DeleteRequest{Collection: rpc.CollectionWebsites})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTicketLimiter_Refills(t *testing.T) {
	l := newTicketLimiter(1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("u1"))
	assert.False(t, l.allow("u1"))

	now = now.Add(time.Minute)
	assert.True(t, l.allow("u1"))

	assert.True(t, newTicketLimiter(0).allow("u1"))
}
