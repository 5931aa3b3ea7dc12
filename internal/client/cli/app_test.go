package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/atlist/internal/client/client"
	"github.com/dmitrijs2005/atlist/internal/client/functions"
	"github.com/dmitrijs2005/atlist/internal/client/models"
	"github.com/dmitrijs2005/atlist/internal/client/repositories/localstore"
	"github.com/dmitrijs2005/atlist/internal/common"
	"github.com/dmitrijs2005/atlist/internal/rpc"
)

func TestSites_ListActivateDeactivate(t *testing.T) {
	store := newMemStore()
	seedCatalog(store, "Amazon", "eBay", "Walmart")
	env := newTestEnv(t, store)

	out, err := env.run("sites", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "*  1. Amazon")
	assert.Contains(t, out, "https://amazon.test/")
	assert.Contains(t, out, "Walmart (members)")

	out, err = env.run("sites", "activate", "eBay", "Ghost", "eBay")
	require.NoError(t, err)
	assert.Contains(t, out, "eBay activated (membership recommended)")
	assert.Contains(t, out, "Ghost is not in the catalog")
	assert.Contains(t, out, "eBay is already active")

	out, err = env.run("sites", "deactivate", "Amazon")
	require.NoError(t, err)
	assert.Contains(t, out, "*  1. OfferUp")
	assert.NotContains(t, out, "Amazon")
}

func TestSites_ColorAndFocusErrors(t *testing.T) {
	env := newTestEnv(t, newMemStore())

	_, err := env.run("sites", "color", "Amazon", "???")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = env.run("sites", "focus", "Nowhere")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	out, err := env.run("sites", "focus", "Walmart")
	require.NoError(t, err)
	assert.Contains(t, out, "https://www.walmart.com/")
}

func TestMounted_FollowsFocusAndPreload(t *testing.T) {
	env := newTestEnv(t, newMemStore())

	_, err := env.run("settings", "set", "preload", "off")
	require.NoError(t, err)
	_, err = env.run("sites", "focus", "Walmart")
	require.NoError(t, err)
	_, err = env.run("sites", "focus", "DoorDash")
	require.NoError(t, err)

	out, err := env.run("mounted")
	require.NoError(t, err)
	assert.Contains(t, out, "preload off")
	assert.Contains(t, out, "Walmart, DoorDash")
}

func TestLogin_HydratesFromStoreAndRevealsAdminCommands(t *testing.T) {
	store := newMemStore()
	seedCatalog(store, "Amazon")
	store.put(rpc.CollectionProfiles, rpc.Row{"id": "u1", "full_name": "Sam Lee", "role": "admin", "membership_active": true})
	store.put(rpc.CollectionWebsites, rpc.Row{"user_id": "u1", "website_id": "Amazon", "position": int64(0), "custom_color": nil})
	env := newTestEnv(t, store)

	out, err := env.run("catalog", "--help")
	require.NoError(t, err)
	assert.NotContains(t, out, "import")

	out, err = env.run("login", "--token", token(t, "u1"))
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as u1")
	env.drain()

	assert.Equal(t, "Sam Lee", env.app.profile.Current().DisplayName)
	assert.True(t, env.app.profile.IsAdmin())
	assert.Equal(t, []string{"Amazon"}, env.app.websites.Current().IDs())
	assert.NotEmpty(t, env.fn.token)

	out, err = env.run("catalog", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "import")

	out, err = env.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "u1")
	assert.Contains(t, out, "admin, member")
	assert.Contains(t, out, "ready")
}

func TestLogout_ReturnsToAnonymousDefaults(t *testing.T) {
	store := newMemStore()
	env := newTestEnv(t, store)

	_, err := env.run("login", "--token", token(t, "u1"))
	require.NoError(t, err)
	_, err = env.run("settings", "set", "theme", "dark")
	require.NoError(t, err)
	env.drain()

	rows := store.all(rpc.CollectionSettings)
	require.Len(t, rows, 1)
	assert.Equal(t, "dark", rows[0]["theme"])

	_, err = env.run("logout")
	require.NoError(t, err)
	assert.True(t, env.app.auth.Identity().IsAnonymous())
	assert.Equal(t, models.DefaultSettings(), env.app.settings.Current())
}

func TestRestart_ExpiredSessionSignsOut(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	dsn := filepath.Join(t.TempDir(), "atlist.db")

	first := newTestEnvAt(t, store, dsn)
	_, err := first.run("settings", "set", "theme", "dark")
	require.NoError(t, err)
	_, err = first.run("login", "--token", token(t, "u1"))
	require.NoError(t, err)
	first.drain()

	// the session outlives its token
	repo := localstore.NewSQLiteRepository(first.local)
	require.NoError(t, localstore.SaveJSON(ctx, repo, localstore.SessionKey, map[string]string{
		"accessToken": tokenExpiringAt(t, "u1", time.Now().Add(-time.Minute)),
		"identity":    "u1",
	}))
	require.NoError(t, first.app.Close(ctx))

	second := newTestEnvAt(t, store, dsn)
	assert.True(t, second.app.auth.Identity().IsAnonymous())
	assert.Equal(t, models.ThemeSystem, second.app.settings.Current().Theme)
	assert.Equal(t, models.DefaultSettings(), second.app.settings.Current())

	raw, err := localstore.NewSQLiteRepository(second.local).Get(ctx, localstore.Key(localstore.KindSettings, "u1"))
	require.NoError(t, err)
	assert.Nil(t, raw, "signed-in local copy discarded")
}

func TestSettings_InvalidValues(t *testing.T) {
	env := newTestEnv(t, newMemStore())

	_, err := env.run("settings", "set", "theme", "sepia")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = env.run("settings", "set", "notifications", "maybe")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = env.run("settings", "set", "volume", "11")
	assert.ErrorIs(t, err, common.ErrorValidation)

	out, err := env.run("settings", "set", "two-factor", "on")
	require.NoError(t, err)
	assert.Contains(t, out, "two-factor     on")
}

func TestProfile_UpdateOnlyChangedFlags(t *testing.T) {
	env := newTestEnv(t, newMemStore())

	out, err := env.run("profile", "update", "--name", "Sam Lee", "--avatar-color", "#2563eb")
	require.NoError(t, err)
	assert.Contains(t, out, "Sam Lee")

	p := env.app.profile.Current()
	assert.Equal(t, "#2563eb", p.AvatarColor)
	assert.Equal(t, models.DefaultProfile().Email, p.Email)

	_, err = env.run("profile", "update", "--avatar-color", "#12")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestTicket_RequiresLoginAndDefaultsEmail(t *testing.T) {
	origTerm := isTerminal
	isTerminal = func() bool { return false }
	t.Cleanup(func() { isTerminal = origTerm })

	store := newMemStore()
	env := newTestEnv(t, store)

	_, err := env.run("ticket", "--category", "bug", "--body", "crash on start")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = env.run("login", "--token", token(t, "u1"))
	require.NoError(t, err)

	_, err = env.run("ticket", "--category", "billing", "--body", "x")
	assert.ErrorIs(t, err, common.ErrorValidation)

	out, err := env.run("ticket", "--category", "bug", "--body", "crash on start")
	require.NoError(t, err)
	assert.Contains(t, out, "Thanks")

	rows := store.all(rpc.CollectionTickets)
	require.Len(t, rows, 1)
	assert.Equal(t, "u1", rows[0]["from_user_id"])
	assert.Equal(t, "alex@example.com", rows[0]["email"])
}

func TestTickets_AdminInboxShowsBody(t *testing.T) {
	store := newMemStore()
	store.put(rpc.CollectionProfiles, rpc.Row{"id": "u1", "role": "admin"})
	store.put(rpc.CollectionTickets, rpc.Row{
		"id": "t1", "from_user_id": "u2", "category": "bug", "subject": "Crash",
		"body": "app closes\nwhen opening eBay", "email": "u2@example.com",
		"status": "open", "created_at": "2026-03-01T12:00:00Z",
	})
	env := newTestEnv(t, store)
	_, err := env.run("login", "--token", token(t, "u1"))
	require.NoError(t, err)

	out, err := env.run("tickets")
	require.NoError(t, err)
	assert.Contains(t, out, "Crash")
	assert.Contains(t, out, "    app closes\n")
	assert.Contains(t, out, "    when opening eBay\n")
}

func TestTicket_PromptsForMissingFields(t *testing.T) {
	origTerm, origPrompt := isTerminal, promptTicket
	isTerminal = func() bool { return true }
	promptTicket = func(_ context.Context, tk *models.Ticket) error {
		tk.Category = models.TicketFeature
		tk.Body = "dark mode please"
		return nil
	}
	t.Cleanup(func() { isTerminal, promptTicket = origTerm, origPrompt })

	store := newMemStore()
	env := newTestEnv(t, store)
	_, err := env.run("login", "--token", token(t, "u1"))
	require.NoError(t, err)

	_, err = env.run("ticket")
	require.NoError(t, err)
	rows := store.all(rpc.CollectionTickets)
	require.Len(t, rows, 1)
	assert.Equal(t, "feature", rows[0]["category"])
}

func TestClearCache_ResetsEverything(t *testing.T) {
	env := newTestEnv(t, newMemStore())

	_, err := env.run("sites", "deactivate", "Amazon")
	require.NoError(t, err)
	_, err = env.run("settings", "set", "theme", "light")
	require.NoError(t, err)

	_, err = env.run("clear-cache")
	require.NoError(t, err)

	assert.Equal(t, models.DefaultSelection(), env.app.websites.Current())
	assert.Equal(t, models.DefaultSettings(), env.app.settings.Current())
	assert.Equal(t, models.DefaultProfile(), env.app.profile.Current())
}

func TestCheckoutAndDeleteAccount(t *testing.T) {
	origConfirm := confirm
	t.Cleanup(func() { confirm = origConfirm })

	env := newTestEnv(t, newMemStore())

	_, err := env.run("checkout")
	require.Error(t, err)

	_, err = env.run("login", "--token", token(t, "u1"))
	require.NoError(t, err)

	out, err := env.run("checkout", "--promo", "SPRING")
	require.NoError(t, err)
	assert.Contains(t, out, "https://checkout.test/s/1")
	assert.Equal(t, []string{"alex@example.com|SPRING"}, env.fn.checkouts)

	confirm = func(*cobra.Command, string) (bool, error) { return false, nil }
	_, err = env.run("delete-account")
	require.NoError(t, err)
	assert.False(t, env.fn.deleted)

	_, err = env.run("delete-account", "--yes")
	require.NoError(t, err)
	assert.True(t, env.fn.deleted)
	assert.True(t, env.app.auth.Identity().IsAnonymous())
}

func TestCatalogImport(t *testing.T) {
	store := newMemStore()
	store.put(rpc.CollectionProfiles, rpc.Row{"id": "u1", "role": "admin"})
	env := newTestEnv(t, store)
	_, err := env.run("login", "--token", token(t, "u1"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sites:
  - id: eBay
    name: eBay
    category: Shopping
    url: https://www.ebay.com/
  - id: Etsy
    name: Etsy
    url: https://www.etsy.com/
`), 0o600))

	out, err := env.run("catalog", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 sites")
	assert.True(t, env.app.catalog.Resolves("Etsy"))

	out, err = env.run("catalog", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Etsy")

	_, err = env.run("catalog", "put", "--id", "Bad")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestParseCatalogFile_JSON(t *testing.T) {
	entries, err := parseCatalogFile([]byte(`{"sites":[{"id":"X","name":"X","url":"https://x.com/"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []models.CatalogEntry{{ID: "X", Name: "X", URL: "https://x.com/"}}, entries)

	_, err = parseCatalogFile([]byte("sites: [unclosed"))
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	assert.Contains(t, describe(client.ErrUnavailable), "kept on this device")
	assert.Contains(t, describe(common.ErrorForbidden), "permission")
	assert.Equal(t, "bad promo", describe(&functions.Error{Function: "checkout", Status: 400, Message: "bad promo"}))
	assert.Equal(t, "boom", describe(errors.New("boom")))
}
