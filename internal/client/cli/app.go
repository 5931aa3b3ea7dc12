package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/atlist/internal/client/catalog"
	"github.com/dmitrijs2005/atlist/internal/client/client"
	"github.com/dmitrijs2005/atlist/internal/client/config"
	"github.com/dmitrijs2005/atlist/internal/client/functions"
	"github.com/dmitrijs2005/atlist/internal/client/models"
	"github.com/dmitrijs2005/atlist/internal/client/prefsync"
	"github.com/dmitrijs2005/atlist/internal/client/remote"
	"github.com/dmitrijs2005/atlist/internal/client/repositories/localstore"
	"github.com/dmitrijs2005/atlist/internal/client/services"
	"github.com/dmitrijs2005/atlist/internal/client/window"
	"github.com/dmitrijs2005/atlist/internal/logging"
)

// Functions is the subset of the serverless functions client the CLI uses.
type Functions interface {
	services.TokenSetter
	CreateCheckoutSession(ctx context.Context, email, promoCode string) (string, error)
	DeleteAccount(ctx context.Context) error
	BroadcastPush(ctx context.Context, message string, membersOnly bool) error
}

// RecordStore is a record store connection that may carry an access token.
type RecordStore interface {
	client.RecordStore
	services.TokenSetter
}

type App struct {
	logger logging.Logger
	closer io.Closer
	rs     RecordStore

	remote    *remote.Store
	catalog   *catalog.Cache
	settings  *services.SettingsService
	profile   *services.ProfileService
	websites  *services.WebsitesService
	auth      services.AuthService
	support   *services.SupportService
	window    *window.Manager
	functions Functions

	reader *bufio.Reader

	unsubscribe []func()
}

// deps are the outer collaborators of an App.
type deps struct {
	local     localstore.Repository
	rs        RecordStore
	functions Functions
	logger    logging.Logger
	closer    io.Closer
	reader    *bufio.Reader
}

// NewApp opens the local replica and the record store connection and
// builds an App over them. Call Start before running commands.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	db, err := localstore.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	rs, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	fn := functions.NewClient(c.FunctionsURL, c.PublishableKey, c.RequestTimeout, l)

	return newApp(deps{
		local:     localstore.NewSQLiteRepository(db),
		rs:        rs,
		functions: fn,
		logger:    l,
		closer:    closers{rs, db},
		reader:    bufio.NewReader(os.Stdin),
	}), nil
}

func newApp(d deps) *App {
	l := d.logger
	if l == nil {
		l = logging.Nop()
	}

	a := &App{
		logger:    l.With("module", "cli"),
		closer:    d.closer,
		rs:        d.rs,
		functions: d.functions,
		reader:    d.reader,
	}

	a.remote = remote.NewStore(d.rs, l)
	a.catalog = catalog.NewCache(a.remote, l)

	sd := prefsync.Deps{Local: d.local, Logger: l}
	a.settings = services.NewSettingsService(sd, a.remote)
	a.profile = services.NewProfileService(sd, a.remote)
	a.websites = services.NewWebsitesService(sd, a.remote, a.catalog)
	a.window = window.NewManager(a.settings.Current().PreloadMode, l)

	sinks := []services.TokenSetter{d.rs}
	if d.functions != nil {
		sinks = append(sinks, d.functions)
	}
	a.auth = services.NewAuthService(d.local, d.rs, a.onIdentity, l, sinks...)
	a.support = services.NewSupportService(a.remote, a.auth.Identity, a.profile.Current)

	a.unsubscribe = append(a.unsubscribe,
		a.websites.Subscribe(func(sel models.Selection) {
			a.window.Apply(sel, a.settings.Current().PreloadMode)
		}),
		a.settings.Subscribe(func(s models.Settings) {
			a.window.SetMode(s.PreloadMode)
		}),
	)
	return a
}

// Start restores the session, which hydrates every record kind, and loads
// the catalog. Neither a missing server nor an expired session is fatal.
func (a *App) Start(ctx context.Context) error {
	if _, err := a.auth.Restore(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.logger.Warn(ctx, "session not restored", "err", err)
	}
	if err := a.catalog.Load(ctx); err != nil {
		a.logger.Warn(ctx, "catalog unavailable, using built-in site urls", "err", err)
	}
	return nil
}

// onIdentity re-hydrates every kind for next, or signs every kind out of
// prev when next is anonymous. Kinds run concurrently; each one falls back
// to its local copy on its own.
func (a *App) onIdentity(ctx context.Context, prev, next models.Identity) {
	transitions := []func(context.Context) error{
		func(ctx context.Context) error { return transition(ctx, a.profile.Synchronizer, prev, next) },
		func(ctx context.Context) error { return transition(ctx, a.settings.Synchronizer, prev, next) },
		func(ctx context.Context) error { return transition(ctx, a.websites.Synchronizer, prev, next) },
	}

	var wg sync.WaitGroup
	for _, t := range transitions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := t(ctx); err != nil {
				a.logger.Warn(ctx, "hydrate interrupted", "identity", next.String(), "err", err)
			}
		}()
	}
	wg.Wait()

	a.window.Apply(a.websites.Current(), a.settings.Current().PreloadMode)
}

func transition[T prefsync.Record[T, P], P prefsync.Patch](ctx context.Context, s *prefsync.Synchronizer[T, P], prev, next models.Identity) error {
	if next.IsAnonymous() && !prev.IsAnonymous() {
		_, err := s.SignOut(ctx, prev)
		return err
	}
	_, err := s.Hydrate(ctx, next)
	return err
}

// ClearCachedSessions resets every record kind to its defaults, locally and
// remotely.
func (a *App) ClearCachedSessions(ctx context.Context) {
	a.profile.Reset(ctx)
	a.settings.Reset(ctx)
	a.websites.Reset(ctx)
}

func (a *App) syncState() string {
	if a.profile.Loading() || a.settings.Loading() || a.websites.Loading() {
		return "loading…"
	}
	return "ready"
}

func (a *App) isLoggedIn() bool {
	return !a.auth.Identity().IsAnonymous()
}

// Close drains pending remote writes and releases the connections.
func (a *App) Close(ctx context.Context) error {
	for _, fn := range a.unsubscribe {
		fn()
	}
	a.websites.Close()

	a.profile.Wait()
	a.settings.Wait()
	a.websites.Wait()

	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

type closers []io.Closer

func (cs closers) Close() error {
	var errs []error
	for _, c := range cs {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
