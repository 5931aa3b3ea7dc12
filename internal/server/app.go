// Package server initializes and runs the record store: it opens Postgres,
// applies migrations, optionally seeds the catalog and serves gRPC plus
// the Prometheus endpoint until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/atlist/internal/logging"
	"github.com/dmitrijs2005/atlist/internal/server/config"
	"github.com/dmitrijs2005/atlist/internal/server/metrics"
	"github.com/dmitrijs2005/atlist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/atlist/internal/server/seed"
	"github.com/dmitrijs2005/atlist/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/atlist/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	records     *services.RecordService
	metrics     *metrics.Metrics
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := newApp(c, logger, db, repomanager.NewPostgresRepositoryManager())
	if err := app.prepare(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(c *config.Config, l logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) *App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &App{
		config:      c,
		logger:      l,
		db:          db,
		repomanager: rm,
		records:     services.NewRecordService(db, rm, c, l),
		metrics:     metrics.New(reg),
	}
}

// prepare migrates the schema and seeds the catalog when asked to.
func (app *App) prepare(ctx context.Context) error {
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	if !app.config.SeedCatalog {
		return nil
	}

	entries, err := seed.Default()
	if err != nil {
		return err
	}
	if _, err := seed.Catalog(ctx, app.repomanager.Catalog(app.db), entries, app.logger); err != nil {
		return err
	}
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.records, app.metrics, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)

	if err := app.metrics.Serve(ctx, app.config.MetricsAddr); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a server fails,
// then closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "err", err)
	}
	app.logger.Info(ctx, "Stopped")
}
