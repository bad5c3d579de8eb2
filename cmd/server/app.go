package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/kestrelhq/driftboard/internal/auth"
	"github.com/kestrelhq/driftboard/internal/config"
	"github.com/kestrelhq/driftboard/internal/entropy"
	"github.com/kestrelhq/driftboard/internal/events"
	"github.com/kestrelhq/driftboard/internal/lifecycle"
	"github.com/kestrelhq/driftboard/internal/notify"
	"github.com/kestrelhq/driftboard/internal/platform/postgres"
	"github.com/kestrelhq/driftboard/internal/sched"
	"github.com/kestrelhq/driftboard/internal/store"
)

// application holds all the shared application dependencies so wiring and
// shutdown live in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	cardStore    store.CardStore
	boardStore   store.BoardStore
	tenantStore  store.TenantStore
	eventStore   store.EventStore
	entropyStore store.EntropyConfigStore
	bundleStore  store.BundleStore

	// Services
	verifier  auth.Verifier
	engine    *lifecycle.Engine
	scheduler *entropy.Scheduler
	bundler   *notify.Bundler

	// Background execution
	timers  *sched.TimerScheduler
	emitter *events.InMemoryEmitter
}

// newApplication wires all dependencies. The database connection and logger
// must already be established.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.verifier = auth.NewVerifier(cfg.Auth.JWTSecret)

	app.cardStore = postgres.NewPostgresCardStore(db, logger)
	app.boardStore = postgres.NewPostgresBoardStore(db, logger)
	app.tenantStore = postgres.NewPostgresTenantStore(db, logger)
	app.eventStore = postgres.NewPostgresEventStore(db, logger)
	app.entropyStore = postgres.NewPostgresEntropyConfigStore(db, logger)
	app.bundleStore = postgres.NewPostgresBundleStore(db, logger)

	app.emitter = events.NewInMemoryEmitter(logger)

	app.engine = lifecycle.NewEngine(
		store.NewDBTxRunner(db),
		app.cardStore,
		app.boardStore,
		app.eventStore,
		app.emitter,
		logger,
	)

	app.scheduler = entropy.NewScheduler(
		app.engine,
		app.cardStore,
		app.boardStore,
		app.tenantStore,
		app.entropyStore,
		logger,
	)
	app.scheduler.SetDefaultPeriod(cfg.Entropy.DefaultPeriod)

	app.timers = sched.NewTimerScheduler(logger)

	app.bundler = notify.NewBundler(
		app.bundleStore,
		app.eventStore,
		app.boardStore,
		notify.NewLogDelivery(logger),
		app.timers,
		cfg.Notification.Window,
		logger,
	)
	app.emitter.RegisterHandler(app.bundler)

	app.registerBackgroundJobs()

	logger.Info("application initialized")
	return app, nil
}

// registerBackgroundJobs schedules the entropy sweep and the notification
// catch-all. The catch-all re-delivers bundles whose window-close timer was
// lost to a restart and retries bundles stuck in processing.
func (app *application) registerBackgroundJobs() {
	app.timers.RegisterInterval(app.config.Entropy.SweepInterval, func(ctx context.Context) {
		if _, err := app.scheduler.Sweep(ctx, time.Now().UTC()); err != nil {
			app.logger.Error("entropy sweep failed", slog.String("error", err.Error()))
		}
	})

	app.timers.RegisterInterval(app.config.Notification.CatchAllInterval, func(ctx context.Context) {
		if _, err := app.bundler.SweepOverdue(ctx, time.Now().UTC()); err != nil {
			app.logger.Error("notification catch-all failed", slog.String("error", err.Error()))
		}
	})
}

// Run starts background scheduling and the HTTP server, blocking until
// shutdown.
func (app *application) Run(ctx context.Context) error {
	app.timers.Start()

	router := app.setupRouter()
	return app.startHTTPServer(ctx, router)
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.timers != nil {
		app.timers.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
