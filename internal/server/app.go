// Package server wires the campusauth host process: it opens the credential
// store, applies migrations, bootstraps the administrator account and runs
// the periodic session sweep until it receives a termination signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/campusauth/internal/logging"
	"github.com/dmitrijs2005/campusauth/internal/server/config"
	"github.com/dmitrijs2005/campusauth/internal/server/lockout"
	"github.com/dmitrijs2005/campusauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/campusauth/internal/server/services"
	"github.com/dmitrijs2005/campusauth/internal/server/sessions"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	auth   *services.AuthService
}

// NewApp builds the application from c. Logs go to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger, err := logging.New(w, c.LogLevel, c.LogFormat == "json")
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	rm, err := repomanager.New(c.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(rm.DriverName(), c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if rm.DriverName() == repomanager.DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	reg := sessions.NewRegistry(sessions.WithTimeout(c.SessionTimeout))
	lt := lockout.NewTracker(lockout.WithMaxAttempts(c.MaxLoginAttempts), lockout.WithDuration(c.LockoutDuration))
	auth := services.NewAuthService(db, rm, reg, lt, logger)

	created, err := auth.EnsureAdmin(ctx, c.AdminUserName, c.AdminPassword, c.AdminEmail)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("admin bootstrap error: %w", err)
	}
	if created {
		logger.Info(ctx, "administrator account created", "user", c.AdminUserName)
	}

	return &App{config: c, logger: logger.With("module", "app"), db: db, auth: auth}, nil
}

// Auth returns the authentication service.
func (app *App) Auth() *services.AuthService { return app.auth }

// Close releases the database handle.
func (app *App) Close() error { return app.db.Close() }

func (app *App) initSignalHandler(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
}

// runSweeper removes expired sessions every CleanupInterval until ctx ends.
func (app *App) runSweeper(ctx context.Context) error {
	ticker := time.NewTicker(app.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n := app.auth.CleanupExpiredSessions()
			app.logger.Debug(ctx, "session sweep", "removed", n)
		}
	}
}

// Run blocks until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := app.initSignalHandler(ctx)
	defer stop()

	app.logger.Info(ctx, "Starting app...",
		"driver", app.config.DatabaseDriver,
		"session_timeout", app.config.SessionTimeout,
		"cleanup_interval", app.config.CleanupInterval)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.runSweeper(ctx) })

	err := g.Wait()
	app.logger.Info(context.Background(), "app stopped", "active_sessions", len(app.auth.ActiveSessions()))
	return err
}

// Main loads configuration from args, runs the app and returns the process
// exit code.
func Main(args []string, w io.Writer) int {
	cfg, err := config.LoadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 2
	}

	ctx := context.Background()
	app, err := NewApp(ctx, cfg, w)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		app.logger.Error(ctx, "app failed", "err", err)
		return 1
	}
	return 0
}
