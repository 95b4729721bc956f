// Package server initializes and runs the Fortis application server.
// It opens the database, applies migrations, wires the services together,
// and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fortislabs/fortis/internal/logging"
	"github.com/fortislabs/fortis/internal/server/config"
	"github.com/fortislabs/fortis/internal/server/httpapi"
	"github.com/fortislabs/fortis/internal/server/mailer"
	"github.com/fortislabs/fortis/internal/server/ratelimit"
	"github.com/fortislabs/fortis/internal/server/repositories/repomanager"
	"github.com/fortislabs/fortis/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	dispatcher *mailer.Dispatcher
	limiter    *ratelimit.Limiter
	httpServer *http.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	dispatcher := mailer.NewDispatcher(mailer.NewLogSender(logger), logger, cfg.Mailer.QueueSize, cfg.Mailer.Workers)
	limiter := ratelimit.NewLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)

	authService := services.NewAuthService(db, repos, dispatcher, logger, cfg)
	taskService := services.NewTaskService(db, repos, logger)

	api := httpapi.NewServer(authService, taskService, limiter, logger, cfg)

	return &App{
		config:     cfg,
		logger:     logger,
		db:         db,
		dispatcher: dispatcher,
		limiter:    limiter,
		httpServer: &http.Server{
			Addr:    cfg.Address,
			Handler: api.Handler(),
		},
	}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled or an OS
// signal arrives, then shuts everything down in order: server, mail
// dispatcher, database.
func (app *App) Run(ctx context.Context) error {

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	app.logger.Info(ctx, "starting server", "address", app.config.Address, "env", app.config.Env)

	errCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go app.sweepLimiter(ctx)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "http server shutdown error", "error", err.Error())
	}

	app.dispatcher.Close()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}

	return nil
}

// sweepLimiter periodically drops expired rate-limit windows so idle keys
// do not accumulate.
func (app *App) sweepLimiter(ctx context.Context) {
	ticker := time.NewTicker(app.config.RateLimit.Window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			app.limiter.Sweep(now)
		}
	}
}
