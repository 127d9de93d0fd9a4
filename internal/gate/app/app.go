package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/adflow/filegate/internal/gate/cache"
	httpapi "github.com/adflow/filegate/internal/gate/http"
	"github.com/adflow/filegate/internal/gate/notify"
	"github.com/adflow/filegate/internal/gate/service"
	"github.com/adflow/filegate/internal/gate/shortener"
	"github.com/adflow/filegate/internal/gate/store"
	"github.com/adflow/filegate/internal/gate/store/drivers/sqlite"
	"github.com/adflow/filegate/pkg/signx"
	"github.com/adflow/filegate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the gate service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db          store.Store
	accessCache *cache.AccessCache // nil when redis is not configured

	tokenService        *service.TokenService
	statsService        *service.StatsService
	housekeepingService *service.HousekeepingService

	server *http.Server
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gate-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initCache(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("gate service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gate service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if app.accessCache != nil {
		if err := app.accessCache.Close(); err != nil {
			app.logger.Error("error closing access cache", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gate service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initCache connects the optional redis access cache. A configured but
// unreachable redis is a startup error; a missing address just leaves
// the cache off.
func (app *Application) initCache() error {
	if app.cfg.RedisAddr == "" {
		return nil
	}

	ac, err := cache.Open(context.Background(), app.cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("failed to connect access cache: %w", err)
	}
	app.accessCache = ac

	app.logger.Info("access cache connected", "addr", app.cfg.RedisAddr)
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Store:         app.db,
		Signer:        signx.New(app.cfg.SigningSecret),
		Shortener:     shortener.New(app.cfg.ShortenerAPIURL, app.cfg.ShortenerAPIKey, app.cfg.ShortenerTimeout),
		Cache:         app.accessCache,
		BaseURL:       strings.TrimSuffix(app.cfg.BaseURL, "/"),
		PendingWindow: app.cfg.PendingWindow,
		AccessWindow:  app.cfg.AccessWindow,
	}

	app.statsService = &service.StatsService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.accessCache, app.logger)

	router.TokenService = app.tokenService
	router.StatsService = app.statsService
	router.BotUsername = app.cfg.BotUsername
	router.AdminChatID = app.cfg.AdminChatID
	if app.cfg.BotToken != "" {
		router.Notifier = notify.NewTelegram(app.cfg.BotToken)
	}
	if app.cfg.AdminJWTSecret != "" {
		router.AdminSecret = []byte(app.cfg.AdminJWTSecret)
	}
	router.ApplyRoutes()

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
