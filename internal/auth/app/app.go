package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/owtlabs/owt/internal/auth/http"
	"github.com/owtlabs/owt/internal/auth/provider"
	"github.com/owtlabs/owt/internal/auth/provider/naver"
	"github.com/owtlabs/owt/internal/auth/service"
	"github.com/owtlabs/owt/internal/auth/store"
	"github.com/owtlabs/owt/internal/auth/store/drivers/sqlite"
	"github.com/owtlabs/owt/pkg/cryptox"
	"github.com/owtlabs/owt/pkg/jwtx"
	"github.com/owtlabs/owt/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	sessionService *service.SessionService
	userService    *service.UserService
	providers      *provider.Registry

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized. A
// configuration problem is fatal here, before anything listens.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New("owt-auth", BuildVersion, slogx.Options{
			Env:    cfg.Env,
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

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
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
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

// initServices initializes the business logic services and the provider
// registry.
func (app *Application) initServices() error {
	access, err := jwtx.NewCodec(app.cfg.AccessSecret, app.cfg.AccessTTL, app.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("failed to build access token codec: %w", err)
	}
	refresh, err := jwtx.NewCodec(app.cfg.RefreshSecret, app.cfg.RefreshTTL, app.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("failed to build refresh token codec: %w", err)
	}

	app.sessionService = &service.SessionService{
		Store:        app.db,
		AccessCodec:  access,
		RefreshCodec: refresh,
	}
	app.userService = &service.UserService{Store: app.db}

	var providers []provider.Provider
	if app.cfg.FederationEnabled() {
		naverProvider, err := naver.New(
			app.cfg.NaverClientID,
			app.cfg.NaverClientSecret,
			app.cfg.NaverCallbackURL,
		)
		if err != nil {
			return fmt.Errorf("failed to build naver provider: %w", err)
		}
		providers = append(providers, naverProvider)
		app.logger.Info("naver federation enabled")
	} else {
		app.logger.Info("federation disabled, no provider credentials configured")
	}
	app.providers = provider.NewRegistry(providers...)

	return nil
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.db, app.logger, BuildVersion)

	router.SessionService = app.sessionService
	router.UserService = app.userService
	router.Providers = app.providers
	router.SecureCookies = app.cfg.Env != "dev"
	router.AllowedRedirects = app.cfg.AllowedRedirects
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
