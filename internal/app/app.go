// Package app assembles the HTTP application: configuration, logging, the
// data service over the source workbook, and the chi router.
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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"dtxcli/internal/config"
	apierrors "dtxcli/internal/errors"
	"dtxcli/internal/infrastructure"
	"dtxcli/internal/services"
	handlers "dtxcli/internal/transport/http"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Application is the main application container.
type Application struct {
	Config      *config.Config
	Logger      *slog.Logger
	Router      *chi.Mux
	Server      *http.Server
	DataService *services.DataService
}

// NewApplication loads configuration and wires all services and routes.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("version", Version),
		slog.String("sheet_policy", cfg.Data.SheetPolicy),
		slog.String("index_policy", cfg.Data.IndexPolicy))

	app := &Application{
		Config:      cfg,
		Logger:      logger,
		DataService: services.NewDataService(cfg, logger),
	}

	app.Router = app.setupRouter()
	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

func (app *Application) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	errorHandler := apierrors.NewErrorHandler(app.Logger)
	dataHandler := handlers.NewDataHandler(app.DataService, app.Logger, errorHandler)
	healthHandler := handlers.NewHealthHandler(app.DataService)

	r.Mount("/healthz", healthHandler.Routes())
	r.Route("/api", func(r chi.Router) {
		r.Mount("/data", dataHandler.Routes())
	})

	return r
}

// Run starts the HTTP server and blocks until the context is cancelled or a
// shutdown signal arrives, then drains in-flight requests.
func (app *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("http server listening", slog.String("addr", app.Server.Addr))
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	app.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	app.Logger.Info("server stopped")
	return nil
}
