// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/starford/callerid/internal/api"
	"github.com/starford/callerid/internal/contact"
	"github.com/starford/callerid/internal/contactservice"
	"github.com/starford/callerid/internal/dispatch"
	"github.com/starford/callerid/internal/listener"
	"github.com/starford/callerid/internal/notify"
	"github.com/starford/callerid/internal/resolver"
	"github.com/starford/callerid/internal/sse"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{out: os.Stdout, logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// logger initializes the structured JSON logger and makes it the default.
func (a *application) logger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Run starts the notifier service with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("locale", cfg.Notify.Locale),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// The store is opened once here and shared by reference; it is closed
	// only after every component using it has stopped.
	db, err := contact.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init contact store: %w", err)
	}
	defer db.Close()

	svc := contactservice.NewService(db)

	messages, err := resolver.Catalog(cfg.Notify.Locale)
	if err != nil {
		return err
	}

	broker := sse.NewBroker(cfg.Notify.SSEHeartbeat)
	defer broker.Close()

	notifier := notify.Multi{
		notify.LogNotifier{Logger: logger},
		notify.SSENotifier{Broker: broker},
	}
	res := resolver.New(svc, notifier, resolver.WithMessages(messages))

	dispatcher := dispatch.New(dispatch.Config{
		Workers:       cfg.Dispatch.Workers,
		QueueSize:     cfg.Dispatch.QueueSize,
		HandleTimeout: cfg.Dispatch.HandleTimeout,
	}, res, logger)

	registry := listener.NewRegistry(dispatcher, logger)
	staticGrants := listener.ParsePermissions(cfg.Permissions.Granted)
	applyGrants := func(fileGrants []listener.Permission) {
		registry.Apply(append(append([]listener.Permission{}, staticGrants...), fileGrants...))
	}

	var fileGrants []listener.Permission
	if cfg.Permissions.GrantsFile != "" {
		fileGrants, err = listener.LoadGrants(cfg.Permissions.GrantsFile)
		if err != nil {
			return fmt.Errorf("load grants: %w", err)
		}
	}
	applyGrants(fileGrants)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newHTTPHandler(cfg, svc, registry, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(runCtx)

	// Re-attempt registration whenever the grants file changes.
	if cfg.Permissions.GrantsFile != "" {
		g.Go(func() error {
			if err := listener.WatchGrants(gCtx, cfg.Permissions.GrantsFile, logger, applyGrants); err != nil {
				logger.Warn("grants watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		return dispatcher.Run(gCtx)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		if err := registry.Unregister(); err != nil && !errors.Is(err, listener.ErrNotRegistered) {
			logger.Error("listener unregister error", slog.String("error", err.Error()))
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Stops the watcher and lets the dispatcher drain.
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// newHTTPHandler builds the root router: health probes, metrics and the API.
func newHTTPHandler(cfg *Config, svc *contactservice.Service, registry *listener.Registry, broker *sse.Broker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if len(cfg.App.HTTP.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: cfg.App.HTTP.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Authorization", "Content-Type", "If-None-Match"},
			ExposedHeaders: []string{"ETag", "Retry-After"},
		}).Handler)
	}

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := svc.Ready(r.Context()); err != nil {
			slog.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		if registry.Registered() {
			_, _ = w.Write([]byte(`{"status":"ok","listeners":"registered"}`))
		} else {
			_, _ = w.Write([]byte(`{"status":"ok","listeners":"permissions required"}`))
		}
	})

	r.Handle("/metrics", promhttp.Handler())

	routerCfg := api.RouterConfig{
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Events:      broker,
	}
	if cfg.Ingest.RateLimited() {
		routerCfg.IngestLimit = api.RateLimitMiddleware(
			cfg.Ingest.RateInterval, cfg.Ingest.RateBurst, cfg.Ingest.ClientCache, cfg.Ingest.ClientTTL)
	}

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(svc, registry, routerCfg))

	return r
}
