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
	"golang.org/x/sync/errgroup"

	"github.com/nordvang/varden/internal/api"
	"github.com/nordvang/varden/internal/index"
	"github.com/nordvang/varden/internal/markdown"
	"github.com/nordvang/varden/internal/mcpserver"
	"github.com/nordvang/varden/internal/noteservice"
	"github.com/nordvang/varden/internal/sse"
	"github.com/nordvang/varden/internal/storage"
)

// bootstrap builds the shared component stack: storage, index, pipeline,
// and the note service, then runs the initial sync.
func bootstrap(cfg *Config, logger *slog.Logger) (*noteservice.Service, storage.Provider, *index.DB, error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init index: %w", err)
	}

	svc := noteservice.NewService(store, db)
	pipeline := markdown.New(svc.Resolver, logger)
	svc.SetPipeline(pipeline)

	if err := index.Sync(db, store, pipeline, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return svc, store, db, nil
}

func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := newLogger(cfg)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, store, db, err := bootstrap(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// SSE broker.
	broker := sse.NewBroker(cfg.App.SSE.GraphThrottle)
	defer broker.Close()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, cfg.Vault.Path)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Attachments are served unauthenticated so rendered <img> tags work.
	ah := api.NewAttachmentHandler(cfg.Vault.Path)
	r.Get("/attachments/{filename}", ah.ServeFile)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback. Any change invalidates the
	// link resolver so the next render sees the current vault.
	if cfg.Vault.Watch {
		g.Go(func() error {
			return index.Watch(gCtx, db, store, svc.Pipeline(), cfg.Vault.Path, logger, func(kind, path string) {
				svc.InvalidateResolver()
				broker.PublishNoteEvent(kind, path)
			})
		})
	} else {
		logger.Info("Vault watcher disabled, index is static after start-up")
	}

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

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP stdio server with the given options.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	// MCP talks JSON-RPC over stdout, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	svc, _, db, err := bootstrap(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("MCP server starting on stdio", slog.String("vault_path", cfg.Vault.Path))
	return mcpserver.New(svc).ServeStdio()
}
