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
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/matome/internal/api"
	"github.com/starford/matome/internal/engine"
	"github.com/starford/matome/internal/history"
	"github.com/starford/matome/internal/mcpserver"
	"github.com/starford/matome/internal/sse"
	"github.com/starford/matome/internal/storage"
	"github.com/starford/matome/internal/watch"
)

// runtimeParts holds everything built from a Config.
type runtimeParts struct {
	logger *slog.Logger
	store  *storage.FS
	ledger history.Ledger
	eng    *engine.Engine
	cfg    *Config
}

func (p *runtimeParts) close() {
	if p.ledger != nil {
		_ = p.ledger.Close()
	}
}

// build initializes logging, storage, the run ledger, and the engine.
func build(app *application) (*runtimeParts, error) {
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	// The vault and its input directory are preconditions; the output and
	// archive directories are created on demand.
	inputAbs := filepath.Join(cfg.Vault.Path, cfg.Vault.InputDir)
	if info, err := os.Stat(inputAbs); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("input directory does not exist: %s", inputAbs)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	var ledger history.Ledger
	if cfg.History.Enabled() {
		db, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("init history: %w", err)
		}
		ledger = db
	}

	eng := engine.New(store, engine.Options{
		InputDir:   cfg.Vault.InputDir,
		OutputDir:  cfg.Vault.ResolvedOutputDir(),
		ArchiveDir: cfg.Vault.ArchivePath(),
		Ext:        cfg.Vault.Extension,
		History:    ledger,
		Logger:     logger,
	})

	logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("input_dir", cfg.Vault.InputDir),
		slog.String("output_dir", cfg.Vault.ResolvedOutputDir()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	return &runtimeParts{logger: logger, store: store, ledger: ledger, eng: eng, cfg: cfg}, nil
}

// runner serializes aggregation runs and publishes their lifecycle events.
type runner struct {
	mu     sync.Mutex
	eng    *engine.Engine
	broker *sse.Broker // nil outside serve mode
	logger *slog.Logger
}

// RunOnce discovers and processes all pending daily documents.
func (r *runner) RunOnce(ctx context.Context) (*engine.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.broker != nil {
		r.broker.Publish(sse.Event{Type: sse.EventRunStarted, Data: map[string]any{
			"at": time.Now().Format(time.RFC3339),
		}})
	}

	docs, diags, err := r.eng.Discover()
	if err != nil {
		return nil, err
	}
	res, err := r.eng.Process(ctx, docs)
	if err != nil {
		return nil, err
	}
	res.Diagnostics = append(diags, res.Diagnostics...)

	for _, d := range res.Diagnostics {
		r.logger.Warn("diagnostic",
			slog.String("path", d.Path),
			slog.String("kind", d.Kind),
			slog.String("reason", d.Reason))
	}
	if r.broker != nil {
		r.broker.Publish(sse.Event{Type: sse.EventRunCompleted, Data: res})
	}
	return res, nil
}

// RunOnce executes a single aggregation run and exits.
func RunOnce(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}

	parts, err := build(app)
	if err != nil {
		return err
	}
	defer parts.close()

	r := &runner{eng: parts.eng, logger: parts.logger}
	if _, err := r.RunOnce(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// ServeMCP exposes the aggregator over MCP stdio transport.
func ServeMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}

	parts, err := build(app)
	if err != nil {
		return err
	}
	defer parts.close()
	cfg := parts.cfg

	run := &runner{eng: parts.eng, logger: parts.logger}
	svc := api.NewService(run, parts.ledger, parts.store,
		cfg.Vault.ResolvedOutputDir(), cfg.Vault.Extension)

	return mcpserver.New(svc).ServeStdio()
}

// Serve starts the status server and, when enabled, the input watcher.
func Serve(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}

	parts, err := build(app)
	if err != nil {
		return err
	}
	defer parts.close()
	cfg := parts.cfg

	broker := sse.NewBroker()
	defer broker.Close()

	run := &runner{eng: parts.eng, broker: broker, logger: parts.logger}

	svc := api.NewService(run, parts.ledger, parts.store,
		cfg.Vault.ResolvedOutputDir(), cfg.Vault.Extension)
	apiRouter := api.NewRouter(svc, cfg.Serve.Auth.AuthEnabled(), cfg.Serve.Auth.Token, broker)

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

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.Serve.HTTP.Address(),
		Handler: r,
	}

	parts.logger.Info("Server starting...", slog.String("http_address", cfg.Serve.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the input root and aggregate when new daily notes land.
	if cfg.Serve.Watch.Enabled {
		inputAbs := filepath.Join(parts.store.Root(), cfg.Vault.InputDir)
		debounce := time.Duration(cfg.Serve.Watch.DebounceMS) * time.Millisecond
		g.Go(func() error {
			return watch.Watch(gCtx, inputAbs, cfg.Vault.Extension, debounce, parts.logger, func() {
				if _, err := run.RunOnce(gCtx); err != nil {
					parts.logger.Error("watch run failed", slog.String("error", err.Error()))
				}
			})
		})
	}

	// Start HTTP server.
	g.Go(func() error {
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
			parts.logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			parts.logger.Info("Context cancelled, initiating shutdown")
		}

		parts.logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			parts.logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		parts.logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	parts.logger.Info("Server stopped successfully")
	return nil
}
