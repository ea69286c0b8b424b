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

	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/history"
	"github.com/starford/raido/internal/hooks"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/tracker"
	"github.com/starford/raido/internal/trigger"
	"github.com/starford/raido/internal/verifier"
)

// NewRunner wires the pipeline components from configuration. It is shared
// by the hook subcommands, serve mode, and the MCP server. The returned
// history store may be nil when the database cannot be opened; the pipeline
// still works, it just stops keeping history.
func NewRunner(cfg *Config, logger *slog.Logger) (*hooks.Runner, history.Store, error) {
	store, err := storage.NewFS(cfg.StateDirPath())
	if err != nil {
		return nil, nil, fmt.Errorf("init state dir: %w", err)
	}

	tr := tracker.New(store)
	v := verifier.New(tr, &verifier.ShellRunner{Dir: cfg.Workspace.Root}, logger)

	rules, err := trigger.LoadRules(cfg.RulesPath())
	if err != nil {
		// Unparseable rules degrade to zero rules.
		logger.Warn("rules load failed", slog.String("error", err.Error()))
		rules = nil
	}
	matcher := trigger.NewMatcher(rules, logger)

	var hist history.Store
	db, err := history.Open(cfg.SQLitePath())
	if err != nil {
		logger.Warn("history disabled", slog.String("error", err.Error()))
	} else {
		hist = db
	}

	return hooks.NewRunner(tr, v, matcher, hist, logger), hist, nil
}

// Run starts serve mode with the given options: the status API, the SSE
// broker, and the rules hot-reload watcher.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("workspace_root", cfg.Workspace.Root),
		slog.String("rules_path", cfg.RulesPath()),
		slog.String("build_command", cfg.Build.Command),
		slog.String("log_level", cfg.App.LogLevel.String()))

	runner, hist, err := NewRunner(cfg, logger)
	if err != nil {
		return err
	}
	if hist != nil {
		defer hist.Close()
	}

	// SSE broker bridges pipeline events to dashboard clients.
	broker := sse.NewBroker()
	defer broker.Close()
	runner.SetEventCallback(func(kind string, data any) {
		broker.PublishPipelineEvent(kind, data)
	})

	apiRouter := api.NewRouter(runner, hist, cfg.Build.Command, cfg.Build.Timeout(),
		cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the rules file and hot-swap the matcher on change.
	g.Go(func() error {
		return trigger.Watch(gCtx, cfg.RulesPath(), logger, func(rules []models.Rule) {
			runner.SetMatcher(trigger.NewMatcher(rules, logger))
		})
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
