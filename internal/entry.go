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

	"github.com/starford/cravetown/internal/api"
	"github.com/starford/cravetown/internal/catalog"
	"github.com/starford/cravetown/internal/mcpserver"
	"github.com/starford/cravetown/internal/sse"
)

// Run starts the HTTP bridge with the given options.
func Run(ctx context.Context, opts ...Option) error {
	b, err := Open(opts...)
	if err != nil {
		return err
	}
	defer b.Close()

	cfg := b.Config
	logger := b.Logger

	dataDir, err := b.Prepare(ctx)
	if err != nil {
		return err
	}

	broker := sse.NewBroker(cfg.Events.Throttle)
	defer broker.Close()

	apiRouter := api.NewRouter(b.Registry, b.Service, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := NewRouter(apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if b.DB != nil && cfg.Catalog.Watch {
		g.Go(func() error {
			err := catalog.Watch(gCtx, b.DB, b.Store, dataDir, logger, broker.PublishFileEvent)
			if err != nil {
				logger.Error("watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// NewRouter builds the root router: request middleware, unauthenticated
// health checks and the API mounted under /api.
func NewRouter(apiRouter http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	health := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
	r.Get("/health/live", health)
	r.Get("/health/ready", health)

	r.Mount("/api", apiRouter)
	return r
}

// RunMCP serves the command registry as MCP tools over stdio until stdin
// closes.
func RunMCP(ctx context.Context, opts ...Option) error {
	b, err := Open(append([]Option{WithLogOutput(os.Stderr)}, opts...)...)
	if err != nil {
		return err
	}
	defer b.Close()

	if _, err := b.Prepare(ctx); err != nil {
		return err
	}

	b.Logger.Info("MCP server starting on stdio")
	return mcpserver.New(b.Registry, b.version).ServeStdio()
}
