package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"olist-dashboard/internal/config"
)

const hookTimeout = 10 * time.Second

type shutdownHook struct {
	name string
	fn   func(ctx context.Context) error
}

// GracefulServer runs an http.Server until it fails or its context ends, then
// drains connections and runs the registered hooks.
type GracefulServer struct {
	server *http.Server
	logger *slog.Logger
	config config.ServerConfig

	mu    sync.Mutex
	hooks []shutdownHook
}

func NewGracefulServer(server *http.Server, logger *slog.Logger, cfg config.ServerConfig) *GracefulServer {
	return &GracefulServer{server: server, logger: logger, config: cfg}
}

// RegisterShutdownHook adds fn to run once the HTTP server has stopped
// accepting requests, e.g. closing the dataset store.
func (gs *GracefulServer) RegisterShutdownHook(name string, fn func(ctx context.Context) error) {
	gs.mu.Lock()
	gs.hooks = append(gs.hooks, shutdownHook{name: name, fn: fn})
	gs.mu.Unlock()
}

// ListenAndServe serves until SIGINT or SIGTERM.
func (gs *GracefulServer) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return gs.Run(ctx)
}

// Run serves until ctx is done. A listener failure is returned without
// running the hooks.
func (gs *GracefulServer) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		gs.logger.Info("starting server",
			"addr", gs.server.Addr,
			"read_timeout", gs.config.ReadTimeout,
			"write_timeout", gs.config.WriteTimeout,
		)
		serveErr <- gs.server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		gs.logger.Info("shutdown requested", "cause", context.Cause(ctx))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), gs.config.ShutdownTimeout)
	defer cancel()
	return gs.shutdown(shutdownCtx)
}

func (gs *GracefulServer) shutdown(ctx context.Context) error {
	gs.logger.Info("stopping HTTP server", "timeout", gs.config.ShutdownTimeout)

	var errs []error
	if err := gs.server.Shutdown(ctx); err != nil {
		gs.logger.Error("HTTP server shutdown failed", "error", err)
		errs = append(errs, fmt.Errorf("HTTP server shutdown failed: %w", err))
	}

	gs.mu.Lock()
	hooks := append([]shutdownHook(nil), gs.hooks...)
	gs.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, hook := range hooks {
		g.Go(func() error {
			hookCtx, cancel := context.WithTimeout(gctx, hookTimeout)
			defer cancel()

			if err := hook.fn(hookCtx); err != nil {
				gs.logger.Error("shutdown hook failed", "hook", hook.name, "error", err)
				return fmt.Errorf("shutdown hook %s failed: %w", hook.name, err)
			}
			gs.logger.Debug("shutdown hook completed", "hook", hook.name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		gs.logger.Info("graceful shutdown completed")
	}
	return errors.Join(errs...)
}
