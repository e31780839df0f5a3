package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olist-dashboard/internal/config"
)

func newGraceful(addr string) *GracefulServer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGracefulServer(
		&http.Server{Addr: addr, Handler: http.NotFoundHandler()},
		logger,
		config.ServerConfig{ShutdownTimeout: 5 * time.Second},
	)
}

func TestGracefulServer_RunsHooksOnCancel(t *testing.T) {
	gs := newGraceful("127.0.0.1:0")

	var closed atomic.Int32
	gs.RegisterShutdownHook("dataset store", func(context.Context) error {
		closed.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- gs.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, int32(1), closed.Load())
}

func TestGracefulServer_HookErrorsAreReturned(t *testing.T) {
	gs := newGraceful("127.0.0.1:0")
	boom := errors.New("close failed")
	gs.RegisterShutdownHook("ok", func(context.Context) error { return nil })
	gs.RegisterShutdownHook("broken", func(context.Context) error { return boom })

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := gs.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
}

func TestGracefulServer_ListenFailure(t *testing.T) {
	gs := newGraceful("127.0.0.1:-1")

	var ran atomic.Bool
	gs.RegisterShutdownHook("never", func(context.Context) error {
		ran.Store(true)
		return nil
	})

	err := gs.Run(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server failed")
	assert.False(t, ran.Load())
}
