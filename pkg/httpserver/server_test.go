package httpserver_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/httpserver"
	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// running is a server started on a random local port.
type running struct {
	srv  *httpserver.Server
	done chan error
	url  string
}

func start(t *testing.T, ctx context.Context, handler http.Handler, opts ...httpserver.Option) *running {
	t.Helper()
	started := make(chan struct{})
	opts = append([]httpserver.Option{
		httpserver.WithAddr("127.0.0.1:0"),
		httpserver.WithShutdownTimeout(100 * time.Millisecond),
		httpserver.WithLogger(logger.Discard()),
	}, opts...)
	opts = append(opts, httpserver.WithStartHook(func(*slog.Logger) { close(started) }))

	r := &running{srv: httpserver.New(opts...), done: make(chan error, 1)}
	go func() { r.done <- r.srv.Run(ctx, handler) }()

	select {
	case <-started:
	case err := <-r.done:
		t.Fatalf("server did not start: %v", err)
	case <-time.After(time.Second):
		t.Fatal("server did not start")
	}
	r.url = "http://" + r.srv.Addr().String()
	return r
}

func (r *running) wait(t *testing.T) {
	t.Helper()
	select {
	case err := <-r.done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		require.Fail(t, "run did not return")
	}
}

func noContent(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

func TestServer_Lifecycle(t *testing.T) {
	t.Parallel()

	t.Run("serves until context is cancelled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		r := start(t, ctx, http.HandlerFunc(noContent))

		resp, err := http.Get(r.url)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		cancel()
		r.wait(t)
		assert.NoError(t, r.srv.Shutdown(context.Background()))
	})

	t.Run("manual shutdown is idempotent", func(t *testing.T) {
		t.Parallel()
		r := start(t, context.Background(), nil)

		require.NoError(t, r.srv.Shutdown(context.Background()))
		require.NoError(t, r.srv.Shutdown(context.Background()))
		r.wait(t)
	})

	t.Run("addr is nil before run", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, httpserver.New().Addr())
	})

	t.Run("nil handler answers 404", func(t *testing.T) {
		t.Parallel()
		r := start(t, context.Background(), nil)
		defer func() {
			_ = r.srv.Shutdown(context.Background())
			r.wait(t)
		}()

		resp, err := http.Get(r.url + "/notifications")
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServer_StartErrors(t *testing.T) {
	t.Parallel()

	t.Run("invalid address", func(t *testing.T) {
		t.Parallel()
		err := httpserver.New(httpserver.WithAddr(":invalid")).Run(context.Background(), nil)
		assert.ErrorIs(t, err, httpserver.ErrStart)
	})

	t.Run("address in use", func(t *testing.T) {
		t.Parallel()
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer ln.Close()

		err = httpserver.New(httpserver.WithAddr(ln.Addr().String())).Run(context.Background(), nil)
		assert.ErrorIs(t, err, httpserver.ErrStart)
	})

	t.Run("already running", func(t *testing.T) {
		t.Parallel()
		r := start(t, context.Background(), nil)

		err := r.srv.Run(context.Background(), nil)
		assert.ErrorIs(t, err, httpserver.ErrStart)

		require.NoError(t, r.srv.Shutdown(context.Background()))
		r.wait(t)
	})
}

func TestServer_Shutdown(t *testing.T) {
	t.Parallel()

	t.Run("hooks run around the lifecycle", func(t *testing.T) {
		t.Parallel()
		var drained, stopped atomic.Bool
		r := start(t, context.Background(), nil,
			httpserver.WithDrainHook(func(*slog.Logger) { drained.Store(true) }),
			httpserver.WithStopHook(func(*slog.Logger) { stopped.Store(true) }),
		)
		assert.False(t, drained.Load())

		require.NoError(t, r.srv.Shutdown(context.Background()))
		r.wait(t)
		assert.True(t, stopped.Load())
		assert.Eventually(t, drained.Load, time.Second, 10*time.Millisecond)
	})

	t.Run("long-lived requests see cancellation", func(t *testing.T) {
		t.Parallel()
		entered := make(chan struct{})
		cancelled := make(chan struct{})
		r := start(t, context.Background(), http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
			close(entered)
			<-req.Context().Done()
			close(cancelled)
		}))

		go func() {
			resp, err := http.Get(r.url + "/socket")
			if err == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
			}
		}()
		<-entered

		require.NoError(t, r.srv.Shutdown(context.Background()))
		r.wait(t)
		select {
		case <-cancelled:
		case <-time.After(time.Second):
			require.Fail(t, "request context was not cancelled on shutdown")
		}
	})
}

// Not parallel: the signal reaches every running server in the process.
func TestServer_SignalShutdown(t *testing.T) {
	r := start(t, context.Background(), nil)

	p, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NoError(t, p.Signal(syscall.SIGTERM))
	r.wait(t)
}

func TestServer_Options(t *testing.T) {
	t.Parallel()

	t.Run("applied to the http server", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		hs := &http.Server{}
		r := start(t, context.Background(), nil,
			httpserver.WithServer(hs),
			httpserver.WithReadTimeout(time.Second),
			httpserver.WithWriteTimeout(2*time.Second),
			httpserver.WithIdleTimeout(3*time.Second),
			httpserver.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		)

		assert.Equal(t, "127.0.0.1:0", hs.Addr)
		assert.Equal(t, time.Second, hs.ReadTimeout)
		assert.Equal(t, 2*time.Second, hs.WriteTimeout)
		assert.Equal(t, 3*time.Second, hs.IdleTimeout)
		assert.NotNil(t, hs.Handler)

		require.NoError(t, r.srv.Shutdown(context.Background()))
		r.wait(t)
		assert.Contains(t, buf.String(), "http server listening")
		assert.Contains(t, buf.String(), "http server stopped")
		assert.Contains(t, buf.String(), "component=httpserver")
	})

	t.Run("preset server timeouts win", func(t *testing.T) {
		t.Parallel()
		hs := &http.Server{ReadTimeout: 7 * time.Second}
		r := start(t, context.Background(), nil,
			httpserver.WithServer(hs),
			httpserver.WithReadTimeout(time.Second),
		)
		assert.Equal(t, 7*time.Second, hs.ReadTimeout)

		require.NoError(t, r.srv.Shutdown(context.Background()))
		r.wait(t)
	})

	t.Run("from config", func(t *testing.T) {
		t.Parallel()
		hs := &http.Server{}
		started := make(chan struct{})
		srv := httpserver.NewFromConfig(httpserver.Config{Addr: "127.0.0.1:0", WriteTimeout: 4 * time.Second},
			httpserver.WithServer(hs),
			httpserver.WithLogger(logger.Discard()),
			httpserver.WithStartHook(func(*slog.Logger) { close(started) }),
		)
		done := make(chan error, 1)
		go func() { done <- srv.Run(context.Background(), nil) }()
		<-started

		assert.Equal(t, 4*time.Second, hs.WriteTimeout)
		assert.Zero(t, hs.ReadTimeout)
		require.NoError(t, srv.Shutdown(context.Background()))
		require.NoError(t, <-done)
	})

	t.Run("invalid values panic", func(t *testing.T) {
		t.Parallel()
		for name, fn := range map[string]func(){
			"addr":       func() { httpserver.WithAddr("") },
			"read":       func() { httpserver.WithReadTimeout(-time.Second) },
			"write":      func() { httpserver.WithWriteTimeout(0) },
			"idle":       func() { httpserver.WithIdleTimeout(-time.Second) },
			"shutdown":   func() { httpserver.WithShutdownTimeout(0) },
			"server":     func() { httpserver.WithServer(nil) },
			"start hook": func() { httpserver.WithStartHook(nil) },
			"drain hook": func() { httpserver.WithDrainHook(nil) },
			"stop hook":  func() { httpserver.WithStopHook(nil) },
		} {
			assert.Panics(t, fn, name)
		}
		assert.NotPanics(t, func() { httpserver.WithLogger(nil) })
	})
}

func TestHealthCheckHandler(t *testing.T) {
	t.Parallel()
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("redis down") }

	tests := []struct {
		name   string
		checks []func(context.Context) error
		code   int
		body   string
	}{
		{"liveness", nil, http.StatusOK, "ALIVE"},
		{"ready", []func(context.Context) error{ok}, http.StatusOK, "READY"},
		{"not ready", []func(context.Context) error{ok, down}, http.StatusServiceUnavailable, "NOT_READY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			httpserver.HealthCheckHandler(logger.Discard(), tt.checks...).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}
