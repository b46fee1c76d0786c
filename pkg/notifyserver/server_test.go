package notifyserver_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
	"github.com/dmitrymomot/notifykit/pkg/notifyapi"
	"github.com/dmitrymomot/notifykit/pkg/notifyserver"
)

type backend struct {
	srv       *httptest.Server
	manager   *notifications.Manager
	deliverer *notifications.BroadcastDeliverer
}

func newBackend(t *testing.T, opts ...notifyserver.Option) *backend {
	t.Helper()
	deliverer := notifications.NewBroadcastDeliverer(16, notifications.WithBroadcastLogger(logger.Discard()))
	manager := notifications.NewManager(notifications.NewMemoryStorage(), deliverer,
		notifications.WithManagerLogger(logger.Discard()))
	srv := httptest.NewServer(notifyserver.New(manager, deliverer,
		append([]notifyserver.Option{notifyserver.WithLogger(logger.Discard())}, opts...)...))
	t.Cleanup(func() {
		_ = deliverer.Close()
		srv.Close()
	})
	return &backend{srv: srv, manager: manager, deliverer: deliverer}
}

func (b *backend) client(t *testing.T) *notifyapi.Client {
	t.Helper()
	c, err := notifyapi.New(b.srv.URL, notifyapi.WithLogger(logger.Discard()))
	require.NoError(t, err)
	return c
}

func (b *backend) login(t *testing.T, userID string) *notifyapi.Client {
	t.Helper()
	c := b.client(t)
	id, err := c.Login(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, userID, id.UserID)
	return c
}

func createReq(title string) notifications.CreateRequest {
	return notifications.CreateRequest{
		Title:   title,
		Message: title + " message",
		Type:    notifications.TypeSystem,
	}
}

func TestServer_Session(t *testing.T) {
	t.Parallel()

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		c := b.client(t)

		_, err := c.ResolveSession(context.Background())
		assert.ErrorIs(t, err, notifyapi.ErrUnauthorized)

		_, err = c.List(context.Background(), 1, 20)
		assert.ErrorIs(t, err, notifyapi.ErrUnauthorized)
	})

	t.Run("login sets http-only cookie", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)

		resp, err := http.Post(b.srv.URL+notifyapi.RouteSession, "application/json", strings.NewReader(`{"userId":"alice"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		cookies := resp.Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "notifykit_session", cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	})

	t.Run("login requires user id", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)

		_, err := b.client(t).Login(context.Background(), "")
		var se *notifyapi.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	})

	t.Run("resolve session", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		c := b.login(t, "alice")

		id, err := c.ResolveSession(context.Background())
		require.NoError(t, err)
		assert.True(t, id.Authenticated)
		assert.Equal(t, "alice", id.UserID)
	})

	t.Run("logout", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		c := b.login(t, "alice")

		req, err := http.NewRequest(http.MethodDelete, b.srv.URL+notifyapi.RouteSession, nil)
		require.NoError(t, err)
		hc := &http.Client{Jar: c.Jar()}
		resp, err := hc.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		_, err = c.ResolveSession(context.Background())
		assert.ErrorIs(t, err, notifyapi.ErrUnauthorized)
	})
}

func TestServer_Notifications(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("create list count", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		c := b.login(t, "alice")

		first, err := c.Create(ctx, createReq("first"))
		require.NoError(t, err)
		assert.Equal(t, "alice", first.UserID)
		assert.False(t, first.Read)
		assert.True(t, first.Active)
		assert.Equal(t, notifications.PriorityMedium, first.Priority)

		_, err = c.Create(ctx, createReq("second"))
		require.NoError(t, err)

		list, err := c.List(ctx, 1, 20)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "second", list[0].Title)

		page, err := c.List(ctx, 2, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "first", page[0].Title)

		count, err := c.UnreadCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("users are isolated", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		alice := b.login(t, "alice")
		bob := b.login(t, "bob")

		n, err := alice.Create(ctx, createReq("private"))
		require.NoError(t, err)

		list, err := bob.List(ctx, 1, 20)
		require.NoError(t, err)
		assert.Empty(t, list)
		assert.ErrorIs(t, bob.MarkRead(ctx, n.ID), notifyapi.ErrNotFound)
		assert.ErrorIs(t, bob.Delete(ctx, n.ID), notifyapi.ErrNotFound)
	})

	t.Run("invalid create", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		c := b.login(t, "alice")

		_, err := c.Create(ctx, notifications.CreateRequest{Title: "x", Message: "y", Type: "bogus"})
		var se *notifyapi.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	})

	t.Run("mark read", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		c := b.login(t, "alice")
		n, err := c.Create(ctx, createReq("a"))
		require.NoError(t, err)

		require.NoError(t, c.MarkRead(ctx, n.ID))
		require.NoError(t, c.MarkRead(ctx, n.ID))
		assert.ErrorIs(t, c.MarkRead(ctx, "missing"), notifyapi.ErrNotFound)

		count, err := c.UnreadCount(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("mark all read", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		c := b.login(t, "alice")
		for _, title := range []string{"a", "b", "c"} {
			_, err := c.Create(ctx, createReq(title))
			require.NoError(t, err)
		}

		require.NoError(t, c.MarkAllRead(ctx))
		list, err := c.List(ctx, 1, 20)
		require.NoError(t, err)
		for _, n := range list {
			assert.True(t, n.Read)
		}
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		c := b.login(t, "alice")
		n, err := c.Create(ctx, createReq("a"))
		require.NoError(t, err)
		_, err = c.Create(ctx, createReq("b"))
		require.NoError(t, err)

		require.NoError(t, c.Delete(ctx, n.ID))
		assert.ErrorIs(t, c.Delete(ctx, n.ID), notifyapi.ErrNotFound)

		list, err := c.List(ctx, 1, 20)
		require.NoError(t, err)
		require.Len(t, list, 1)

		require.NoError(t, c.DeleteAll(ctx))
		list, err = c.List(ctx, 1, 20)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("page size is capped", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t, notifyserver.WithConfig(notifyserver.Config{MaxPageSize: 2}))
		c := b.login(t, "alice")
		for _, title := range []string{"a", "b", "c"} {
			_, err := c.Create(ctx, createReq(title))
			require.NoError(t, err)
		}

		list, err := c.List(ctx, 1, 50)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})
}

func TestServer_Infrastructure(t *testing.T) {
	t.Parallel()

	t.Run("request id", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)

		resp, err := http.Get(b.srv.URL + "/healthz")
		require.NoError(t, err)
		resp.Body.Close()
		assert.NotEmpty(t, resp.Header.Get(notifyserver.RequestIDHeader))

		req, err := http.NewRequest(http.MethodGet, b.srv.URL+"/healthz", nil)
		require.NoError(t, err)
		req.Header.Set(notifyserver.RequestIDHeader, "abc-123")
		resp, err = http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "abc-123", resp.Header.Get(notifyserver.RequestIDHeader))

		req.Header.Set(notifyserver.RequestIDHeader, "bad id!")
		resp, err = http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.NotEqual(t, "bad id!", resp.Header.Get(notifyserver.RequestIDHeader))
	})

	t.Run("readiness", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t, notifyserver.WithReadinessChecks(func(context.Context) error {
			return errors.New("redis down")
		}))

		resp, err := http.Get(b.srv.URL + "/readyz")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		resp, err = http.Get(b.srv.URL + "/healthz")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("metrics", func(t *testing.T) {
		t.Parallel()
		b := newBackend(t)
		b.login(t, "alice")

		resp, err := http.Get(b.srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "notifykit_server_request_duration_seconds")
	})

	t.Run("request id in logs", func(t *testing.T) {
		t.Parallel()
		_, ok := notifyserver.RequestIDExtractor()(context.Background())
		assert.False(t, ok)

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithTextFormatter(),
			logger.WithLevel(slog.LevelDebug),
			logger.WithContextExtractors(notifyserver.RequestIDExtractor()),
		)
		b := newBackend(t)
		srv := notifyserver.New(b.manager, b.deliverer, notifyserver.WithLogger(log))

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(notifyserver.RequestIDHeader, "req-1")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, "req-1", rec.Header().Get(notifyserver.RequestIDHeader))
		assert.Contains(t, buf.String(), "request_id=req-1")
		assert.Contains(t, buf.String(), "route=/healthz")
	})
}
