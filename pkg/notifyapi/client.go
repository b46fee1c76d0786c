package notifyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/metrics"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
)

const maxErrorBody = 512

// Client talks to the notification REST API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, baseURL)
	}

	c := &Client{
		baseURL: u,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("notifyapi: cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	c.logger = logger.OrDefault(c.logger)

	return c, nil
}

// BaseURL returns a copy of the API root.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Jar returns the cookie jar holding the session cookie.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// List fetches one page of the current user's notifications. Invalid items
// are dropped.
func (c *Client) List(ctx context.Context, page, limit int) ([]notifications.Notification, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var env Envelope[json.RawMessage]
	if err := c.do(ctx, http.MethodGet, RouteNotifications, RouteNotifications+"?"+q.Encode(), nil, &env); err != nil {
		return nil, err
	}

	list, dropped, err := notifications.DecodeList(env.Data)
	if err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	if dropped > 0 {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "dropped invalid notifications from list",
			logger.Component("notifyapi"),
			logger.Count(dropped),
		)
	}
	return list, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var env Envelope[UnreadCount]
	if err := c.do(ctx, http.MethodGet, RouteUnreadCount, RouteUnreadCount, nil, &env); err != nil {
		return 0, err
	}
	return max(env.Data.Count, 0), nil
}

// MarkRead marks one notification read. Returns ErrNotFound for an unknown id.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	path := "/notifications/" + url.PathEscape(id) + "/read"
	return c.do(ctx, http.MethodPatch, RouteMarkRead, path, nil, nil)
}

func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPatch, RouteMarkAllRead, RouteMarkAllRead, nil, nil)
}

// Delete removes one notification. Returns ErrNotFound for an unknown id.
func (c *Client) Delete(ctx context.Context, id string) error {
	path := "/notifications/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, RouteNotification, path, nil, nil)
}

func (c *Client) DeleteAll(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, RouteNotifications, RouteNotifications, nil, nil)
}

// Create posts a new notification for the current user.
func (c *Client) Create(ctx context.Context, req notifications.CreateRequest) (notifications.Notification, error) {
	var env Envelope[json.RawMessage]
	if err := c.do(ctx, http.MethodPost, RouteNotifications, RouteNotifications, req, &env); err != nil {
		return notifications.Notification{}, err
	}
	n, err := notifications.Decode(env.Data)
	if err != nil {
		return notifications.Notification{}, errors.Join(ErrDecode, err)
	}
	return n, nil
}

// ResolveSession asks the backend who owns the session cookie. An anonymous
// session yields ErrUnauthorized.
func (c *Client) ResolveSession(ctx context.Context) (Identity, error) {
	var id Identity
	if err := c.do(ctx, http.MethodGet, RouteSocketAuth, RouteSocketAuth, nil, &id); err != nil {
		return Identity{}, err
	}
	if !id.Authenticated || id.UserID == "" {
		return Identity{}, ErrUnauthorized
	}
	return id, nil
}

// Login starts a development session for userID; the cookie lands in the jar.
func (c *Client) Login(ctx context.Context, userID string) (Identity, error) {
	var env Envelope[Identity]
	if err := c.do(ctx, http.MethodPost, RouteSession, RouteSession, LoginRequest{UserID: userID}, &env); err != nil {
		return Identity{}, err
	}
	return env.Data, nil
}

// do sends a JSON request and decodes a 2xx body into out when non-nil.
// route is the templated path used as the metric label.
func (c *Client) do(ctx context.Context, method, route, path string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("notifyapi: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("notifyapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordAPIRequest(method, route, 0, time.Since(start))
		return fmt.Errorf("notifyapi: %s %s: %w", method, route, err)
	}
	defer resp.Body.Close()
	metrics.RecordAPIRequest(method, route, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Join(ErrDecode, err)
	}
	if f, ok := out.(interface{ failed() (bool, string) }); ok {
		if failed, msg := f.failed(); failed {
			return fmt.Errorf("%w: %s", ErrRequestFailed, msg)
		}
	}
	return nil
}

func (e *Envelope[T]) failed() (bool, string) {
	return !e.Success, e.Message
}
