package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/dmitrymomot/notifykit/pkg/notifyapi"
)

const defaultReadLimit = 1 << 20

// WebSocketDialer opens duplex websocket connections.
type WebSocketDialer struct {
	url       string
	client    *http.Client
	header    http.Header
	readLimit int64
}

type WebSocketOption func(*WebSocketDialer)

// WithCookieJar sends the session cookies stored in jar with the handshake.
func WithCookieJar(jar http.CookieJar) WebSocketOption {
	return func(d *WebSocketDialer) {
		// The handshake is bounded by the dial context; websocket rejects
		// clients with a Timeout.
		d.client = &http.Client{Jar: jar}
	}
}

func WithHeader(h http.Header) WebSocketOption {
	return func(d *WebSocketDialer) {
		d.header = h.Clone()
	}
}

// WithReadLimit caps the size of a single inbound frame. Default 1 MiB.
func WithReadLimit(n int64) WebSocketOption {
	return func(d *WebSocketDialer) {
		if n > 0 {
			d.readLimit = n
		}
	}
}

// NewWebSocketDialer dials rawURL, which may use the ws, wss, http or https scheme.
func NewWebSocketDialer(rawURL string, opts ...WebSocketOption) *WebSocketDialer {
	d := &WebSocketDialer{
		url:       rawURL,
		client:    &http.Client{},
		readLimit: defaultReadLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SocketURL returns the push endpoint of the REST API rooted at base.
func SocketURL(base *url.URL) string {
	u := *base
	u.Path = strings.TrimRight(u.Path, "/") + notifyapi.RouteSocket
	u.RawQuery = ""
	return u.String()
}

func (d *WebSocketDialer) Name() string { return "websocket" }

func (d *WebSocketDialer) Dial(ctx context.Context) (Conn, error) {
	c, _, err := websocket.Dial(ctx, d.url, &websocket.DialOptions{
		HTTPClient: d.client,
		HTTPHeader: d.header,
	})
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}
	c.SetReadLimit(d.readLimit)
	return &wsConn{conn: c}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Send(ctx context.Context, msg Message) error {
	if err := wsjson.Write(ctx, c.conn, msg); err != nil {
		return fmt.Errorf("write %s: %w", msg.Event, err)
	}
	return nil
}

func (c *wsConn) Receive(ctx context.Context) (Message, error) {
	typ, data, err := c.conn.Read(ctx)
	if err != nil {
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return Message{}, fmt.Errorf("%w: %w", ErrServerClosed, err)
		}
		if errors.Is(err, context.Canceled) {
			return Message{}, fmt.Errorf("%w: %w", ErrConnClosed, err)
		}
		return Message{}, fmt.Errorf("read message: %w", err)
	}
	if typ != websocket.MessageText {
		return Message{}, fmt.Errorf("%w: unexpected %s frame", ErrMalformedMessage, typ)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	return msg, nil
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
