package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/notifykit/pkg/broadcast"
	"github.com/dmitrymomot/notifykit/pkg/desktop"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/metrics"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
	"github.com/dmitrymomot/notifykit/pkg/notifyapi"
	"github.com/dmitrymomot/notifykit/pkg/statemachine"
	"github.com/dmitrymomot/notifykit/pkg/toast"
)

// SessionResolver resolves the identity owning the current session.
type SessionResolver interface {
	ResolveSession(ctx context.Context) (notifyapi.Identity, error)
}

// PushSink receives pushed notifications. ApplyPush reports false for a
// notification it already holds.
type PushSink interface {
	ApplyPush(n notifications.Notification) bool
}

// Toaster shows transient alerts.
type Toaster interface {
	Enqueue(item toast.Item) toast.Item
}

// Channel owns the single push connection of a client.
type Channel struct {
	resolver    SessionResolver
	dialer      Dialer
	store       PushSink
	toaster     Toaster
	desktop     desktop.Notifier
	clock       clockwork.Clock
	logger      *slog.Logger
	maxAttempts int
	retryDelay  time.Duration
	dialTimeout time.Duration

	machine *statemachine.Machine[State, event]
	events  *broadcast.MemoryBroadcaster[notifications.Notification]
	wg      sync.WaitGroup

	mu       sync.Mutex
	runCtx   context.Context
	cancel   context.CancelFunc
	gen      uint64 // bumped on Restart and Close; stale callbacks compare against it
	userID   string
	conn     Conn
	attempts int
	retry    clockwork.Timer
	err      error
	closed   bool
}

func New(resolver SessionResolver, dialer Dialer, opts ...Option) *Channel {
	cfg := DefaultConfig()
	c := &Channel{
		resolver:    resolver,
		dialer:      dialer,
		clock:       clockwork.NewRealClock(),
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		dialTimeout: cfg.DialTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.OrDefault(c.logger).With(logger.Component("realtime"))
	c.machine = newMachine(c.logger)
	c.events = broadcast.NewMemoryBroadcaster[notifications.Notification](16,
		broadcast.WithPolicy(broadcast.DropOldest),
		broadcast.WithDropHook(func() { metrics.RecordBroadcastDrop("realtime") }),
	)
	c.runCtx, c.cancel = context.WithCancel(context.Background())
	return c
}

// Start resolves the session identity and begins connecting in the
// background. An anonymous session leaves the channel idle and returns nil.
func (c *Channel) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.machine.Is(StateIdle) {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.fire(ctx, evStart)
	gen := c.gen
	c.mu.Unlock()

	id, err := c.resolver.ResolveSession(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.gen != gen {
		return ErrClosed
	}

	switch {
	case errors.Is(err, notifyapi.ErrUnauthorized) || (err == nil && (!id.Authenticated || id.UserID == "")):
		c.fire(ctx, evAnonymous)
		c.logger.LogAttrs(ctx, slog.LevelDebug, "anonymous session, staying idle")
		return nil
	case err != nil:
		c.fire(ctx, evResolveFailed)
		return fmt.Errorf("resolve session: %w", err)
	}

	c.userID = id.UserID
	c.attempts = 0
	c.err = nil
	c.fire(ctx, evIdentified)
	c.logger.LogAttrs(ctx, slog.LevelInfo, "session resolved", logger.UserID(id.UserID))
	c.connectLocked()
	return nil
}

// Restart drops the current connection, clears the failure state and starts over.
func (c *Channel) Restart(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	conn := c.resetLocked()
	c.runCtx, c.cancel = context.WithCancel(context.Background())
	c.attempts = 0
	c.err = nil
	c.machine.Reset()
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	c.logger.LogAttrs(ctx, slog.LevelInfo, "realtime channel restarting")
	return c.Start(ctx)
}

// Close stops reconnecting, closes the connection and every subscriber, and
// waits for background goroutines. It is safe to call more than once.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.resetLocked()
	c.fire(context.Background(), evClose)
	c.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}
	c.wg.Wait()
	return errors.Join(err, c.events.Close())
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	return c.machine.Current()
}

// Err returns ErrConnectionFailed once the channel gave up, nil otherwise.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// UserID returns the identity the channel authenticated as.
func (c *Channel) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// Subscribe returns a subscriber receiving every relayed notification.
func (c *Channel) Subscribe(ctx context.Context) broadcast.Subscriber[notifications.Notification] {
	return c.events.Subscribe(ctx)
}

// Must be called with lock held. Invalidates callbacks of the current run and
// returns the connection the caller has to close outside the lock.
func (c *Channel) resetLocked() Conn {
	c.gen++
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	c.cancel()
	conn := c.conn
	c.conn = nil
	return conn
}

// Must be called with lock held.
func (c *Channel) connectLocked() {
	gen := c.gen
	ctx := c.runCtx
	userID := c.userID
	c.wg.Add(1)
	go c.connect(ctx, gen, userID)
}

func (c *Channel) connect(ctx context.Context, gen uint64, userID string) {
	defer c.wg.Done()

	conn, err := c.dial(ctx, userID)

	c.mu.Lock()
	if c.closed || c.gen != gen {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}

	if err != nil {
		c.attempts++
		attempt := c.attempts
		metrics.RecordConnectAttempt(c.dialer.Name(), metrics.ConnectFailure)

		if attempt >= c.maxAttempts {
			c.err = fmt.Errorf("%w: %w", ErrConnectionFailed, err)
			c.fire(ctx, evGiveUp)
			c.mu.Unlock()
			c.logger.LogAttrs(ctx, slog.LevelError, "realtime connection failed, giving up",
				logger.Attempt(attempt),
				logger.Transport(c.dialer.Name()),
				logger.Error(err),
			)
			return
		}

		c.scheduleRetryLocked()
		c.fire(ctx, evConnectFailed)
		c.mu.Unlock()
		c.logger.LogAttrs(ctx, slog.LevelWarn, "realtime connection attempt failed",
			logger.Attempt(attempt),
			logger.Transport(c.dialer.Name()),
			logger.Duration(c.retryDelay),
			logger.Error(err),
		)
		return
	}

	c.attempts = 0
	c.err = nil
	c.conn = conn
	metrics.RecordConnectAttempt(c.dialer.Name(), metrics.ConnectSuccess)
	c.fire(ctx, evConnected)
	c.wg.Add(1)
	go c.read(ctx, gen, conn)
	c.mu.Unlock()

	c.logger.LogAttrs(ctx, slog.LevelInfo, "realtime connected",
		logger.UserID(userID),
		logger.Transport(c.dialer.Name()),
	)
}

// dial opens a connection and authenticates before anything is read from it.
func (c *Channel) dial(ctx context.Context, userID string) (Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()

	conn, err := c.dialer.Dial(dialCtx)
	if err != nil {
		return nil, err
	}

	msg, err := NewMessage(EventAuthenticate, AuthenticatePayload{UserID: userID})
	if err == nil {
		err = conn.Send(dialCtx, msg)
	}
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return conn, nil
}

// Must be called with lock held.
func (c *Channel) scheduleRetryLocked() {
	gen := c.gen
	c.retry = c.clock.AfterFunc(c.retryDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || c.gen != gen {
			return
		}
		c.retry = nil
		c.fire(c.runCtx, evRetryDue)
		c.connectLocked()
	})
}

func (c *Channel) read(ctx context.Context, gen uint64, conn Conn) {
	defer c.wg.Done()

	for {
		msg, err := conn.Receive(ctx)
		if errors.Is(err, ErrMalformedMessage) {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "dropping malformed push message", logger.Error(err))
			continue
		}
		if err != nil {
			c.disconnected(ctx, gen, conn, err)
			return
		}
		if !c.current(gen) {
			return
		}
		c.handle(ctx, msg)
	}
}

func (c *Channel) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.gen == gen
}

func (c *Channel) disconnected(ctx context.Context, gen uint64, conn Conn, cause error) {
	c.mu.Lock()
	if c.closed || c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.fire(ctx, evDisconnect)

	serverClosed := errors.Is(cause, ErrServerClosed)
	if serverClosed {
		c.fire(ctx, evReopen)
		c.connectLocked()
	} else {
		c.scheduleRetryLocked()
		c.fire(ctx, evRetry)
	}
	c.mu.Unlock()

	_ = conn.Close()
	if serverClosed {
		c.logger.LogAttrs(ctx, slog.LevelInfo, "server closed realtime connection, reopening")
		return
	}
	c.logger.LogAttrs(ctx, slog.LevelWarn, "realtime connection lost",
		logger.Duration(c.retryDelay),
		logger.Error(cause),
	)
}

// handle relays one inbound event. Runs on the reader goroutine only, so
// events are processed in arrival order.
func (c *Channel) handle(ctx context.Context, msg Message) {
	metrics.RecordRealtimeEvent(msg.Event)

	if msg.Event != EventReceiveNotification {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "ignoring push event", logger.Event(msg.Event))
		return
	}

	n, err := notifications.Decode(msg.Data)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "dropping invalid pushed notification", logger.Error(err))
		return
	}

	if c.store != nil && !c.store.ApplyPush(n) {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "ignoring redelivered notification", logger.NotificationID(n.ID))
		return
	}
	if c.toaster != nil {
		c.toaster.Enqueue(toast.FromNotification(n))
	}
	if c.desktop != nil && c.desktop.Permission() == desktop.PermissionGranted {
		if err := c.desktop.Show(ctx, n.Title, n.Message); err != nil {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "desktop notification failed",
				logger.NotificationID(n.ID),
				logger.Error(err),
			)
		}
	}

	_ = c.events.Broadcast(ctx, broadcast.Message[notifications.Notification]{Data: n})
}

// Must be called with lock held.
func (c *Channel) fire(ctx context.Context, ev event) {
	if err := c.machine.Fire(ctx, ev, nil); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "invalid realtime transition",
			logger.State(string(c.machine.Current())),
			logger.Event(string(ev)),
			logger.Error(err),
		)
	}
}
