package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/notifykit/pkg/cache"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
)

const (
	pollLimit    = 20
	seenCapacity = 1024
)

// Lister is the part of the REST API the polling transport needs.
type Lister interface {
	List(ctx context.Context, page, limit int) ([]notifications.Notification, error)
}

// PollingDialer emulates a push connection by polling the first page of the
// notification list. The poll made while dialing only records what already
// exists; later polls emit notifications not seen before, oldest first.
type PollingDialer struct {
	api      Lister
	interval time.Duration
	clock    clockwork.Clock
}

type PollingOption func(*PollingDialer)

func WithPollInterval(d time.Duration) PollingOption {
	return func(p *PollingDialer) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithPollClock(c clockwork.Clock) PollingOption {
	return func(p *PollingDialer) {
		if c != nil {
			p.clock = c
		}
	}
}

func NewPollingDialer(api Lister, opts ...PollingOption) *PollingDialer {
	p := &PollingDialer{
		api:      api,
		interval: DefaultConfig().PollInterval,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PollingDialer) Name() string { return "polling" }

func (p *PollingDialer) Dial(ctx context.Context) (Conn, error) {
	c := &pollConn{
		dialer: p,
		seen:   cache.NewLRU[string, struct{}](seenCapacity),
		done:   make(chan struct{}),
	}
	list, err := p.api.List(ctx, 1, pollLimit)
	if err != nil {
		return nil, fmt.Errorf("initial poll: %w", err)
	}
	for _, n := range list {
		c.seen.Put(n.ID, struct{}{})
	}
	return c, nil
}

type pollConn struct {
	dialer  *PollingDialer
	seen    *cache.LRU[string, struct{}]
	pending []Message

	closeOnce sync.Once
	done      chan struct{}
}

// Send accepts every event; the REST session already identifies the user.
func (c *pollConn) Send(_ context.Context, _ Message) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
		return nil
	}
}

// Receive is called from a single reader goroutine.
func (c *pollConn) Receive(ctx context.Context) (Message, error) {
	for len(c.pending) == 0 {
		select {
		case <-c.done:
			return Message{}, ErrConnClosed
		case <-ctx.Done():
			return Message{}, fmt.Errorf("%w: %w", ErrConnClosed, ctx.Err())
		case <-c.dialer.clock.After(c.dialer.interval):
		}

		if err := c.poll(ctx); err != nil {
			return Message{}, err
		}
	}

	msg := c.pending[0]
	c.pending = c.pending[1:]
	return msg, nil
}

func (c *pollConn) poll(ctx context.Context) error {
	list, err := c.dialer.api.List(ctx, 1, pollLimit)
	if err != nil {
		return fmt.Errorf("poll notifications: %w", err)
	}
	for i := len(list) - 1; i >= 0; i-- {
		n := list[i]
		if _, ok := c.seen.Get(n.ID); ok {
			continue
		}
		c.seen.Put(n.ID, struct{}{})
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("encode notification: %w", err)
		}
		c.pending = append(c.pending, Message{Event: EventReceiveNotification, Data: data})
	}
	return nil
}

func (c *pollConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}
