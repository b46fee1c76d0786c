package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/notifykit/pkg/notifications"
	"github.com/dmitrymomot/notifykit/pkg/notifyapi"
	"github.com/dmitrymomot/notifykit/pkg/realtime"
)

type fakeConn struct {
	incoming chan realtime.Message
	errs     chan error
	done     chan struct{}
	once     sync.Once

	mu   sync.Mutex
	sent []realtime.Message
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan realtime.Message, 16),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}
}

func (c *fakeConn) Send(_ context.Context, msg realtime.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) Receive(ctx context.Context) (realtime.Message, error) {
	select {
	case msg := <-c.incoming:
		return msg, nil
	case err := <-c.errs:
		return realtime.Message{}, err
	case <-c.done:
		return realtime.Message{}, realtime.ErrConnClosed
	case <-ctx.Done():
		return realtime.Message{}, ctx.Err()
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) Sent() []realtime.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]realtime.Message(nil), c.sent...)
}

func (c *fakeConn) push(n notifications.Notification) {
	data, _ := json.Marshal(n)
	c.incoming <- realtime.Message{Event: realtime.EventReceiveNotification, Data: data}
}

func (c *fakeConn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

var errDialRefused = errors.New("connection refused")

// fakeDialer fails while failing is set and otherwise hands out new fakeConns.
type fakeDialer struct {
	dials   atomic.Int32
	failing atomic.Bool

	mu    sync.Mutex
	conns []*fakeConn
}

func (d *fakeDialer) Name() string { return "fake" }

func (d *fakeDialer) Dial(context.Context) (realtime.Conn, error) {
	d.dials.Add(1)
	if d.failing.Load() {
		return nil, errDialRefused
	}
	conn := newFakeConn()
	d.mu.Lock()
	d.conns = append(d.conns, conn)
	d.mu.Unlock()
	return conn, nil
}

func (d *fakeDialer) last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

type fakeResolver struct {
	id  notifyapi.Identity
	err error
}

func (r fakeResolver) ResolveSession(context.Context) (notifyapi.Identity, error) {
	return r.id, r.err
}

var alice = fakeResolver{id: notifyapi.Identity{Authenticated: true, UserID: "alice"}}

type recordingSink struct {
	mu   sync.Mutex
	seen map[string]bool
	got  []notifications.Notification
}

func (s *recordingSink) ApplyPush(n notifications.Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[n.ID] {
		return false
	}
	s.seen[n.ID] = true
	s.got = append(s.got, n)
	return true
}

func (s *recordingSink) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.got))
	for i, n := range s.got {
		ids[i] = n.ID
	}
	return ids
}

type recordingPresenter struct {
	mu     sync.Mutex
	titles []string
}

func (p *recordingPresenter) Present(_ context.Context, title, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.titles = append(p.titles, title)
	return nil
}

func (p *recordingPresenter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.titles)
}

func notification(id string) notifications.Notification {
	return notifications.Notification{
		ID:       id,
		Title:    "Title " + id,
		Message:  "Message " + id,
		Type:     notifications.TypeSystem,
		Priority: notifications.PriorityMedium,
	}
}
