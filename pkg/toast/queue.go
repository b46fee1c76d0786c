package toast

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/notifykit/pkg/broadcast"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/metrics"
)

const progressSteps = 100

type entry struct {
	item    Item
	gen     uint64        // bumped whenever timers are re-armed or stopped
	armedAt time.Time     // when the current countdown started
	left    time.Duration // time left at armedAt
	dismiss clockwork.Timer
	tick    clockwork.Timer
}

// Queue is a bounded FIFO of toasts. It is safe for concurrent use.
type Queue struct {
	clock    clockwork.Clock
	logger   *slog.Logger
	capacity int
	duration time.Duration
	events   *broadcast.MemoryBroadcaster[[]Item]

	mu      sync.Mutex
	entries []*entry
	closed  bool
}

func NewQueue(opts ...Option) *Queue {
	cfg := DefaultConfig()
	q := &Queue{
		clock:    clockwork.NewRealClock(),
		capacity: cfg.Capacity,
		duration: cfg.Duration,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.logger = logger.OrDefault(q.logger).With(logger.Component("toast"))
	q.events = broadcast.NewMemoryBroadcaster[[]Item](16,
		broadcast.WithPolicy(broadcast.DropOldest),
		broadcast.WithDropHook(func() { metrics.RecordBroadcastDrop("toast") }),
	)
	return q
}

// Enqueue shows item, evicting the oldest toast when the queue is full. The
// returned copy carries the assigned ID and defaults.
func (q *Queue) Enqueue(item Item) Item {
	item.ID = uuid.NewString()
	if item.Duration <= 0 {
		item.Duration = q.duration
	}
	item.Remaining = 100
	item.Paused = false

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return item
	}

	for len(q.entries) >= q.capacity {
		evicted := q.entries[0]
		q.stop(evicted)
		q.entries = q.entries[1:]
		metrics.RecordToastEviction()
		q.logger.LogAttrs(context.Background(), slog.LevelDebug, "toast evicted", logger.ToastID(evicted.item.ID))
	}

	e := &entry{item: item}
	q.entries = append(q.entries, e)
	q.arm(e, item.Duration)
	q.publishLocked()
	return item
}

// Pause freezes the countdown of id. Reports whether the item was found running.
func (q *Queue) Pause(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := q.find(id)
	if e == nil || e.item.Paused {
		return false
	}

	e.left = q.leftAt(e, q.clock.Now())
	e.item.Remaining = percent(e.left, e.item.Duration)
	e.item.Paused = true
	q.stop(e)
	q.publishLocked()
	return true
}

// Resume continues a paused countdown for the time that was left at Pause.
func (q *Queue) Resume(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := q.find(id)
	if e == nil || !e.item.Paused {
		return false
	}

	e.item.Paused = false
	q.arm(e, e.left)
	q.publishLocked()
	return true
}

// Dismiss removes id. Unknown ids are a no-op.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(id, 0, false)
}

// Items returns the visible toasts oldest first.
func (q *Queue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.itemsLocked()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Subscribe returns a subscriber receiving the visible toasts after every change.
func (q *Queue) Subscribe(ctx context.Context) broadcast.Subscriber[[]Item] {
	return q.events.Subscribe(ctx)
}

// Close stops every timer, drops all toasts and closes subscribers.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	for _, e := range q.entries {
		q.stop(e)
	}
	q.entries = nil
	q.mu.Unlock()

	return q.events.Close()
}

// Must be called with lock held.
func (q *Queue) arm(e *entry, left time.Duration) {
	q.stop(e)
	gen := e.gen
	id := e.item.ID

	e.armedAt = q.clock.Now()
	e.left = left
	e.item.Remaining = percent(left, e.item.Duration)
	e.dismiss = q.clock.AfterFunc(left, func() { q.expire(id, gen) })
	q.scheduleTick(e, gen)
}

// Must be called with lock held.
func (q *Queue) scheduleTick(e *entry, gen uint64) {
	step := e.item.Duration / progressSteps
	if step <= 0 {
		return
	}
	id := e.item.ID
	e.tick = q.clock.AfterFunc(step, func() { q.progress(id, gen) })
}

// Must be called with lock held. Invalidates pending callbacks of e.
func (q *Queue) stop(e *entry) {
	e.gen++
	if e.dismiss != nil {
		e.dismiss.Stop()
		e.dismiss = nil
	}
	if e.tick != nil {
		e.tick.Stop()
		e.tick = nil
	}
}

func (q *Queue) expire(id string, gen uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removeLocked(id, gen, true)
}

func (q *Queue) progress(id string, gen uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := q.find(id)
	if q.closed || e == nil || e.gen != gen {
		return
	}
	e.item.Remaining = percent(q.leftAt(e, q.clock.Now()), e.item.Duration)
	q.scheduleTick(e, gen)
	q.publishLocked()
}

// Must be called with lock held. With checkGen set, only removes the entry if
// its generation still equals gen.
func (q *Queue) removeLocked(id string, gen uint64, checkGen bool) bool {
	if q.closed {
		return false
	}
	i := slices.IndexFunc(q.entries, func(e *entry) bool { return e.item.ID == id })
	if i < 0 {
		return false
	}
	e := q.entries[i]
	if checkGen && e.gen != gen {
		return false
	}
	q.stop(e)
	q.entries = slices.Delete(q.entries, i, i+1)
	q.publishLocked()
	return true
}

// Must be called with lock held.
func (q *Queue) find(id string) *entry {
	for _, e := range q.entries {
		if e.item.ID == id {
			return e
		}
	}
	return nil
}

// Must be called with lock held.
func (q *Queue) leftAt(e *entry, now time.Time) time.Duration {
	if e.item.Paused {
		return e.left
	}
	return max(e.left-now.Sub(e.armedAt), 0)
}

// Must be called with lock held.
func (q *Queue) itemsLocked() []Item {
	now := q.clock.Now()
	items := make([]Item, len(q.entries))
	for i, e := range q.entries {
		items[i] = e.item
		items[i].Remaining = percent(q.leftAt(e, now), e.item.Duration)
	}
	return items
}

// Must be called with lock held.
func (q *Queue) publishLocked() {
	_ = q.events.Broadcast(context.Background(), broadcast.Message[[]Item]{Data: q.itemsLocked()})
}

func percent(left, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return min(float64(left)/float64(total)*100, 100)
}
