package inbox

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/notifykit/pkg/async"
	"github.com/dmitrymomot/notifykit/pkg/broadcast"
	"github.com/dmitrymomot/notifykit/pkg/cache"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/metrics"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
)

// API is the backend the store reads from and confirms mutations with.
// *notifyapi.Client implements it.
type API interface {
	List(ctx context.Context, page, limit int) ([]notifications.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	Create(ctx context.Context, req notifications.CreateRequest) (notifications.Notification, error)
}

const (
	resourceList  = "list"
	resourceCount = "unread_count"
)

// Snapshot is a consistent copy of the store state.
type Snapshot struct {
	Notifications []notifications.Notification
	UnreadCount   int
	Loading       bool
	Err           error
}

// Store caches the notification list and unread count. It is safe for concurrent use.
type Store struct {
	api            API
	clock          clockwork.Clock
	logger         *slog.Logger
	ttl            time.Duration
	pageSize       int
	requestTimeout time.Duration

	group      singleflight.Group
	listStamp  *cache.Stamp
	countStamp *cache.Stamp
	events     *broadcast.MemoryBroadcaster[Snapshot]

	mu           sync.RWMutex
	list         []notifications.Notification
	unread       int
	listLoading  bool
	countLoading bool
	err          error
}

// New creates a store backed by api.
func New(api API, opts ...Option) *Store {
	cfg := DefaultConfig()
	s := &Store{
		api:            api,
		clock:          clockwork.NewRealClock(),
		ttl:            cfg.CacheTTL,
		pageSize:       cfg.PageSize,
		requestTimeout: cfg.RequestTimeout,
		list:           []notifications.Notification{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrDefault(s.logger).With(logger.Component("inbox"))
	s.listStamp = cache.NewStamp(s.clock, s.ttl)
	s.countStamp = cache.NewStamp(s.clock, s.ttl)
	s.events = broadcast.NewMemoryBroadcaster[Snapshot](16,
		broadcast.WithPolicy(broadcast.DropOldest),
		broadcast.WithDropHook(func() { metrics.RecordBroadcastDrop("inbox") }),
	)
	return s
}

// FetchNotifications returns the notification list, from cache when the last
// successful fetch is younger than the TTL and the list is not empty.
// Concurrent callers share one backend request. A caller whose ctx ends stops
// waiting while the shared request continues for the others.
func (s *Store) FetchNotifications(ctx context.Context, page, limit int) ([]notifications.Notification, error) {
	page = max(page, 1)
	if limit <= 0 {
		limit = s.pageSize
	}

	s.mu.RLock()
	if s.listStamp.Fresh() && len(s.list) > 0 {
		list := cloneList(s.list)
		s.mu.RUnlock()
		metrics.RecordStoreFetch(resourceList, metrics.SourceCache)
		return list, nil
	}
	s.mu.RUnlock()

	v, err := s.coalesce(ctx, resourceList, func(ctx context.Context) (any, error) {
		return s.loadList(ctx, page, limit)
	})
	if err != nil {
		return nil, err
	}
	return cloneList(v.([]notifications.Notification)), nil
}

// FetchNotificationsAsync is FetchNotifications returning a Future.
func (s *Store) FetchNotificationsAsync(ctx context.Context, page, limit int) *async.Future[[]notifications.Notification] {
	return async.Go(ctx, func(ctx context.Context) ([]notifications.Notification, error) {
		return s.FetchNotifications(ctx, page, limit)
	})
}

// FetchUnreadCount returns the unread count, from cache while it is fresh.
func (s *Store) FetchUnreadCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	if s.countStamp.Fresh() {
		n := s.unread
		s.mu.RUnlock()
		metrics.RecordStoreFetch(resourceCount, metrics.SourceCache)
		return n, nil
	}
	s.mu.RUnlock()

	v, err := s.coalesce(ctx, resourceCount, s.loadCount)
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// FetchUnreadCountAsync is FetchUnreadCount returning a Future.
func (s *Store) FetchUnreadCountAsync(ctx context.Context) *async.Future[int] {
	return async.Go(ctx, s.FetchUnreadCount)
}

// coalesce joins or starts the in-flight request for key. The request runs
// detached from the starting caller's cancellation.
func (s *Store) coalesce(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	started := false
	ch := s.group.DoChan(key, func() (any, error) {
		started = true
		metrics.RecordStoreFetch(key, metrics.SourceNetwork)
		reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.requestTimeout)
		defer cancel()
		return load(reqCtx)
	})

	select {
	case res := <-ch:
		if !started {
			metrics.RecordStoreFetch(key, metrics.SourceCoalesced)
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Store) loadList(ctx context.Context, page, limit int) ([]notifications.Notification, error) {
	gen := s.listStamp.Generation()
	s.setLoading(&s.listLoading, true)

	list, err := s.api.List(ctx, page, limit)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.listLoading = false
	if err != nil {
		s.err = err
		s.publishLocked()
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to fetch notifications", logger.Error(err))
		return nil, err
	}

	s.err = nil
	if !s.listStamp.TouchIf(gen) {
		// A mutation invalidated the list while the request was in flight.
		s.logger.LogAttrs(ctx, slog.LevelDebug, "dropping outdated notification list")
		s.publishLocked()
		return cloneList(s.list), nil
	}
	s.list = cloneList(list)
	s.publishLocked()
	return cloneList(list), nil
}

func (s *Store) loadCount(ctx context.Context) (any, error) {
	gen := s.countStamp.Generation()
	s.setLoading(&s.countLoading, true)

	n, err := s.api.UnreadCount(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.countLoading = false
	if err != nil {
		s.err = err
		s.publishLocked()
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to fetch unread count", logger.Error(err))
		return nil, err
	}

	s.err = nil
	if s.countStamp.TouchIf(gen) {
		s.unread = max(n, 0)
	} else {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "dropping outdated unread count", slog.Int("count", n))
	}
	s.publishLocked()
	return s.unread, nil
}

// MarkAsRead marks id read on the backend, then locally. The unread count
// drops by one when the item was unread locally or is not loaded.
func (s *Store) MarkAsRead(ctx context.Context, id string) bool {
	if err := s.call(ctx, func(ctx context.Context) error { return s.api.MarkRead(ctx, id) }); err != nil {
		s.fail(ctx, "failed to mark notification as read", err, logger.NotificationID(id))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 || !s.list[i].Read {
		s.unread = max(s.unread-1, 0)
	}
	if i >= 0 {
		s.list[i].MarkAsRead(s.clock.Now())
	}
	s.countStamp.Invalidate()
	s.err = nil
	s.publishLocked()
	return true
}

// MarkAllAsRead marks everything read on the backend, then locally.
func (s *Store) MarkAllAsRead(ctx context.Context) bool {
	if err := s.call(ctx, s.api.MarkAllRead); err != nil {
		s.fail(ctx, "failed to mark all notifications as read", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for i := range s.list {
		s.list[i].MarkAsRead(now)
	}
	s.unread = 0
	s.countStamp.Invalidate()
	s.err = nil
	s.publishLocked()
	return true
}

// DeleteNotification deletes id on the backend, then locally.
func (s *Store) DeleteNotification(ctx context.Context, id string) bool {
	if err := s.call(ctx, func(ctx context.Context) error { return s.api.Delete(ctx, id) }); err != nil {
		s.fail(ctx, "failed to delete notification", err, logger.NotificationID(id))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		if !s.list[i].Read {
			s.unread = max(s.unread-1, 0)
		}
		s.list = slices.Delete(s.list, i, i+1)
	}
	s.countStamp.Invalidate()
	s.err = nil
	s.publishLocked()
	return true
}

// DeleteAllNotifications deletes everything on the backend, then locally.
func (s *Store) DeleteAllNotifications(ctx context.Context) bool {
	if err := s.call(ctx, s.api.DeleteAll); err != nil {
		s.fail(ctx, "failed to delete all notifications", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.list = []notifications.Notification{}
	s.unread = 0
	s.listStamp.Invalidate()
	s.countStamp.Invalidate()
	s.err = nil
	s.publishLocked()
	return true
}

// CreateNotification posts req, invalidates both caches and refetches the
// first page. The refetch outcome is visible through the store state.
func (s *Store) CreateNotification(ctx context.Context, req notifications.CreateRequest) bool {
	err := s.call(ctx, func(ctx context.Context) error {
		_, err := s.api.Create(ctx, req)
		return err
	})
	if err != nil {
		s.fail(ctx, "failed to create notification", err)
		return false
	}

	s.mu.Lock()
	s.listStamp.Invalidate()
	s.countStamp.Invalidate()
	s.mu.Unlock()

	_, _ = s.FetchNotifications(ctx, 1, s.pageSize)
	return true
}

// ApplyPush prepends a pushed notification and counts it when unread. A
// notification already in the list is ignored. Reports whether n was applied.
func (s *Store) ApplyPush(n notifications.Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(n.ID) >= 0 {
		return false
	}
	s.list = slices.Insert(s.list, 0, n.Clone())
	if !n.Read {
		s.unread++
	}
	s.publishLocked()
	return true
}

// Notifications returns a copy of the cached list.
func (s *Store) Notifications() []notifications.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(s.list)
}

func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// Loading reports whether a list or count fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLoading || s.countLoading
}

// Err returns the error of the last failed operation, nil after a success.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe returns a subscriber that receives a Snapshot after every state
// change. Slow subscribers lose their oldest snapshots, never the latest.
func (s *Store) Subscribe(ctx context.Context) broadcast.Subscriber[Snapshot] {
	return s.events.Subscribe(ctx)
}

// Close closes all subscribers. The store keeps answering calls afterwards.
func (s *Store) Close() error {
	return s.events.Close()
}

func (s *Store) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()
	return fn(ctx)
}

func (s *Store) fail(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	s.mu.Lock()
	s.err = err
	s.publishLocked()
	s.mu.Unlock()

	s.logger.LogAttrs(ctx, slog.LevelError, msg, append(attrs, logger.Error(err))...)
}

func (s *Store) setLoading(flag *bool, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*flag = v
	s.publishLocked()
}

// Must be called with lock held.
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.list, func(n notifications.Notification) bool { return n.ID == id })
}

// Must be called with lock held.
func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Notifications: cloneList(s.list),
		UnreadCount:   s.unread,
		Loading:       s.listLoading || s.countLoading,
		Err:           s.err,
	}
}

// Must be called with lock held. Broadcast never blocks, so snapshots are
// published in mutation order.
func (s *Store) publishLocked() {
	_ = s.events.Broadcast(context.Background(), broadcast.Message[Snapshot]{Data: s.snapshotLocked()})
}

func cloneList(list []notifications.Notification) []notifications.Notification {
	out := make([]notifications.Notification, len(list))
	for i, n := range list {
		out[i] = n.Clone()
	}
	return out
}
