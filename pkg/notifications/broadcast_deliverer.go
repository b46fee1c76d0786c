package notifications

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/broadcast"
	"github.com/dmitrymomot/notifykit/pkg/cache"
	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// BroadcastDeliverer keeps one in-memory broadcaster per user so every open
// connection of that user receives each delivered notification.
type BroadcastDeliverer struct {
	users           *cache.LRU[string, *broadcast.MemoryBroadcaster[Notification]]
	bufferSize      int
	maxBroadcasters int
	logger          *slog.Logger
}

type BroadcastDelivererOption func(*BroadcastDeliverer)

func WithBroadcastLogger(l *slog.Logger) BroadcastDelivererOption {
	return func(b *BroadcastDeliverer) {
		b.logger = l
	}
}

// WithMaxBroadcasters bounds the number of per-user broadcasters. The least
// recently used one is closed when the limit is exceeded. Default 10000.
func WithMaxBroadcasters(limit int) BroadcastDelivererOption {
	return func(b *BroadcastDeliverer) {
		if limit > 0 {
			b.maxBroadcasters = limit
		}
	}
}

func NewBroadcastDeliverer(bufferSize int, opts ...BroadcastDelivererOption) *BroadcastDeliverer {
	d := &BroadcastDeliverer{
		bufferSize:      bufferSize,
		maxBroadcasters: 10000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logger.OrDefault(d.logger)

	d.users = cache.NewLRU(d.maxBroadcasters,
		cache.WithEvictCallback(func(userID string, b *broadcast.MemoryBroadcaster[Notification]) {
			d.logger.LogAttrs(context.Background(), slog.LevelDebug, "closing user broadcaster",
				logger.UserID(userID),
				logger.Count(b.Len()),
			)
			_ = b.Close()
		}),
	)
	return d
}

func (d *BroadcastDeliverer) broadcaster(userID string) *broadcast.MemoryBroadcaster[Notification] {
	return d.users.GetOrCreate(userID, func() *broadcast.MemoryBroadcaster[Notification] {
		return broadcast.NewMemoryBroadcaster[Notification](d.bufferSize)
	})
}

// Deliver broadcasts notif to every subscriber of its user. Users without
// subscribers are skipped so idle users do not occupy broadcaster slots.
func (d *BroadcastDeliverer) Deliver(ctx context.Context, notif Notification) error {
	if notif.UserID == "" {
		return ErrMissingUserID
	}
	b, ok := d.users.Get(notif.UserID)
	if !ok {
		return nil
	}
	return b.Broadcast(ctx, broadcast.Message[Notification]{Data: notif})
}

// Subscribe returns a subscriber receiving the user's notifications until ctx ends.
func (d *BroadcastDeliverer) Subscribe(ctx context.Context, userID string) broadcast.Subscriber[Notification] {
	return d.broadcaster(userID).Subscribe(ctx)
}

// Close closes every user broadcaster and their subscribers.
func (d *BroadcastDeliverer) Close() error {
	d.users.Clear()
	return nil
}
