package notifications

import (
	"context"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
)

// Storage handles notification persistence for the reference backend.
type Storage interface {
	// Create stores a new notification. Returns ErrNotificationExists for a duplicate id.
	Create(ctx context.Context, notif Notification) error

	// Get returns one notification or ErrNotificationNotFound.
	Get(ctx context.Context, userID, notifID string) (Notification, error)

	// List returns the user's notifications newest first.
	List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error)

	// MarkRead marks one notification read. Returns ErrNotificationNotFound if missing.
	MarkRead(ctx context.Context, userID, notifID string) error

	// MarkAllRead marks every notification of the user read.
	MarkAllRead(ctx context.Context, userID string) error

	// Delete removes one notification. Returns ErrNotificationNotFound if missing.
	Delete(ctx context.Context, userID, notifID string) error

	// DeleteAll removes every notification of the user.
	DeleteAll(ctx context.Context, userID string) error

	// CountUnread returns the number of unread, unexpired notifications.
	CountUnread(ctx context.Context, userID string) (int, error)
}

// ListOptions provides filtering and pagination for List.
type ListOptions struct {
	Limit      int        // 0 means no limit
	Offset     int        // number of items to skip
	OnlyUnread bool       // skip read notifications
	Types      []Type     // keep only these types when non-empty
	Since      *time.Time // keep only notifications created at or after Since
}

// PageOptions converts a 1-based page and page size into ListOptions.
func PageOptions(page, limit int) ListOptions {
	page = max(page, 1)
	return ListOptions{Limit: limit, Offset: (page - 1) * limit}
}

// StorageOption configures MemoryStorage and RedisStorage.
type StorageOption func(*storageOptions)

type storageOptions struct {
	clock     clockwork.Clock
	keyPrefix string
}

func defaultStorageOptions() storageOptions {
	return storageOptions{
		clock:     clockwork.NewRealClock(),
		keyPrefix: "notifykit:notifications:",
	}
}

// WithStorageClock sets the clock used for expiry and read timestamps.
func WithStorageClock(c clockwork.Clock) StorageOption {
	return func(o *storageOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithKeyPrefix sets the redis key prefix. Ignored by MemoryStorage.
func WithKeyPrefix(prefix string) StorageOption {
	return func(o *storageOptions) { o.keyPrefix = prefix }
}

// applyListOptions filters, sorts newest first and paginates all. It never
// returns nil.
func applyListOptions(all []Notification, opts ListOptions, now time.Time) []Notification {
	filtered := make([]Notification, 0, len(all))
	for _, n := range all {
		if n.IsExpired(now) {
			continue
		}
		if opts.OnlyUnread && n.Read {
			continue
		}
		if len(opts.Types) > 0 && !slices.Contains(opts.Types, n.Type) {
			continue
		}
		if opts.Since != nil && n.CreatedAt.Before(*opts.Since) {
			continue
		}
		filtered = append(filtered, n)
	}

	slices.SortStableFunc(filtered, func(a, b Notification) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		// Same timestamp: later id first keeps the order deterministic.
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})

	start := min(max(opts.Offset, 0), len(filtered))
	end := len(filtered)
	if opts.Limit > 0 {
		end = min(start+opts.Limit, len(filtered))
	}
	return filtered[start:end]
}

func countUnread(all []Notification, now time.Time) int {
	count := 0
	for _, n := range all {
		if !n.Read && !n.IsExpired(now) {
			count++
		}
	}
	return count
}
