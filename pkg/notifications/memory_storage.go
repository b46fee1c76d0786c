package notifications

import (
	"context"
	"slices"
	"sync"
)

// MemoryStorage is an in-memory Storage for development and tests.
type MemoryStorage struct {
	notifications map[string][]Notification // userID -> notifications
	opts          storageOptions
	mu            sync.RWMutex
}

func NewMemoryStorage(opts ...StorageOption) *MemoryStorage {
	o := defaultStorageOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStorage{
		notifications: make(map[string][]Notification),
		opts:          o,
	}
}

func (s *MemoryStorage) Create(_ context.Context, notif Notification) error {
	if notif.UserID == "" {
		return ErrMissingUserID
	}
	if err := notif.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(notif.UserID, notif.ID) >= 0 {
		return ErrNotificationExists
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = s.opts.clock.Now()
	}
	s.notifications[notif.UserID] = append(s.notifications[notif.UserID], notif.Clone())
	return nil
}

func (s *MemoryStorage) Get(_ context.Context, userID, notifID string) (Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(userID, notifID)
	if i < 0 {
		return Notification{}, ErrNotificationNotFound
	}
	return s.notifications[userID][i].Clone(), nil
}

func (s *MemoryStorage) List(_ context.Context, userID string, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page := applyListOptions(s.notifications[userID], opts, s.opts.clock.Now())
	for i := range page {
		page[i] = page[i].Clone()
	}
	return page, nil
}

func (s *MemoryStorage) MarkRead(_ context.Context, userID, notifID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(userID, notifID)
	if i < 0 {
		return ErrNotificationNotFound
	}
	s.notifications[userID][i].MarkAsRead(s.opts.clock.Now())
	return nil
}

func (s *MemoryStorage) MarkAllRead(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.clock.Now()
	list := s.notifications[userID]
	for i := range list {
		list[i].MarkAsRead(now)
	}
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, userID, notifID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(userID, notifID)
	if i < 0 {
		return ErrNotificationNotFound
	}
	s.notifications[userID] = slices.Delete(s.notifications[userID], i, i+1)
	return nil
}

func (s *MemoryStorage) DeleteAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.notifications, userID)
	return nil
}

func (s *MemoryStorage) CountUnread(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return countUnread(s.notifications[userID], s.opts.clock.Now()), nil
}

// Must be called with lock held.
func (s *MemoryStorage) indexOf(userID, notifID string) int {
	return slices.IndexFunc(s.notifications[userID], func(n Notification) bool {
		return n.ID == notifID
	})
}
