package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Manager orchestrates notification storage and delivery.
type Manager struct {
	storage   Storage
	deliverer Deliverer
	clock     clockwork.Clock
	logger    *slog.Logger
}

type ManagerOption func(*Manager)

func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

func WithManagerClock(c clockwork.Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = c
	}
}

// NewManager creates a manager. A nil deliverer disables real-time delivery.
func NewManager(storage Storage, deliverer Deliverer, opts ...ManagerOption) *Manager {
	if deliverer == nil {
		deliverer = NoOpDeliverer{}
	}

	m := &Manager{
		storage:   storage,
		deliverer: deliverer,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	m.logger = logger.OrDefault(m.logger)
	return m
}

// Send stores a new notification built from req and delivers it best effort.
func (m *Manager) Send(ctx context.Context, req CreateRequest) (Notification, error) {
	if req.UserID == "" {
		return Notification{}, ErrMissingUserID
	}

	notif := req.Build(uuid.NewString(), m.clock.Now())
	if err := notif.Validate(); err != nil {
		return Notification{}, err
	}

	if err := m.storage.Create(ctx, notif); err != nil {
		return Notification{}, fmt.Errorf("failed to store notification: %w", err)
	}

	// Stored notifications stay retrievable even when the push fails.
	if err := m.deliverer.Deliver(ctx, notif); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "failed to deliver notification, but it was stored",
			logger.NotificationID(notif.ID),
			logger.UserID(notif.UserID),
			logger.Error(err),
		)
	}

	return notif, nil
}

// SendToUsers sends a copy of req to each user.
func (m *Manager) SendToUsers(ctx context.Context, userIDs []string, req CreateRequest) ([]Notification, error) {
	sent := make([]Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		req.UserID = userID
		n, err := m.Send(ctx, req)
		if err != nil {
			return sent, fmt.Errorf("send to user %s: %w", userID, err)
		}
		sent = append(sent, n)
	}
	return sent, nil
}

func (m *Manager) Get(ctx context.Context, userID, notifID string) (Notification, error) {
	return m.storage.Get(ctx, userID, notifID)
}

func (m *Manager) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	return m.storage.List(ctx, userID, opts)
}

func (m *Manager) MarkRead(ctx context.Context, userID, notifID string) error {
	return m.storage.MarkRead(ctx, userID, notifID)
}

func (m *Manager) MarkAllRead(ctx context.Context, userID string) error {
	return m.storage.MarkAllRead(ctx, userID)
}

func (m *Manager) Delete(ctx context.Context, userID, notifID string) error {
	return m.storage.Delete(ctx, userID, notifID)
}

func (m *Manager) DeleteAll(ctx context.Context, userID string) error {
	return m.storage.DeleteAll(ctx, userID)
}

func (m *Manager) CountUnread(ctx context.Context, userID string) (int, error) {
	return m.storage.CountUnread(ctx, userID)
}
