package notifications

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Deliverer pushes a stored notification to its user in real time.
type Deliverer interface {
	Deliver(ctx context.Context, notif Notification) error
}

// MultiDeliverer fans a notification out to several deliverers.
type MultiDeliverer struct {
	deliverers []Deliverer
	logger     *slog.Logger
}

type MultiDelivererOption func(*MultiDeliverer)

func WithMultiDelivererLogger(l *slog.Logger) MultiDelivererOption {
	return func(m *MultiDeliverer) {
		m.logger = l
	}
}

func NewMultiDeliverer(deliverers []Deliverer, opts ...MultiDelivererOption) *MultiDeliverer {
	m := &MultiDeliverer{deliverers: deliverers}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logger.OrDefault(m.logger)
	return m
}

// Deliver tries every deliverer and returns their failures joined.
func (m *MultiDeliverer) Deliver(ctx context.Context, notif Notification) error {
	var errs []error
	for i, d := range m.deliverers {
		if err := d.Deliver(ctx, notif); err != nil {
			m.logger.LogAttrs(ctx, slog.LevelError, "failed to deliver notification",
				logger.NotificationID(notif.ID),
				logger.UserID(notif.UserID),
				slog.Int("deliverer_index", i),
				logger.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoOpDeliverer drops every notification.
type NoOpDeliverer struct{}

func (NoOpDeliverer) Deliver(context.Context, Notification) error { return nil }
