package toast

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

type Option func(*Queue)

func WithConfig(cfg Config) Option {
	return func(q *Queue) {
		if cfg.Capacity > 0 {
			q.capacity = cfg.Capacity
		}
		if cfg.Duration > 0 {
			q.duration = cfg.Duration
		}
	}
}

// WithCapacity sets the maximum number of visible toasts. Default 3.
func WithCapacity(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.capacity = n
		}
	}
}

// WithDuration sets the lifetime of items enqueued without one. Default 5s.
func WithDuration(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.duration = d
		}
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(q *Queue) {
		if c != nil {
			q.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = l
	}
}
