package realtime

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/notifykit/pkg/desktop"
)

type Option func(*Channel)

// WithStore sets the sink that receives pushed notifications first.
func WithStore(s PushSink) Option {
	return func(c *Channel) {
		c.store = s
	}
}

func WithToaster(t Toaster) Option {
	return func(c *Channel) {
		c.toaster = t
	}
}

func WithDesktop(n desktop.Notifier) Option {
	return func(c *Channel) {
		c.desktop = n
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(c *Channel) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) {
		c.logger = l
	}
}

// WithMaxAttempts sets how many consecutive connection attempts may fail
// before the channel gives up. Default 5.
func WithMaxAttempts(n int) Option {
	return func(c *Channel) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the fixed delay between reconnection attempts. Default 5s.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.retryDelay = d
		}
	}
}

func WithDialTimeout(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

func WithConfig(cfg Config) Option {
	return func(c *Channel) {
		WithMaxAttempts(cfg.MaxAttempts)(c)
		WithRetryDelay(cfg.RetryDelay)(c)
		WithDialTimeout(cfg.DialTimeout)(c)
	}
}
