package inbox

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

type Option func(*Store)

// WithConfig applies every non-zero field of cfg.
func WithConfig(cfg Config) Option {
	return func(s *Store) {
		if cfg.CacheTTL > 0 {
			s.ttl = cfg.CacheTTL
		}
		if cfg.PageSize > 0 {
			s.pageSize = cfg.PageSize
		}
		if cfg.RequestTimeout > 0 {
			s.requestTimeout = cfg.RequestTimeout
		}
	}
}

// WithTTL sets how long a successful fetch is reused. Default 5m.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithPageSize sets the limit used when a fetch passes limit <= 0. Default 20.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithRequestTimeout bounds each backend call. Default 15s.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}
