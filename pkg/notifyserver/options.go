package notifyserver

import (
	"context"
	"log/slog"
)

type Option func(*Server)

// WithConfig replaces the configuration; zero values keep their defaults.
func WithConfig(cfg Config) Option {
	return func(s *Server) {
		def := DefaultConfig()
		if cfg.CookieName == "" {
			cfg.CookieName = def.CookieName
		}
		if cfg.SessionTTL <= 0 {
			cfg.SessionTTL = def.SessionTTL
		}
		if cfg.SocketAuthTimeout <= 0 {
			cfg.SocketAuthTimeout = def.SocketAuthTimeout
		}
		if cfg.PageSize <= 0 {
			cfg.PageSize = def.PageSize
		}
		if cfg.MaxPageSize <= 0 {
			cfg.MaxPageSize = def.MaxPageSize
		}
		s.cfg = cfg
	}
}

// WithSessions sets the session store. Default: MemorySessions.
func WithSessions(sessions Sessions) Option {
	return func(s *Server) {
		if sessions != nil {
			s.sessions = sessions
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithReadinessChecks adds checks run by GET /readyz.
func WithReadinessChecks(checks ...func(context.Context) error) Option {
	return func(s *Server) {
		s.checks = append(s.checks, checks...)
	}
}
