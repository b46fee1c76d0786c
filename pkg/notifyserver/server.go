package notifyserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/notifykit/pkg/broadcast"
	"github.com/dmitrymomot/notifykit/pkg/httpserver"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
	"github.com/dmitrymomot/notifykit/pkg/notifyapi"
)

// Feed streams a user's newly delivered notifications.
// *notifications.BroadcastDeliverer implements it.
type Feed interface {
	Subscribe(ctx context.Context, userID string) broadcast.Subscriber[notifications.Notification]
}

// Server serves the REST and push contracts.
type Server struct {
	manager  *notifications.Manager
	feed     Feed
	sessions Sessions
	cfg      Config
	logger   *slog.Logger
	checks   []func(context.Context) error
	router   chi.Router
}

func New(manager *notifications.Manager, feed Feed, opts ...Option) *Server {
	s := &Server{
		manager: manager,
		feed:    feed,
		cfg:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrDefault(s.logger).With(logger.Component("notifyserver"))
	if s.sessions == nil {
		s.sessions = NewMemorySessions(s.cfg.SessionTTL, nil)
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware, s.recoverer, s.instrument)

	r.Get("/healthz", httpserver.HealthCheckHandler(s.logger))
	r.Get("/readyz", httpserver.HealthCheckHandler(s.logger, s.checks...))
	r.Handle("/metrics", promhttp.Handler())

	r.Post(notifyapi.RouteSession, s.login)
	r.Delete(notifyapi.RouteSession, s.logout)
	r.Get(notifyapi.RouteSocketAuth, s.socketAuth)
	r.Get(notifyapi.RouteSocket, s.socket)

	r.Route(notifyapi.RouteNotifications, func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Delete("/", s.deleteAll)
		r.Get("/unread-count", s.unreadCount)
		r.Patch("/mark-all-read", s.markAllRead)
		r.Get("/{id}", s.get)
		r.Patch("/{id}/read", s.markRead)
		r.Delete("/{id}", s.delete)
	})
	return r
}
