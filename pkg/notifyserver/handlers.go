package notifyserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
	"github.com/dmitrymomot/notifykit/pkg/notifyapi"
)

const maxBodySize = 64 << 10

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := queryInt(q.Get("page"), 1)
	limit := min(queryInt(q.Get("limit"), s.cfg.PageSize), s.cfg.MaxPageSize)

	opts := notifications.PageOptions(page, limit)
	opts.OnlyUnread = q.Get("unread") == "true"

	list, err := s.manager.List(r.Context(), userFromContext(r.Context()), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	n, err := s.manager.Get(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, n)
}

func (s *Server) unreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.manager.CountUnread(r.Context(), userFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, notifyapi.UnreadCount{Count: count})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req notifications.CreateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Clients only create notifications for themselves.
	req.UserID = userFromContext(r.Context())

	n, err := s.manager.Send(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, n)
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.MarkRead(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w)
}

func (s *Server) markAllRead(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.MarkAllRead(r.Context(), userFromContext(r.Context())); err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Delete(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteAll(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.DeleteAll(r.Context(), userFromContext(r.Context())); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// login starts a development session for the posted user id.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req notifyapi.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	token, err := s.sessions.Create(r.Context(), req.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.LogAttrs(r.Context(), slog.LevelInfo, "session started", logger.UserID(req.UserID))
	writeData(w, http.StatusOK, notifyapi.Identity{Authenticated: true, UserID: req.UserID})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(s.cfg.CookieName); err == nil && c.Value != "" {
		if err := s.sessions.Delete(r.Context(), c.Value); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// socketAuth tells the client which user the session cookie belongs to.
func (s *Server) socketAuth(w http.ResponseWriter, r *http.Request) {
	userID, err := s.sessionUser(r)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusUnauthorized, notifyapi.Identity{Authenticated: false})
		return
	}
	writeJSON(w, http.StatusOK, notifyapi.Identity{Authenticated: true, UserID: userID})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, notifications.ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, "notification not found")
	case errors.Is(err, notifications.ErrInvalidNotification),
		errors.Is(err, notifications.ErrMissingUserID),
		errors.Is(err, ErrMissingUserID):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.LogAttrs(r.Context(), slog.LevelError, "request failed",
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func queryInt(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
