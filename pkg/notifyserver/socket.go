package notifyserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/metrics"
	"github.com/dmitrymomot/notifykit/pkg/realtime"
)

var errAuthMismatch = errors.New("authenticate does not match session")

// socket upgrades the request, expects an authenticate event for the
// session's user and then streams that user's notifications.
func (s *Server) socket(w http.ResponseWriter, r *http.Request) {
	userID, err := s.sessionUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.cfg.OriginPatterns})
	if err != nil {
		s.logger.LogAttrs(r.Context(), slog.LevelWarn, "websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.CloseNow()

	metrics.ServerSocketConnections.Inc()
	defer metrics.ServerSocketConnections.Dec()

	log := s.logger.With(logger.UserID(userID))
	if err := s.authenticate(r.Context(), conn, userID); err != nil {
		log.LogAttrs(r.Context(), slog.LevelWarn, "socket authentication failed", logger.Error(err))
		_ = conn.Close(websocket.StatusPolicyViolation, "authentication required")
		return
	}
	log.LogAttrs(r.Context(), slog.LevelInfo, "socket authenticated")

	// Nothing else is expected from the client; CloseRead ends ctx when it disconnects.
	ctx := conn.CloseRead(r.Context())
	sub := s.feed.Subscribe(ctx, userID)

	for {
		select {
		case <-ctx.Done():
			log.LogAttrs(r.Context(), slog.LevelDebug, "socket closed by client")
			return
		case msg, ok := <-sub.Receive(ctx):
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := s.push(ctx, conn, msg.Data); err != nil {
				log.LogAttrs(r.Context(), slog.LevelWarn, "socket write failed", logger.Error(err))
				return
			}
		}
	}
}

func (s *Server) authenticate(ctx context.Context, conn *websocket.Conn, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SocketAuthTimeout)
	defer cancel()

	var msg realtime.Message
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		return fmt.Errorf("read authenticate: %w", err)
	}
	if msg.Event != realtime.EventAuthenticate {
		return fmt.Errorf("%w: got %q event", errAuthMismatch, msg.Event)
	}
	var payload realtime.AuthenticatePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return fmt.Errorf("decode authenticate: %w", err)
	}
	if payload.UserID != userID {
		return errAuthMismatch
	}
	return nil
}

func (s *Server) push(ctx context.Context, conn *websocket.Conn, data any) error {
	msg, err := realtime.NewMessage(realtime.EventReceiveNotification, data)
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, conn, msg)
}
