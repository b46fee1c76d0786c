package realtime

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/statemachine"
)

// State is the connection lifecycle state of a Channel.
type State string

const (
	StateIdle              State = "idle"
	StateResolvingIdentity State = "resolving_identity"
	StateConnecting        State = "connecting"
	StateAuthenticated     State = "authenticated"
	StateDisconnected      State = "disconnected"
	StateReconnecting      State = "reconnecting"
	StateFailed            State = "failed"
	StateClosed            State = "closed"
)

type event string

const (
	evStart         event = "start"
	evAnonymous     event = "anonymous"
	evResolveFailed event = "resolve_failed"
	evIdentified    event = "identified"
	evConnected     event = "connected"
	evConnectFailed event = "connect_failed"
	evGiveUp        event = "give_up"
	evDisconnect    event = "disconnect"
	evReopen        event = "reopen"
	evRetry         event = "retry"
	evRetryDue      event = "retry_due"
	evClose         event = "close"
)

func newMachine(log *slog.Logger) *statemachine.Machine[State, event] {
	opts := []statemachine.Option[State, event]{
		statemachine.WithTransition[State, event](StateIdle, StateResolvingIdentity, evStart),
		statemachine.WithTransition[State, event](StateResolvingIdentity, StateIdle, evAnonymous),
		statemachine.WithTransition[State, event](StateResolvingIdentity, StateIdle, evResolveFailed),
		statemachine.WithTransition[State, event](StateResolvingIdentity, StateConnecting, evIdentified),
		statemachine.WithTransition[State, event](StateConnecting, StateAuthenticated, evConnected),
		statemachine.WithTransition[State, event](StateConnecting, StateReconnecting, evConnectFailed),
		statemachine.WithTransition[State, event](StateConnecting, StateFailed, evGiveUp),
		statemachine.WithTransition[State, event](StateAuthenticated, StateDisconnected, evDisconnect),
		statemachine.WithTransition[State, event](StateDisconnected, StateConnecting, evReopen),
		statemachine.WithTransition[State, event](StateDisconnected, StateReconnecting, evRetry),
		statemachine.WithTransition[State, event](StateReconnecting, StateConnecting, evRetryDue),
		statemachine.OnTransition[State, event](func(ctx context.Context, from, to State, ev event) {
			log.LogAttrs(ctx, slog.LevelDebug, "realtime state changed",
				logger.Transition(string(from), string(to), string(ev)),
			)
		}),
	}

	for _, s := range []State{
		StateIdle, StateResolvingIdentity, StateConnecting, StateAuthenticated,
		StateDisconnected, StateReconnecting, StateFailed,
	} {
		opts = append(opts, statemachine.WithTransition[State, event](s, StateClosed, evClose))
	}

	return statemachine.MustNew(StateIdle, opts...)
}
