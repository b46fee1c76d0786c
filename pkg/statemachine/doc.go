// Package statemachine provides a small, generic finite-state machine.
//
// States and events are any comparable types, typically string-based
// enumerations with a String method. The machine handles transition lookup,
// optional guards that veto a transition, actions that run before the state
// changes, and observers notified after every successful transition.
//
//	type state string
//	type event string
//
//	m := statemachine.MustNew[state, event]("idle",
//	    statemachine.WithTransition[state, event]("idle", "connecting", "dial"),
//	    statemachine.WithTransition[state, event]("connecting", "authenticated", "ready"),
//	    statemachine.OnTransition(func(ctx context.Context, from, to state, ev event) {
//	        slog.InfoContext(ctx, "transition", "from", from, "to", to, "event", ev)
//	    }),
//	)
//
//	err := m.Fire(ctx, "dial", nil)
//
// Several transitions may share a source state and event; the first one whose
// guards all pass wins, which allows guard-based branching.
//
// Fire returns *ErrNoTransitionAvailable when nothing is defined for the
// current state and event, and *ErrTransitionRejected when every candidate
// was vetoed by a guard. Use IsNoTransitionAvailableError and
// IsTransitionRejectedError to tell them apart.
//
// Machine is safe for concurrent use. Guards and actions run with the machine
// lock held and must not call back into it; observers run after the lock is
// released.
package statemachine
