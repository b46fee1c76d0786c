package statemachine

import "fmt"

// Option configures a Machine during construction.
type Option[S, E comparable] func(*Machine[S, E])

// TransitionOption configures a single transition.
type TransitionOption[S, E comparable] func(*Transition[S, E])

// New creates a machine in the initial state.
func New[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m := &Machine[S, E]{
		initial:     initial,
		current:     initial,
		transitions: make(map[S]map[E][]Transition[S, E]),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MustNew is New for package-level definitions; it panics if the machine has no transitions.
func MustNew[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m := New(initial, opts...)
	if len(m.transitions) == 0 {
		panic(fmt.Sprintf("statemachine: machine starting at %v has no transitions", initial))
	}
	return m
}

// WithTransition adds a transition.
func WithTransition[S, E comparable](from, to S, event E, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) {
		t := Transition[S, E]{From: from, To: to, Event: event}
		for _, opt := range opts {
			opt(&t)
		}
		m.AddTransition(t)
	}
}

// WithTransitions adds several prepared transitions at once.
func WithTransitions[S, E comparable](ts ...Transition[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) {
		for _, t := range ts {
			m.AddTransition(t)
		}
	}
}

// OnTransition registers an observer called after each successful transition.
func OnTransition[S, E comparable](fn Observer[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) {
		if fn != nil {
			m.observers = append(m.observers, fn)
		}
	}
}

// WithGuard adds a guard to a transition.
func WithGuard[S, E comparable](g Guard[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		if g != nil {
			t.Guards = append(t.Guards, g)
		}
	}
}

// WithAction adds an action to a transition.
func WithAction[S, E comparable](a Action[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		if a != nil {
			t.Actions = append(t.Actions, a)
		}
	}
}
