// Package statemachine implements finite state machines over comparable
// state and event types.
//
// A Definition is an immutable transition table. It can evaluate events
// against a state held elsewhere (for example a serialised session), or
// back a stateful Machine.
//
//	def := statemachine.MustNew(
//		statemachine.WithTransition(Idle, Loading, Load),
//		statemachine.WithTransition(Loading, Loaded, Succeed),
//	)
//	next, err := def.Fire(ctx, Idle, Load)
package statemachine

import (
	"context"
	"fmt"
)

// Guard allows or vetoes a transition.
type Guard[S, E comparable] func(ctx context.Context, from S, event E) bool

// Action runs before the state changes; an error aborts the transition.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E) error

type transition[S, E comparable] struct {
	to      S
	guards  []Guard[S, E]
	actions []Action[S, E]
}

// Definition is a transition table. It is safe for concurrent use once built.
type Definition[S, E comparable] struct {
	transitions map[S]map[E][]transition[S, E]
}

// Option adds transitions to a Definition under construction.
type Option[S, E comparable] func(*Definition[S, E]) error

// TransitionOption attaches guards and actions to one transition.
type TransitionOption[S, E comparable] func(*transition[S, E])

func New[S, E comparable](opts ...Option[S, E]) (*Definition[S, E], error) {
	d := &Definition[S, E]{transitions: make(map[S]map[E][]transition[S, E])}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func MustNew[S, E comparable](opts ...Option[S, E]) *Definition[S, E] {
	d, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("statemachine: %v", err))
	}
	return d
}

// WithTransition registers from --event--> to. Several transitions for the
// same pair are tried in registration order; the first whose guards pass wins.
func WithTransition[S, E comparable](from, to S, event E, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(d *Definition[S, E]) error {
		var zeroS S
		var zeroE E
		if from == zeroS || to == zeroS || event == zeroE {
			return ErrInvalidTransition
		}
		t := transition[S, E]{to: to}
		for _, opt := range opts {
			opt(&t)
		}
		if d.transitions[from] == nil {
			d.transitions[from] = make(map[E][]transition[S, E])
		}
		d.transitions[from][event] = append(d.transitions[from][event], t)
		return nil
	}
}

func WithGuard[S, E comparable](g Guard[S, E]) TransitionOption[S, E] {
	return func(t *transition[S, E]) {
		if g != nil {
			t.guards = append(t.guards, g)
		}
	}
}

func WithAction[S, E comparable](a Action[S, E]) TransitionOption[S, E] {
	return func(t *transition[S, E]) {
		if a != nil {
			t.actions = append(t.actions, a)
		}
	}
}

// Fire returns the state reached from current on event. current itself is
// not modified; on error the caller keeps its state.
func (d *Definition[S, E]) Fire(ctx context.Context, current S, event E) (S, error) {
	t, err := d.match(ctx, current, event)
	if err != nil {
		return current, err
	}
	for _, action := range t.actions {
		if err := action(ctx, current, t.to, event); err != nil {
			return current, fmt.Errorf("action failed: %w", err)
		}
	}
	return t.to, nil
}

// CanFire reports whether Fire would find a transition. Actions are not run.
func (d *Definition[S, E]) CanFire(ctx context.Context, current S, event E) bool {
	_, err := d.match(ctx, current, event)
	return err == nil
}

func (d *Definition[S, E]) match(ctx context.Context, current S, event E) (transition[S, E], error) {
	candidates := d.transitions[current][event]
	if len(candidates) == 0 {
		return transition[S, E]{}, &ErrNoTransitionAvailable{State: fmt.Sprint(current), Event: fmt.Sprint(event)}
	}
	for _, t := range candidates {
		if allow(ctx, t.guards, current, event) {
			return t, nil
		}
	}
	return transition[S, E]{}, &ErrTransitionRejected{State: fmt.Sprint(current), Event: fmt.Sprint(event)}
}

func allow[S, E comparable](ctx context.Context, guards []Guard[S, E], from S, event E) bool {
	for _, g := range guards {
		if !g(ctx, from, event) {
			return false
		}
	}
	return true
}
