package statemachine

import (
	"context"
	"sync"
)

// Machine holds a current state over a Definition.
type Machine[S, E comparable] struct {
	def     *Definition[S, E]
	initial S
	mu      sync.RWMutex
	current S
}

func (d *Definition[S, E]) Machine(initial S) *Machine[S, E] {
	return &Machine[S, E]{def: d, initial: initial, current: initial}
}

func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Machine[S, E]) Fire(ctx context.Context, event E) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := m.def.Fire(ctx, m.current, event)
	if err != nil {
		return err
	}
	m.current = next
	return nil
}

func (m *Machine[S, E]) CanFire(ctx context.Context, event E) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.def.CanFire(ctx, m.current, event)
}

func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}
