package axon

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

type scopeState uint8

const (
	scopeActive scopeState = iota
	scopeClosing
	scopeClosed
)

// Scope is a bounded resolution session. It caches scoped values, owns the
// teardown of every resource opened through it and releases them in reverse
// acquisition order on Close.
//
// A Scope is active from creation. Resolving on a closing or closed Scope
// fails with ScopeClosedError. Close is idempotent: the second and later
// calls are no-ops returning nil.
type Scope struct {
	container *Container
	root      bool

	mu        sync.Mutex
	state     scopeState
	cache     map[reflect.Type]any
	teardowns []teardown
}

type teardown struct {
	typ reflect.Type
	fn  func() error
}

// ScopeOption adjusts a Scope at creation.
type ScopeOption func(*Scope)

// Supply seeds a new Scope with an existing value for T, satisfying a
// FromScope provider for that type.
func Supply[T any](value T) ScopeOption {
	return func(s *Scope) {
		s.cache[TypeOf[T]()] = value
	}
}

// Resolve produces a fully-wired value for t, constructing its dependency
// graph through this Scope. Singleton-lifetime providers delegate to the
// Container's root scope.
func (s *Scope) Resolve(ctx context.Context, t reflect.Type) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.state != scopeActive {
		s.mu.Unlock()
		return nil, &ScopeClosedError{}
	}
	s.mu.Unlock()

	s.container.registry.freeze()
	return s.container.resolve(ctx, newResolutionState(), t, s)
}

// Resolve resolves a value of type T through an open Scope.
func Resolve[T any](ctx context.Context, s *Scope) (T, error) {
	var zero T
	v, err := s.Resolve(ctx, TypeOf[T]())
	if err != nil || v == nil {
		return zero, err
	}
	return v.(T), nil
}

// Close tears down every resource opened through this Scope in strict
// reverse-acquisition order. Every pending finalizer is attempted even after
// an earlier one fails; failures are aggregated into a single TeardownError.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.state != scopeActive {
		s.mu.Unlock()
		return nil
	}
	s.state = scopeClosing
	tds := s.teardowns
	s.teardowns = nil
	s.cache = nil
	s.mu.Unlock()

	var errs []error
	for i := len(tds) - 1; i >= 0; i-- {
		if err := tds[i].fn(); err != nil {
			s.container.logger.WithField("type", tds[i].typ.String()).
				Errorf("finalizer failed: %v", err)
			errs = append(errs, fmt.Errorf("finalize %s: %w", tds[i].typ, err))
		}
	}

	s.mu.Lock()
	s.state = scopeClosed
	s.mu.Unlock()

	if len(errs) > 0 {
		return &TeardownError{Errors: errs}
	}
	return nil
}

func (s *Scope) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == scopeActive
}

func (s *Scope) cached(t reflect.Type) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		return nil, false
	}
	v, ok := s.cache[t]
	return v, ok
}

func (s *Scope) store(t reflect.Type, v any) {
	s.mu.Lock()
	if s.cache != nil {
		s.cache[t] = v
	}
	s.mu.Unlock()
}

// pushTeardown records a finalizer for a fully-opened resource. Only
// fully-opened resources reach the stack, so close-time teardown also covers
// chains that failed partway through construction.
func (s *Scope) pushTeardown(t reflect.Type, fn func() error) {
	s.mu.Lock()
	s.teardowns = append(s.teardowns, teardown{typ: t, fn: fn})
	s.mu.Unlock()
}
