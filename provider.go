package axon

import (
	"context"
	"fmt"
	"reflect"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	cleanupType = reflect.TypeOf((func() error)(nil))
)

type providerKind uint8

const (
	kindObject providerKind = iota
	kindFactory
	kindFromScope
)

// Provider describes one way to produce a value of a declared type: its
// construction strategy, the dependencies that strategy declares, and the
// lifetime that decides where the produced value is cached and torn down.
//
// Providers are built with Object, Scoped, Singleton, Transient or FromScope
// and handed to a Container's Register or TryRegister. A malformed provider
// (nil factory, unusable signature) carries its defect until registration,
// where it is surfaced as an error.
type Provider struct {
	declared reflect.Type
	lifetime Lifetime
	kind     providerKind
	grouped  bool

	value      any           // kindObject
	factory    reflect.Value // kindFactory
	deps       []reflect.Type
	takesCtx   bool
	cleanupIdx int
	errIdx     int

	err error
}

// ProviderOption adjusts how a provider is declared.
type ProviderOption func(*Provider)

// Grouped marks the provider as one of many for its declared type. A type
// whose providers are all grouped accepts any number of registrations and is
// looked up with Providers rather than Provider.
func Grouped() ProviderOption {
	return func(p *Provider) { p.grouped = true }
}

// TypeOf returns the Type Key used by the registry for T. Interface types
// yield the interface itself, not a concrete implementation.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Object declares an existing value as the provider for T. The value is
// returned as-is on resolution, cached at the singleton level and never
// tracked for teardown.
func Object[T any](value T, opts ...ProviderOption) *Provider {
	p := &Provider{
		declared:   TypeOf[T](),
		lifetime:   SingletonLifetime,
		kind:       kindObject,
		value:      value,
		cleanupIdx: -1,
		errIdx:     -1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Scoped declares a factory provider cached per Scope: at most one value per
// Scope, torn down when that Scope closes.
//
// The factory's parameters are its declared dependencies, resolved in order
// before invocation. A leading context.Context parameter receives the
// caller's context and is not a dependency. Accepted return shapes:
//
//	func(...) T
//	func(...) (T, error)
//	func(...) (T, func() error)
//	func(...) (T, func() error, error)
//
// A non-nil func() error return is a finalizer, pushed on the owning Scope's
// teardown stack and run when it closes.
func Scoped[T any](factory any, opts ...ProviderOption) *Provider {
	return newFactoryProvider[T](factory, ScopedLifetime, opts)
}

// Singleton declares a factory provider cached per Container: constructed at
// most once, shared by every Scope, torn down when the Container closes.
func Singleton[T any](factory any, opts ...ProviderOption) *Provider {
	return newFactoryProvider[T](factory, SingletonLifetime, opts)
}

// Transient declares a factory provider that produces a fresh value on every
// resolution. Nothing is cached; a finalizer returned by the factory is still
// owned by the resolving Scope.
func Transient[T any](factory any, opts ...ProviderOption) *Provider {
	return newFactoryProvider[T](factory, TransientLifetime, opts)
}

// FromScope declares that values of type T are supplied by the Scope itself,
// seeded at creation with Supply. Resolving T in a Scope without a supplied
// value fails with MissingScopeValueError.
func FromScope[T any](opts ...ProviderOption) *Provider {
	p := &Provider{
		declared:   TypeOf[T](),
		lifetime:   ScopedLifetime,
		kind:       kindFromScope,
		cleanupIdx: -1,
		errIdx:     -1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func newFactoryProvider[T any](factory any, lifetime Lifetime, opts []ProviderOption) *Provider {
	declared := TypeOf[T]()
	p := &Provider{
		declared:   declared,
		lifetime:   lifetime,
		kind:       kindFactory,
		cleanupIdx: -1,
		errIdx:     -1,
	}
	for _, opt := range opts {
		opt(p)
	}

	if factory == nil {
		p.err = &NilFactoryError{Type: declared.String()}
		return p
	}
	fv := reflect.ValueOf(factory)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		p.err = &InvalidFactoryError{Type: declared.String(), Reason: "factory must be a function"}
		return p
	}
	if ft.IsVariadic() {
		p.err = &InvalidFactoryError{Type: declared.String(), Reason: "variadic factories are not supported"}
		return p
	}

	for i := 0; i < ft.NumIn(); i++ {
		in := ft.In(i)
		if i == 0 && in == contextType {
			p.takesCtx = true
			continue
		}
		if in == contextType {
			p.err = &InvalidFactoryError{Type: declared.String(), Reason: "context.Context must be the first parameter"}
			return p
		}
		p.deps = append(p.deps, in)
	}

	if ft.NumOut() == 0 || ft.NumOut() > 3 {
		p.err = &InvalidFactoryError{Type: declared.String(), Reason: "factory must return a value, optionally a finalizer and an error"}
		return p
	}
	if !ft.Out(0).AssignableTo(declared) {
		p.err = &InvalidFactoryError{
			Type:   declared.String(),
			Reason: fmt.Sprintf("factory returns %s which is not assignable to %s", ft.Out(0), declared),
		}
		return p
	}
	for i := 1; i < ft.NumOut(); i++ {
		out := ft.Out(i)
		switch {
		case out == errorType && p.errIdx < 0 && i == ft.NumOut()-1:
			p.errIdx = i
		case out == cleanupType && p.cleanupIdx < 0 && i == 1:
			p.cleanupIdx = i
		default:
			p.err = &InvalidFactoryError{
				Type:   declared.String(),
				Reason: fmt.Sprintf("unsupported return value %s at position %d", out, i),
			}
			return p
		}
	}

	p.factory = fv
	return p
}

// Type returns the Type Key this provider produces.
func (p *Provider) Type() reflect.Type {
	return p.declared
}

// Lifetime returns the provider's caching policy.
func (p *Provider) Lifetime() Lifetime {
	return p.lifetime
}

// Dependencies returns the provider's declared dependency keys in resolution
// order.
func (p *Provider) Dependencies() []reflect.Type {
	deps := make([]reflect.Type, len(p.deps))
	copy(deps, p.deps)
	return deps
}

// sameImplementation reports whether two providers carry an identical
// (type, implementation) pair. Factories compare by code pointer, object
// providers by value identity when the value is comparable.
func (p *Provider) sameImplementation(other *Provider) bool {
	if p.declared != other.declared || p.kind != other.kind || p.lifetime != other.lifetime {
		return false
	}
	switch p.kind {
	case kindFactory:
		return p.factory.Pointer() == other.factory.Pointer()
	case kindObject:
		if p.value == nil || other.value == nil {
			return p.value == nil && other.value == nil
		}
		if !reflect.TypeOf(p.value).Comparable() || !reflect.TypeOf(other.value).Comparable() {
			return false
		}
		return p.value == other.value
	case kindFromScope:
		return true
	}
	return false
}

// invoke calls the factory with resolved dependencies and normalizes its
// return shape to (value, finalizer, error).
func (p *Provider) invoke(ctx context.Context, deps []reflect.Value) (any, func() error, error) {
	args := deps
	if p.takesCtx {
		args = make([]reflect.Value, 0, len(deps)+1)
		args = append(args, reflect.ValueOf(ctx))
		args = append(args, deps...)
	}
	out := p.factory.Call(args)

	if p.errIdx >= 0 && !out[p.errIdx].IsNil() {
		return nil, nil, out[p.errIdx].Interface().(error)
	}
	var cleanup func() error
	if p.cleanupIdx >= 0 && !out[p.cleanupIdx].IsNil() {
		cleanup = out[p.cleanupIdx].Interface().(func() error)
	}
	return out[0].Interface(), cleanup, nil
}
