package axon

import (
	"fmt"
	"strings"
)

// DuplicateRegistrationError reports a second, different implementation
// registered for a type that only accepts a single binding.
type DuplicateRegistrationError struct {
	Type string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("provider already registered for type: %s", e.Type)
}

// ProviderNotFoundError reports a lookup or resolution of a type with no
// registered provider.
type ProviderNotFoundError struct {
	Type string
}

func (e *ProviderNotFoundError) Error() string {
	return fmt.Sprintf("no provider found for type: %s", e.Type)
}

// CyclicDependencyError reports a dependency chain that revisits a type
// already being resolved. Chain lists the types in resolution order, ending
// with the repeated type.
type CyclicDependencyError struct {
	Chain []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency detected: %s", strings.Join(e.Chain, " -> "))
}

// LifetimeMismatchError reports a longer-lived provider depending on a
// shorter-lived one.
type LifetimeMismatchError struct {
	Type               string
	Lifetime           Lifetime
	Dependency         string
	DependencyLifetime Lifetime
}

func (e *LifetimeMismatchError) Error() string {
	return fmt.Sprintf("%s provider for %s cannot depend on %s provider for %s",
		e.Lifetime, e.Type, e.DependencyLifetime, e.Dependency)
}

// ConstructionError reports a factory invocation failure during resolution.
type ConstructionError struct {
	Type string
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construction failed for type %s: %v", e.Type, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// TeardownError aggregates every finalizer failure raised while closing a
// Scope. Teardown always runs to completion before this error is returned.
type TeardownError struct {
	Errors []error
}

func (e *TeardownError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("teardown failed (%d finalizers): %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *TeardownError) Unwrap() []error {
	return e.Errors
}

// RegistrationClosedError reports a registration attempted after a Scope has
// already resolved against the container.
type RegistrationClosedError struct{}

func (e *RegistrationClosedError) Error() string {
	return "registration closed: container has already served a resolution"
}

// ScopeClosedError reports a resolution attempted on a closing or closed
// Scope.
type ScopeClosedError struct{}

func (e *ScopeClosedError) Error() string {
	return "scope is closed"
}

// ContainerClosedError reports an operation on a Container after Close.
type ContainerClosedError struct{}

func (e *ContainerClosedError) Error() string {
	return "container is closed"
}

// NilFactoryError reports a factory provider declared with a nil factory.
type NilFactoryError struct {
	Type string
}

func (e *NilFactoryError) Error() string {
	return fmt.Sprintf("nil factory provided for type: %s", e.Type)
}

// InvalidFactoryError reports a factory whose signature cannot serve its
// declared type.
type InvalidFactoryError struct {
	Type   string
	Reason string
}

func (e *InvalidFactoryError) Error() string {
	return fmt.Sprintf("invalid factory for type %s: %s", e.Type, e.Reason)
}

// MissingScopeValueError reports a FromScope provider resolved in a Scope
// that was not seeded with a value for its type.
type MissingScopeValueError struct {
	Type string
}

func (e *MissingScopeValueError) Error() string {
	return fmt.Sprintf("no value supplied to scope for type: %s", e.Type)
}
