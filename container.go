// Package axon provides a runtime dependency-resolution engine. Providers
// describe how to construct values of declared types; a Container owns the
// provider registry and the process-lifetime singleton scope; Scopes are
// bounded resolution sessions that cache scoped values and guarantee
// deterministic, reverse-order teardown of every resource they opened.
package axon

import (
	"io"
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
)

// Container composes the provider registry with a root scope reserved for
// singleton-lifetime providers. It is the entry point that creates the
// per-operation Scopes resolution happens through.
type Container struct {
	registry *registry
	logger   logrus.FieldLogger

	mu       sync.Mutex
	rootScope *Scope
	closed   bool

	guardMu         sync.Mutex
	singletonGuards map[reflect.Type]*sync.Mutex
}

// Option adjusts a Container at creation.
type Option func(*Container)

// WithLogger installs a logger for registration and lifecycle events. The
// default logger discards everything.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an empty Container. Providers are registered before the first
// Scope resolves against it; registration afterwards fails with
// RegistrationClosedError.
func New(opts ...Option) *Container {
	c := &Container{
		registry:        newRegistry(),
		logger:          discardLogger(),
		singletonGuards: make(map[reflect.Type]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Register adds providers to the registry in order. It fails with
// DuplicateRegistrationError when a provider for an already-bound
// single-binding type is added, including an identical re-registration.
func (c *Container) Register(providers ...*Provider) error {
	if err := c.registry.register(providers, false); err != nil {
		return err
	}
	c.logProviders(providers)
	return nil
}

// TryRegister behaves like Register but silently skips providers whose
// (type, implementation) pair is already present.
func (c *Container) TryRegister(providers ...*Provider) error {
	if err := c.registry.register(providers, true); err != nil {
		return err
	}
	c.logProviders(providers)
	return nil
}

func (c *Container) logProviders(providers []*Provider) {
	for _, p := range providers {
		if p == nil {
			continue
		}
		c.logger.WithField("type", p.declared.String()).
			WithField("lifetime", p.lifetime.String()).
			Debug("provider registered")
	}
}

// Provider returns the registered provider for t. When multiple grouped
// providers exist the last registered one wins.
func (c *Container) Provider(t reflect.Type) (*Provider, error) {
	return c.registry.provider(t)
}

// Providers returns every provider registered for t in registration order.
// An empty slice means the type is unregistered; it is not an error.
func (c *Container) Providers(t reflect.Type) []*Provider {
	return c.registry.all(t)
}

// NewScope opens a child Scope bound to this Container. The caller owns the
// Scope and must Close it to release the resources it opened.
func (c *Container) NewScope(opts ...ScopeOption) (*Scope, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, &ContainerClosedError{}
	}
	c.mu.Unlock()

	s := &Scope{
		container: c,
		state:     scopeActive,
		cache:     make(map[reflect.Type]any, 8),
	}
	for _, opt := range opts {
		opt(s)
	}
	c.logger.Debug("scope opened")
	return s, nil
}

// Close tears down the root scope, finalizing every singleton-lifetime
// resource ever produced, and rejects further Scopes. Close is idempotent.
func (c *Container) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	root := c.rootScope
	c.mu.Unlock()

	c.logger.Debug("container closing")
	if root != nil {
		return root.Close()
	}
	return nil
}

// root returns the singleton scope, materializing it on first use.
func (c *Container) root() *Scope {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rootScope == nil {
		c.rootScope = &Scope{
			container: c,
			root:      true,
			state:     scopeActive,
			cache:     make(map[reflect.Type]any, 8),
		}
		if c.closed {
			c.rootScope.state = scopeClosed
		}
	}
	return c.rootScope
}

// lockSingleton serializes first-time construction per singleton type so a
// provider runs at most once even under concurrent first requests.
func (c *Container) lockSingleton(t reflect.Type) func() {
	c.guardMu.Lock()
	mu, ok := c.singletonGuards[t]
	if !ok {
		mu = &sync.Mutex{}
		c.singletonGuards[t] = mu
	}
	c.guardMu.Unlock()

	mu.Lock()
	return mu.Unlock
}
