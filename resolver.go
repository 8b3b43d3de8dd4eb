package axon

import (
	"context"
	"reflect"
)

// resolutionState tracks the Type Keys in progress for one resolution call
// chain. It lives on the stack of a single Resolve call, so no goroutine
// bookkeeping is needed.
type resolutionState struct {
	chain  []reflect.Type
	active map[reflect.Type]bool
}

func newResolutionState() *resolutionState {
	return &resolutionState{
		active: make(map[reflect.Type]bool, 8),
	}
}

func (st *resolutionState) enter(t reflect.Type) error {
	if st.active[t] {
		chain := make([]string, 0, len(st.chain)+1)
		for _, c := range st.chain {
			chain = append(chain, c.String())
		}
		chain = append(chain, t.String())
		return &CyclicDependencyError{Chain: chain}
	}
	st.active[t] = true
	st.chain = append(st.chain, t)
	return nil
}

func (st *resolutionState) exit(t reflect.Type) {
	delete(st.active, t)
	st.chain = st.chain[:len(st.chain)-1]
}

// resolve implements the recursive resolution algorithm. Dependencies are
// resolved in declared order before the provider's own construction runs.
// Singleton providers resolve and cache against the Container's root scope;
// everything else stays on the resolving Scope.
func (c *Container) resolve(ctx context.Context, st *resolutionState, t reflect.Type, scope *Scope) (any, error) {
	p, err := c.registry.provider(t)
	if err != nil {
		return nil, err
	}

	target := scope
	if p.lifetime == SingletonLifetime {
		target = c.root()
		if !target.active() {
			return nil, &ContainerClosedError{}
		}
	}

	if p.lifetime != TransientLifetime {
		if v, ok := target.cached(t); ok {
			return v, nil
		}
	}

	if err := st.enter(t); err != nil {
		return nil, err
	}
	defer st.exit(t)

	switch p.kind {
	case kindObject:
		target.store(t, p.value)
		return p.value, nil
	case kindFromScope:
		// supplied values are cache hits; reaching here means nothing was seeded
		return nil, &MissingScopeValueError{Type: t.String()}
	}

	if p.lifetime == SingletonLifetime {
		unlock := c.lockSingleton(t)
		defer unlock()
		if v, ok := target.cached(t); ok {
			return v, nil
		}
	}

	deps := make([]reflect.Value, 0, len(p.deps))
	for _, depType := range p.deps {
		dp, err := c.registry.provider(depType)
		if err != nil {
			return nil, err
		}
		if p.lifetime == SingletonLifetime && dp.lifetime != SingletonLifetime {
			return nil, &LifetimeMismatchError{
				Type:               t.String(),
				Lifetime:           p.lifetime,
				Dependency:         depType.String(),
				DependencyLifetime: dp.lifetime,
			}
		}
		v, err := c.resolve(ctx, st, depType, scope)
		if err != nil {
			return nil, err
		}
		rv := reflect.ValueOf(v)
		if !rv.IsValid() {
			rv = reflect.Zero(depType)
		}
		deps = append(deps, rv)
	}

	value, cleanup, err := p.invoke(ctx, deps)
	if err != nil {
		return nil, &ConstructionError{Type: t.String(), Err: err}
	}
	if cleanup != nil {
		target.pushTeardown(t, cleanup)
	}
	if p.lifetime != TransientLifetime {
		target.store(t, value)
	}
	c.logger.WithField("type", t.String()).WithField("lifetime", p.lifetime.String()).
		Debug("constructed")
	return value, nil
}
