package axon

// Lifetime defines how long a resolved value is cached and which scope owns
// its teardown.
type Lifetime uint8

const (
	// TransientLifetime produces a new value on every resolution. Transient
	// values are never cached, but a cleanup returned by their factory is
	// still owned by the resolving Scope.
	TransientLifetime Lifetime = iota

	// ScopedLifetime caches at most one value per Scope. The value is torn
	// down when its Scope closes.
	ScopedLifetime

	// SingletonLifetime caches at most one value per Container. The value is
	// torn down when the Container closes.
	SingletonLifetime
)

func (l Lifetime) String() string {
	switch l {
	case TransientLifetime:
		return "transient"
	case ScopedLifetime:
		return "scoped"
	case SingletonLifetime:
		return "singleton"
	}
	return "unknown"
}
