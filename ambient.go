package axon

import "sync"

var (
	currentMu        sync.RWMutex
	currentContainer *Container
)

// SetCurrent installs c as the process-wide current container and returns a
// restore function that reinstates the previous value. The pair is a scoped
// acquisition: callers must run restore on every exit path, typically via
// defer.
func SetCurrent(c *Container) (restore func()) {
	currentMu.Lock()
	prev := currentContainer
	currentContainer = c
	currentMu.Unlock()

	return func() {
		currentMu.Lock()
		currentContainer = prev
		currentMu.Unlock()
	}
}

// Current returns the container installed by SetCurrent, or nil when none is
// installed.
func Current() *Container {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return currentContainer
}
