package axon

import (
	"reflect"
	"sync"
)

// registry maps a Type Key to its ordered provider list. Registration is a
// single-writer, pre-resolution step: the registry freezes on the first
// resolution and rejects later registrations.
type registry struct {
	mu        sync.RWMutex
	providers map[reflect.Type][]*Provider
	frozen    bool
}

func newRegistry() *registry {
	return &registry{
		providers: make(map[reflect.Type][]*Provider, 32),
	}
}

func (r *registry) register(providers []*Provider, skipDuplicates bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return &RegistrationClosedError{}
	}
	for _, p := range providers {
		if err := r.registerOne(p, skipDuplicates); err != nil {
			return err
		}
	}
	return nil
}

func (r *registry) registerOne(p *Provider, skipDuplicates bool) error {
	if p == nil {
		return &NilFactoryError{Type: "<nil provider>"}
	}
	if p.err != nil {
		return p.err
	}

	existing := r.providers[p.declared]
	for _, e := range existing {
		if e.sameImplementation(p) {
			if skipDuplicates {
				return nil
			}
			return &DuplicateRegistrationError{Type: p.declared.String()}
		}
	}
	if len(existing) > 0 && !(p.grouped && allGrouped(existing)) {
		return &DuplicateRegistrationError{Type: p.declared.String()}
	}

	r.providers[p.declared] = append(existing, p)
	return nil
}

func allGrouped(providers []*Provider) bool {
	for _, p := range providers {
		if !p.grouped {
			return false
		}
	}
	return true
}

// provider returns the single provider for t. When several grouped providers
// are registered the last registered one wins.
func (r *registry) provider(t reflect.Type) (*Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.providers[t]
	if len(list) == 0 {
		return nil, &ProviderNotFoundError{Type: t.String()}
	}
	return list[len(list)-1], nil
}

// all returns every provider for t in registration order. An empty slice is a
// valid answer for an unregistered type.
func (r *registry) all(t reflect.Type) []*Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.providers[t]
	out := make([]*Provider, len(list))
	copy(out, list)
	return out
}

func (r *registry) freeze() {
	r.mu.RLock()
	frozen := r.frozen
	r.mu.RUnlock()
	if frozen {
		return
	}
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}
