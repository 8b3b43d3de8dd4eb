// Package mock provides shared service fixtures for container tests.
package mock

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Core interfaces
type Database interface {
	Ping() error
}

type Cache interface {
	Get(key string) (string, bool)
}

type MockDB struct {
	DSN    string
	closed bool
	mu     sync.Mutex
}

func NewMockDB() *MockDB {
	return &MockDB{DSN: "mock://primary"}
}

// OpenMockDB constructs a database together with a finalizer that marks it
// closed, for teardown-tracking tests.
func OpenMockDB() (*MockDB, func() error) {
	db := NewMockDB()
	return db, func() error {
		db.mu.Lock()
		db.closed = true
		db.mu.Unlock()
		return nil
	}
}

func (m *MockDB) Ping() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("database is closed")
	}
	return nil
}

func (m *MockDB) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type MockCache struct {
	DB      Database
	entries map[string]string
}

func NewMockCache(db Database) *MockCache {
	return &MockCache{
		DB:      db,
		entries: map[string]string{"region": "eu-west-1"},
	}
}

func (m *MockCache) Get(key string) (string, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// ComplexService exercises multi-dependency wiring.
type ComplexService struct {
	DB    Database
	Cache Cache
}

func NewComplexService(db Database, cache Cache) *ComplexService {
	return &ComplexService{DB: db, Cache: cache}
}

// Config is a plain value fixture for Object and FromScope providers.
type Config struct {
	Env string
}

// BuildCounter counts factory invocations across goroutines.
type BuildCounter struct {
	n int32
}

func (c *BuildCounter) Inc() {
	atomic.AddInt32(&c.n, 1)
}

func (c *BuildCounter) Count() int {
	return int(atomic.LoadInt32(&c.n))
}

// TeardownRecorder captures finalizer execution order.
type TeardownRecorder struct {
	mu    sync.Mutex
	order []string
}

func (r *TeardownRecorder) Record(name string) {
	r.mu.Lock()
	r.order = append(r.order, name)
	r.mu.Unlock()
}

// Finalizer returns a finalizer recording name when it runs.
func (r *TeardownRecorder) Finalizer(name string) func() error {
	return func() error {
		r.Record(name)
		return nil
	}
}

// FailingFinalizer records name, then fails.
func (r *TeardownRecorder) FailingFinalizer(name string) func() error {
	return func() error {
		r.Record(name)
		return fmt.Errorf("finalizer %s failed", name)
	}
}

func (r *TeardownRecorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Circular dependency fixtures
type ServiceA struct {
	B *ServiceB
}

type ServiceB struct {
	A *ServiceA
}

func NewServiceA(b *ServiceB) *ServiceA {
	return &ServiceA{B: b}
}

func NewServiceB(a *ServiceA) *ServiceB {
	return &ServiceB{A: a}
}
