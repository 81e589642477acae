package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*MockDistributedLock)(nil)

// MockDistributedLock tracks locks in memory with TTL expiry. Hooks override
// the default behavior when set.
type MockDistributedLock struct {
	mu       sync.Mutex
	expiries map[string]time.Time
	acquired []string
	released []string

	AcquireFn func(name string, ttl time.Duration) (bool, error)
	ReleaseFn func(name string) error
	PingFn    func() error
}

func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{expiries: make(map[string]time.Time)}
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if m.AcquireFn != nil {
		return m.AcquireFn(name, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if exp, held := m.expiries[name]; held && time.Now().Before(exp) {
		return false, nil
	}
	m.expiries[name] = time.Now().Add(ttl)
	m.acquired = append(m.acquired, name)
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	if m.ReleaseFn != nil {
		return m.ReleaseFn(name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.expiries, name)
	m.released = append(m.released, name)
	return nil
}

func (m *MockDistributedLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if exp, held := m.expiries[name]; !held || time.Now().After(exp) {
		return fmt.Errorf("lock %s not held", name)
	}
	m.expiries[name] = time.Now().Add(ttl)
	return nil
}

func (m *MockDistributedLock) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

// Hold marks a lock as taken by someone else (for test setup).
func (m *MockDistributedLock) Hold(name string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expiries[name] = time.Now().Add(ttl)
}

// IsHeld reports whether name is currently locked.
func (m *MockDistributedLock) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, held := m.expiries[name]
	return held && time.Now().Before(exp)
}

// Acquired returns the names successfully acquired, in order.
func (m *MockDistributedLock) Acquired() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acquired...)
}

// Released returns the names released, in order.
func (m *MockDistributedLock) Released() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.released...)
}
