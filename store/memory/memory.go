package memory

import (
	"context"
	"sync"
	"time"

	"github.com/zlnvch/cocreate/store"
)

type lease struct {
	owner   string
	expires time.Time
}

type MemoryStore struct {
	Now func() time.Time

	mu     sync.RWMutex
	items  map[string]string
	leases map[string]lease
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Now:    time.Now,
		items:  make(map[string]string),
		leases: make(map[string]lease),
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.items[key]
	if !ok {
		return "", store.ErrItemNotFound
	}
	return value, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = value
	return nil
}

// Remove is idempotent: removing a missing key is not an error.
func (m *MemoryStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

func (m *MemoryStore) AcquireLease(ctx context.Context, key string, owner string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	if held, ok := m.leases[key]; ok && held.owner != owner && now.Before(held.expires) {
		return false, nil
	}
	m.leases[key] = lease{owner: owner, expires: now.Add(ttl)}
	return true, nil
}

func (m *MemoryStore) ReleaseLease(ctx context.Context, key string, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if held, ok := m.leases[key]; ok && held.owner == owner {
		delete(m.leases, key)
	}
	return nil
}
