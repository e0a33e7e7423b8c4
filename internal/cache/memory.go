package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryProvider is a per-instance, in-memory TTL cache. Entries are evicted
// lazily on read once their TTL has elapsed. The clock is injected so tests
// can advance time deterministically. Instances do not share state across
// process replicas; each replica pays its own cold miss.
type MemoryProvider struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryProvider creates an in-memory cache. A nil clock defaults to
// time.Now.
func NewMemoryProvider(now func() time.Time) *MemoryProvider {
	if now == nil {
		now = time.Now
	}
	return &MemoryProvider{data: make(map[string]entry), now: now}
}

// Get fetches bytes by key. An expired entry is evicted and reported as a
// miss.
func (m *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !it.expiresAt.IsZero() && m.now().After(it.expiresAt) {
		delete(m.data, key)
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), it.value...), nil
}

// Set stores bytes with the provided TTL. A non-positive TTL stores the entry
// without expiry.
func (m *MemoryProvider) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expires time.Time
	if ttl > 0 {
		expires = m.now().Add(ttl)
	}
	m.data[key] = entry{value: append([]byte(nil), value...), expiresAt: expires}
	return nil
}

// Del removes an entry.
func (m *MemoryProvider) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Close releases held entries.
func (m *MemoryProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]entry)
	return nil
}
