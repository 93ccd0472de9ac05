package cache

import (
	"context"
	"sync"
	"time"
)

// entry stores a cached value and its absolute expiration timestamp.
type entry struct {
	value     string
	expiresAt time.Time // zero means no expiration
}

// Memory is a map-backed Store for single-instance deployments and tests.
// Expired entries are dropped lazily and by PurgeExpired.
type Memory struct {
	mu    sync.RWMutex
	items map[string]entry
}

// NewMemory constructs an empty Memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]entry)}
}

// now is a small indirection to allow test stubbing.
var now = time.Now

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.items[key]
	if !ok || e.expired(now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var exp time.Time
	if ttl > 0 {
		exp = now().Add(ttl)
	}
	m.items[key] = entry{value: value, expiresAt: exp}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Len counts the non-expired entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ts := now()
	count := 0
	for _, e := range m.items {
		if !e.expired(ts) {
			count++
		}
	}
	return count
}

// PurgeExpired removes expired entries.
func (m *Memory) PurgeExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := now()
	for k, e := range m.items {
		if e.expired(ts) {
			delete(m.items, k)
		}
	}
}

// StartJanitor purges expired entries every interval until ctx is done.
func (m *Memory) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.PurgeExpired()
			}
		}
	}()
}

func (e entry) expired(ts time.Time) bool {
	return !e.expiresAt.IsZero() && ts.After(e.expiresAt)
}

var _ Store = (*Memory)(nil)
