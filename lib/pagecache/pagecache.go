// Package pagecache caches already-fetched seed pages so repeated
// harvesting calls against the same channel or video skip the initial
// HTML round-trip. The cache is an explicit object owned by the caller
// and passed into a client; there is no process-wide cache state.
package pagecache

import "sync"

type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte)
	Invalidate(key string)
	InvalidateAll()
}

// Memory is a mutex-guarded in-memory Cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{entries: map[string][]byte{}}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *Memory) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
}

func (m *Memory) Invalidate(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *Memory) InvalidateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = map[string][]byte{}
}
