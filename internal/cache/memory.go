package cache

import (
	"sync"
	"time"
)

// Memory is a process-wide in-memory Store with per-entry TTL. Expired
// entries are dropped lazily on read and by a periodic janitor.
type Memory struct {
	entries map[string]*memoryEntry
	mu      sync.RWMutex
	ttl     time.Duration
}

// NewMemory creates a Memory cache whose entries expire after ttl.
func NewMemory(ttl time.Duration) *Memory {
	m := &Memory{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
	}

	go m.cleanupExpiredEntries()

	return m
}

func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	entry, exists := m.entries[key]
	m.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Now().After(entry.expiry) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}

	return entry.value, true
}

func (m *Memory) Set(key string, value any) {
	m.mu.Lock()
	m.entries[key] = &memoryEntry{
		value:  value,
		expiry: time.Now().Add(m.ttl),
	}
	m.mu.Unlock()
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

func (m *Memory) cleanupExpiredEntries() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		now := time.Now()
		for key, entry := range m.entries {
			if now.After(entry.expiry) {
				delete(m.entries, key)
			}
		}
		m.mu.Unlock()
	}
}
