package convostore

import (
	"path"
	"sync"
	"time"
)

// KV is the minimal key/value contract the conversation store needs. Get
// reports absence through the second return value instead of an error so
// callers cannot mistake a missing key for a backend failure.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string, expiration time.Duration) error
	Del(key string) error
	Keys(pattern string) ([]string, error)
}

// MemoryKV is an in-process KV used in tests and local development.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

func (m *MemoryKV) Del(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

func (m *MemoryKV) Keys(pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.values {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
