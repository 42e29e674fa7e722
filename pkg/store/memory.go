package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps documents in process memory. Used by tests and the
// "memory" driver; contents vanish on restart.
type MemoryBackend struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (m *MemoryBackend) Swap(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	var current []byte
	if raw, ok := m.docs[key]; ok {
		current = append([]byte(nil), raw...)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	m.docs[key] = next
	return nil
}

// Put seeds a raw document, bypassing decoding. Tests use it to simulate corruption.
func (m *MemoryBackend) Put(key string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = raw
}
