package storage

import (
	"context"
	"sync"
)

// Memory is an in-process KV used by tests and as a fallback when no
// storage path is configured.
type Memory struct {
	mu       sync.Mutex
	values   map[string][]byte
	revs     map[string]uint64
	watchers map[string][]func([]byte)

	// FailWrites makes every Set/CompareAndSet fail, for exercising
	// persistence-error paths.
	FailWrites error
}

// NewMemory creates an empty in-memory KV.
func NewMemory() *Memory {
	return &Memory{
		values:   make(map[string][]byte),
		revs:     make(map[string]uint64),
		watchers: make(map[string][]func([]byte)),
	}
}

// Get returns the stored value and revision for key.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	val, ok := m.values[key]
	if !ok {
		return nil, 0, nil
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, m.revs[key], nil
}

// Set writes unconditionally.
func (m *Memory) Set(ctx context.Context, key string, value []byte) (uint64, error) {
	return m.CompareAndSet(ctx, key, value, AnyRevision)
}

// CompareAndSet writes if the current revision matches expect.
func (m *Memory) CompareAndSet(ctx context.Context, key string, value []byte, expect uint64) (uint64, error) {
	m.mu.Lock()

	if m.FailWrites != nil {
		m.mu.Unlock()
		return 0, m.FailWrites
	}
	if expect != AnyRevision && m.revs[key] != expect {
		m.mu.Unlock()
		return 0, ErrConflict
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	m.values[key] = stored
	m.revs[key]++
	rev := m.revs[key]
	watchers := append([]func([]byte){}, m.watchers[key]...)
	m.mu.Unlock()

	for _, fn := range watchers {
		fn(stored)
	}
	return rev, nil
}

// BytesInUse reports the total size of stored values.
func (m *Memory) BytesInUse(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total int64
	for _, v := range m.values {
		total += int64(len(v))
	}
	return total, nil
}

// Watch registers a change callback for key.
func (m *Memory) Watch(key string, fn func([]byte)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers[key] = append(m.watchers[key], fn)
}
