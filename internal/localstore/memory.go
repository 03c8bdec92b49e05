package localstore

import (
	"context"
	"sync"
)

// Memory is an in-process Storage. With a positive quota it fails writes the
// way a full browser storage area does.
type Memory struct {
	mu       sync.RWMutex
	data     map[string][]byte
	size     int
	maxBytes int
}

func NewMemory(maxBytes int) *Memory {
	return &Memory{data: make(map[string][]byte), maxBytes: maxBytes}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := m.size - len(m.data[key]) + len(value)
	if m.maxBytes > 0 && size > m.maxBytes {
		return ErrQuotaExceeded
	}
	m.data[key] = append([]byte(nil), value...)
	m.size = size
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.size -= len(m.data[key])
	delete(m.data, key)
	return nil
}

// SetQuota changes the byte quota; zero removes it
func (m *Memory) SetQuota(maxBytes int) {
	m.mu.Lock()
	m.maxBytes = maxBytes
	m.mu.Unlock()
}

func (m *Memory) Close() error { return nil }
