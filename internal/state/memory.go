package state

import (
	"context"
	"sync"
)

// MemoryPersister keeps the encoded document in memory. Used in tests and
// for throwaway servers.
type MemoryPersister struct {
	mu    sync.RWMutex
	data  []byte
	loads int
	saves int
	fail  error
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (m *MemoryPersister) Location() string { return "memory" }

func (m *MemoryPersister) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.data == nil {
		return nil, ErrNotExist
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

func (m *MemoryPersister) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.saves++
	m.data = make([]byte, len(data))
	copy(m.data, data)
	return nil
}

// Set replaces the stored bytes without counting a save.
func (m *MemoryPersister) Set(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
}

// FailSaves makes every following Save return err; nil restores saving.
func (m *MemoryPersister) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Loads is the number of Load calls so far.
func (m *MemoryPersister) Loads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loads
}

// Saves is the number of successful Save calls so far.
func (m *MemoryPersister) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
