package store

import (
	"sync"

	"github.com/xabinapal/skiff/internal/types"
)

type memoryEntry struct {
	prof *types.Profile
	raw  string
}

// MemoryStore is an in-memory store.
// Records are copied on the way in and out, so callers never share state with it.
type MemoryStore struct {
	mu      sync.RWMutex
	data    map[string]memoryEntry
	failing bool
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memoryEntry),
	}
}

// SetFailing makes all operations fail with a StorageError.
func (m *MemoryStore) SetFailing(failing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = failing
}

// IsAvailable implements Store.
func (m *MemoryStore) IsAvailable() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failing {
		return ErrUnavailable
	}
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(id string) (*types.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failing {
		return nil, storageErr("get", id, ErrUnavailable)
	}

	e, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e.prof.Clone(), nil
}

// GetRaw implements Store.
func (m *MemoryStore) GetRaw(id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failing {
		return "", storageErr("get-raw", id, ErrUnavailable)
	}

	e, ok := m.data[id]
	if !ok {
		return "", ErrNotFound
	}
	return e.raw, nil
}

// Put implements Store.
func (m *MemoryStore) Put(id string, prof *types.Profile, raw string) error {
	if err := checkPut(id, prof); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failing {
		return storageErr("put", id, ErrUnavailable)
	}

	m.data[id] = memoryEntry{prof: withID(id, prof), raw: raw}
	return nil
}

// Remove implements Store.
func (m *MemoryStore) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failing {
		return storageErr("remove", id, ErrUnavailable)
	}

	delete(m.data, id)
	return nil
}

// List implements Store.
func (m *MemoryStore) List() ([]*types.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failing {
		return nil, storageErr("list", "", ErrUnavailable)
	}

	list := make([]*types.Profile, 0, len(m.data))
	for _, e := range m.data {
		list = append(list, e.prof.Clone())
	}
	sortProfiles(list)
	return list, nil
}

// Count returns the number of stored profiles.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
