package store

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store. It is the default when no database is
// configured and the fixture store for tests.
type MemStore struct {
	mu      sync.RWMutex
	records map[Kind]map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[Kind]map[string][]byte)}
}

func (m *MemStore) Get(ctx context.Context, kind Kind, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot, ok := m.records[kind][id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(snapshot))
	copy(out, snapshot)
	return out, nil
}

func (m *MemStore) Upsert(ctx context.Context, kind Kind, id string, snapshot []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.records[kind] == nil {
		m.records[kind] = make(map[string][]byte)
	}
	stored := make([]byte, len(snapshot))
	copy(stored, snapshot)

	previous, ok := m.records[kind][id]
	m.records[kind][id] = stored
	if !ok {
		previous = stored
	}
	out := make([]byte, len(previous))
	copy(out, previous)
	return out, nil
}

func (m *MemStore) Delete(ctx context.Context, kind Kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records[kind], id)
	return nil
}

func (m *MemStore) ListIDs(ctx context.Context, kind Kind) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.records[kind]))
	for id := range m.records[kind] {
		ids = append(ids, id)
	}
	return ids, nil
}
