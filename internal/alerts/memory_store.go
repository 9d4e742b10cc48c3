package alerts

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory alert store for demo/development mode.
type MemoryStore struct {
	alerts map[string]*Alert
	mu     sync.RWMutex
}

// NewMemoryStore creates a new in-memory alert store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{alerts: make(map[string]*Alert)}
}

func (m *MemoryStore) Create(_ context.Context, a *Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *a
	m.alerts[a.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.alerts[id]
	if !ok {
		return nil, ErrAlertNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) List(_ context.Context, includeAcked bool, limit int) ([]*Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Alert
	for _, a := range m.alerts {
		if !includeAcked && a.Acknowledged {
			continue
		}
		cp := *a
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MemoryStore) Acknowledge(_ context.Context, id string) (*Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.alerts[id]
	if !ok {
		return nil, ErrAlertNotFound
	}
	a.Acknowledged = true
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) CountActive(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, a := range m.alerts {
		if !a.Acknowledged {
			n++
		}
	}
	return n, nil
}

// Compile-time assertion that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
