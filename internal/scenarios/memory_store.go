package scenarios

import (
	"context"
	"sort"
	"sync"

	"github.com/optimusecho/predictor/internal/pagination"
)

// MemoryStore is an in-memory scenario store for demo/development mode.
type MemoryStore struct {
	scenarios map[string]*Scenario
	mu        sync.RWMutex
}

// NewMemoryStore creates a new in-memory scenario store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scenarios: make(map[string]*Scenario)}
}

func (m *MemoryStore) Create(_ context.Context, s *Scenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	m.scenarios[s.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.scenarios[id]
	if !ok {
		return nil, ErrScenarioNotFound
	}
	// Return a copy to prevent races on the shared pointer
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Update(_ context.Context, s *Scenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.scenarios[s.ID]; !ok {
		return ErrScenarioNotFound
	}
	cp := *s
	m.scenarios[s.ID] = &cp
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.scenarios[id]; !ok {
		return ErrScenarioNotFound
	}
	delete(m.scenarios, id)
	return nil
}

func (m *MemoryStore) List(_ context.Context, cursor *pagination.Cursor, limit int) ([]*Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Scenario
	for _, s := range m.scenarios {
		if cursor != nil {
			// Keyset: strictly older than the cursor row, ties broken by ID.
			if s.CreatedAt.After(cursor.CreatedAt) {
				continue
			}
			if s.CreatedAt.Equal(cursor.CreatedAt) && s.ID >= cursor.ID {
				continue
			}
		}
		cp := *s
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.scenarios), nil
}

// Compile-time assertion that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
