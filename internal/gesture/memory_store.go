package gesture

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu      sync.RWMutex
	samples []*Sample
}

// NewMemoryStore creates an in-memory gesture sample store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(ctx context.Context, sample *Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, copySample(sample))
	return nil
}

func (s *MemoryStore) RecordBatch(ctx context.Context, samples []*Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sample := range samples {
		s.samples = append(s.samples, copySample(sample))
	}
	return nil
}

func (s *MemoryStore) ListRecent(ctx context.Context, limit int) ([]*Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.samples) - limit
	if start < 0 {
		start = 0
	}

	// Most recent first
	result := make([]*Sample, 0, len(s.samples)-start)
	for i := len(s.samples) - 1; i >= start; i-- {
		result = append(result, copySample(s.samples[i]))
	}
	return result, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples), nil
}

func copySample(sample *Sample) *Sample {
	c := *sample
	if sample.Position != nil {
		pos := *sample.Position
		c.Position = &pos
	}
	return &c
}
