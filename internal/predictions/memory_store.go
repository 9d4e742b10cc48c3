package predictions

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/optimusecho/predictor/internal/pagination"
	"github.com/optimusecho/predictor/internal/risk"
)

var ErrPredictionNotFound = errors.New("predictions: not found")

// MemoryStore is an in-memory assessment store for demo/development mode.
type MemoryStore struct {
	assessments map[string]*risk.Assessment
	mu          sync.RWMutex
}

// NewMemoryStore creates a new in-memory assessment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{assessments: make(map[string]*risk.Assessment)}
}

// copyAssessment deep-copies an assessment so callers never share slices
// or the reservoir details pointer with the store.
func copyAssessment(a *risk.Assessment) *risk.Assessment {
	cp := *a
	cp.EchoRisks = append([]risk.EchoRisk(nil), a.EchoRisks...)
	cp.Recommendations = append([]string(nil), a.Recommendations...)
	if a.ReservoirDetails != nil {
		details := *a.ReservoirDetails
		details.Anomalies = append([]risk.Anomaly(nil), a.ReservoirDetails.Anomalies...)
		cp.ReservoirDetails = &details
	}
	return &cp
}

func (m *MemoryStore) Create(_ context.Context, a *risk.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.assessments[a.ID] = copyAssessment(a)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*risk.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.assessments[id]
	if !ok {
		return nil, ErrPredictionNotFound
	}
	return copyAssessment(a), nil
}

func (m *MemoryStore) List(_ context.Context, cursor *pagination.Cursor, limit int) ([]*risk.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*risk.Assessment
	for _, a := range m.assessments {
		if cursor != nil {
			if a.CreatedAt.After(cursor.CreatedAt) {
				continue
			}
			if a.CreatedAt.Equal(cursor.CreatedAt) && a.ID >= cursor.ID {
				continue
			}
		}
		result = append(result, copyAssessment(a))
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

func (m *MemoryStore) ListByScenario(_ context.Context, scenarioID string, limit int) ([]*risk.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*risk.Assessment
	for _, a := range m.assessments {
		if a.ScenarioID == scenarioID {
			result = append(result, copyAssessment(a))
		}
	}

	sort.Slice(result, func(i, j int) bool {
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
	return len(m.assessments), nil
}

func (m *MemoryStore) Averages(_ context.Context) (*AverageMetrics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.assessments) == 0 {
		return nil, nil
	}

	avg := &AverageMetrics{}
	for _, a := range m.assessments {
		avg.RiskScore += a.OverallRiskScore
		avg.MitigatedErrors += a.MitigatedErrorsPercent
		avg.SymbiosisIndex += a.SymbiosisIndex
		avg.GestureAccuracy += a.GestureAccuracy
	}
	n := float64(len(m.assessments))
	avg.RiskScore /= n
	avg.MitigatedErrors /= n
	avg.SymbiosisIndex /= n
	avg.GestureAccuracy /= n
	return avg, nil
}

func (m *MemoryStore) LevelCounts(_ context.Context) (map[risk.Level]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[risk.Level]int)
	for _, a := range m.assessments {
		counts[a.RiskLevel]++
	}
	return counts, nil
}

func (m *MemoryStore) RecentPoints(_ context.Context, limit int) ([]*TrendPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []*risk.Assessment
	for _, a := range m.assessments {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if len(all) > limit {
		all = all[:limit]
	}

	// Oldest first, chart-ready.
	points := make([]*TrendPoint, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		a := all[i]
		points = append(points, &TrendPoint{
			CreatedAt:       a.CreatedAt,
			RiskScore:       a.OverallRiskScore,
			SymbiosisIndex:  a.SymbiosisIndex,
			GestureAccuracy: a.GestureAccuracy,
			MitigatedErrors: a.MitigatedErrorsPercent,
		})
	}
	return points, nil
}

// Compile-time assertion that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
