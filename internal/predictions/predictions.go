// Package predictions orchestrates risk assessments end to end.
//
// The risk engine itself is pure. This package supplies everything around
// it: loading the scenario or snapshotting the gesture buffer, assigning
// identity and timestamps, persisting the assessment, flipping the scenario
// to analyzed, applying the alert policy, and fanning the result out to
// realtime subscribers.
package predictions

import (
	"context"
	"time"

	"github.com/optimusecho/predictor/internal/pagination"
	"github.com/optimusecho/predictor/internal/risk"
)

// AverageMetrics aggregates assessment metrics for the dashboard.
type AverageMetrics struct {
	RiskScore       float64 `json:"risk_score"`
	MitigatedErrors float64 `json:"mitigated_errors_percent"`
	SymbiosisIndex  float64 `json:"symbiosis_index"`
	GestureAccuracy float64 `json:"gesture_accuracy"`
}

// TrendPoint is one assessment reduced to its chartable metrics.
type TrendPoint struct {
	CreatedAt       time.Time `json:"created_at"`
	RiskScore       float64   `json:"risk_score"`
	SymbiosisIndex  float64   `json:"symbiosis_index"`
	GestureAccuracy float64   `json:"gesture_accuracy"`
	MitigatedErrors float64   `json:"mitigated_errors_percent"`
}

// Store persists risk assessments and serves the dashboard aggregations.
type Store interface {
	Create(ctx context.Context, a *risk.Assessment) error
	Get(ctx context.Context, id string) (*risk.Assessment, error)
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*risk.Assessment, error)
	ListByScenario(ctx context.Context, scenarioID string, limit int) ([]*risk.Assessment, error)
	Count(ctx context.Context) (int, error)

	// Dashboard aggregations. Averages returns (nil, nil) when no
	// assessments exist; callers substitute their display fallbacks.
	Averages(ctx context.Context) (*AverageMetrics, error)
	LevelCounts(ctx context.Context) (map[risk.Level]int, error)
	RecentPoints(ctx context.Context, limit int) ([]*TrendPoint, error)
}
