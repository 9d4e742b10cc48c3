package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/optimusecho/predictor/internal/idgen"
	"github.com/optimusecho/predictor/internal/logging"
	"github.com/optimusecho/predictor/internal/metrics"
	"github.com/optimusecho/predictor/internal/risk"
)

// Notifier receives newly raised alerts for realtime fan-out.
type Notifier interface {
	NotifyAlert(a *Alert)
}

// Service implements alert policy and lifecycle.
type Service struct {
	store    Store
	notifier Notifier
}

// NewService creates a new alert service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// WithNotifier adds realtime fan-out for raised alerts.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// RaiseForAssessment applies the alert policy to a finished assessment.
// Returns nil when the risk level raises no alert.
func (s *Service) RaiseForAssessment(ctx context.Context, a *risk.Assessment) (*Alert, error) {
	typ, ok := TypeForLevel(a.RiskLevel)
	if !ok {
		return nil, nil
	}

	alert := &Alert{
		ID:           idgen.WithPrefix("alr_"),
		ScenarioID:   a.ScenarioID,
		PredictionID: a.ID,
		Type:         typ,
		Message:      messageFor(a),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	metrics.AlertsEmittedTotal.WithLabelValues(string(typ)).Inc()
	logging.L(ctx).Info("alert raised",
		"alert_id", alert.ID, "type", string(typ),
		"risk_level", string(a.RiskLevel), "scenario_id", a.ScenarioID)

	if s.notifier != nil {
		s.notifier.NotifyAlert(alert)
	}
	return alert, nil
}

// Get returns an alert by ID.
func (s *Service) Get(ctx context.Context, id string) (*Alert, error) {
	return s.store.Get(ctx, id)
}

// List returns recent alerts, newest first. Acknowledged alerts are
// included only when includeAcked is set.
func (s *Service) List(ctx context.Context, includeAcked bool, limit int) ([]*Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.List(ctx, includeAcked, limit)
}

// Acknowledge marks an alert as handled. Idempotent.
func (s *Service) Acknowledge(ctx context.Context, id string) (*Alert, error) {
	a, err := s.store.Acknowledge(ctx, id)
	if err != nil {
		return nil, err
	}
	logging.L(ctx).Info("alert acknowledged", "alert_id", id)
	return a, nil
}

// CountActive returns the number of unacknowledged alerts.
func (s *Service) CountActive(ctx context.Context) (int, error) {
	return s.store.CountActive(ctx)
}

func messageFor(a *risk.Assessment) string {
	if a.ReservoirDetails != nil && a.ReservoirDetails.AnomaliesDetected > 0 {
		return fmt.Sprintf("%s risk: %d gesture anomalies detected (score %.3f)",
			a.RiskLevel, a.ReservoirDetails.AnomaliesDetected, a.OverallRiskScore)
	}
	return fmt.Sprintf("%s risk predicted for scenario (score %.3f)",
		a.RiskLevel, a.OverallRiskScore)
}
