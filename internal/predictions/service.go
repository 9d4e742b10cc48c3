package predictions

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/optimusecho/predictor/internal/gesture"
	"github.com/optimusecho/predictor/internal/idgen"
	"github.com/optimusecho/predictor/internal/logging"
	"github.com/optimusecho/predictor/internal/metrics"
	"github.com/optimusecho/predictor/internal/pagination"
	"github.com/optimusecho/predictor/internal/risk"
	"github.com/optimusecho/predictor/internal/scenarios"
	"github.com/optimusecho/predictor/internal/traces"
)

// ScenarioProvider abstracts scenario access so predictions doesn't own
// scenario lifecycle.
type ScenarioProvider interface {
	Get(ctx context.Context, id string) (*scenarios.Scenario, error)
	MarkAnalyzed(ctx context.Context, id string) error
}

// AlertRaiser applies the alert policy to finished assessments.
type AlertRaiser interface {
	RaiseForAssessment(ctx context.Context, a *risk.Assessment) error
}

// Broadcaster fans finished assessments out to realtime subscribers.
type Broadcaster interface {
	BroadcastAssessment(a *risk.Assessment)
}

// Service runs predictions and persists their assessments.
type Service struct {
	engine      *risk.Engine
	store       Store
	scenarios   ScenarioProvider
	buffer      *gesture.Buffer
	alerts      AlertRaiser
	broadcaster Broadcaster
}

// NewService creates a prediction service.
func NewService(engine *risk.Engine, store Store, scenarioProvider ScenarioProvider, buffer *gesture.Buffer) *Service {
	return &Service{
		engine:    engine,
		store:     store,
		scenarios: scenarioProvider,
		buffer:    buffer,
	}
}

// WithAlertRaiser adds alert policy application to finished predictions.
func (s *Service) WithAlertRaiser(r AlertRaiser) *Service {
	s.alerts = r
	return s
}

// WithBroadcaster adds realtime fan-out for finished predictions.
func (s *Service) WithBroadcaster(b Broadcaster) *Service {
	s.broadcaster = b
	return s
}

// PredictScenario scores a stored scenario and persists the assessment.
// The scenario flips from draft to analyzed on its first prediction.
func (s *Service) PredictScenario(ctx context.Context, scenarioID string) (_ *risk.Assessment, retErr error) {
	ctx, span := traces.StartSpan(ctx, "predictions.PredictScenario",
		traces.ScenarioID(scenarioID),
		traces.ScoringPath("scenario"),
	)
	defer func() {
		if retErr != nil {
			span.RecordError(retErr)
			span.SetStatus(codes.Error, retErr.Error())
		}
		span.End()
	}()

	sc, err := s.scenarios.Get(ctx, scenarioID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	assessment, err := s.engine.ScoreScenario(&risk.ScenarioInput{
		TaskType:        sc.TaskType,
		WorkerCount:     sc.WorkerCount,
		RobotCount:      sc.RobotCount,
		ShiftHours:      sc.ShiftHours,
		ProximityMeters: sc.ProximityMeters,
	})
	if err != nil {
		return nil, err
	}
	metrics.PredictionDuration.WithLabelValues("scenario").Observe(time.Since(start).Seconds())

	assessment.ScenarioID = scenarioID
	if err := s.finish(ctx, assessment, "scenario"); err != nil {
		return nil, err
	}

	if err := s.scenarios.MarkAnalyzed(ctx, scenarioID); err != nil {
		// The assessment is already persisted; a failed status flip is not
		// worth failing the request over. It retries on the next run.
		logging.L(ctx).Warn("failed to mark scenario analyzed",
			"scenario_id", scenarioID, "error", err)
	}

	span.SetAttributes(
		traces.PredictionID(assessment.ID),
		traces.RiskLevel(string(assessment.RiskLevel)),
	)
	return assessment, nil
}

// PredictSequence scores the current gesture buffer and persists the
// assessment. Fails with risk.ErrInsufficientData until enough samples
// have been buffered.
func (s *Service) PredictSequence(ctx context.Context) (_ *risk.Assessment, retErr error) {
	samples := s.buffer.Snapshot()

	ctx, span := traces.StartSpan(ctx, "predictions.PredictSequence",
		traces.ScoringPath("sequence"),
		traces.BufferLength(len(samples)),
	)
	defer func() {
		if retErr != nil {
			span.RecordError(retErr)
			span.SetStatus(codes.Error, retErr.Error())
		}
		span.End()
	}()

	start := time.Now()
	assessment, err := s.engine.ScoreSequence(samples)
	if err != nil {
		return nil, err
	}
	metrics.PredictionDuration.WithLabelValues("sequence").Observe(time.Since(start).Seconds())

	if assessment.ReservoirDetails != nil {
		for _, a := range assessment.ReservoirDetails.Anomalies {
			metrics.AnomaliesDetectedTotal.WithLabelValues(string(a.Type)).Inc()
		}
	}

	if err := s.finish(ctx, assessment, "sequence"); err != nil {
		return nil, err
	}

	span.SetAttributes(
		traces.PredictionID(assessment.ID),
		traces.RiskLevel(string(assessment.RiskLevel)),
	)
	return assessment, nil
}

// finish assigns identity, persists, and runs the post-prediction hooks
// shared by both scoring paths.
func (s *Service) finish(ctx context.Context, a *risk.Assessment, path string) error {
	a.ID = idgen.WithPrefix("prd_")
	a.CreatedAt = time.Now().UTC()

	if err := s.store.Create(ctx, a); err != nil {
		return fmt.Errorf("failed to persist assessment: %w", err)
	}

	metrics.PredictionsTotal.WithLabelValues(path, string(a.RiskLevel)).Inc()
	logging.L(ctx).Info("prediction completed",
		"prediction_id", a.ID, "path", path,
		"risk_score", a.OverallRiskScore, "risk_level", string(a.RiskLevel))

	if s.alerts != nil {
		if err := s.alerts.RaiseForAssessment(ctx, a); err != nil {
			logging.L(ctx).Error("failed to raise alert for assessment",
				"prediction_id", a.ID, "error", err)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastAssessment(a)
	}
	return nil
}

// Get returns a stored assessment by ID.
func (s *Service) Get(ctx context.Context, id string) (*risk.Assessment, error) {
	return s.store.Get(ctx, id)
}

// List returns a page of assessments, newest first.
func (s *Service) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*risk.Assessment, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.List(ctx, cursor, limit)
}

// ListByScenario returns assessments for one scenario, newest first.
func (s *Service) ListByScenario(ctx context.Context, scenarioID string, limit int) ([]*risk.Assessment, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListByScenario(ctx, scenarioID, limit)
}

// Count returns the total number of stored assessments.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Store returns the underlying store for dashboard aggregation.
func (s *Service) Store() Store {
	return s.store
}
