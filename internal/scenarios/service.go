package scenarios

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/optimusecho/predictor/internal/idgen"
	"github.com/optimusecho/predictor/internal/logging"
	"github.com/optimusecho/predictor/internal/pagination"
	"github.com/optimusecho/predictor/internal/traces"
	"github.com/optimusecho/predictor/internal/validation"
)

// Service implements scenario lifecycle business logic.
type Service struct {
	store Store
}

// NewService creates a new scenario service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create validates and persists a new draft scenario.
func (s *Service) Create(ctx context.Context, req CreateRequest) (_ *Scenario, retErr error) {
	ctx, span := traces.StartSpan(ctx, "scenarios.Create")
	defer func() {
		if retErr != nil {
			span.RecordError(retErr)
			span.SetStatus(codes.Error, retErr.Error())
		}
		span.End()
	}()

	if req.ProximityMeters == 0 {
		req.ProximityMeters = DefaultProximity
	}
	if errs := validateParams(req.TaskType, req.WorkerCount, req.RobotCount, req.ShiftHours, req.ProximityMeters); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidScenario, errs.Error())
	}

	now := time.Now().UTC()
	sc := &Scenario{
		ID:              idgen.WithPrefix("scn_"),
		Name:            validation.SanitizeString(req.Name, 200),
		TaskType:        req.TaskType,
		WorkerCount:     req.WorkerCount,
		RobotCount:      req.RobotCount,
		ShiftHours:      req.ShiftHours,
		ProximityMeters: req.ProximityMeters,
		Description:     validation.SanitizeString(req.Description, 2000),
		Status:          StatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	span.SetAttributes(traces.ScenarioID(sc.ID))

	if err := s.store.Create(ctx, sc); err != nil {
		return nil, fmt.Errorf("failed to create scenario: %w", err)
	}

	scenariosCreated.Inc()
	logging.L(ctx).Info("scenario created",
		"scenario_id", sc.ID, "task_type", sc.TaskType,
		"workers", sc.WorkerCount, "robots", sc.RobotCount)
	return sc, nil
}

// Get returns a scenario by ID.
func (s *Service) Get(ctx context.Context, id string) (*Scenario, error) {
	return s.store.Get(ctx, id)
}

// Update applies the supplied fields to an existing scenario. Only fields
// present in the request change; the result is re-validated as a whole.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (_ *Scenario, retErr error) {
	ctx, span := traces.StartSpan(ctx, "scenarios.Update", traces.ScenarioID(id))
	defer func() {
		if retErr != nil {
			span.RecordError(retErr)
			span.SetStatus(codes.Error, retErr.Error())
		}
		span.End()
	}()

	sc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		sc.Name = validation.SanitizeString(*req.Name, 200)
	}
	if req.TaskType != nil {
		sc.TaskType = *req.TaskType
	}
	if req.WorkerCount != nil {
		sc.WorkerCount = *req.WorkerCount
	}
	if req.RobotCount != nil {
		sc.RobotCount = *req.RobotCount
	}
	if req.ShiftHours != nil {
		sc.ShiftHours = *req.ShiftHours
	}
	if req.ProximityMeters != nil {
		sc.ProximityMeters = *req.ProximityMeters
	}
	if req.Description != nil {
		sc.Description = validation.SanitizeString(*req.Description, 2000)
	}

	if sc.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidScenario)
	}
	if errs := validateParams(sc.TaskType, sc.WorkerCount, sc.RobotCount, sc.ShiftHours, sc.ProximityMeters); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidScenario, errs.Error())
	}

	sc.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, sc); err != nil {
		return nil, fmt.Errorf("failed to update scenario: %w", err)
	}
	return sc, nil
}

// Delete removes a scenario.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	scenariosDeleted.Inc()
	logging.L(ctx).Info("scenario deleted", "scenario_id", id)
	return nil
}

// List returns a page of scenarios, newest first.
func (s *Service) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*Scenario, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.List(ctx, cursor, limit)
}

// Count returns the total number of scenarios.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// MarkAnalyzed flips a draft scenario to analyzed. The transition is
// one-way; analyzed scenarios stay analyzed on repeat predictions.
func (s *Service) MarkAnalyzed(ctx context.Context, id string) error {
	sc, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if sc.Status == StatusAnalyzed {
		return nil
	}

	sc.Status = StatusAnalyzed
	sc.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, sc); err != nil {
		return fmt.Errorf("failed to mark scenario analyzed: %w", err)
	}
	scenariosAnalyzed.Inc()
	return nil
}

func validateParams(taskType string, workers, robots int, shiftHours, proximity float64) validation.ValidationErrors {
	return validation.Validate(
		validation.OneOf("task_type", taskType, TaskTypes...),
		validation.IntRange("worker_count", workers, MinWorkerCount, MaxWorkerCount),
		validation.IntRange("robot_count", robots, MinRobotCount, MaxRobotCount),
		validation.FloatRange("shift_duration_hours", shiftHours, MinShiftHours, MaxShiftHours),
		validation.FloatRange("proximity_threshold_meters", proximity, MinProximity, MaxProximity),
	)
}
