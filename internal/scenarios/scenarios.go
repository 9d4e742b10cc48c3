// Package scenarios manages workplace collaboration scenarios.
//
// Flow:
//  1. Operator creates a scenario → status "draft"
//  2. Operator edits parameters while drafting
//  3. First prediction run → status flips to "analyzed" (one-way)
//  4. Scenario stays listable and re-runnable; delete removes it
package scenarios

import (
	"context"
	"errors"
	"time"

	"github.com/optimusecho/predictor/internal/pagination"
)

var (
	ErrScenarioNotFound = errors.New("scenarios: not found")
	ErrInvalidScenario  = errors.New("scenarios: invalid scenario")
)

// Status represents the lifecycle state of a scenario.
type Status string

const (
	StatusDraft    Status = "draft"    // Editable, not yet scored
	StatusAnalyzed Status = "analyzed" // At least one prediction has run
)

// Parameter bounds enforced at the API boundary.
const (
	MinWorkerCount = 1
	MaxWorkerCount = 50
	MinRobotCount  = 1
	MaxRobotCount  = 20
	MinShiftHours  = 1.0
	MaxShiftHours  = 12.0
	MinProximity   = 0.5
	MaxProximity   = 5.0

	// DefaultProximity applies when a create request omits the threshold.
	DefaultProximity = 1.5
)

// TaskTypes is the closed set of accepted task types.
var TaskTypes = []string{
	"assembly_line", "quality_check", "material_handling", "collaborative_work",
}

// Scenario describes one worker/robot collaboration setup to be scored.
type Scenario struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	TaskType        string    `json:"task_type"`
	WorkerCount     int       `json:"worker_count"`
	RobotCount      int       `json:"robot_count"`
	ShiftHours      float64   `json:"shift_duration_hours"`
	ProximityMeters float64   `json:"proximity_threshold_meters"`
	Description     string    `json:"description,omitempty"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Store persists scenario data.
type Store interface {
	Create(ctx context.Context, s *Scenario) error
	Get(ctx context.Context, id string) (*Scenario, error)
	Update(ctx context.Context, s *Scenario) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*Scenario, error)
	Count(ctx context.Context) (int, error)
}

// CreateRequest contains the parameters for creating a scenario.
type CreateRequest struct {
	Name            string  `json:"name" binding:"required"`
	TaskType        string  `json:"task_type" binding:"required"`
	WorkerCount     int     `json:"worker_count" binding:"required"`
	RobotCount      int     `json:"robot_count" binding:"required"`
	ShiftHours      float64 `json:"shift_duration_hours" binding:"required"`
	ProximityMeters float64 `json:"proximity_threshold_meters"` // 0 = use default (1.5m)
	Description     string  `json:"description"`
}

// UpdateRequest contains the editable scenario fields. Pointer fields
// distinguish "omitted" from zero values.
type UpdateRequest struct {
	Name            *string  `json:"name"`
	TaskType        *string  `json:"task_type"`
	WorkerCount     *int     `json:"worker_count"`
	RobotCount      *int     `json:"robot_count"`
	ShiftHours      *float64 `json:"shift_duration_hours"`
	ProximityMeters *float64 `json:"proximity_threshold_meters"`
	Description     *string  `json:"description"`
}
