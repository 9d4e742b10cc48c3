// Package alerts raises operator notifications from risk assessments.
//
// Alert emission is policy driven: a high or critical assessment raises a
// danger alert, medium raises a warning, low raises nothing. Alerts stay
// active until an operator acknowledges them.
package alerts

import (
	"context"
	"errors"
	"time"

	"github.com/optimusecho/predictor/internal/risk"
)

var ErrAlertNotFound = errors.New("alerts: not found")

// Type classifies alert urgency.
type Type string

const (
	TypeWarning Type = "warning"
	TypeDanger  Type = "danger"
)

// Alert is one operator notification tied to a risk assessment.
type Alert struct {
	ID           string    `json:"id"`
	ScenarioID   string    `json:"scenario_id,omitempty"`
	PredictionID string    `json:"prediction_id,omitempty"`
	Type         Type      `json:"type"`
	Message      string    `json:"message"`
	Acknowledged bool      `json:"acknowledged"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists alerts.
type Store interface {
	Create(ctx context.Context, a *Alert) error
	Get(ctx context.Context, id string) (*Alert, error)
	List(ctx context.Context, includeAcked bool, limit int) ([]*Alert, error)
	Acknowledge(ctx context.Context, id string) (*Alert, error)
	CountActive(ctx context.Context) (int, error)
}

// TypeForLevel maps a risk level to the alert type it raises. The second
// return is false when the level raises no alert.
func TypeForLevel(level risk.Level) (Type, bool) {
	switch level {
	case risk.LevelHigh, risk.LevelCritical:
		return TypeDanger, true
	case risk.LevelMedium:
		return TypeWarning, true
	default:
		return "", false
	}
}
