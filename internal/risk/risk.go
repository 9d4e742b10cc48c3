// Package risk implements the scenario-to-risk scoring engine and the
// gesture-sequence anomaly detector.
//
// The scenario path evaluates 4 weighted factors: task complexity,
// worker/robot density, shift fatigue, and allowed proximity. The sequence
// path runs four independent anomaly checks over a buffer of encoded
// gesture samples, with the "unusual pattern" signal supplied by a
// pluggable scoring backend. Scores range from 0.0 (safe) to 1.0 (high
// risk) and bucket into four levels. All scoring is deterministic given
// its input; nothing here performs I/O.
package risk

import (
	"errors"
	"math"
	"time"
)

// Level is the discrete risk bucket for an overall risk score.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Bucketing thresholds. A score equal to a threshold maps to the higher
// bucket: exactly 0.30 is medium, exactly 0.80 is critical.
const (
	ThresholdMedium   = 0.30
	ThresholdHigh     = 0.55
	ThresholdCritical = 0.80
)

// LevelFor buckets an overall risk score into a Level.
func LevelFor(score float64) Level {
	switch {
	case score >= ThresholdCritical:
		return LevelCritical
	case score >= ThresholdHigh:
		return LevelHigh
	case score >= ThresholdMedium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// EchoRiskType identifies a structured risk finding on a scenario assessment.
type EchoRiskType string

const (
	EchoGestureMisread       EchoRiskType = "gesture_misread"
	EchoProximityBreach      EchoRiskType = "proximity_breach"
	EchoFatigueInduced       EchoRiskType = "fatigue_induced"
	EchoCrowdingInterference EchoRiskType = "crowding_interference"
)

// EchoRisk is one typed risk finding with a probability derived from its
// contributing factor, not an independent random draw.
type EchoRisk struct {
	Type        EchoRiskType `json:"type"`
	Probability float64      `json:"probability"`
	Description string       `json:"description"`
}

// AnomalyType identifies one of the sequence path's four checks.
type AnomalyType string

const (
	AnomalyRapidChanges    AnomalyType = "rapid_gesture_changes"
	AnomalyLowConfidence   AnomalyType = "low_confidence"
	AnomalyErraticMovement AnomalyType = "erratic_movement"
	AnomalyUnusualPattern  AnomalyType = "unusual_pattern"
)

// Anomaly is one flagged sequence check with its contributing metric.
type Anomaly struct {
	Type        AnomalyType `json:"type"`
	Severity    float64     `json:"severity"`
	Metric      float64     `json:"metric"`
	Description string      `json:"description"`
}

// ReservoirDetails carries sequence-path diagnostics.
type ReservoirDetails struct {
	Activation        float64   `json:"activation"`
	StateVariance     float64   `json:"state_variance"`
	GesturesAnalyzed  int       `json:"gestures_analyzed"`
	AnomaliesDetected int       `json:"anomalies_detected"`
	ModelType         string    `json:"model_type"`
	Anomalies         []Anomaly `json:"anomalies,omitempty"`
}

// Assessment is the engine's output for either scoring path. The engine
// fills the scoring fields only; identity and timestamps are assigned by
// the caller at persistence time so scoring stays a pure function.
type Assessment struct {
	ID                     string            `json:"id"`
	ScenarioID             string            `json:"scenario_id,omitempty"`
	OverallRiskScore       float64           `json:"overall_risk_score"`
	RiskLevel              Level             `json:"risk_level"`
	GestureAccuracy        float64           `json:"gesture_accuracy"`
	MitigatedErrorsPercent float64           `json:"mitigated_errors_percent"`
	SymbiosisIndex         float64           `json:"symbiosis_index"`
	EchoRisks              []EchoRisk        `json:"echo_risks"`
	Recommendations        []string          `json:"recommendations"`
	ReservoirDetails       *ReservoirDetails `json:"reservoir_details,omitempty"`
	CreatedAt              time.Time         `json:"created_at"`
}

// Sentinel errors. InsufficientData is a local precondition failure, not a
// retryable transient: callers must accumulate more samples first.
var (
	ErrInvalidInput     = errors.New("risk: invalid input")
	ErrInsufficientData = errors.New("risk: insufficient data")
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
