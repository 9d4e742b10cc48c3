package risk

import "math"

// BackendResult is a scoring backend's reading of an encoded sequence.
type BackendResult struct {
	// Activation is the "unusual pattern" scalar checked against the
	// anomaly threshold.
	Activation float64
	// StateVariance is the spread of the backend's internal signal,
	// reported in reservoir details.
	StateVariance float64
	// ModelScore is the backend's own risk estimate in [0,1]. The rules
	// backend has no trained model and always reports zero.
	ModelScore float64
}

// ScoringBackend turns an encoded gesture sequence into an activation
// signal. Implementations must be immutable after construction so
// concurrent scoring requests need no locking.
type ScoringBackend interface {
	Name() string
	Evaluate(seq [][]float64) BackendResult
}

// RulesBackend is the deterministic proxy backend: activation is the
// normalized magnitude of the mean feature vector.
type RulesBackend struct{}

// NewRulesBackend creates the rule-based backend.
func NewRulesBackend() *RulesBackend {
	return &RulesBackend{}
}

func (b *RulesBackend) Name() string { return "rules" }

func (b *RulesBackend) Evaluate(seq [][]float64) BackendResult {
	if len(seq) == 0 || len(seq[0]) == 0 {
		return BackendResult{}
	}

	width := len(seq[0])
	mean := make([]float64, width)
	for _, row := range seq {
		for i, v := range row {
			mean[i] += v
		}
	}

	var magnitude float64
	for i := range mean {
		mean[i] /= float64(len(seq))
		magnitude += math.Abs(mean[i])
	}
	activation := math.Min(magnitude/float64(width), 1)

	// Spread of all feature values around the grand mean.
	var grand float64
	for _, v := range mean {
		grand += v
	}
	grand /= float64(width)

	var variance float64
	for _, row := range seq {
		for _, v := range row {
			d := v - grand
			variance += d * d
		}
	}
	variance /= float64(len(seq) * width)

	return BackendResult{
		Activation:    activation,
		StateVariance: variance,
	}
}
