package risk

import (
	"fmt"
	"math"

	"github.com/optimusecho/predictor/internal/gesture"
)

// Sequence anomaly thresholds.
const (
	rapidChangeFraction   = 0.5
	lowConfidenceLevel    = 0.7
	lowConfidenceFraction = 0.3
	erraticVarianceLimit  = 1.0
	activationLimit       = 0.5
)

// Overall score shape: each flagged anomaly contributes a fixed base plus a
// severity share, so the score grows with both the count and the severity
// of flagged checks. Four fully severe anomalies saturate at 1.0.
const (
	anomalyBaseWeight     = 0.15
	anomalySeverityWeight = 0.10
)

// ScoreSequence produces a risk assessment from an ordered gesture buffer.
// Buffers shorter than the engine's minimum fail with ErrInsufficientData;
// malformed samples fail with ErrInvalidInput. The overall score is
// max(anomaly score, backend model score), both monotone in their inputs.
func (e *Engine) ScoreSequence(samples []*gesture.Sample) (*Assessment, error) {
	if len(samples) < e.minSequence {
		return nil, fmt.Errorf("%w: %d samples buffered, %d required",
			ErrInsufficientData, len(samples), e.minSequence)
	}

	seq, err := gesture.EncodeSequence(samples)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	result := e.backend.Evaluate(seq)
	anomalies := detectAnomalies(seq, result.Activation)

	var anomalyScore float64
	for _, a := range anomalies {
		anomalyScore += anomalyBaseWeight + anomalySeverityWeight*a.Severity
	}
	score := round3(clamp01(math.Max(anomalyScore, result.ModelScore)))

	a := &Assessment{
		OverallRiskScore:       score,
		RiskLevel:              LevelFor(score),
		GestureAccuracy:        round3(meanConfidence(seq)),
		MitigatedErrorsPercent: math.Round((mitigatedCeiling-mitigatedRiskSpread*score)*10) / 10,
		SymbiosisIndex:         round3(math.Max(symbiosisFloor, 1-symbiosisRiskWeight*score)),
		EchoRisks:              []EchoRisk{},
		Recommendations:        recommendForAnomalies(anomalies),
		ReservoirDetails: &ReservoirDetails{
			Activation:        round3(result.Activation),
			StateVariance:     round3(result.StateVariance),
			GesturesAnalyzed:  len(samples),
			AnomaliesDetected: len(anomalies),
			ModelType:         e.backend.Name(),
			Anomalies:         anomalies,
		},
	}
	return a, nil
}

// detectAnomalies runs the four independent checks over an encoded sequence.
func detectAnomalies(seq [][]float64, activation float64) []Anomaly {
	anomalies := []Anomaly{}

	// Rapid gesture changes: fraction of consecutive label transitions.
	changes := 0
	for t := 1; t < len(seq); t++ {
		if gesture.Label(seq[t]) != gesture.Label(seq[t-1]) {
			changes++
		}
	}
	changeRate := float64(changes) / float64(len(seq)-1)
	if changeRate > rapidChangeFraction {
		anomalies = append(anomalies, Anomaly{
			Type:        AnomalyRapidChanges,
			Severity:    math.Min(changeRate, 1),
			Metric:      round3(changeRate),
			Description: fmt.Sprintf("High gesture change rate: %.0f%%", changeRate*100),
		})
	}

	// Low confidence: fraction of samples below the confidence level.
	lowConf := 0
	for _, row := range seq {
		if row[len(gesture.Vocabulary)] < lowConfidenceLevel {
			lowConf++
		}
	}
	lowConfRate := float64(lowConf) / float64(len(seq))
	if lowConfRate > lowConfidenceFraction {
		anomalies = append(anomalies, Anomaly{
			Type:        AnomalyLowConfidence,
			Severity:    lowConfRate,
			Metric:      round3(lowConfRate),
			Description: fmt.Sprintf("Low confidence in %.0f%% of sequence", lowConfRate*100),
		})
	}

	// Erratic movement: variance of x,y coordinates around their grand mean.
	variance := positionVariance(seq)
	if variance > erraticVarianceLimit {
		anomalies = append(anomalies, Anomaly{
			Type:        AnomalyErraticMovement,
			Severity:    math.Min(variance/2, 1),
			Metric:      round3(variance),
			Description: fmt.Sprintf("High position variance: %.2f", variance),
		})
	}

	// Unusual pattern: backend activation above its limit.
	if activation > activationLimit {
		anomalies = append(anomalies, Anomaly{
			Type:        AnomalyUnusualPattern,
			Severity:    math.Min(activation, 1),
			Metric:      round3(activation),
			Description: fmt.Sprintf("Unusual gesture pattern detected (activation: %.2f)", activation),
		})
	}

	return anomalies
}

// positionVariance computes the variance of all x and y values pooled
// together, matching the normalized coordinate frame units.
func positionVariance(seq [][]float64) float64 {
	xSlot := len(gesture.Vocabulary) + 1
	ySlot := len(gesture.Vocabulary) + 2

	var mean float64
	for _, row := range seq {
		mean += row[xSlot] + row[ySlot]
	}
	n := float64(2 * len(seq))
	mean /= n

	var variance float64
	for _, row := range seq {
		dx := row[xSlot] - mean
		dy := row[ySlot] - mean
		variance += dx*dx + dy*dy
	}
	return variance / n
}

func meanConfidence(seq [][]float64) float64 {
	slot := len(gesture.Vocabulary)
	var sum float64
	for _, row := range seq {
		sum += row[slot]
	}
	return sum / float64(len(seq))
}

// anomalyRecommendations maps each anomaly type to its advisory string.
var anomalyRecommendations = map[AnomalyType]string{
	AnomalyRapidChanges:    "Implement additional gesture confirmation protocols",
	AnomalyLowConfidence:   "Recalibrate gesture sensors or improve workstation lighting",
	AnomalyErraticMovement: "Review workstation layout for obstructions causing erratic motion",
	AnomalyUnusualPattern:  "Schedule supervisor review of recent interaction footage",
}

func recommendForAnomalies(anomalies []Anomaly) []string {
	if len(anomalies) == 0 {
		return append([]string(nil), defaultRecommendations...)
	}
	seen := make(map[string]bool, len(anomalies))
	out := make([]string, 0, len(anomalies))
	for _, a := range anomalies {
		rec := anomalyRecommendations[a.Type]
		if rec != "" && !seen[rec] {
			seen[rec] = true
			out = append(out, rec)
		}
	}
	return out
}
