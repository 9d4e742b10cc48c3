package risk

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/optimusecho/predictor/internal/gesture"
)

func calmSample(i int, typ gesture.Type) *gesture.Sample {
	t := float64(i)
	return &gesture.Sample{
		ID:         "gst_test",
		Type:       typ,
		Confidence: 0.9,
		Position: &gesture.Position{
			X: math.Sin(t/10) * 1.5,
			Y: 1.0 + math.Cos(t/10)*0.3,
		},
		Timestamp: time.Unix(int64(i), 0),
		Source:    "test",
	}
}

func calmBuffer(n int) []*gesture.Sample {
	samples := make([]*gesture.Sample, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, calmSample(i, gesture.TypeProceed))
	}
	return samples
}

func TestSequenceBelowMinimum(t *testing.T) {
	engine := NewEngine(NewRulesBackend())

	_, err := engine.ScoreSequence(calmBuffer(9))
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for 9 samples, got %v", err)
	}

	if _, err := engine.ScoreSequence(calmBuffer(10)); err != nil {
		t.Fatalf("10 samples should score, got %v", err)
	}
}

func TestSequenceInvalidSample(t *testing.T) {
	engine := NewEngine(NewRulesBackend())

	buf := calmBuffer(10)
	buf[4].Confidence = 1.5

	_, err := engine.ScoreSequence(buf)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if errors.Is(err, ErrInsufficientData) {
		t.Error("invalid input must be distinguishable from insufficient data")
	}
}

func TestCalmSequenceHasNoAnomalies(t *testing.T) {
	engine := NewEngine(NewRulesBackend())

	a, err := engine.ScoreSequence(calmBuffer(20))
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	if a.ReservoirDetails == nil {
		t.Fatal("reservoir details missing")
	}
	if a.ReservoirDetails.AnomaliesDetected != 0 {
		t.Errorf("calm buffer flagged %d anomalies: %+v",
			a.ReservoirDetails.AnomaliesDetected, a.ReservoirDetails.Anomalies)
	}
	if a.RiskLevel != LevelLow {
		t.Errorf("calm buffer scored %s (%f)", a.RiskLevel, a.OverallRiskScore)
	}
	if a.ReservoirDetails.GesturesAnalyzed != 20 {
		t.Errorf("gestures_analyzed = %d, want 20", a.ReservoirDetails.GesturesAnalyzed)
	}
	if a.ReservoirDetails.ModelType != "rules" {
		t.Errorf("model_type = %s", a.ReservoirDetails.ModelType)
	}
}

func TestRapidChangesFlagged(t *testing.T) {
	engine := NewEngine(NewRulesBackend())

	// Alternate every sample: 100% transition rate.
	buf := make([]*gesture.Sample, 0, 10)
	for i := 0; i < 10; i++ {
		typ := gesture.TypeStop
		if i%2 == 1 {
			typ = gesture.TypeProceed
		}
		buf = append(buf, calmSample(i, typ))
	}

	a, err := engine.ScoreSequence(buf)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	assertAnomaly(t, a, AnomalyRapidChanges)
}

func TestLowConfidenceFlagged(t *testing.T) {
	engine := NewEngine(NewRulesBackend())

	buf := calmBuffer(10)
	for _, s := range buf {
		s.Confidence = 0.5
	}

	a, err := engine.ScoreSequence(buf)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	found := assertAnomaly(t, a, AnomalyLowConfidence)
	if found != nil && found.Severity != 1.0 {
		t.Errorf("all-low-confidence severity = %f, want 1.0", found.Severity)
	}
}

func TestErraticMovementFlagged(t *testing.T) {
	engine := NewEngine(NewRulesBackend())

	buf := calmBuffer(10)
	for i, s := range buf {
		v := 5.0
		if i%2 == 1 {
			v = -5.0
		}
		s.Position = &gesture.Position{X: v, Y: v}
	}

	a, err := engine.ScoreSequence(buf)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	assertAnomaly(t, a, AnomalyErraticMovement)
}

func TestScoreGrowsWithAnomalyCount(t *testing.T) {
	engine := NewEngine(NewRulesBackend())

	// One anomaly: rapid changes only.
	one := make([]*gesture.Sample, 0, 10)
	for i := 0; i < 10; i++ {
		typ := gesture.TypeStop
		if i%2 == 1 {
			typ = gesture.TypeProceed
		}
		one = append(one, calmSample(i, typ))
	}

	// Three anomalies: rapid changes, low confidence, erratic movement.
	three := make([]*gesture.Sample, 0, 10)
	for i := 0; i < 10; i++ {
		typ := gesture.TypeStop
		if i%2 == 1 {
			typ = gesture.TypeProceed
		}
		s := calmSample(i, typ)
		s.Confidence = 0.5
		v := 5.0
		if i%2 == 1 {
			v = -5.0
		}
		s.Position = &gesture.Position{X: v, Y: v}
		three = append(three, s)
	}

	a1, err := engine.ScoreSequence(one)
	if err != nil {
		t.Fatalf("score one: %v", err)
	}
	a3, err := engine.ScoreSequence(three)
	if err != nil {
		t.Fatalf("score three: %v", err)
	}

	if a3.ReservoirDetails.AnomaliesDetected <= a1.ReservoirDetails.AnomaliesDetected {
		t.Fatalf("expected more anomalies: %d vs %d",
			a3.ReservoirDetails.AnomaliesDetected, a1.ReservoirDetails.AnomaliesDetected)
	}
	if a3.OverallRiskScore <= a1.OverallRiskScore {
		t.Errorf("score did not grow with anomaly count: %f <= %f",
			a3.OverallRiskScore, a1.OverallRiskScore)
	}
}

func TestSequenceGestureAccuracyIsMeanConfidence(t *testing.T) {
	engine := NewEngine(NewRulesBackend())

	buf := calmBuffer(10)
	a, err := engine.ScoreSequence(buf)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if math.Abs(a.GestureAccuracy-0.9) > 1e-9 {
		t.Errorf("gesture accuracy = %f, want 0.9", a.GestureAccuracy)
	}
}

func TestMinSequenceOverride(t *testing.T) {
	engine := NewEngine(NewRulesBackend()).WithMinSequence(5)

	if _, err := engine.ScoreSequence(calmBuffer(5)); err != nil {
		t.Fatalf("5 samples should score with lowered minimum, got %v", err)
	}
	if _, err := engine.ScoreSequence(calmBuffer(4)); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func assertAnomaly(t *testing.T, a *Assessment, typ AnomalyType) *Anomaly {
	t.Helper()
	if a.ReservoirDetails == nil {
		t.Fatal("reservoir details missing")
	}
	for i := range a.ReservoirDetails.Anomalies {
		if a.ReservoirDetails.Anomalies[i].Type == typ {
			return &a.ReservoirDetails.Anomalies[i]
		}
	}
	t.Errorf("anomaly %s not flagged; got %+v", typ, a.ReservoirDetails.Anomalies)
	return nil
}
