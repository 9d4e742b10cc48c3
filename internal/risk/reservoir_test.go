package risk

import (
	"math"
	"testing"
	"time"

	"github.com/optimusecho/predictor/internal/gesture"
)

// Small reservoir for test speed; hyperparameter shape matches production.
func testReservoirConfig() ReservoirConfig {
	return ReservoirConfig{
		Units:          30,
		LeakRate:       0.3,
		SpectralRadius: 0.9,
		InputScaling:   0.5,
		Ridge:          1e-5,
		Seed:           42,
	}
}

func TestReservoirDeterministic(t *testing.T) {
	r1, err := NewTrainedReservoir(testReservoirConfig(), 40, 20)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	r2, err := NewTrainedReservoir(testReservoirConfig(), 40, 20)
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	seq, err := gesture.EncodeSequence(calmBuffer(15))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	a := r1.Evaluate(seq)
	b := r2.Evaluate(seq)
	if a != b {
		t.Errorf("same seed produced different evaluations:\n%+v\n%+v", a, b)
	}

	// And re-evaluating with the same model is stable.
	if c := r1.Evaluate(seq); c != a {
		t.Errorf("repeated evaluation drifted: %+v vs %+v", c, a)
	}
}

func TestReservoirModelScoreBounded(t *testing.T) {
	r, err := NewTrainedReservoir(testReservoirConfig(), 40, 20)
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	gen := gesture.NewGenerator(7)
	base := time.Unix(0, 0).UTC()
	for _, samples := range [][]*gesture.Sample{
		gen.Generate(20, base),
		gen.GenerateErratic(20, base),
		calmBuffer(20),
	} {
		seq, err := gesture.EncodeSequence(samples)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		res := r.Evaluate(seq)
		if res.ModelScore < 0 || res.ModelScore > 1 {
			t.Errorf("model score %f outside [0,1]", res.ModelScore)
		}
		if res.Activation < 0 || math.IsNaN(res.Activation) {
			t.Errorf("bad activation %f", res.Activation)
		}
		if res.StateVariance < 0 || math.IsNaN(res.StateVariance) {
			t.Errorf("bad state variance %f", res.StateVariance)
		}
	}
}

func TestReservoirUntrainedHasNoModelScore(t *testing.T) {
	r := NewReservoir(testReservoirConfig())

	seq, err := gesture.EncodeSequence(calmBuffer(12))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	res := r.Evaluate(seq)
	if res.ModelScore != 0 {
		t.Errorf("untrained reservoir reported model score %f", res.ModelScore)
	}
	if res.Activation == 0 {
		t.Error("expected nonzero activation from reservoir states")
	}
}

func TestReservoirBackendWiresIntoEngine(t *testing.T) {
	r, err := NewTrainedReservoir(testReservoirConfig(), 40, 20)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	engine := NewEngine(r)

	a, err := engine.ScoreSequence(calmBuffer(15))
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if a.ReservoirDetails.ModelType != "reservoir" {
		t.Errorf("model_type = %s, want reservoir", a.ReservoirDetails.ModelType)
	}
	if a.OverallRiskScore < 0 || a.OverallRiskScore > 1 {
		t.Errorf("score %f outside [0,1]", a.OverallRiskScore)
	}
}

func TestRidgeFitRecoversLinearTarget(t *testing.T) {
	// y = 2*x0 - x1 + 0.5 should be recovered near-exactly.
	features := [][]float64{
		{0, 0}, {1, 0}, {0, 1}, {1, 1}, {2, 1}, {1, 2}, {3, 0}, {0, 3},
	}
	targets := make([]float64, len(features))
	for i, f := range features {
		targets[i] = 2*f[0] - f[1] + 0.5
	}

	w, err := ridgeFit(features, targets, 1e-9)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	for i, want := range []float64{2, -1, 0.5} {
		if math.Abs(w[i]-want) > 1e-3 {
			t.Errorf("coefficient %d = %f, want %f", i, w[i], want)
		}
	}
}
