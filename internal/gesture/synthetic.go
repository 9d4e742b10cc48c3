package gesture

import (
	"math"
	"math/rand"
	"time"

	"github.com/optimusecho/predictor/internal/idgen"
)

// MaxSyntheticCount caps a single synthetic generation request.
const MaxSyntheticCount = 200

// Generator produces synthetic gesture samples for demos and model training.
// It carries its own seeded *rand.Rand so output is reproducible; it is not
// safe for concurrent use.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with an explicit seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate returns count samples following a smooth sinusoidal sweep with
// mild noise, the pattern a calm operator would trace. Count is capped at
// MaxSyntheticCount.
func (g *Generator) Generate(count int, baseTime time.Time) []*Sample {
	if count > MaxSyntheticCount {
		count = MaxSyntheticCount
	}

	samples := make([]*Sample, 0, count)
	for i := 0; i < count; i++ {
		t := float64(i)
		samples = append(samples, &Sample{
			ID:         idgen.WithPrefix("gst_"),
			Type:       Vocabulary[g.rng.Intn(len(Vocabulary))],
			Confidence: round3(0.7 + g.rng.Float64()*0.29),
			Position: &Position{
				X: round2(math.Sin(t/10)*1.5 + g.rng.NormFloat64()*0.05),
				Y: round2(1.0 + math.Cos(t/10)*0.3 + g.rng.NormFloat64()*0.05),
				Z: round2(g.rng.Float64()*2 - 1),
			},
			Timestamp: baseTime.Add(time.Duration(i) * time.Second),
			Source:    "synthetic",
		})
	}
	return samples
}

// GenerateErratic returns count samples with rapid label changes, low
// confidence, and scattered positions. Used to exercise the anomaly checks
// and to label risky training sequences.
func (g *Generator) GenerateErratic(count int, baseTime time.Time) []*Sample {
	if count > MaxSyntheticCount {
		count = MaxSyntheticCount
	}

	samples := make([]*Sample, 0, count)
	for i := 0; i < count; i++ {
		samples = append(samples, &Sample{
			ID:         idgen.WithPrefix("gst_"),
			Type:       Vocabulary[i%len(Vocabulary)], // forced transition every sample
			Confidence: round3(0.3 + g.rng.Float64()*0.4),
			Position: &Position{
				X: round2(g.rng.Float64()*4 - 2),
				Y: round2(g.rng.Float64()*2 + g.rng.NormFloat64()*0.5),
				Z: 0,
			},
			Timestamp: baseTime.Add(time.Duration(i) * time.Second),
			Source:    "synthetic",
		})
	}
	return samples
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
