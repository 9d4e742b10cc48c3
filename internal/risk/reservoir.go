package risk

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/optimusecho/predictor/internal/gesture"
)

// ReservoirConfig holds the echo state network hyperparameters.
type ReservoirConfig struct {
	Units          int
	LeakRate       float64
	SpectralRadius float64
	InputScaling   float64
	Ridge          float64
	Seed           int64
}

// DefaultReservoirConfig returns the standard reservoir setup.
func DefaultReservoirConfig(seed int64) ReservoirConfig {
	return ReservoirConfig{
		Units:          100,
		LeakRate:       0.3,
		SpectralRadius: 0.9,
		InputScaling:   0.5,
		Ridge:          1e-5,
		Seed:           seed,
	}
}

// Reservoir is an echo state network scoring backend: a fixed random
// recurrent layer with a ridge-regression readout over mean states.
// Weights are initialized from the config seed and trained once at
// construction; afterwards the model is immutable and shared read-only
// across concurrent scoring requests.
type Reservoir struct {
	cfg     ReservoirConfig
	win     [][]float64 // input weights, units x FeatureWidth
	w       [][]float64 // recurrent weights, units x units
	readout []float64   // units + 1 (bias last), nil until trained
}

// NewReservoir builds an untrained reservoir with seeded weights scaled to
// the configured spectral radius.
func NewReservoir(cfg ReservoirConfig) *Reservoir {
	rng := rand.New(rand.NewSource(cfg.Seed))

	win := make([][]float64, cfg.Units)
	for i := range win {
		win[i] = make([]float64, gesture.FeatureWidth)
		for j := range win[i] {
			win[i][j] = (rng.Float64()*2 - 1) * cfg.InputScaling
		}
	}

	w := make([][]float64, cfg.Units)
	for i := range w {
		w[i] = make([]float64, cfg.Units)
		for j := range w[i] {
			w[i][j] = rng.Float64()*2 - 1
		}
	}

	// Rescale the recurrent weights so the dominant eigenvalue magnitude
	// matches the configured spectral radius.
	if radius := dominantEigenvalue(w, rng); radius > 0 {
		scale := cfg.SpectralRadius / radius
		for i := range w {
			for j := range w[i] {
				w[i][j] *= scale
			}
		}
	}

	return &Reservoir{cfg: cfg, win: win, w: w}
}

// NewTrainedReservoir builds a reservoir and trains its readout on seeded
// synthetic sequences: 70% calm operator traces, 30% erratic.
func NewTrainedReservoir(cfg ReservoirConfig, sequences, seqLength int) (*Reservoir, error) {
	r := NewReservoir(cfg)

	rng := rand.New(rand.NewSource(cfg.Seed))
	gen := gesture.NewGenerator(cfg.Seed)
	base := time.Unix(0, 0).UTC()

	seqs := make([][][]float64, 0, sequences)
	targets := make([]float64, 0, sequences)
	for i := 0; i < sequences; i++ {
		risky := rng.Float64() < 0.3

		var samples []*gesture.Sample
		if risky {
			samples = gen.GenerateErratic(seqLength, base)
		} else {
			samples = gen.Generate(seqLength, base)
		}
		seq, err := gesture.EncodeSequence(samples)
		if err != nil {
			return nil, fmt.Errorf("reservoir: encode training sequence: %w", err)
		}
		seqs = append(seqs, seq)

		if risky {
			targets = append(targets, 0.6+rng.Float64()*0.4)
		} else {
			targets = append(targets, rng.Float64()*0.4)
		}
	}

	if err := r.Train(seqs, targets); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reservoir) Name() string { return "reservoir" }

// Evaluate runs the sequence through the reservoir. Activation is the mean
// absolute unit state, variance the spread of all states; the model score
// is the trained readout over the mean state, clipped to [0,1].
func (r *Reservoir) Evaluate(seq [][]float64) BackendResult {
	states := r.run(seq)

	var sumAbs, sum float64
	n := 0
	for _, state := range states {
		for _, v := range state {
			sumAbs += math.Abs(v)
			sum += v
			n++
		}
	}
	if n == 0 {
		return BackendResult{}
	}
	mean := sum / float64(n)

	var variance float64
	for _, state := range states {
		for _, v := range state {
			d := v - mean
			variance += d * d
		}
	}
	variance /= float64(n)

	res := BackendResult{
		Activation:    sumAbs / float64(n),
		StateVariance: variance,
	}
	if r.readout != nil {
		res.ModelScore = clamp01(r.predict(meanState(states)))
	}
	return res
}

// Train fits the ridge readout on the mean reservoir state per sequence.
func (r *Reservoir) Train(seqs [][][]float64, targets []float64) error {
	if len(seqs) == 0 || len(seqs) != len(targets) {
		return fmt.Errorf("reservoir: need equal non-empty sequences and targets")
	}

	features := make([][]float64, len(seqs))
	for i, seq := range seqs {
		features[i] = meanState(r.run(seq))
	}

	readout, err := ridgeFit(features, targets, r.cfg.Ridge)
	if err != nil {
		return err
	}
	r.readout = readout
	return nil
}

// run drives the leaky-integrator update x' = (1-lr)x + lr tanh(Win u + W x)
// and returns the state trajectory.
func (r *Reservoir) run(seq [][]float64) [][]float64 {
	state := make([]float64, r.cfg.Units)
	states := make([][]float64, 0, len(seq))

	for _, u := range seq {
		next := make([]float64, r.cfg.Units)
		for i := 0; i < r.cfg.Units; i++ {
			var pre float64
			for j, v := range u {
				pre += r.win[i][j] * v
			}
			for j, v := range state {
				pre += r.w[i][j] * v
			}
			next[i] = (1-r.cfg.LeakRate)*state[i] + r.cfg.LeakRate*math.Tanh(pre)
		}
		state = next
		states = append(states, state)
	}
	return states
}

func (r *Reservoir) predict(feature []float64) float64 {
	out := r.readout[len(r.readout)-1] // bias
	for i, v := range feature {
		out += r.readout[i] * v
	}
	return out
}

func meanState(states [][]float64) []float64 {
	if len(states) == 0 {
		return nil
	}
	mean := make([]float64, len(states[0]))
	for _, state := range states {
		for i, v := range state {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(len(states))
	}
	return mean
}

// dominantEigenvalue estimates |lambda_max| with power iteration.
func dominantEigenvalue(m [][]float64, rng *rand.Rand) float64 {
	n := len(m)
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.Float64()
	}

	var norm float64
	for iter := 0; iter < 100; iter++ {
		next := make([]float64, n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				next[i] += m[i][j] * v[j]
			}
		}
		norm = 0
		for _, x := range next {
			norm += x * x
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			return 0
		}
		for i := range next {
			next[i] /= norm
		}
		v = next
	}
	return norm
}

// ridgeFit solves (X'X + lambda I) b = X'y for features with a trailing
// bias column, via Gaussian elimination with partial pivoting.
func ridgeFit(features [][]float64, targets []float64, lambda float64) ([]float64, error) {
	n := len(features)
	dim := len(features[0]) + 1 // bias

	x := make([][]float64, n)
	for i, f := range features {
		x[i] = append(append(make([]float64, 0, dim), f...), 1)
	}

	// A = X'X + lambda I, b = X'y
	a := make([][]float64, dim)
	b := make([]float64, dim)
	for i := 0; i < dim; i++ {
		a[i] = make([]float64, dim)
		for j := 0; j < dim; j++ {
			for k := 0; k < n; k++ {
				a[i][j] += x[k][i] * x[k][j]
			}
		}
		a[i][i] += lambda
		for k := 0; k < n; k++ {
			b[i] += x[k][i] * targets[k]
		}
	}

	// Gaussian elimination with partial pivoting.
	for col := 0; col < dim; col++ {
		pivot := col
		for row := col + 1; row < dim; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("reservoir: singular system in ridge fit")
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < dim; row++ {
			factor := a[row][col] / a[col][col]
			for j := col; j < dim; j++ {
				a[row][j] -= factor * a[col][j]
			}
			b[row] -= factor * b[col]
		}
	}

	out := make([]float64, dim)
	for i := dim - 1; i >= 0; i-- {
		out[i] = b[i]
		for j := i + 1; j < dim; j++ {
			out[i] -= a[i][j] * out[j]
		}
		out[i] /= a[i][i]
	}
	return out, nil
}
