package risk

import (
	"fmt"
	"math"
)

// ScenarioInput carries the scenario fields the engine scores. Populated
// from the stored scenario record; no extra queries.
type ScenarioInput struct {
	TaskType        string
	WorkerCount     int
	RobotCount      int
	ShiftHours      float64
	ProximityMeters float64
}

// Factor weights. Documented constants so scoring is reproducible.
const (
	weightDensity    = 0.20
	weightComplexity = 0.30
	weightProximity  = 0.30
	weightFatigue    = 0.20
)

// Factor shape constants.
const (
	// Proximity factor is 1 - meters/maxProximityMeters, clamped to [0,1]:
	// closer allowed proximity means higher risk.
	maxProximityMeters = 5.0

	// Fatigue is flat at zero up to the onset hour, then ramps linearly to
	// 1.0 over the ramp. An 8h shift contributes nothing; 12h saturates.
	fatigueOnsetHours = 8.0
	fatigueRampHours  = 4.0

	// Density blends normalized headcount with the robot:worker ratio.
	// Headcount saturates at densityCombinedCap people+robots on the floor;
	// ratio saturates at densityRatioCap robots per worker.
	densityCombinedCap   = 40.0
	densityRatioCap      = 2.0
	densityCombinedShare = 0.6
	densityRatioShare    = 0.4
)

// Per-type echo risk emission thresholds and probability shapes. Each
// probability is an affine function of its contributing factor, so two
// scenarios with the same factor always report the same probability.
const (
	misreadComplexityThreshold = 0.5
	breachProximityThreshold   = 0.5
	fatigueFactorThreshold     = 0.6
	crowdingDensityThreshold   = 0.5
)

// Secondary metric bounds.
const (
	symbiosisFloor      = 0.4
	symbiosisRiskWeight = 0.7
	mitigatedCeiling    = 35.0
	mitigatedRiskSpread = 20.0
	accuracyCeiling     = 0.98
	accuracyRiskSpread  = 0.13
)

// taskComplexity is the base risk contribution per task type. Collaborative
// and material-handling work score strictly above assembly and inspection.
var taskComplexity = map[string]float64{
	"assembly_line":      0.6,
	"quality_check":      0.4,
	"material_handling":  0.7,
	"collaborative_work": 0.8,
}

var echoRiskDescriptions = map[EchoRiskType]string{
	EchoGestureMisread:       "Robot may misinterpret worker gestures during complex tasks",
	EchoProximityBreach:      "High probability of safety zone violations",
	EchoFatigueInduced:       "Worker fatigue may lead to unpredictable movements",
	EchoCrowdingInterference: "Multiple workers may cause sensor confusion",
}

// recommendationFor maps each echo risk type to its advisory string.
var recommendationFor = map[EchoRiskType]string{
	EchoGestureMisread:       "Implement additional gesture confirmation protocols",
	EchoProximityBreach:      "Increase safety zone buffer by 0.5 meters",
	EchoFatigueInduced:       "Consider shift rotation or mandatory breaks",
	EchoCrowdingInterference: "Redistribute workers across zones to reduce density",
}

var defaultRecommendations = []string{
	"Current configuration meets safety standards",
	"Continue monitoring for optimal performance",
}

// ScoreScenario produces a risk assessment from scenario parameters alone.
// Pure function of the input fields: identical input yields identical output.
func (e *Engine) ScoreScenario(in *ScenarioInput) (*Assessment, error) {
	complexity, ok := taskComplexity[in.TaskType]
	if !ok {
		return nil, fmt.Errorf("%w: unrecognized task_type %q", ErrInvalidInput, in.TaskType)
	}
	if in.WorkerCount < 1 {
		return nil, fmt.Errorf("%w: worker_count must be at least 1", ErrInvalidInput)
	}
	if in.RobotCount < 1 {
		return nil, fmt.Errorf("%w: robot_count must be at least 1", ErrInvalidInput)
	}
	if in.ShiftHours <= 0 {
		return nil, fmt.Errorf("%w: shift_duration_hours must be positive", ErrInvalidInput)
	}
	if in.ProximityMeters <= 0 {
		return nil, fmt.Errorf("%w: proximity_threshold_meters must be positive", ErrInvalidInput)
	}

	density := densityFactor(in.WorkerCount, in.RobotCount)
	proximity := proximityFactor(in.ProximityMeters)
	fatigue := fatigueFactor(in.ShiftHours)

	score := clamp01(density*weightDensity +
		complexity*weightComplexity +
		proximity*weightProximity +
		fatigue*weightFatigue)
	score = round3(score)

	echoRisks := deriveEchoRisks(complexity, proximity, fatigue, density)

	a := &Assessment{
		OverallRiskScore:       score,
		RiskLevel:              LevelFor(score),
		GestureAccuracy:        round3(accuracyCeiling - accuracyRiskSpread*score),
		MitigatedErrorsPercent: math.Round((mitigatedCeiling-mitigatedRiskSpread*score)*10) / 10,
		SymbiosisIndex:         round3(math.Max(symbiosisFloor, 1-symbiosisRiskWeight*score)),
		EchoRisks:              echoRisks,
		Recommendations:        recommend(echoRisks),
	}
	return a, nil
}

// densityFactor rises with total headcount and with the robot:worker ratio.
func densityFactor(workers, robots int) float64 {
	combined := math.Min(float64(workers+robots)/densityCombinedCap, 1)
	ratio := math.Min(float64(robots)/float64(workers)/densityRatioCap, 1)
	return densityCombinedShare*combined + densityRatioShare*ratio
}

func proximityFactor(meters float64) float64 {
	return clamp01(1 - meters/maxProximityMeters)
}

func fatigueFactor(hours float64) float64 {
	if hours <= fatigueOnsetHours {
		return 0
	}
	return math.Min((hours-fatigueOnsetHours)/fatigueRampHours, 1)
}

// deriveEchoRisks emits typed findings for factors above their thresholds.
// Emission order is fixed: misread, breach, fatigue, crowding.
func deriveEchoRisks(complexity, proximity, fatigue, density float64) []EchoRisk {
	risks := []EchoRisk{}
	add := func(t EchoRiskType, base, factor float64) {
		risks = append(risks, EchoRisk{
			Type:        t,
			Probability: round3(clamp01(base + 0.25*factor)),
			Description: echoRiskDescriptions[t],
		})
	}
	if complexity > misreadComplexityThreshold {
		add(EchoGestureMisread, 0.10, complexity)
	}
	if proximity > breachProximityThreshold {
		add(EchoProximityBreach, 0.15, proximity)
	}
	if fatigue > fatigueFactorThreshold {
		add(EchoFatigueInduced, 0.20, fatigue)
	}
	if density > crowdingDensityThreshold {
		add(EchoCrowdingInterference, 0.25, density)
	}
	return risks
}

// recommend maps present echo risk types to advisory strings, deduplicated,
// in echo risk order. A clean scenario gets the standing advice.
func recommend(risks []EchoRisk) []string {
	if len(risks) == 0 {
		return append([]string(nil), defaultRecommendations...)
	}
	seen := make(map[string]bool, len(risks))
	out := make([]string, 0, len(risks))
	for _, r := range risks {
		rec := recommendationFor[r.Type]
		if rec != "" && !seen[rec] {
			seen[rec] = true
			out = append(out, rec)
		}
	}
	return out
}
