package predictions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/optimusecho/predictor/internal/gesture"
	"github.com/optimusecho/predictor/internal/risk"
	"github.com/optimusecho/predictor/internal/scenarios"
)

// mockAlertRaiser records policy applications for verification.
type mockAlertRaiser struct {
	mu          sync.Mutex
	assessments []*risk.Assessment
	err         error
}

func (m *mockAlertRaiser) RaiseForAssessment(_ context.Context, a *risk.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.assessments = append(m.assessments, a)
	return nil
}

// mockBroadcaster records fan-out calls.
type mockBroadcaster struct {
	mu          sync.Mutex
	assessments []*risk.Assessment
}

func (m *mockBroadcaster) BroadcastAssessment(a *risk.Assessment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments = append(m.assessments, a)
}

type fixture struct {
	svc       *Service
	store     *MemoryStore
	scenarios *scenarios.Service
	buffer    *gesture.Buffer
	raiser    *mockAlertRaiser
	caster    *mockBroadcaster
}

func newFixture() *fixture {
	f := &fixture{
		store:     NewMemoryStore(),
		scenarios: scenarios.NewService(scenarios.NewMemoryStore()),
		buffer:    gesture.NewBuffer(50),
		raiser:    &mockAlertRaiser{},
		caster:    &mockBroadcaster{},
	}
	engine := risk.NewEngine(risk.NewRulesBackend())
	f.svc = NewService(engine, f.store, f.scenarios, f.buffer).
		WithAlertRaiser(f.raiser).
		WithBroadcaster(f.caster)
	return f
}

func (f *fixture) createScenario(t *testing.T, req scenarios.CreateRequest) *scenarios.Scenario {
	t.Helper()
	sc, err := f.scenarios.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create scenario: %v", err)
	}
	return sc
}

func calmScenario() scenarios.CreateRequest {
	return scenarios.CreateRequest{
		Name:            "Calm assembly",
		TaskType:        "assembly_line",
		WorkerCount:     5,
		RobotCount:      3,
		ShiftHours:      8,
		ProximityMeters: 1.5,
	}
}

func crowdedScenario() scenarios.CreateRequest {
	return scenarios.CreateRequest{
		Name:            "Crowded collaborative",
		TaskType:        "collaborative_work",
		WorkerCount:     12,
		RobotCount:      6,
		ShiftHours:      10,
		ProximityMeters: 1.0,
	}
}

func TestPredictScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sc := f.createScenario(t, calmScenario())

	a, err := f.svc.PredictScenario(ctx, sc.ID)
	if err != nil {
		t.Fatalf("PredictScenario failed: %v", err)
	}

	if a.ID == "" || a.CreatedAt.IsZero() {
		t.Error("assessment must carry identity and timestamp")
	}
	if a.ScenarioID != sc.ID {
		t.Errorf("scenario_id = %s, want %s", a.ScenarioID, sc.ID)
	}
	if a.OverallRiskScore != 0.438 {
		t.Errorf("risk score = %g, want 0.438", a.OverallRiskScore)
	}
	if a.RiskLevel != risk.LevelMedium {
		t.Errorf("risk level = %s, want medium", a.RiskLevel)
	}

	// Persisted
	stored, err := f.store.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("assessment not persisted: %v", err)
	}
	if stored.OverallRiskScore != a.OverallRiskScore {
		t.Error("stored assessment differs from returned one")
	}

	// Status flipped to analyzed
	fresh, _ := f.scenarios.Get(ctx, sc.ID)
	if fresh.Status != scenarios.StatusAnalyzed {
		t.Errorf("scenario status = %s, want analyzed", fresh.Status)
	}

	// Medium risk applies the alert policy and broadcasts
	if len(f.raiser.assessments) != 1 {
		t.Errorf("alert raiser called %d times, want 1", len(f.raiser.assessments))
	}
	if len(f.caster.assessments) != 1 {
		t.Errorf("broadcaster called %d times, want 1", len(f.caster.assessments))
	}
}

func TestPredictScenarioNotFound(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.PredictScenario(context.Background(), "scn_missing"); !errors.Is(err, scenarios.ErrScenarioNotFound) {
		t.Errorf("expected ErrScenarioNotFound, got %v", err)
	}
}

func TestPredictScenarioRepeatable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sc := f.createScenario(t, crowdedScenario())

	first, err := f.svc.PredictScenario(ctx, sc.ID)
	if err != nil {
		t.Fatalf("first prediction: %v", err)
	}
	second, err := f.svc.PredictScenario(ctx, sc.ID)
	if err != nil {
		t.Fatalf("second prediction: %v", err)
	}

	if first.ID == second.ID {
		t.Error("each run must create a distinct assessment")
	}
	if first.OverallRiskScore != second.OverallRiskScore {
		t.Errorf("scoring not deterministic: %g vs %g",
			first.OverallRiskScore, second.OverallRiskScore)
	}

	n, _ := f.store.Count(ctx)
	if n != 2 {
		t.Errorf("stored assessments = %d, want 2", n)
	}
}

func TestPredictSequenceInsufficientData(t *testing.T) {
	f := newFixture()

	for _, s := range gesture.NewGenerator(1).Generate(5, time.Now()) {
		f.buffer.Push(s)
	}

	if _, err := f.svc.PredictSequence(context.Background()); !errors.Is(err, risk.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestPredictSequence(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, s := range gesture.NewGenerator(1).Generate(30, time.Now()) {
		f.buffer.Push(s)
	}

	a, err := f.svc.PredictSequence(ctx)
	if err != nil {
		t.Fatalf("PredictSequence failed: %v", err)
	}

	if a.ReservoirDetails == nil {
		t.Fatal("sequence assessment must carry reservoir details")
	}
	if a.ReservoirDetails.GesturesAnalyzed != 30 {
		t.Errorf("gestures analyzed = %d, want 30", a.ReservoirDetails.GesturesAnalyzed)
	}
	if a.ScenarioID != "" {
		t.Error("sequence assessments are not bound to a scenario")
	}

	if _, err := f.store.Get(ctx, a.ID); err != nil {
		t.Errorf("assessment not persisted: %v", err)
	}
	if len(f.caster.assessments) != 1 {
		t.Errorf("broadcaster called %d times, want 1", len(f.caster.assessments))
	}
}

func TestAlertFailureDoesNotFailPrediction(t *testing.T) {
	f := newFixture()
	f.raiser.err = errors.New("alert store down")
	ctx := context.Background()

	sc := f.createScenario(t, crowdedScenario())
	a, err := f.svc.PredictScenario(ctx, sc.ID)
	if err != nil {
		t.Fatalf("prediction must survive alert failure: %v", err)
	}
	if _, err := f.store.Get(ctx, a.ID); err != nil {
		t.Errorf("assessment not persisted: %v", err)
	}
}

func TestListByScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first := f.createScenario(t, calmScenario())
	second := f.createScenario(t, crowdedScenario())

	if _, err := f.svc.PredictScenario(ctx, first.ID); err != nil {
		t.Fatalf("predict: %v", err)
	}
	if _, err := f.svc.PredictScenario(ctx, second.ID); err != nil {
		t.Fatalf("predict: %v", err)
	}
	if _, err := f.svc.PredictScenario(ctx, second.ID); err != nil {
		t.Fatalf("predict: %v", err)
	}

	forSecond, err := f.svc.ListByScenario(ctx, second.ID, 10)
	if err != nil {
		t.Fatalf("ListByScenario failed: %v", err)
	}
	if len(forSecond) != 2 {
		t.Fatalf("assessments for scenario = %d, want 2", len(forSecond))
	}
	for _, a := range forSecond {
		if a.ScenarioID != second.ID {
			t.Errorf("leaked assessment for %s", a.ScenarioID)
		}
	}
}

func TestAveragesAndLevelCounts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	avg, err := f.store.Averages(ctx)
	if err != nil {
		t.Fatalf("Averages failed: %v", err)
	}
	if avg != nil {
		t.Fatal("empty store must report nil averages")
	}

	calm := f.createScenario(t, calmScenario())     // 0.438 → medium
	crowd := f.createScenario(t, crowdedScenario()) // 0.654 → high
	if _, err := f.svc.PredictScenario(ctx, calm.ID); err != nil {
		t.Fatalf("predict: %v", err)
	}
	if _, err := f.svc.PredictScenario(ctx, crowd.ID); err != nil {
		t.Fatalf("predict: %v", err)
	}

	avg, err = f.store.Averages(ctx)
	if err != nil || avg == nil {
		t.Fatalf("Averages failed: %v", err)
	}
	wantRisk := (0.438 + 0.654) / 2
	if diff := avg.RiskScore - wantRisk; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("avg risk = %g, want %g", avg.RiskScore, wantRisk)
	}

	counts, err := f.store.LevelCounts(ctx)
	if err != nil {
		t.Fatalf("LevelCounts failed: %v", err)
	}
	if counts[risk.LevelMedium] != 1 || counts[risk.LevelHigh] != 1 {
		t.Errorf("level counts = %v", counts)
	}

	points, err := f.store.RecentPoints(ctx, 10)
	if err != nil {
		t.Fatalf("RecentPoints failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("trend points = %d, want 2", len(points))
	}
	if points[0].CreatedAt.After(points[1].CreatedAt) {
		t.Error("trend points must be chronological")
	}
}
