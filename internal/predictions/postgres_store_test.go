//go:build integration

package predictions

import (
	"context"
	"testing"
	"time"

	"github.com/optimusecho/predictor/internal/risk"
	"github.com/optimusecho/predictor/internal/testutil"
)

func storedAssessment(id, scenarioID string, score float64, at time.Time) *risk.Assessment {
	return &risk.Assessment{
		ID:                     id,
		ScenarioID:             scenarioID,
		OverallRiskScore:       score,
		RiskLevel:              risk.LevelFor(score),
		GestureAccuracy:        0.98 - 0.13*score,
		MitigatedErrorsPercent: 35 - 20*score,
		SymbiosisIndex:         1 - 0.7*score,
		EchoRisks: []risk.EchoRisk{
			{Type: risk.EchoProximityBreach, Probability: score, Description: "workers inside robot envelope"},
		},
		Recommendations: []string{"increase separation distance"},
		ReservoirDetails: &risk.ReservoirDetails{
			Activation:       0.4,
			StateVariance:    0.1,
			GesturesAnalyzed: 30,
			ModelType:        "rules",
			Anomalies:        []risk.Anomaly{},
		},
		CreatedAt: at,
	}
}

func TestPostgresPrediction_CreateAndGet(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	a := storedAssessment("prd_test001", "scn_x", 0.654, now)
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, "prd_test001")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.OverallRiskScore != 0.654 {
		t.Errorf("score: got %v, want 0.654", got.OverallRiskScore)
	}
	if got.RiskLevel != risk.LevelHigh {
		t.Errorf("level: got %s, want high", got.RiskLevel)
	}
	if len(got.EchoRisks) != 1 || got.EchoRisks[0].Type != risk.EchoProximityBreach {
		t.Errorf("echo risks not persisted: %+v", got.EchoRisks)
	}
	if len(got.Recommendations) != 1 {
		t.Errorf("recommendations not persisted: %+v", got.Recommendations)
	}
	if got.ReservoirDetails == nil || got.ReservoirDetails.GesturesAnalyzed != 30 {
		t.Errorf("reservoir details not persisted: %+v", got.ReservoirDetails)
	}

	if _, err := store.Get(ctx, "prd_missing"); err != ErrPredictionNotFound {
		t.Errorf("expected ErrPredictionNotFound, got %v", err)
	}
}

func TestPostgresPrediction_ListByScenario(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)

	for i, sid := range []string{"scn_a", "scn_a", "scn_b"} {
		a := storedAssessment("prd_list"+string(rune('a'+i)), sid, 0.4, base.Add(time.Duration(i)*time.Minute))
		if err := store.Create(ctx, a); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	items, err := store.ListByScenario(ctx, "scn_a", 10)
	if err != nil {
		t.Fatalf("ListByScenario failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 assessments for scn_a, got %d", len(items))
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Count: got %d, want 3", n)
	}
}

func TestPostgresPrediction_Aggregations(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	// Empty store: Averages signals "no data" with nil.
	avg, err := store.Averages(ctx)
	if err != nil {
		t.Fatalf("Averages failed: %v", err)
	}
	if avg != nil {
		t.Errorf("expected nil averages on empty store, got %+v", avg)
	}

	base := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)
	scores := []float64{0.2, 0.6} // low + high
	for i, score := range scores {
		a := storedAssessment("prd_agg"+string(rune('a'+i)), "", score, base.Add(time.Duration(i)*time.Minute))
		if err := store.Create(ctx, a); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	avg, err = store.Averages(ctx)
	if err != nil {
		t.Fatalf("Averages failed: %v", err)
	}
	if avg == nil {
		t.Fatal("expected averages")
	}
	if diff := avg.RiskScore - 0.4; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("avg risk: got %v, want 0.4", avg.RiskScore)
	}

	counts, err := store.LevelCounts(ctx)
	if err != nil {
		t.Fatalf("LevelCounts failed: %v", err)
	}
	if counts[risk.LevelLow] != 1 || counts[risk.LevelHigh] != 1 {
		t.Errorf("unexpected level counts: %v", counts)
	}

	points, err := store.RecentPoints(ctx, 10)
	if err != nil {
		t.Fatalf("RecentPoints failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 trend points, got %d", len(points))
	}
	// Chronological for charting.
	if !points[0].CreatedAt.Before(points[1].CreatedAt) {
		t.Errorf("expected chronological points, got %v then %v", points[0].CreatedAt, points[1].CreatedAt)
	}
}
