//go:build integration

package scenarios

import (
	"context"
	"testing"
	"time"

	"github.com/optimusecho/predictor/internal/testutil"
)

func TestPostgresScenario_CreateAndGet(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	sc := &Scenario{
		ID:              "scn_test001",
		Name:            "Assembly cell A",
		TaskType:        "assembly_line",
		WorkerCount:     5,
		RobotCount:      3,
		ShiftHours:      8,
		ProximityMeters: 1.5,
		Description:     "First shift baseline",
		Status:          StatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := store.Create(ctx, sc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, "scn_test001")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != sc.Name {
		t.Errorf("Name: got %s, want %s", got.Name, sc.Name)
	}
	if got.ShiftHours != 8 {
		t.Errorf("ShiftHours: got %v, want 8", got.ShiftHours)
	}
	if got.Status != StatusDraft {
		t.Errorf("Status: got %s, want %s", got.Status, StatusDraft)
	}
}

func TestPostgresScenario_Update(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	sc := &Scenario{
		ID: "scn_test002", Name: "Before", TaskType: "quality_check",
		WorkerCount: 2, RobotCount: 1, ShiftHours: 6, ProximityMeters: 2,
		Status: StatusDraft, CreatedAt: now, UpdatedAt: now,
	}
	if err := store.Create(ctx, sc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	sc.Name = "After"
	sc.Status = StatusAnalyzed
	sc.UpdatedAt = now.Add(time.Minute)
	if err := store.Update(ctx, sc); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.Get(ctx, sc.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "After" || got.Status != StatusAnalyzed {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestPostgresScenario_DeleteAndNotFound(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	sc := &Scenario{
		ID: "scn_test003", Name: "Doomed", TaskType: "material_handling",
		WorkerCount: 1, RobotCount: 1, ShiftHours: 4, ProximityMeters: 3,
		Status: StatusDraft, CreatedAt: now, UpdatedAt: now,
	}
	if err := store.Create(ctx, sc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Delete(ctx, sc.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, sc.ID); err != ErrScenarioNotFound {
		t.Errorf("expected ErrScenarioNotFound, got %v", err)
	}
	if err := store.Delete(ctx, sc.ID); err != ErrScenarioNotFound {
		t.Errorf("expected ErrScenarioNotFound on second delete, got %v", err)
	}
}

func TestPostgresScenario_ListAndCount(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)

	for i := 0; i < 3; i++ {
		sc := &Scenario{
			ID: "scn_list" + string(rune('a'+i)), Name: "Scenario", TaskType: "assembly_line",
			WorkerCount: 2, RobotCount: 1, ShiftHours: 8, ProximityMeters: 1.5,
			Status:    StatusDraft,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Create(ctx, sc); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	items, err := store.List(ctx, nil, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 scenarios, got %d", len(items))
	}
	// Newest first.
	if items[0].ID != "scn_listc" {
		t.Errorf("expected newest scenario first, got %s", items[0].ID)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Count: got %d, want 3", n)
	}
}
