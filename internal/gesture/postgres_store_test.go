//go:build integration

package gesture

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/optimusecho/predictor/internal/testutil"
)

func TestPostgresGesture_RecordAndList(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	sample := &Sample{
		ID:         "gst_test001",
		Type:       TypeWave,
		Confidence: 0.92,
		Position:   &Position{X: 0.1, Y: 0.2, Z: 0.3},
		Timestamp:  now,
		Source:     "live",
	}
	if err := store.Record(ctx, sample); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	items, err := store.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(items))
	}
	got := items[0]
	if got.Type != TypeWave || got.Confidence != 0.92 || got.Source != "live" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Position == nil || got.Position.Z != 0.3 {
		t.Errorf("position not persisted: %+v", got.Position)
	}
}

func TestPostgresGesture_RecordBatch(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)

	samples := make([]*Sample, 25)
	for i := range samples {
		samples[i] = &Sample{
			ID:         fmt.Sprintf("gst_batch%03d", i),
			Type:       TypePoint,
			Confidence: 0.8,
			Position:   &Position{X: float64(i)},
			Timestamp:  base.Add(time.Duration(i) * time.Second),
			Source:     "synthetic",
		}
	}
	if err := store.RecordBatch(ctx, samples); err != nil {
		t.Fatalf("RecordBatch failed: %v", err)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 25 {
		t.Errorf("Count: got %d, want 25", n)
	}

	// Most recent first, capped by limit.
	items, err := store.ListRecent(ctx, 5)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(items))
	}
	if items[0].ID != "gst_batch024" {
		t.Errorf("expected newest sample first, got %s", items[0].ID)
	}
}
