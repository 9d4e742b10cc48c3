package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLevelParsing(t *testing.T) {
	cases := []struct {
		level      string
		debugShown bool
		warnShown  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"error", false, false},
		{"bogus", false, true}, // unknown levels fall back to info
	}

	for _, tc := range cases {
		logger := New(tc.level, "text")
		if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tc.debugShown {
			t.Errorf("level %q: debug enabled = %v, want %v", tc.level, got, tc.debugShown)
		}
		if got := logger.Enabled(context.Background(), slog.LevelWarn); got != tc.warnShown {
			t.Errorf("level %q: warn enabled = %v, want %v", tc.level, got, tc.warnShown)
		}
	}
}

func TestNewFormats(t *testing.T) {
	// Both formats must produce a usable logger; the handlers write to
	// stdout so output is not asserted here.
	if New("info", "json") == nil || New("info", "text") == nil {
		t.Fatal("expected non-nil loggers")
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	if got := RequestID(ctx); got != "req-42" {
		t.Errorf("RequestID: got %q, want req-42", got)
	}
	if got := RequestID(context.Background()); got != "" {
		t.Errorf("bare context should have no request ID, got %q", got)
	}

	// Later values shadow earlier ones.
	ctx = WithRequestID(ctx, "req-43")
	if got := RequestID(ctx); got != "req-43" {
		t.Errorf("RequestID after overwrite: got %q", got)
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected slog.Default for a bare context")
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("expected the context-carried logger")
	}
}

func TestLAttachesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	ctx = WithRequestID(ctx, "req-7")

	L(ctx).Info("prediction completed")
	if !strings.Contains(buf.String(), "request_id=req-7") {
		t.Errorf("expected request_id attribute in output, got %q", buf.String())
	}
}

func TestLWithoutRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithLogger(context.Background(), logger)

	L(ctx).Info("buffer cleared")
	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("no request_id expected, got %q", buf.String())
	}
}
