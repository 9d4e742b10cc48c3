package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/optimusecho/predictor/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testConfig returns a minimal in-memory config for testing
func testConfig() *config.Config {
	return &config.Config{
		Port:                "0",
		Env:                 "development",
		LogLevel:            "error",
		LogFormat:           "text",
		ScoringBackend:      "rules",
		ReservoirSeed:       42,
		GestureBufferSize:   50,
		GestureMinSamples:   10,
		RateLimitRPS:        1000,
		MaxRequestSize:      1 << 20,
		CORSOrigins:         "*",
		MaxWebSocketClients: 10,
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(testConfig(), WithLogger(logger))
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return s
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp HealthResponse
	decodeBody(t, w, &resp)
	if resp.Status != "healthy" {
		t.Errorf("expected healthy status, got %q", resp.Status)
	}
	if resp.Version != "0.1.0" {
		t.Errorf("unexpected version %q", resp.Version)
	}

	found := false
	for _, check := range resp.Checks {
		if check.Name == "scoring_backend" {
			found = true
			if !check.Healthy {
				t.Error("scoring_backend check should be healthy")
			}
			if check.Detail != "rules" {
				t.Errorf("expected rules backend, got %q", check.Detail)
			}
		}
	}
	if !found {
		t.Error("expected a scoring_backend health check")
	}
}

func TestLivenessAndReadiness(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/health/live", nil)
	if w.Code != http.StatusOK {
		t.Errorf("liveness: expected 200, got %d", w.Code)
	}

	// Readiness flips only after Run starts; a freshly built server is not
	// ready yet.
	w = doRequest(t, s, http.MethodGet, "/health/ready", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("readiness: expected 503, got %d", w.Code)
	}

	s.ready.Store(true)
	w = doRequest(t, s, http.MethodGet, "/health/ready", nil)
	if w.Code != http.StatusOK {
		t.Errorf("readiness after ready: expected 200, got %d", w.Code)
	}
}

func TestInfoEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]any
	decodeBody(t, w, &resp)
	if resp["name"] != "Optimus Echo Predictor" {
		t.Errorf("unexpected name %v", resp["name"])
	}
	if resp["scoring_backend"] != "rules" {
		t.Errorf("unexpected backend %v", resp["scoring_backend"])
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/health/live", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}

	// An inbound request ID is echoed back unchanged.
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-from-lb")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-from-lb" {
		t.Errorf("expected propagated request ID, got %q", got)
	}
}

func TestScenarioPredictionFlow(t *testing.T) {
	s := newTestServer(t)

	// Create a crowded collaborative scenario.
	w := doRequest(t, s, http.MethodPost, "/api/v1/scenarios", map[string]any{
		"name":                       "Line 7 night shift",
		"task_type":                  "collaborative_work",
		"worker_count":               12,
		"robot_count":                6,
		"shift_duration_hours":       10,
		"proximity_threshold_meters": 1.0,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create scenario: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		Scenario struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"scenario"`
	}
	decodeBody(t, w, &created)
	if created.Scenario.ID == "" {
		t.Fatal("expected a scenario ID")
	}

	// Run a prediction against it.
	w = doRequest(t, s, http.MethodPost, "/api/v1/predictions/scenario/"+created.Scenario.ID, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("predict: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var predicted struct {
		Prediction struct {
			ID               string  `json:"id"`
			ScenarioID       string  `json:"scenario_id"`
			OverallRiskScore float64 `json:"overall_risk_score"`
			RiskLevel        string  `json:"risk_level"`
		} `json:"prediction"`
	}
	decodeBody(t, w, &predicted)
	if predicted.Prediction.ScenarioID != created.Scenario.ID {
		t.Errorf("prediction bound to %q, want %q", predicted.Prediction.ScenarioID, created.Scenario.ID)
	}
	if predicted.Prediction.OverallRiskScore != 0.654 {
		t.Errorf("expected score 0.654, got %v", predicted.Prediction.OverallRiskScore)
	}
	if predicted.Prediction.RiskLevel != "high" {
		t.Errorf("expected high risk, got %q", predicted.Prediction.RiskLevel)
	}

	// The assessment is retrievable and the scenario is marked analyzed.
	w = doRequest(t, s, http.MethodGet, "/api/v1/predictions/"+predicted.Prediction.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("get prediction: expected 200, got %d", w.Code)
	}

	w = doRequest(t, s, http.MethodGet, "/api/v1/scenarios/"+created.Scenario.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get scenario: expected 200, got %d", w.Code)
	}
	decodeBody(t, w, &created)
	if created.Scenario.Status != "analyzed" {
		t.Errorf("expected analyzed status, got %q", created.Scenario.Status)
	}

	// A high-risk assessment raises an alert.
	w = doRequest(t, s, http.MethodGet, "/api/v1/alerts", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list alerts: expected 200, got %d", w.Code)
	}
	var alertsResp struct {
		Alerts []json.RawMessage `json:"alerts"`
	}
	decodeBody(t, w, &alertsResp)
	if len(alertsResp.Alerts) == 0 {
		t.Error("expected a raised alert for a high-risk assessment")
	}
}

func TestScenarioValidation(t *testing.T) {
	s := newTestServer(t)

	// Missing required fields.
	w := doRequest(t, s, http.MethodPost, "/api/v1/scenarios", map[string]any{
		"name": "incomplete",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	// Unknown task type.
	w = doRequest(t, s, http.MethodPost, "/api/v1/scenarios", map[string]any{
		"name":                 "bad task",
		"task_type":            "juggling",
		"worker_count":         3,
		"robot_count":          1,
		"shift_duration_hours": 8,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown task type, got %d", w.Code)
	}
}

func TestGesturePredictionFlow(t *testing.T) {
	s := newTestServer(t)

	// Empty buffer: not enough samples for sequence scoring.
	w := doRequest(t, s, http.MethodPost, "/api/v1/predictions/gestures", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on empty buffer, got %d: %s", w.Code, w.Body.String())
	}
	var errResp struct {
		Error string `json:"error"`
	}
	decodeBody(t, w, &errResp)
	if errResp.Error != "insufficient_data" {
		t.Errorf("expected insufficient_data, got %q", errResp.Error)
	}

	// Fill the buffer with synthetic samples, then score the sequence.
	w = doRequest(t, s, http.MethodPost, "/api/v1/gestures/synthetic", map[string]any{
		"count": 30,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("generate: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, s, http.MethodPost, "/api/v1/predictions/gestures", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("predict gestures: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var predicted struct {
		Prediction struct {
			RiskLevel        string `json:"risk_level"`
			ReservoirDetails struct {
				GesturesAnalyzed int    `json:"gestures_analyzed"`
				ModelType        string `json:"model_type"`
			} `json:"reservoir_details"`
		} `json:"prediction"`
	}
	decodeBody(t, w, &predicted)
	if predicted.Prediction.ReservoirDetails.GesturesAnalyzed != 30 {
		t.Errorf("expected 30 gestures analyzed, got %d", predicted.Prediction.ReservoirDetails.GesturesAnalyzed)
	}
	if predicted.Prediction.ReservoirDetails.ModelType != "rules" {
		t.Errorf("expected rules model, got %q", predicted.Prediction.ReservoirDetails.ModelType)
	}
}

func TestReservoirBackendConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ScoringBackend = "reservoir"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(cfg, WithLogger(logger))
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	w := doRequest(t, s, http.MethodGet, "/api", nil)
	var resp map[string]any
	decodeBody(t, w, &resp)
	if resp["scoring_backend"] != "reservoir" {
		t.Errorf("expected reservoir backend, got %v", resp["scoring_backend"])
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/v1/nonsense", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestDashboardKPIsWiredThroughServer(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/v1/dashboard/kpis", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var kpis map[string]any
	decodeBody(t, w, &kpis)
	for _, key := range []string{"total_scenarios", "total_predictions", "avg_risk_score", "active_alerts"} {
		if _, ok := kpis[key]; !ok {
			t.Errorf("expected KPI field %q", key)
		}
	}
}
