package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *PredictorClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *PredictorClient) *Handlers {
	return &Handlers{client: client}
}

// HandleListScenarios lists stored scenarios.
func (h *Handlers) HandleListScenarios(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)

	raw, err := h.client.ListScenarios(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list scenarios: %v", err)), nil
	}

	text, err := formatScenarioList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse scenarios: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleCreateScenario creates a new scenario.
func (h *Handlers) HandleCreateScenario(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	taskType := req.GetString("task_type", "")
	if taskType == "" {
		return mcp.NewToolResultError("task_type is required"), nil
	}

	body := map[string]any{
		"name":                 name,
		"task_type":            taskType,
		"worker_count":         req.GetInt("worker_count", 0),
		"robot_count":          req.GetInt("robot_count", 0),
		"shift_duration_hours": req.GetFloat("shift_duration_hours", 0),
	}
	if v := req.GetFloat("proximity_threshold_meters", 0); v > 0 {
		body["proximity_threshold_meters"] = v
	}
	if v := req.GetString("description", ""); v != "" {
		body["description"] = v
	}

	raw, err := h.client.CreateScenario(ctx, body)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create scenario: %v", err)), nil
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse scenario: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Scenario created.\nID: %s\nName: %s\nStatus: %s\n\nUse run_prediction with this ID to analyze it.",
		getString(m, "id"), getString(m, "name"), getString(m, "status"))), nil
}

// HandleRunPrediction runs the scenario scoring path.
func (h *Handlers) HandleRunPrediction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scenarioID := req.GetString("scenario_id", "")
	if scenarioID == "" {
		return mcp.NewToolResultError("scenario_id is required"), nil
	}

	raw, err := h.client.RunScenarioPrediction(ctx, scenarioID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Prediction failed: %v", err)), nil
	}

	text, err := formatAssessment(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse assessment: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandlePredictGestures scores the current gesture buffer.
func (h *Handlers) HandlePredictGestures(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.PredictGestures(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Gesture prediction failed: %v", err)), nil
	}

	text, err := formatAssessment(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse assessment: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleGetPrediction fetches one stored assessment.
func (h *Handlers) HandleGetPrediction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("prediction_id", "")
	if id == "" {
		return mcp.NewToolResultError("prediction_id is required"), nil
	}

	raw, err := h.client.GetPrediction(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get prediction: %v", err)), nil
	}

	text, err := formatAssessment(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse assessment: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleGetKPIs returns dashboard headline metrics.
func (h *Handlers) HandleGetKPIs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.GetKPIs(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get KPIs: %v", err)), nil
	}

	text, err := formatKPIs(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse KPIs: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleListAlerts lists safety alerts.
func (h *Handlers) HandleListAlerts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	includeAcked := req.GetBool("include_acknowledged", false)
	limit := req.GetInt("limit", 20)

	raw, err := h.client.ListAlerts(ctx, includeAcked, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list alerts: %v", err)), nil
	}

	text, err := formatAlertList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse alerts: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// HandleAcknowledgeAlert acknowledges one alert.
func (h *Handlers) HandleAcknowledgeAlert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("alert_id", "")
	if id == "" {
		return mcp.NewToolResultError("alert_id is required"), nil
	}

	if _, err := h.client.AcknowledgeAlert(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Acknowledge failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Alert %s acknowledged.", id)), nil
}

// HandleGenerateGestures fills the buffer with synthetic samples.
func (h *Handlers) HandleGenerateGestures(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count := req.GetInt("count", 50)
	erratic := req.GetBool("erratic", false)

	raw, err := h.client.GenerateGestures(ctx, count, erratic)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Generation failed: %v", err)), nil
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse response: %v", err)), nil
	}
	generated, _ := getFloat(m, "generated")
	bufLen, _ := getFloat(m, "buffer_length")
	mode := "calm"
	if erratic {
		mode = "erratic"
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Generated %.0f %s gesture samples.\nBuffer length: %.0f\n\nUse predict_gestures to score the buffer.",
		generated, mode, bufLen)), nil
}

// --- Formatting helpers ---

func formatScenarioList(raw json.RawMessage) (string, error) {
	var resp struct {
		Scenarios []map[string]any `json:"scenarios"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Scenarios == nil {
		// Try as direct array.
		if err := json.Unmarshal(raw, &resp.Scenarios); err != nil {
			return "", fmt.Errorf("unexpected scenarios response format")
		}
	}
	if len(resp.Scenarios) == 0 {
		return "No scenarios found. Use create_scenario to add one.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d scenario(s):\n\n", len(resp.Scenarios))
	for i, s := range resp.Scenarios {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, getString(s, "name"), getString(s, "id"))
		workers, _ := getFloat(s, "worker_count")
		robots, _ := getFloat(s, "robot_count")
		shift, _ := getFloat(s, "shift_duration_hours")
		fmt.Fprintf(&sb, "   Task: %s | Workers: %.0f | Robots: %.0f | Shift: %gh\n",
			getString(s, "task_type"), workers, robots, shift)
		fmt.Fprintf(&sb, "   Status: %s\n", getString(s, "status"))
		if i < len(resp.Scenarios)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func formatAssessment(raw json.RawMessage) (string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", err
	}
	// Assessment might be nested under "assessment".
	if a, ok := m["assessment"].(map[string]any); ok {
		m = a
	}

	var sb strings.Builder
	sb.WriteString("Risk Assessment:\n")
	fmt.Fprintf(&sb, "  ID: %s\n", getString(m, "id"))
	if v := getString(m, "scenario_id"); v != "" {
		fmt.Fprintf(&sb, "  Scenario: %s\n", v)
	}
	if v, ok := getFloat(m, "overall_risk_score"); ok {
		fmt.Fprintf(&sb, "  Risk: %.3f (%s)\n", v, getString(m, "risk_level"))
	}
	if v, ok := getFloat(m, "symbiosis_index"); ok {
		fmt.Fprintf(&sb, "  Symbiosis index: %.3f\n", v)
	}
	if v, ok := getFloat(m, "mitigated_errors_percent"); ok {
		fmt.Fprintf(&sb, "  Mitigated errors: %.1f%%\n", v)
	}
	if v, ok := getFloat(m, "gesture_accuracy"); ok {
		fmt.Fprintf(&sb, "  Gesture accuracy: %.3f\n", v)
	}

	if risks, ok := m["echo_risks"].([]any); ok && len(risks) > 0 {
		sb.WriteString("\nPredicted echo risks:\n")
		for _, r := range risks {
			rm, ok := r.(map[string]any)
			if !ok {
				continue
			}
			prob, _ := getFloat(rm, "probability")
			fmt.Fprintf(&sb, "  - %s (%.0f%%): %s\n",
				getString(rm, "type"), prob*100, getString(rm, "description"))
		}
	}

	if recs, ok := m["recommendations"].([]any); ok && len(recs) > 0 {
		sb.WriteString("\nRecommendations:\n")
		for _, r := range recs {
			if s, ok := r.(string); ok {
				fmt.Fprintf(&sb, "  - %s\n", s)
			}
		}
	}

	if details, ok := m["reservoir_details"].(map[string]any); ok {
		analyzed, _ := getFloat(details, "gestures_analyzed")
		anomalies, _ := getFloat(details, "anomalies_detected")
		fmt.Fprintf(&sb, "\nSequence diagnostics: %.0f gestures analyzed, %.0f anomalies (%s)\n",
			analyzed, anomalies, getString(details, "model_type"))
	}

	return sb.String(), nil
}

func formatKPIs(raw json.RawMessage) (string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Dashboard KPIs:\n")
	scenarios, _ := getFloat(m, "total_scenarios")
	preds, _ := getFloat(m, "total_predictions")
	alerts, _ := getFloat(m, "active_alerts")
	fmt.Fprintf(&sb, "  Scenarios: %.0f | Predictions: %.0f | Active alerts: %.0f\n",
		scenarios, preds, alerts)
	if v, ok := getFloat(m, "avg_risk_score"); ok {
		fmt.Fprintf(&sb, "  Average risk score: %.3f\n", v)
	}
	if v, ok := getFloat(m, "mitigated_errors_total"); ok {
		fmt.Fprintf(&sb, "  Mitigated errors: %.1f%%\n", v)
	}
	if v, ok := getFloat(m, "symbiosis_health"); ok {
		fmt.Fprintf(&sb, "  Symbiosis health: %.3f\n", v)
	}
	return sb.String(), nil
}

func formatAlertList(raw json.RawMessage) (string, error) {
	var resp struct {
		Alerts []map[string]any `json:"alerts"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Alerts == nil {
		if err := json.Unmarshal(raw, &resp.Alerts); err != nil {
			return "", fmt.Errorf("unexpected alerts response format")
		}
	}
	if len(resp.Alerts) == 0 {
		return "No alerts.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d alert(s):\n\n", len(resp.Alerts))
	for i, a := range resp.Alerts {
		status := "active"
		if acked, ok := a["acknowledged"].(bool); ok && acked {
			status = "acknowledged"
		}
		fmt.Fprintf(&sb, "%d. [%s] %s (%s)\n", i+1,
			strings.ToUpper(getString(a, "type")), getString(a, "message"), status)
		fmt.Fprintf(&sb, "   ID: %s\n", getString(a, "id"))
		if v := getString(a, "scenario_id"); v != "" {
			fmt.Fprintf(&sb, "   Scenario: %s\n", v)
		}
	}
	return sb.String(), nil
}

// getString extracts a string value from a map, trying multiple key names.
func getString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%g", f)
			}
		}
	}
	return ""
}

// getFloat extracts a float64 value from a map, trying multiple key names.
func getFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := v.(float64); ok {
				return f, true
			}
		}
	}
	return 0, false
}
