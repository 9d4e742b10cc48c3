package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the predictor MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolListScenarios = mcp.NewTool("list_scenarios",
	mcp.WithDescription(
		"List stored human-robot collaboration scenarios, newest first. "+
			"Each scenario describes one shared workspace: task type, worker and "+
			"robot counts, shift length and proximity threshold, plus whether it "+
			"has been analyzed yet."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of scenarios to return (default 20)")),
)

var ToolCreateScenario = mcp.NewTool("create_scenario",
	mcp.WithDescription(
		"Create a new collaboration scenario to analyze. "+
			"Task type must be one of: assembly_line, quality_check, "+
			"material_handling, collaborative_work."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Human-readable scenario name (e.g. 'Night shift line 3')")),
	mcp.WithString("task_type",
		mcp.Required(),
		mcp.Description("Task type of the shared workspace"),
		mcp.Enum("assembly_line", "quality_check", "material_handling", "collaborative_work")),
	mcp.WithNumber("worker_count",
		mcp.Required(),
		mcp.Description("Number of human workers (1-50)")),
	mcp.WithNumber("robot_count",
		mcp.Required(),
		mcp.Description("Number of robots (1-20)")),
	mcp.WithNumber("shift_duration_hours",
		mcp.Required(),
		mcp.Description("Shift length in hours (1-12)")),
	mcp.WithNumber("proximity_threshold_meters",
		mcp.Description("Human-robot proximity threshold in meters (0.5-5.0, default 1.5)")),
	mcp.WithString("description",
		mcp.Description("Optional free-text description")),
)

var ToolRunPrediction = mcp.NewTool("run_prediction",
	mcp.WithDescription(
		"Run a risk prediction for a stored scenario. "+
			"Returns the overall risk score and level, predicted echo risks with "+
			"probabilities, and mitigation recommendations. Marks the scenario "+
			"as analyzed and may raise a safety alert."),
	mcp.WithString("scenario_id",
		mcp.Required(),
		mcp.Description("The scenario ID from list_scenarios or create_scenario (e.g. 'scn_...')")),
)

var ToolPredictGestures = mcp.NewTool("predict_gestures",
	mcp.WithDescription(
		"Score the current gesture buffer for sequence anomalies. "+
			"Needs at least 10 buffered samples; use generate_gestures first "+
			"if the buffer is empty."),
)

var ToolGetPrediction = mcp.NewTool("get_prediction",
	mcp.WithDescription(
		"Fetch one stored risk assessment by ID, including echo risks, "+
			"recommendations, and reservoir diagnostics when present."),
	mcp.WithString("prediction_id",
		mcp.Required(),
		mcp.Description("The assessment ID (e.g. 'prd_...')")),
)

var ToolGetKPIs = mcp.NewTool("get_kpis",
	mcp.WithDescription(
		"Get dashboard headline metrics: scenario and prediction counts, "+
			"average risk score, mitigated error percentage, active alert count, "+
			"and overall symbiosis health."),
)

var ToolListAlerts = mcp.NewTool("list_alerts",
	mcp.WithDescription(
		"List safety alerts raised by predictions, newest first. "+
			"By default only unacknowledged alerts are returned."),
	mcp.WithBoolean("include_acknowledged",
		mcp.Description("Include alerts that have already been acknowledged")),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of alerts to return (default 20)")),
)

var ToolAcknowledgeAlert = mcp.NewTool("acknowledge_alert",
	mcp.WithDescription(
		"Acknowledge a safety alert so it no longer counts as active. "+
			"Acknowledging is one-way and idempotent."),
	mcp.WithString("alert_id",
		mcp.Required(),
		mcp.Description("The alert ID from list_alerts (e.g. 'alr_...')")),
)

var ToolGenerateGestures = mcp.NewTool("generate_gestures",
	mcp.WithDescription(
		"Fill the gesture buffer with synthetic classified samples so "+
			"predict_gestures has data to score. Erratic mode produces a "+
			"rapid-transition, low-confidence stream that trips the anomaly checks."),
	mcp.WithNumber("count",
		mcp.Description("Number of samples to generate (default 50, capped)")),
	mcp.WithBoolean("erratic",
		mcp.Description("Generate an erratic stream instead of a calm one")),
)
