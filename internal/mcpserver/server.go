package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all predictor tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("optimus-echo-predictor", "1.0.0")
	client := NewPredictorClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolListScenarios, h.HandleListScenarios)
	s.AddTool(ToolCreateScenario, h.HandleCreateScenario)
	s.AddTool(ToolRunPrediction, h.HandleRunPrediction)
	s.AddTool(ToolPredictGestures, h.HandlePredictGestures)
	s.AddTool(ToolGetPrediction, h.HandleGetPrediction)
	s.AddTool(ToolGetKPIs, h.HandleGetKPIs)
	s.AddTool(ToolListAlerts, h.HandleListAlerts)
	s.AddTool(ToolAcknowledgeAlert, h.HandleAcknowledgeAlert)
	s.AddTool(ToolGenerateGestures, h.HandleGenerateGestures)

	return s
}
