// Package dashboard provides JSON API endpoints for demo analytics.
package dashboard

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/optimusecho/predictor/internal/alerts"
	"github.com/optimusecho/predictor/internal/predictions"
	"github.com/optimusecho/predictor/internal/risk"
	"github.com/optimusecho/predictor/internal/scenarios"
)

// Display fallbacks shown before any assessment exists.
const (
	fallbackAvgRisk      = 0.35
	fallbackMitigated    = 22.0
	fallbackSymbiosis    = 0.75
	symbiosisTargetValue = 0.85
	defaultTrendPoints   = 30
	maxTrendPoints       = 200
	defaultErrorRateDays = 7
)

// Handler provides dashboard API endpoints.
type Handler struct {
	scenarioStore   scenarios.Store
	assessmentStore predictions.Store
	alertStore      alerts.Store
}

// NewHandler creates a new dashboard handler.
func NewHandler(scenarioStore scenarios.Store, assessmentStore predictions.Store, alertStore alerts.Store) *Handler {
	return &Handler{
		scenarioStore:   scenarioStore,
		assessmentStore: assessmentStore,
		alertStore:      alertStore,
	}
}

// RegisterRoutes sets up dashboard routes under the given group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard/kpis", h.KPIs)
	r.GET("/dashboard/charts/risk-distribution", h.RiskDistribution)
	r.GET("/dashboard/charts/error-rates", h.ErrorRates)
	r.GET("/dashboard/charts/symbiosis-trend", h.SymbiosisTrend)
}

// KPIs returns headline counts and fleet-wide assessment averages.
func (h *Handler) KPIs(c *gin.Context) {
	ctx := c.Request.Context()

	totalScenarios, err := h.scenarioStore.Count(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	totalPredictions, err := h.assessmentStore.Count(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	activeAlerts, err := h.alertStore.CountActive(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	avgRisk := fallbackAvgRisk
	avgMitigated := fallbackMitigated
	symbiosisHealth := fallbackSymbiosis
	averages, err := h.assessmentStore.Averages(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if averages != nil {
		avgRisk = averages.RiskScore
		avgMitigated = averages.MitigatedErrors
		symbiosisHealth = averages.SymbiosisIndex
	}

	c.JSON(http.StatusOK, gin.H{
		"total_scenarios":        totalScenarios,
		"total_predictions":      totalPredictions,
		"avg_risk_score":         round3(avgRisk),
		"mitigated_errors_total": round1(avgMitigated),
		"active_alerts":          activeAlerts,
		"symbiosis_health":       round3(symbiosisHealth),
	})
}

// distributionSlice is one pie-chart wedge, fill colors matching the UI theme.
type distributionSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Fill  string `json:"fill"`
}

// RiskDistribution returns assessment counts per risk level.
func (h *Handler) RiskDistribution(c *gin.Context) {
	counts, err := h.assessmentStore.LevelCounts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, []distributionSlice{
		{Name: "Low", Value: counts[risk.LevelLow], Fill: "#00FF9D"},
		{Name: "Medium", Value: counts[risk.LevelMedium], Fill: "#FFB800"},
		{Name: "High", Value: counts[risk.LevelHigh], Fill: "#FF4D00"},
		{Name: "Critical", Value: counts[risk.LevelCritical], Fill: "#FF0000"},
	})
}

// ErrorRates returns error rates derived from stored assessments,
// oldest first.
func (h *Handler) ErrorRates(c *gin.Context) {
	limit := parseLimit(c, defaultErrorRateDays, maxTrendPoints)
	points, err := h.assessmentStore.RecentPoints(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	data := make([]gin.H, 0, len(points))
	for i, p := range points {
		data = append(data, gin.H{
			"day":                i + 1,
			"gesture_errors":     round1((1 - p.GestureAccuracy) * 100),
			"proximity_breaches": round1(p.RiskScore * 15),
			"mitigated":          round1(p.MitigatedErrors),
		})
	}
	c.JSON(http.StatusOK, data)
}

// SymbiosisTrend returns the symbiosis index over recent assessments
// alongside the target line.
func (h *Handler) SymbiosisTrend(c *gin.Context) {
	limit := parseLimit(c, defaultTrendPoints, maxTrendPoints)
	points, err := h.assessmentStore.RecentPoints(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	data := make([]gin.H, 0, len(points))
	for i, p := range points {
		data = append(data, gin.H{
			"day":       i + 1,
			"symbiosis": round3(p.SymbiosisIndex),
			"target":    symbiosisTargetValue,
		})
	}
	c.JSON(http.StatusOK, data)
}

func parseLimit(c *gin.Context, defaultVal, maxVal int) int {
	limit := defaultVal
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxVal {
		limit = maxVal
	}
	return limit
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
