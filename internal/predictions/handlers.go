package predictions

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/optimusecho/predictor/internal/pagination"
	"github.com/optimusecho/predictor/internal/risk"
	"github.com/optimusecho/predictor/internal/scenarios"
)

// Handler provides HTTP endpoints for running and reading predictions.
type Handler struct {
	service *Service
}

// NewHandler creates a new prediction handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up prediction routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/predictions/scenario/:id", h.PredictScenario)
	r.POST("/predictions/gestures", h.PredictGestures)
	r.GET("/predictions", h.ListPredictions)
	r.GET("/predictions/:id", h.GetPrediction)
	r.GET("/scenarios/:id/predictions", h.ListScenarioPredictions)
}

// PredictScenario handles POST /api/v1/predictions/scenario/:id
func (h *Handler) PredictScenario(c *gin.Context) {
	assessment, err := h.service.PredictScenario(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		code := "prediction_failed"
		switch {
		case errors.Is(err, scenarios.ErrScenarioNotFound):
			status = http.StatusNotFound
			code = "not_found"
		case errors.Is(err, risk.ErrInvalidInput):
			status = http.StatusBadRequest
			code = "invalid_input"
		}
		c.JSON(status, gin.H{"error": code, "message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"prediction": assessment})
}

// PredictGestures handles POST /api/v1/predictions/gestures
func (h *Handler) PredictGestures(c *gin.Context) {
	assessment, err := h.service.PredictSequence(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		code := "prediction_failed"
		switch {
		case errors.Is(err, risk.ErrInsufficientData):
			// Precondition failure: the caller must buffer more samples.
			status = http.StatusConflict
			code = "insufficient_data"
		case errors.Is(err, risk.ErrInvalidInput):
			status = http.StatusBadRequest
			code = "invalid_input"
		}
		c.JSON(status, gin.H{"error": code, "message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"prediction": assessment})
}

// GetPrediction handles GET /api/v1/predictions/:id
func (h *Handler) GetPrediction(c *gin.Context) {
	assessment, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrPredictionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Prediction not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"prediction": assessment})
}

// ListPredictions handles GET /api/v1/predictions
func (h *Handler) ListPredictions(c *gin.Context) {
	limit := parseLimit(c, 50, 200)

	cursor, err := pagination.Decode(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_cursor",
			"message": "Invalid pagination cursor",
		})
		return
	}

	items, err := h.service.List(c.Request.Context(), cursor, limit+1)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	page, next, hasMore := pagination.ComputePage(items, limit, func(a *risk.Assessment) (time.Time, string) {
		return a.CreatedAt, a.ID
	})

	c.JSON(http.StatusOK, gin.H{
		"predictions": page,
		"count":       len(page),
		"next_cursor": next,
		"has_more":    hasMore,
	})
}

// ListScenarioPredictions handles GET /api/v1/scenarios/:id/predictions
func (h *Handler) ListScenarioPredictions(c *gin.Context) {
	limit := parseLimit(c, 50, 200)

	items, err := h.service.ListByScenario(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": items,
		"count":       len(items),
	})
}

func parseLimit(c *gin.Context, def, max int) int {
	limit := def
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
			if limit > max {
				limit = max
			}
		}
	}
	return limit
}
