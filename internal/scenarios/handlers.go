package scenarios

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/optimusecho/predictor/internal/pagination"
)

// Handler provides HTTP endpoints for scenario management.
type Handler struct {
	service *Service
}

// NewHandler creates a new scenario handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up scenario routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/scenarios", h.CreateScenario)
	r.GET("/scenarios", h.ListScenarios)
	r.GET("/scenarios/:id", h.GetScenario)
	r.PUT("/scenarios/:id", h.UpdateScenario)
	r.DELETE("/scenarios/:id", h.DeleteScenario)
}

// CreateScenario handles POST /api/v1/scenarios
func (h *Handler) CreateScenario(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	sc, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidScenario) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "create_failed",
			"message": "Failed to create scenario",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"scenario": sc})
}

// GetScenario handles GET /api/v1/scenarios/:id
func (h *Handler) GetScenario(c *gin.Context) {
	sc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrScenarioNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Scenario not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"scenario": sc})
}

// ListScenarios handles GET /api/v1/scenarios
func (h *Handler) ListScenarios(c *gin.Context) {
	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
			if limit > 200 {
				limit = 200
			}
		}
	}

	cursor, err := pagination.Decode(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_cursor",
			"message": "Invalid pagination cursor",
		})
		return
	}

	// Fetch one extra row to detect whether another page exists.
	items, err := h.service.List(c.Request.Context(), cursor, limit+1)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	page, next, hasMore := pagination.ComputePage(items, limit, func(s *Scenario) (time.Time, string) {
		return s.CreatedAt, s.ID
	})

	c.JSON(http.StatusOK, gin.H{
		"scenarios":   page,
		"count":       len(page),
		"next_cursor": next,
		"has_more":    hasMore,
	})
}

// UpdateScenario handles PUT /api/v1/scenarios/:id
func (h *Handler) UpdateScenario(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	sc, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		status := http.StatusInternalServerError
		code := "update_failed"
		switch {
		case errors.Is(err, ErrScenarioNotFound):
			status = http.StatusNotFound
			code = "not_found"
		case errors.Is(err, ErrInvalidScenario):
			status = http.StatusBadRequest
			code = "validation_error"
		}
		c.JSON(status, gin.H{"error": code, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"scenario": sc})
}

// DeleteScenario handles DELETE /api/v1/scenarios/:id
func (h *Handler) DeleteScenario(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrScenarioNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Scenario not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "delete_failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
