package alerts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for alert management.
type Handler struct {
	service *Service
}

// NewHandler creates a new alert handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up alert routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/alerts", h.ListAlerts)
	r.POST("/alerts/:id/acknowledge", h.AcknowledgeAlert)
}

// ListAlerts handles GET /api/v1/alerts
func (h *Handler) ListAlerts(c *gin.Context) {
	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
			if limit > 200 {
				limit = 200
			}
		}
	}
	includeAcked := c.Query("include_acknowledged") == "true"

	items, err := h.service.List(c.Request.Context(), includeAcked, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": items,
		"count":  len(items),
	})
}

// AcknowledgeAlert handles POST /api/v1/alerts/:id/acknowledge
func (h *Handler) AcknowledgeAlert(c *gin.Context) {
	a, err := h.service.Acknowledge(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Alert not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "acknowledge_failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alert": a})
}
