package gesture

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/optimusecho/predictor/internal/idgen"
	"github.com/optimusecho/predictor/internal/logging"
	"github.com/optimusecho/predictor/internal/metrics"
)

// Broadcaster fans ingested samples out to realtime subscribers.
type Broadcaster interface {
	BroadcastGestureSample(s *Sample)
}

// Handler provides HTTP endpoints for gesture ingestion and datasets.
type Handler struct {
	buffer      *Buffer
	store       Store
	broadcaster Broadcaster

	genMu sync.Mutex
	gen   *Generator
}

// NewHandler creates a new gesture handler.
func NewHandler(buffer *Buffer, store Store, gen *Generator) *Handler {
	return &Handler{buffer: buffer, store: store, gen: gen}
}

// WithBroadcaster adds realtime fan-out for ingested samples.
func (h *Handler) WithBroadcaster(b Broadcaster) *Handler {
	h.broadcaster = b
	return h
}

// RegisterRoutes sets up gesture routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/gestures", h.IngestSample)
	r.POST("/gestures/synthetic", h.GenerateSynthetic)
	r.POST("/gestures/upload", h.UploadDataset)
	r.GET("/gestures", h.ListRecent)
	r.DELETE("/gestures/buffer", h.ClearBuffer)
}

// ingestRequest is one classified sample as posted by a gesture source.
type ingestRequest struct {
	Type       Type      `json:"gesture_type" binding:"required"`
	Confidence float64   `json:"confidence"`
	Position   *Position `json:"position"`
	Source     string    `json:"source"`
}

// IngestSample handles POST /api/v1/gestures
func (h *Handler) IngestSample(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	source := req.Source
	if source == "" {
		source = "live"
	}
	sample := &Sample{
		ID:         idgen.WithPrefix("gst_"),
		Type:       req.Type,
		Confidence: req.Confidence,
		Position:   req.Position,
		Timestamp:  time.Now().UTC(),
		Source:     source,
	}
	if err := sample.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_sample",
			"message": err.Error(),
		})
		return
	}

	h.buffer.Push(sample)
	if err := h.store.Record(c.Request.Context(), sample); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "ingest_failed",
			"message": "Failed to record sample",
		})
		return
	}

	metrics.GestureSamplesTotal.WithLabelValues(source).Inc()
	metrics.GestureBufferLength.Set(float64(h.buffer.Len()))
	if h.broadcaster != nil {
		h.broadcaster.BroadcastGestureSample(sample)
	}

	c.JSON(http.StatusCreated, gin.H{
		"sample":        sample,
		"buffer_length": h.buffer.Len(),
	})
}

// syntheticRequest configures a synthetic generation run.
type syntheticRequest struct {
	Count   int  `json:"count"`
	Erratic bool `json:"erratic"`
}

// GenerateSynthetic handles POST /api/v1/gestures/synthetic
func (h *Handler) GenerateSynthetic(c *gin.Context) {
	var req syntheticRequest
	_ = c.ShouldBindJSON(&req) // empty body uses defaults
	if req.Count <= 0 {
		req.Count = 50
	}

	// The generator's rand source is not safe for concurrent use.
	h.genMu.Lock()
	var samples []*Sample
	if req.Erratic {
		samples = h.gen.GenerateErratic(req.Count, time.Now().UTC())
	} else {
		samples = h.gen.Generate(req.Count, time.Now().UTC())
	}
	h.genMu.Unlock()

	for _, s := range samples {
		h.buffer.Push(s)
	}
	if err := h.store.RecordBatch(c.Request.Context(), samples); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "generation_failed",
			"message": "Failed to record synthetic samples",
		})
		return
	}

	metrics.GestureSamplesTotal.WithLabelValues("synthetic").Add(float64(len(samples)))
	metrics.GestureBufferLength.Set(float64(h.buffer.Len()))
	if h.broadcaster != nil {
		for _, s := range samples {
			h.broadcaster.BroadcastGestureSample(s)
		}
	}

	logging.L(c.Request.Context()).Info("synthetic gestures generated",
		"count", len(samples), "erratic", req.Erratic)
	c.JSON(http.StatusCreated, gin.H{
		"generated":     len(samples),
		"buffer_length": h.buffer.Len(),
	})
}

// UploadDataset handles POST /api/v1/gestures/upload
func (h *Handler) UploadDataset(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Multipart field 'file' is required",
		})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Failed to open uploaded file",
		})
		return
	}
	defer func() { _ = f.Close() }()

	samples, err := ParseDataset(fileHeader.Filename, f)
	if err != nil {
		if errors.Is(err, ErrInvalidSample) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_dataset",
				"message": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "upload_failed",
			"message": err.Error(),
		})
		return
	}

	if err := h.store.RecordBatch(c.Request.Context(), samples); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "upload_failed",
			"message": "Failed to record dataset",
		})
		return
	}

	metrics.GestureSamplesTotal.WithLabelValues("upload").Add(float64(len(samples)))
	logging.L(c.Request.Context()).Info("gesture dataset uploaded",
		"filename", fileHeader.Filename, "rows", len(samples))
	c.JSON(http.StatusCreated, gin.H{"imported": len(samples)})
}

// ListRecent handles GET /api/v1/gestures
func (h *Handler) ListRecent(c *gin.Context) {
	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
			if limit > 500 {
				limit = 500
			}
		}
	}

	samples, err := h.store.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"samples":       samples,
		"count":         len(samples),
		"buffer_length": h.buffer.Len(),
	})
}

// ClearBuffer handles DELETE /api/v1/gestures/buffer
func (h *Handler) ClearBuffer(c *gin.Context) {
	h.buffer.Clear()
	metrics.GestureBufferLength.Set(0)
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
