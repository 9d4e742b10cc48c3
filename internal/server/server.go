// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/optimusecho/predictor/internal/alerts"
	"github.com/optimusecho/predictor/internal/config"
	"github.com/optimusecho/predictor/internal/dashboard"
	"github.com/optimusecho/predictor/internal/gesture"
	"github.com/optimusecho/predictor/internal/health"
	"github.com/optimusecho/predictor/internal/idgen"
	"github.com/optimusecho/predictor/internal/logging"
	"github.com/optimusecho/predictor/internal/metrics"
	"github.com/optimusecho/predictor/internal/predictions"
	"github.com/optimusecho/predictor/internal/ratelimit"
	"github.com/optimusecho/predictor/internal/realtime"
	"github.com/optimusecho/predictor/internal/risk"
	"github.com/optimusecho/predictor/internal/scenarios"
	"github.com/optimusecho/predictor/internal/security"
	"github.com/optimusecho/predictor/internal/traces"
	"github.com/optimusecho/predictor/internal/validation"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg          *config.Config
	engine       *risk.Engine
	scenarios    *scenarios.Service
	alerts       *alerts.Service
	predictions  *predictions.Service
	buffer       *gesture.Buffer
	gestureStore gesture.Store

	scenarioStore   scenarios.Store
	assessmentStore predictions.Store
	alertStore      alerts.Store
	realtimeHub  *realtime.Hub
	healthReg    *health.Registry
	rateLimiter  *ratelimit.Limiter
	db           *sql.DB // nil if using in-memory
	router       *gin.Engine
	httpSrv      *http.Server
	logger       *slog.Logger
	tracesDone   func(context.Context) error
	cancelRunCtx context.CancelFunc // cancels background goroutines started in Run

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithEngine sets a custom scoring engine (for testing)
func WithEngine(e *risk.Engine) Option {
	return func(s *Server) {
		s.engine = e
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:       cfg,
		logger:    logging.New(cfg.LogLevel, cfg.LogFormat),
		healthReg: health.NewRegistry(),
	}

	// Apply options first (may set engine/logger)
	for _, opt := range opts {
		opt(s)
	}

	ctx := context.Background()

	// Scoring engine (options may have injected one for tests)
	if s.engine == nil {
		engine, err := buildEngine(cfg, s.logger)
		if err != nil {
			return nil, err
		}
		s.engine = engine
	}

	// Gesture ring buffer shared by ingestion and the sequence path
	s.buffer = gesture.NewBuffer(cfg.GestureBufferSize)

	// Storage (Postgres if DATABASE_URL set, otherwise in-memory)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		s.db = db
		s.scenarioStore = scenarios.NewPostgresStore(db)
		s.assessmentStore = predictions.NewPostgresStore(db)
		s.alertStore = alerts.NewPostgresStore(db)
		s.gestureStore = gesture.NewPostgresStore(db)
		s.logger.Info("using PostgreSQL storage", "url", maskDSN(cfg.DatabaseURL))

		s.healthReg.Register("database", func(ctx context.Context) health.Status {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return health.Fail("database", err)
			}
			return health.OK("database", "")
		})
	} else {
		s.scenarioStore = scenarios.NewMemoryStore()
		s.assessmentStore = predictions.NewMemoryStore()
		s.alertStore = alerts.NewMemoryStore()
		s.gestureStore = gesture.NewMemoryStore()
		s.logger.Info("using in-memory storage (data will not persist)")
	}

	s.healthReg.Register("scoring_backend", func(ctx context.Context) health.Status {
		return health.OK("scoring_backend", s.engine.Backend().Name())
	})

	// Realtime hub for WebSocket streaming
	s.realtimeHub = realtime.NewHub(s.logger, cfg.MaxWebSocketClients)
	s.logger.Info("realtime streaming enabled", "max_clients", cfg.MaxWebSocketClients)

	// Domain services
	s.scenarios = scenarios.NewService(s.scenarioStore)
	s.alerts = alerts.NewService(s.alertStore).WithNotifier(s.realtimeHub)
	s.predictions = predictions.NewService(s.engine, s.assessmentStore, s.scenarios, s.buffer).
		WithAlertRaiser(&alertRaiserAdapter{s.alerts}).
		WithBroadcaster(s.realtimeHub)

	// Tracing (no-op when endpoint unset)
	tracesDone, err := traces.Init(ctx, cfg.OTELEndpoint, s.logger)
	if err != nil {
		s.logger.Warn("tracing init failed, continuing without traces", "error", err)
	} else {
		s.tracesDone = tracesDone
	}

	// Configure gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)

	return s, nil
}

// buildEngine constructs the scoring backend named in config.
func buildEngine(cfg *config.Config, logger *slog.Logger) (*risk.Engine, error) {
	var backend risk.ScoringBackend
	switch cfg.ScoringBackend {
	case "reservoir":
		reservoir, err := risk.NewTrainedReservoir(
			risk.DefaultReservoirConfig(cfg.ReservoirSeed), 40, 30)
		if err != nil {
			return nil, fmt.Errorf("failed to train reservoir backend: %w", err)
		}
		backend = reservoir
		logger.Info("scoring backend ready", "backend", "reservoir", "seed", cfg.ReservoirSeed)
	default:
		backend = risk.NewRulesBackend()
		logger.Info("scoring backend ready", "backend", "rules")
	}

	return risk.NewEngine(backend).WithMinSequence(cfg.GestureMinSamples), nil
}

// maskDSN hides password in connection string for logging
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// CORS
	s.router.Use(security.CORSMiddleware([]string{s.cfg.CORSOrigins}))

	// Request size limit
	s.router.Use(validation.RequestSizeMiddleware(s.cfg.MaxRequestSize))

	// Rate limiting
	rlCfg := ratelimit.DefaultConfig()
	rlCfg.RequestsPerMinute = s.cfg.RateLimitRPS * 60
	s.rateLimiter = ratelimit.New(rlCfg)
	s.router.Use(s.rateLimiter.Middleware())

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		// Log level based on status code
		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	// WebSocket for real-time streaming
	s.router.GET("/ws", func(c *gin.Context) {
		s.realtimeHub.HandleWebSocket(c.Writer, c.Request)
	})

	// API info
	s.router.GET("/api", s.infoHandler)

	// V1 API group
	v1 := s.router.Group("/api/v1")

	scenarios.NewHandler(s.scenarios).RegisterRoutes(v1)
	predictions.NewHandler(s.predictions).RegisterRoutes(v1)
	alerts.NewHandler(s.alerts).RegisterRoutes(v1)
	gesture.NewHandler(s.buffer, s.gestureStore, gesture.NewGenerator(s.cfg.ReservoirSeed)).
		WithBroadcaster(s.realtimeHub).
		RegisterRoutes(v1)
	dashboard.NewHandler(s.scenarioStore, s.assessmentStore, s.alertStore).
		RegisterRoutes(v1)
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

// HealthResponse for health check endpoints
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Checks    []health.Status `json:"checks,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	healthy, statuses := s.healthReg.CheckAll(ctx)

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Version:   "0.1.0",
		Checks:    statuses,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":            "Optimus Echo Predictor",
		"description":     "Risk prediction for human-robot collaboration scenarios",
		"version":         "0.1.0",
		"scoring_backend": s.engine.Backend().Name(),
	})
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server with graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	// Cancellable context for background goroutines so Shutdown() can stop them.
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting server",
			"port", s.cfg.Port,
			"backend", s.engine.Backend().Name(),
		)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Start realtime hub
	go s.realtimeHub.Run(runCtx)

	// Export DB pool stats while a database is configured
	if s.db != nil {
		go metrics.StartDBStatsCollector(runCtx, s.db, 15*time.Second)
	}

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	// Wait for shutdown signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	// Cancel the context for all background goroutines (hub, collectors)
	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
		s.logger.Info("rate limiter stopped")
	}

	// Flush traces
	if s.tracesDone != nil {
		if err := s.tracesDone(ctx); err != nil {
			s.logger.Error("traces shutdown error", "error", err)
		}
	}

	// Close database connection pool
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func generateRequestID() string {
	return idgen.Hex(16)
}

// alertRaiserAdapter narrows alerts.Service to the error-only interface the
// prediction pipeline needs; a nil alert for low-risk assessments is not an
// error.
type alertRaiserAdapter struct {
	alerts *alerts.Service
}

func (a *alertRaiserAdapter) RaiseForAssessment(ctx context.Context, assessment *risk.Assessment) error {
	_, err := a.alerts.RaiseForAssessment(ctx, assessment)
	return err
}
