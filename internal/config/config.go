// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port      string
	Env       string // "development", "staging", "production"
	LogLevel  string
	LogFormat string // "text" or "json"

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Scoring
	ScoringBackend string // "rules" or "reservoir"
	ReservoirSeed  int64  // seed for reservoir weight init and training data

	// Gesture buffer
	GestureBufferSize int // ring buffer capacity
	GestureMinSamples int // minimum samples before sequence scoring

	// Security
	RateLimitRPS   int
	MaxRequestSize int64 // bytes
	CORSOrigins    string

	// Realtime
	MaxWebSocketClients int

	// Tracing
	OTELEndpoint string // OTLP gRPC endpoint (optional, tracing disabled if not set)
}

const (
	DefaultPort              = "8080"
	DefaultEnv               = "development"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultScoringBackend    = "rules"
	DefaultReservoirSeed     = 42
	DefaultGestureBufferSize = 50
	DefaultGestureMinSamples = 10
	DefaultRateLimit         = 100
	DefaultMaxRequestSize    = 1 << 20 // 1 MiB
	DefaultMaxWSClients      = 100
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", DefaultPort),
		Env:                 getEnv("ENV", DefaultEnv),
		LogLevel:            getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:           getEnv("LOG_FORMAT", DefaultLogFormat),
		DatabaseURL:         os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		ScoringBackend:      getEnv("SCORING_BACKEND", DefaultScoringBackend),
		ReservoirSeed:       getEnvInt64("RESERVOIR_SEED", DefaultReservoirSeed),
		GestureBufferSize:   int(getEnvInt64("GESTURE_BUFFER_SIZE", DefaultGestureBufferSize)),
		GestureMinSamples:   int(getEnvInt64("GESTURE_MIN_SAMPLES", DefaultGestureMinSamples)),
		RateLimitRPS:        int(getEnvInt64("RATE_LIMIT_RPS", DefaultRateLimit)),
		MaxRequestSize:      getEnvInt64("MAX_REQUEST_SIZE", DefaultMaxRequestSize),
		CORSOrigins:         getEnv("CORS_ORIGINS", "*"),
		MaxWebSocketClients: int(getEnvInt64("MAX_WS_CLIENTS", DefaultMaxWSClients)),
		OTELEndpoint:        os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all configuration values are usable
func (c *Config) Validate() error {
	switch c.ScoringBackend {
	case "rules", "reservoir":
	default:
		return fmt.Errorf("SCORING_BACKEND must be \"rules\" or \"reservoir\", got %q", c.ScoringBackend)
	}

	if c.GestureBufferSize < 1 {
		return fmt.Errorf("GESTURE_BUFFER_SIZE must be at least 1")
	}
	if c.GestureMinSamples < 1 {
		return fmt.Errorf("GESTURE_MIN_SAMPLES must be at least 1")
	}
	if c.GestureMinSamples > c.GestureBufferSize {
		return fmt.Errorf("GESTURE_MIN_SAMPLES (%d) cannot exceed GESTURE_BUFFER_SIZE (%d)",
			c.GestureMinSamples, c.GestureBufferSize)
	}
	if c.RateLimitRPS < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS must be at least 1")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
