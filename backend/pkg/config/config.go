package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	apperrors "garden-graph/backend/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	// App
	Port   string
	Env    string
	Origin string // scheme://host the browser host reports as its location

	// Content
	SeedPath      string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// Graph
	Graph GraphConfig
}

// GraphConfig carries everything the client-side graph stack needs.
type GraphConfig struct {
	// Physics
	LinkDistance   float64
	ChargeStrength float64
	CollideRadius  float64

	// Viewport
	ZoomMin        float64
	ZoomMax        float64
	ViewportWidth  float64
	ViewportHeight float64

	// Timing
	FrameInterval  time.Duration
	ResizeDebounce time.Duration
	FetchTimeout   time.Duration

	// Navigation
	ContentTarget string // fragment target for node clicks
	ContentSuffix string // stripped from file paths
	RouteSegment  string // appended to resolved routes
}

// DefaultGraphConfig mirrors the values the graph has always shipped with.
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		LinkDistance:   100,
		ChargeStrength: -300,
		CollideRadius:  30,
		ZoomMin:        0.1,
		ZoomMax:        4,
		ViewportWidth:  800,
		ViewportHeight: 600,
		FrameInterval:  16 * time.Millisecond,
		ResizeDebounce: 250 * time.Millisecond,
		FetchTimeout:   10 * time.Second,
		ContentTarget:  "content-section",
		ContentSuffix:  ".md",
		RouteSegment:   "page",
	}
}

// WithDefaults fills every unset field from DefaultGraphConfig. Zero counts as
// unset for every field, durations included.
func (g GraphConfig) WithDefaults() GraphConfig {
	d := DefaultGraphConfig()
	if g.LinkDistance <= 0 {
		g.LinkDistance = d.LinkDistance
	}
	if g.ChargeStrength == 0 {
		g.ChargeStrength = d.ChargeStrength
	}
	if g.CollideRadius <= 0 {
		g.CollideRadius = d.CollideRadius
	}
	if g.ZoomMin <= 0 {
		g.ZoomMin = d.ZoomMin
	}
	if g.ZoomMax <= 0 {
		g.ZoomMax = d.ZoomMax
	}
	if g.ZoomMax < g.ZoomMin {
		g.ZoomMin, g.ZoomMax = d.ZoomMin, d.ZoomMax
	}
	if g.ViewportWidth <= 0 {
		g.ViewportWidth = d.ViewportWidth
	}
	if g.ViewportHeight <= 0 {
		g.ViewportHeight = d.ViewportHeight
	}
	if g.FrameInterval <= 0 {
		g.FrameInterval = d.FrameInterval
	}
	if g.ResizeDebounce <= 0 {
		g.ResizeDebounce = d.ResizeDebounce
	}
	if g.FetchTimeout <= 0 {
		g.FetchTimeout = d.FetchTimeout
	}
	if g.ContentTarget == "" {
		g.ContentTarget = d.ContentTarget
	}
	if g.ContentSuffix == "" {
		g.ContentSuffix = d.ContentSuffix
	}
	if g.RouteSegment == "" {
		g.RouteSegment = d.RouteSegment
	}
	return g
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	def := DefaultGraphConfig()
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		Origin:        getEnv("SITE_ORIGIN", "http://localhost:8080"),
		SeedPath:      getEnv("SEED_PATH", "garden.yaml"),
		Neo4jURI:      getEnv("NEO4J_URI", ""),
		Neo4jUser:     getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),
		Graph: GraphConfig{
			LinkDistance:   getEnvFloat("LINK_DISTANCE", def.LinkDistance),
			ChargeStrength: getEnvFloat("CHARGE_STRENGTH", def.ChargeStrength),
			CollideRadius:  getEnvFloat("COLLIDE_RADIUS", def.CollideRadius),
			ZoomMin:        getEnvFloat("ZOOM_MIN", def.ZoomMin),
			ZoomMax:        getEnvFloat("ZOOM_MAX", def.ZoomMax),
			ViewportWidth:  getEnvFloat("VIEWPORT_WIDTH", def.ViewportWidth),
			ViewportHeight: getEnvFloat("VIEWPORT_HEIGHT", def.ViewportHeight),
			FrameInterval:  getEnvMillis("FRAME_INTERVAL_MS", def.FrameInterval),
			ResizeDebounce: getEnvMillis("RESIZE_DEBOUNCE_MS", def.ResizeDebounce),
			FetchTimeout:   getEnvMillis("FETCH_TIMEOUT_MS", def.FetchTimeout),
			ContentTarget:  getEnv("CONTENT_TARGET", def.ContentTarget),
			ContentSuffix:  getEnv("CONTENT_SUFFIX", def.ContentSuffix),
			RouteSegment:   getEnv("ROUTE_SEGMENT", def.RouteSegment),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Port == "" {
		return apperrors.NewConfigValidationFailed("PORT", "is required")
	}
	if c.Origin == "" {
		return apperrors.NewConfigValidationFailed("SITE_ORIGIN", "is required")
	}
	// Neo4j is optional; without it the YAML seed is served
	if c.Neo4jURI != "" && c.Neo4jPassword == "" {
		return apperrors.NewConfigValidationFailed("NEO4J_PASSWORD", "is required when NEO4J_URI is set")
	}
	return c.Graph.Validate()
}

// Validate checks the graph settings for values the layout cannot work with
func (g GraphConfig) Validate() error {
	if g.LinkDistance <= 0 {
		return apperrors.NewConfigValidationFailed("LINK_DISTANCE", "must be positive")
	}
	if g.CollideRadius < 0 {
		return apperrors.NewConfigValidationFailed("COLLIDE_RADIUS", "must not be negative")
	}
	if g.ZoomMin <= 0 || g.ZoomMax < g.ZoomMin {
		return apperrors.NewConfigValidationFailed("ZOOM_MIN/ZOOM_MAX", "need 0 < min <= max")
	}
	if g.ViewportWidth <= 0 || g.ViewportHeight <= 0 {
		return apperrors.NewConfigValidationFailed("VIEWPORT_WIDTH/VIEWPORT_HEIGHT", "must be positive")
	}
	if g.FrameInterval <= 0 {
		return apperrors.NewConfigValidationFailed("FRAME_INTERVAL_MS", "must be positive")
	}
	if g.FetchTimeout <= 0 {
		return apperrors.NewConfigValidationFailed("FETCH_TIMEOUT_MS", "must be positive")
	}
	if g.ResizeDebounce < 0 {
		return apperrors.NewConfigValidationFailed("RESIZE_DEBOUNCE_MS", "must not be negative")
	}
	if g.ContentTarget == "" {
		return apperrors.NewConfigValidationFailed("CONTENT_TARGET", "is required")
	}
	return nil
}

// UseNeo4j reports whether a graph database was configured
func (c *Config) UseNeo4j() bool {
	return c.Neo4jURI != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvMillis(key string, defaultValue time.Duration) time.Duration {
	ms := getEnvInt(key, -1)
	if ms < 0 {
		return defaultValue
	}
	return time.Duration(ms) * time.Millisecond
}
