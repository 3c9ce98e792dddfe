// Package config provides configuration management for the Storyloom Agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort     = 8793
	DefaultLogLevel = "info"
	DefaultDataDir  = ".storyloom"

	// Environment variable names
	EnvPort        = "STORYLOOM_PORT"
	EnvLogLevel    = "STORYLOOM_LOG_LEVEL"
	EnvDataDir     = "STORYLOOM_DATA_DIR"
	EnvRenderSpeed = "STORYLOOM_RENDER_SPEED"
	EnvPreviewTick = "STORYLOOM_PREVIEW_TICK_MS"

	// Renderer pacing: simulated render time per second of timeline, in milliseconds.
	DefaultRenderMsPerSecond = 100

	// Preview frame cadence in milliseconds.
	DefaultPreviewTickMs = 50

	// Hard floor for export pacing so an empty-ish timeline still yields
	// an observable Running phase.
	MinRenderDuration = 500 * time.Millisecond
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	MediaDir() string
	RenderMsPerSecond() int
	PreviewTick() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port              int
	logLevel          string
	dataDir           string
	renderMsPerSecond int
	previewTickMs     int
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:              DefaultPort,
		logLevel:          DefaultLogLevel,
		dataDir:           defaultDataDir(),
		renderMsPerSecond: DefaultRenderMsPerSecond,
		previewTickMs:     DefaultPreviewTickMs,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if rs := os.Getenv(EnvRenderSpeed); rs != "" {
		speed, err := strconv.Atoi(rs)
		if err != nil || speed < 1 {
			return nil, fmt.Errorf("invalid %s: must be a positive integer", EnvRenderSpeed)
		}
		cfg.renderMsPerSecond = speed
	}

	if pt := os.Getenv(EnvPreviewTick); pt != "" {
		tick, err := strconv.Atoi(pt)
		if err != nil || tick < 1 {
			return nil, fmt.Errorf("invalid %s: must be a positive integer", EnvPreviewTick)
		}
		cfg.previewTickMs = tick
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the scratch directory for the current session
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// MediaDir returns the directory where uploaded and recorded asset bytes are kept
func (c *EnvConfig) MediaDir() string {
	return filepath.Join(c.dataDir, "media")
}

// RenderMsPerSecond returns the simulated render pacing in milliseconds
// per second of timeline content
func (c *EnvConfig) RenderMsPerSecond() int {
	return c.renderMsPerSecond
}

// PreviewTick returns the interval between preview frames
func (c *EnvConfig) PreviewTick() time.Duration {
	return time.Duration(c.previewTickMs) * time.Millisecond
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
