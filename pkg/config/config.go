// Package config holds the worker configuration: defaults, YAML loading and
// validation.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/forge-automation/pkg/logging"
	"github.com/entrhq/forge-automation/pkg/protocol"
)

// Config represents the worker configuration
type Config struct {
	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Browser platform configuration
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Monitoring session limits
	Sessions SessionConfig `yaml:"sessions" json:"sessions"`

	// Operation access control
	Operations OperationConfig `yaml:"operations" json:"operations"`

	// Request stream limits
	Protocol ProtocolConfig `yaml:"protocol" json:"protocol"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// BrowserConfig defines how the automated browser is launched
type BrowserConfig struct {
	Headless    bool          `yaml:"headless" json:"headless"`
	StartURL    string        `yaml:"start_url" json:"start_url"`
	Width       int           `yaml:"viewport_width" json:"viewport_width"`
	Height      int           `yaml:"viewport_height" json:"viewport_height"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	SkipInstall bool          `yaml:"skip_install" json:"skip_install"` // Use an already installed browser instead of downloading one
}

// SessionConfig defines monitoring session limits
type SessionConfig struct {
	MaxAge          time.Duration `yaml:"max_age" json:"max_age"`               // Sessions older than this are swept (0 disables)
	SweepInterval   time.Duration `yaml:"sweep_interval" json:"sweep_interval"` // Background sweep period (0 disables)
	MaxEvents       int           `yaml:"max_events" json:"max_events"`         // Per-session event log capacity
	MaxSessions     int           `yaml:"max_sessions" json:"max_sessions"`     // 0 means unlimited
	EventsPerSecond float64       `yaml:"events_per_second" json:"events_per_second"`
	EventBurst      int           `yaml:"event_burst" json:"event_burst"`
}

// OperationConfig restricts which operations callers may run
type OperationConfig struct {
	AllowedPatterns []string `yaml:"allowed" json:"allowed"`
	DeniedPatterns  []string `yaml:"denied" json:"denied"`
}

// ProtocolConfig defines request stream limits
type ProtocolConfig struct {
	MaxLineBytes int `yaml:"max_line_bytes" json:"max_line_bytes"`
}

// DefaultConfig returns a default configuration suitable for most use cases
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
		Browser: BrowserConfig{
			Headless: true,
			Width:    1280,
			Height:   720,
			Timeout:  30 * time.Second,
		},
		Sessions: SessionConfig{
			MaxAge:        30 * time.Minute,
			SweepInterval: time.Minute,
			MaxEvents:     1000,
			MaxSessions:   64,
		},
		Protocol: ProtocolConfig{
			MaxLineBytes: protocol.DefaultMaxLineBytes,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result. An
// empty path returns the validated defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}
	if _, err := logging.ParseVerbosity(c.Logging.Verbosity); err != nil {
		return err
	}

	if c.Browser.Width <= 0 || c.Browser.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", c.Browser.Width, c.Browser.Height)
	}
	if c.Browser.Timeout < 0 {
		return fmt.Errorf("browser timeout cannot be negative")
	}

	if c.Sessions.MaxAge < 0 {
		return fmt.Errorf("max_age cannot be negative")
	}
	if c.Sessions.SweepInterval < 0 {
		return fmt.Errorf("sweep_interval cannot be negative")
	}
	if c.Sessions.MaxEvents <= 0 {
		return fmt.Errorf("max_events must be positive")
	}
	if c.Sessions.MaxSessions < 0 {
		return fmt.Errorf("max_sessions cannot be negative")
	}
	if c.Sessions.EventsPerSecond < 0 || c.Sessions.EventBurst < 0 {
		return fmt.Errorf("events_per_second and event_burst cannot be negative")
	}

	if c.Protocol.MaxLineBytes <= 0 {
		return fmt.Errorf("max_line_bytes must be positive")
	}

	if _, err := NewOperationFilter(c.Operations.AllowedPatterns, c.Operations.DeniedPatterns); err != nil {
		return err
	}
	return nil
}
