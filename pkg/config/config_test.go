package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if !cfg.Browser.Headless {
		t.Error("expected headless by default")
	}
	if cfg.Sessions.MaxEvents != 1000 {
		t.Errorf("expected 1000 max events, got %d", cfg.Sessions.MaxEvents)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if cfg.Browser.Timeout != 30*time.Second {
		t.Errorf("expected default timeout, got %v", cfg.Browser.Timeout)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
logging:
  verbosity: debug
browser:
  headless: false
  start_url: https://example.com
  timeout: 10s
sessions:
  max_age: 5m
  max_sessions: 2
  events_per_second: 50
  event_burst: 100
operations:
  denied:
    - "*Clipboard*"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Logging.Verbosity != "debug" {
		t.Errorf("verbosity = %q, want debug", cfg.Logging.Verbosity)
	}
	if cfg.Browser.Headless {
		t.Error("expected headless to be overridden to false")
	}
	if cfg.Browser.StartURL != "https://example.com" {
		t.Errorf("start_url = %q", cfg.Browser.StartURL)
	}
	if cfg.Browser.Timeout != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", cfg.Browser.Timeout)
	}
	// Untouched fields keep their defaults
	if cfg.Browser.Width != 1280 {
		t.Errorf("width = %d, want default 1280", cfg.Browser.Width)
	}
	if cfg.Sessions.MaxAge != 5*time.Minute {
		t.Errorf("max_age = %v, want 5m", cfg.Sessions.MaxAge)
	}
	if cfg.Sessions.SweepInterval != time.Minute {
		t.Errorf("sweep_interval = %v, want default 1m", cfg.Sessions.SweepInterval)
	}
	if cfg.Sessions.EventsPerSecond != 50 || cfg.Sessions.EventBurst != 100 {
		t.Errorf("rate = %v/%d", cfg.Sessions.EventsPerSecond, cfg.Sessions.EventBurst)
	}
	if len(cfg.Operations.DeniedPatterns) != 1 {
		t.Errorf("denied patterns = %v", cfg.Operations.DeniedPatterns)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "logging: [", "failed to parse config file"},
		{"bad verbosity", "logging:\n  verbosity: loud\n", "invalid config"},
		{"negative max age", "sessions:\n  max_age: -1m\n", "max_age cannot be negative"},
		{"bad pattern", "operations:\n  allowed: [\"[Get\"]\n", "invalid allowed pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero viewport", func(c *Config) { c.Browser.Width = 0 }},
		{"negative timeout", func(c *Config) { c.Browser.Timeout = -time.Second }},
		{"negative sweep interval", func(c *Config) { c.Sessions.SweepInterval = -time.Second }},
		{"zero max events", func(c *Config) { c.Sessions.MaxEvents = 0 }},
		{"negative max sessions", func(c *Config) { c.Sessions.MaxSessions = -1 }},
		{"negative rate", func(c *Config) { c.Sessions.EventsPerSecond = -1 }},
		{"zero line limit", func(c *Config) { c.Protocol.MaxLineBytes = 0 }},
		{"bad denied pattern", func(c *Config) { c.Operations.DeniedPatterns = []string{"[Get"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateDefaultsVerbosity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Verbosity = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Logging.Verbosity != "normal" {
		t.Errorf("verbosity = %q, want normal", cfg.Logging.Verbosity)
	}
}
