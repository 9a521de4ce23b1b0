package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	defaultWSURL         = "http://localhost:3006"
	defaultMaxReconnects = 5
	configFileName       = "collab.yaml"
)

// Config holds the collaboration layer settings.
type Config struct {
	// WSURL is the websocket service endpoint.
	WSURL string `yaml:"ws_url"`
	// WSDisabled switches the whole collaboration layer into a no-op
	// degraded mode: nothing connects and every command is inert.
	WSDisabled bool `yaml:"ws_disabled"`
	// MaxReconnects caps automatic reconnection attempts.
	MaxReconnects int `yaml:"max_reconnects"`

	// Home is the directory where local state (the access key) lives.
	Home string `yaml:"-"`
	// AccessKey is the path to the access token file.
	AccessKey string `yaml:"-"`

	// LogLevel is the logger threshold (trace|debug|info|warn|error).
	LogLevel string `yaml:"log_level"`
	// Debug enables verbose logging regardless of LogLevel.
	Debug bool `yaml:"debug"`
}

// Load builds configuration from defaults, an optional collab.yaml in the
// home directory, and the environment (highest precedence).
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	home := getenvFirst("SHAHIN_HOME_DIR", "GRC_HOME_DIR")
	if home == "" {
		home = filepath.Join(homeDir, ".shahin")
	}
	if err := os.MkdirAll(home, 0700); err != nil {
		return nil, fmt.Errorf("failed to create home dir: %w", err)
	}

	cfg := &Config{
		WSURL:         defaultWSURL,
		MaxReconnects: defaultMaxReconnects,
		Home:          home,
		AccessKey:     filepath.Join(home, "access.key"),
		LogLevel:      "info",
	}

	if err := cfg.mergeFile(filepath.Join(home, configFileName)); err != nil {
		return nil, err
	}
	cfg.mergeEnv()

	if cfg.MaxReconnects < 0 {
		return nil, fmt.Errorf("max_reconnects must not be negative (got %d)", cfg.MaxReconnects)
	}
	return cfg, nil
}

// mergeFile overlays settings from a YAML file if one exists.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// mergeEnv overlays settings from the environment.
func (c *Config) mergeEnv() {
	if v := getenvFirst("SHAHIN_WS_URL", "GRC_WS_URL"); v != "" {
		c.WSURL = v
	}
	if v := getenvFirst("SHAHIN_WS_DISABLED", "GRC_WS_DISABLED"); v != "" {
		c.WSDisabled = isTruthy(v)
	}
	if v := getenvFirst("SHAHIN_WS_MAX_RECONNECTS", "GRC_WS_MAX_RECONNECTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxReconnects = n
		}
	}
	if v := getenvFirst("SHAHIN_LOG_LEVEL", "GRC_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if isTruthy(os.Getenv("DEBUG")) || isTruthy(getenvFirst("SHAHIN_DEBUG", "GRC_DEBUG")) {
		c.Debug = true
	}
}

func getenvFirst(primary, fallback string) string {
	if val := os.Getenv(primary); val != "" {
		return val
	}
	return os.Getenv(fallback)
}

func isTruthy(v string) bool {
	return v == "true" || v == "1"
}
