// Package config loads the router's YAML configuration: exported structs
// with yaml tags documenting their default via a `default` struct tag,
// applied by hand against the zero value after unmarshalling.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RouterConfig is the root configuration for a routerd process.
type RouterConfig struct {
	Capacity    int                      `yaml:"capacity" default:"1024"`
	MaxIdle     time.Duration            `yaml:"max_idle" default:"5m"`
	MetricsAddr string                   `yaml:"metrics_addr" default:":9090"`
	LogLevel    string                   `yaml:"log_level" default:"info"`
	Backends    map[string]BackendConfig `yaml:"backends"`
}

// BackendConfig describes one named destination a route may bind to.
type BackendConfig struct {
	Type     string            `yaml:"type"`
	Endpoint string            `yaml:"endpoint"`
	Options  map[string]string `yaml:"options"`
}

// DefaultRouterConfig returns a RouterConfig with every field set to the
// value documented in its `default` struct tag.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		Capacity:    1024,
		MaxIdle:     5 * time.Minute,
		MetricsAddr: ":9090",
		LogLevel:    "info",
	}
}

// Load reads and parses a RouterConfig from path, filling any field left
// at its zero value with the default.
func Load(path string) (*RouterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a RouterConfig, applying defaults.
func Parse(data []byte) (*RouterConfig, error) {
	cfg := DefaultRouterConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *RouterConfig) {
	defaults := DefaultRouterConfig()
	if cfg.Capacity == 0 {
		cfg.Capacity = defaults.Capacity
	}
	if cfg.MaxIdle == 0 {
		cfg.MaxIdle = defaults.MaxIdle
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = defaults.MetricsAddr
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
}
