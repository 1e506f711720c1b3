package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv overlays environment variables onto cfg, for deployments
// that prefer env-based overrides over editing the YAML file directly.
func LoadFromEnv(cfg *RouterConfig) {
	if capacity := os.Getenv("MESHROUTER_CAPACITY"); capacity != "" {
		if c, err := strconv.Atoi(capacity); err == nil {
			cfg.Capacity = c
		}
	}

	if maxIdle := os.Getenv("MESHROUTER_MAX_IDLE"); maxIdle != "" {
		if d, err := time.ParseDuration(maxIdle); err == nil {
			cfg.MaxIdle = d
		}
	}

	if logLevel := os.Getenv("MESHROUTER_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if metricsAddr := os.Getenv("MESHROUTER_METRICS_ADDR"); metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
}

// GetEnvOrDefault returns the named environment variable, or defaultValue
// if it is unset or empty.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
