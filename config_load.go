package agentgateway

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads and parses a config file from the given path, merged
// over DefaultConfig. Supported formats: JSON (.json), YAML (.yaml, .yml).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q: use .json, .yaml, or .yml", ext)
	}

	return &cfg, nil
}

// ValidateConfig validates a Config for correctness.
func ValidateConfig(cfg Config) error {
	switch cfg.Store.Driver {
	case "memory", "sqlite", "postgres", "redis":
	case "":
		return fmt.Errorf("store driver is required")
	default:
		return fmt.Errorf("unknown store driver: %q", cfg.Store.Driver)
	}

	if cfg.Store.Driver == "postgres" && strings.TrimSpace(cfg.Store.DSN) == "" {
		return fmt.Errorf("postgres store requires a dsn")
	}
	if cfg.Store.Driver == "redis" && strings.TrimSpace(cfg.Store.RedisAddr) == "" {
		return fmt.Errorf("redis store requires redis_addr")
	}

	for endpoint, lc := range cfg.Limits {
		if lc.Capacity <= 0 {
			return fmt.Errorf("limit for %q has non-positive capacity", endpoint)
		}
		if lc.WindowSeconds <= 0 {
			return fmt.Errorf("limit for %q has non-positive window", endpoint)
		}
	}

	if cfg.Retry.Attempts < 0 {
		return fmt.Errorf("retry attempts must not be negative")
	}
	if cfg.Retry.MinDelayMS > 0 && cfg.Retry.MaxDelayMS > 0 && cfg.Retry.MinDelayMS > cfg.Retry.MaxDelayMS {
		return fmt.Errorf("retry min_delay_ms exceeds max_delay_ms")
	}

	return nil
}
