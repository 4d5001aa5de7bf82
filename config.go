package agentgateway

import "time"

// Config holds the gateway configuration.
type Config struct {
	// Listen is the HTTP listen address (default ":8080").
	Listen string `json:"listen" yaml:"listen"`
	// CORSOrigins restricts browser origins; empty allows any.
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
	// RequestTimeoutSeconds is the overall per-request deadline applied
	// around each agent execution (default 120).
	RequestTimeoutSeconds int `json:"request_timeout_seconds,omitempty" yaml:"request_timeout_seconds,omitempty"`

	Store    StoreConfig    `json:"store" yaml:"store"`
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Retry    RetryConfig    `json:"retry" yaml:"retry"`

	// Limits maps endpoint names to their token-bucket settings. Endpoints
	// without an entry use DefaultLimit.
	Limits       map[string]LimitConfig `json:"limits,omitempty" yaml:"limits,omitempty"`
	DefaultLimit LimitConfig            `json:"default_limit" yaml:"default_limit"`
}

// StoreConfig selects and configures the persistence backend shared by the
// cache, the rate limiter, and the execution log.
type StoreConfig struct {
	// Driver is one of "memory", "sqlite", "postgres", "redis".
	Driver string `json:"driver" yaml:"driver"`
	// DSN is the SQLite path or Postgres connection string.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	// Redis connection settings, used when Driver is "redis". The
	// execution log still needs a SQL DSN (Redis keeps no audit trail).
	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
}

// ProviderConfig points at the upstream completion API.
type ProviderConfig struct {
	// BaseURL is the API root (default https://api.openai.com).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	// APIKeyEnv names the environment variable holding the bearer token
	// (default PROVIDER_API_KEY). The key itself never lives in config.
	APIKeyEnv string `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
}

// CacheConfig controls response caching.
type CacheConfig struct {
	// DefaultTTLSeconds applies when a request sets no cacheTTLSeconds
	// (default 86400).
	DefaultTTLSeconds int `json:"default_ttl_seconds,omitempty" yaml:"default_ttl_seconds,omitempty"`
	// MemoryEntries caps the in-memory driver (default 1024).
	MemoryEntries int `json:"memory_entries,omitempty" yaml:"memory_entries,omitempty"`
}

// RetryConfig controls upstream retry behavior.
type RetryConfig struct {
	// Attempts is the number of retries after the first try (default 2).
	Attempts int `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	// MinDelayMS is the base backoff delay in milliseconds (default 250).
	MinDelayMS int `json:"min_delay_ms,omitempty" yaml:"min_delay_ms,omitempty"`
	// MaxDelayMS caps the backoff in milliseconds (default 4000).
	MaxDelayMS int `json:"max_delay_ms,omitempty" yaml:"max_delay_ms,omitempty"`
}

// LimitConfig is one endpoint's token-bucket setting.
type LimitConfig struct {
	Capacity      int `json:"capacity" yaml:"capacity"`
	WindowSeconds int `json:"window_seconds" yaml:"window_seconds"`
}

// DefaultConfig returns the configuration used when no file is provided.
func DefaultConfig() Config {
	return Config{
		Listen:                ":8080",
		RequestTimeoutSeconds: 120,
		Store:                 StoreConfig{Driver: "sqlite", DSN: "agentgw.db"},
		Provider:              ProviderConfig{APIKeyEnv: "PROVIDER_API_KEY"},
		Cache:                 CacheConfig{DefaultTTLSeconds: 86400},
		Retry:                 RetryConfig{Attempts: 2, MinDelayMS: 250, MaxDelayMS: 4000},
		DefaultLimit:          LimitConfig{Capacity: 30, WindowSeconds: 300},
	}
}

// LimitFor returns the bucket settings for endpoint, falling back to
// DefaultLimit and then to sane built-ins.
func (c Config) LimitFor(endpoint string) LimitConfig {
	if lc, ok := c.Limits[endpoint]; ok && lc.Capacity > 0 && lc.WindowSeconds > 0 {
		return lc
	}
	if c.DefaultLimit.Capacity > 0 && c.DefaultLimit.WindowSeconds > 0 {
		return c.DefaultLimit
	}
	return LimitConfig{Capacity: 30, WindowSeconds: 300}
}

// RequestTimeout returns the per-request deadline as a duration.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// CacheTTL resolves the TTL for a request-level override in seconds.
func (c Config) CacheTTL(overrideSeconds int) time.Duration {
	if overrideSeconds > 0 {
		return time.Duration(overrideSeconds) * time.Second
	}
	if c.Cache.DefaultTTLSeconds > 0 {
		return time.Duration(c.Cache.DefaultTTLSeconds) * time.Second
	}
	return 86400 * time.Second
}
