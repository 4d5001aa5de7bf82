package agentgateway

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAMLConfig(t *testing.T) {
	path := writeTempConfig(t, "gateway.yaml", `
listen: ":9090"
store:
  driver: sqlite
  dsn: /tmp/agentgw-test.db
cache:
  default_ttl_seconds: 600
limits:
  research:
    capacity: 30
    window_seconds: 300
  email-outreach:
    capacity: 10
    window_seconds: 60
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9090" {
		t.Fatalf("listen not applied: %s", cfg.Listen)
	}
	if cfg.Cache.DefaultTTLSeconds != 600 {
		t.Fatalf("ttl not applied: %d", cfg.Cache.DefaultTTLSeconds)
	}
	if lc := cfg.LimitFor("research"); lc.Capacity != 30 || lc.WindowSeconds != 300 {
		t.Fatalf("research limit wrong: %+v", lc)
	}
	if lc := cfg.LimitFor("email-outreach"); lc.Capacity != 10 {
		t.Fatalf("outreach limit wrong: %+v", lc)
	}
	// Unlisted endpoints fall back to the default.
	if lc := cfg.LimitFor("project-generator"); lc.Capacity != 30 || lc.WindowSeconds != 300 {
		t.Fatalf("default limit wrong: %+v", lc)
	}
	if err := ValidateConfig(*cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadJSONConfig(t *testing.T) {
	path := writeTempConfig(t, "gateway.json", `{"listen": ":7070", "store": {"driver": "memory"}}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":7070" || cfg.Store.Driver != "memory" {
		t.Fatalf("json config not applied: %+v", cfg)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeTempConfig(t, "gateway.toml", `listen=":8080"`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"missing driver", func(c *Config) { c.Store.Driver = "" }, true},
		{"unknown driver", func(c *Config) { c.Store.Driver = "dynamo" }, true},
		{"postgres needs dsn", func(c *Config) { c.Store.Driver = "postgres"; c.Store.DSN = "" }, true},
		{"redis needs addr", func(c *Config) { c.Store.Driver = "redis" }, true},
		{"redis with addr", func(c *Config) { c.Store.Driver = "redis"; c.Store.RedisAddr = "localhost:6379" }, false},
		{"bad limit capacity", func(c *Config) {
			c.Limits = map[string]LimitConfig{"research": {Capacity: 0, WindowSeconds: 60}}
		}, true},
		{"negative retries", func(c *Config) { c.Retry.Attempts = -1 }, true},
		{"inverted retry delays", func(c *Config) { c.Retry.MinDelayMS = 5000; c.Retry.MaxDelayMS = 100 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateConfig error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
