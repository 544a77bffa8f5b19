package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %q, want %q", cfg.Port, DefaultPort)
	}
	if cfg.Env != DefaultEnv {
		t.Errorf("Env = %q, want %q", cfg.Env, DefaultEnv)
	}
	if cfg.SnapshotInterval != DefaultSnapshotInterval {
		t.Errorf("SnapshotInterval = %v, want %v", cfg.SnapshotInterval, DefaultSnapshotInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("SNAPSHOT_INTERVAL", "15m")
	t.Setenv("RATE_LIMIT_RPS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction should be true")
	}
	if cfg.SnapshotInterval != 15*time.Minute {
		t.Errorf("SnapshotInterval = %v, want 15m", cfg.SnapshotInterval)
	}
	if cfg.RateLimitRPS != 5 {
		t.Errorf("RateLimitRPS = %d, want 5", cfg.RateLimitRPS)
	}
}

func TestLoadMalformedValuesFallBack(t *testing.T) {
	t.Setenv("SNAPSHOT_INTERVAL", "not-a-duration")
	t.Setenv("RATE_LIMIT_RPS", "lots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SnapshotInterval != DefaultSnapshotInterval {
		t.Errorf("SnapshotInterval = %v, want default on parse failure", cfg.SnapshotInterval)
	}
	if cfg.RateLimitRPS != DefaultRateLimit {
		t.Errorf("RateLimitRPS = %d, want default on parse failure", cfg.RateLimitRPS)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad env", func(c *Config) { c.Env = "qa" }, true},
		{"tiny interval", func(c *Config) { c.SnapshotInterval = time.Millisecond }, true},
		{"zero rate limit", func(c *Config) { c.RateLimitRPS = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Env:              "development",
				SnapshotInterval: time.Hour,
				RateLimitRPS:     100,
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
