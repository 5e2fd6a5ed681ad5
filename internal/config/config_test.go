package config

import (
	"testing"
	"time"
)

func baseEnv() map[string]string {
	return map[string]string{
		"APP_ENV":    "test",
		"APP_PORT":   "8080",
		"DB_USER":    "root",
		"DB_HOST":    "localhost",
		"DB_PORT":    "3306",
		"DB_NAME":    "events",
		"JWT_SECRET": "secret",
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(baseEnv())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.AccessTTLMin != 15 || cfg.RefreshTTLDays != 7 {
		t.Fatalf("token ttl defaults = %d/%d", cfg.AccessTTLMin, cfg.RefreshTTLDays)
	}
	if cfg.Allocation.Order != "as_supplied" || !cfg.Allocation.AutoRejectOnFull {
		t.Fatalf("allocation defaults = %+v", cfg.Allocation)
	}
	if cfg.DecisionLogPath != "logs/participation.log" {
		t.Fatalf("DecisionLogPath = %q", cfg.DecisionLogPath)
	}
}

func TestParseOverrides(t *testing.T) {
	env := baseEnv()
	env["ALLOCATION_ORDER"] = "submission"
	env["AUTO_REJECT_ON_FULL"] = "false"
	cfg, err := Parse(env)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Allocation.Order != "submission" || cfg.Allocation.AutoRejectOnFull {
		t.Fatalf("allocation = %+v", cfg.Allocation)
	}
}

func TestParseMissingRequired(t *testing.T) {
	env := baseEnv()
	delete(env, "JWT_SECRET")
	if _, err := Parse(env); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestRateLimitNormalize(t *testing.T) {
	cfg := LoadRateLimitConfig(map[string]string{
		"RATE_LIMIT_CAPACITY":        "0",
		"RATE_LIMIT_REFILL_INTERVAL": "2s",
		"RATE_LIMIT_TTL":             "1s",
	})
	if cfg.Capacity != 1 {
		t.Fatalf("Capacity = %d; want 1", cfg.Capacity)
	}
	if cfg.TTL != 10*time.Second {
		t.Fatalf("TTL = %s; want 10s", cfg.TTL)
	}
}

func TestCacheMethods(t *testing.T) {
	cfg := LoadCacheConfig(map[string]string{"CACHE_METHODS": "get, head"})
	if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] || cfg.Methods["POST"] {
		t.Fatalf("Methods = %v", cfg.Methods)
	}
	if def := LoadCacheConfig(map[string]string{}); !def.Methods["GET"] || def.TTL != 30*time.Second {
		t.Fatalf("defaults = %+v", def)
	}
}
