package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// CacheConfig drives the Redis response cache used on public reads.
type CacheConfig struct {
	Enabled      bool          `env:"CACHE_ENABLED" envDefault:"true"`
	MethodList   []string      `env:"CACHE_METHODS" envDefault:"GET" envSeparator:","`
	TTL          time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	KeyStrategy  string        `env:"CACHE_KEY_STRATEGY" envDefault:"route_query"`
	Prefix       string        `env:"CACHE_PREFIX" envDefault:"cache"`
	MaxBodyBytes int           `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`

	// Methods is MethodList upper-cased as a set.
	Methods map[string]bool
}

// LoadCacheConfig parses CacheConfig from environ (nil means the process
// environment), falling back to defaults on malformed values.
func LoadCacheConfig(environ map[string]string) CacheConfig {
	var cfg CacheConfig
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		cfg = CacheConfig{}
		_ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	}
	cfg.Methods = map[string]bool{}
	for _, m := range cfg.MethodList {
		if m = strings.TrimSpace(strings.ToUpper(m)); m != "" {
			cfg.Methods[m] = true
		}
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Second
	}
	return cfg
}
