package config

import "time"

// CacheConfig tunes the Redis micro-cache in front of the public auction
// views. The TTL is deliberately short: during a live auction the highest
// bid changes often, and the cache only needs to absorb bursts of
// identical reads (many traders polling the same auction page), not serve
// stale state for long.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration // how long a cached view survives
	Prefix  string        // Redis key namespace
}

// LoadCacheConfig reads VIEW_CACHE_* environment variables. Defaults keep
// the cache on with a two-second TTL.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled: getenv("VIEW_CACHE_ENABLED", "true") == "true",
		TTL:     envDur("VIEW_CACHE_TTL", 2*time.Second),
		Prefix:  getenv("VIEW_CACHE_PREFIX", "viewcache"),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Second
	}
	return cfg
}
