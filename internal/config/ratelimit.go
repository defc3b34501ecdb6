package config

import "time"

// RateLimitConfig tunes the token-bucket limiter applied to bid submission.
// Bidding is the only route hot enough to need one; lifecycle commands are
// dealer-paced.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int           // bucket size, i.e. burst allowance
	RefillTokens   int           // tokens added per interval
	RefillInterval time.Duration // refill cadence
	TTL            time.Duration // how long idle buckets live in Redis
	Prefix         string        // Redis key namespace
}

// LoadRateLimitConfig reads BID_RATE_LIMIT_* environment variables with
// sane defaults: 30 bids of burst, refilling one per second.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        getenv("BID_RATE_LIMIT_ENABLED", "true") == "true",
		Capacity:       envInt("BID_RATE_LIMIT_CAPACITY", 30),
		RefillTokens:   envInt("BID_RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("BID_RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("BID_RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:         getenv("BID_RATE_LIMIT_PREFIX", "bidrl"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}
