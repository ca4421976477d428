package config

import "time"

// RateLimitConfig configures the token bucket limiter applied to the
// authenticated booking and account routes.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int           // bucket size
	RefillTokens   int           // tokens added every RefillInterval
	RefillInterval time.Duration
	TTL            time.Duration // idle bucket expiry, at least 5 refill intervals
	KeyStrategy    string        // "ip", "user", "route", "ip_route", "user_route" or "ip_user_route"
	Prefix         string
	Debug          bool // emit X-RateLimit-* headers
}

// LoadRateLimitConfig reads RATE_LIMIT_* environment variables.
// RATE_LIMIT_BURST overrides the capacity and RATE_LIMIT_REFILL_EVERY is
// shorthand for one token per interval.
func LoadRateLimitConfig() RateLimitConfig {
	c := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if b := envInt("RATE_LIMIT_BURST", -1); b > 0 {
		c.Capacity = b
	}
	if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		c.RefillTokens = 1
		c.RefillInterval = every
	}
	return c.Normalized()
}

// Normalized replaces non-positive sizes and intervals with their
// minimums: capacity and refill of one token, a one second interval and a
// TTL of at least five intervals.
func (c RateLimitConfig) Normalized() RateLimitConfig {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
	return c
}
