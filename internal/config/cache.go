package config

import "time"

// CacheConfig defines settings for the response cache middleware that
// fronts the public movie listing.  When Enabled is false or no Redis
// client is configured, caching is disabled.
//
// Fields:
//  Enabled      – master switch (CACHE_ENABLED).
//  Methods      – upper-cased HTTP methods eligible for caching.
//  TTL          – lifetime of a cached response.
//  KeyStrategy  – "route_query" or "full_url".
//  Prefix       – Redis key namespace.
//  MaxBodyBytes – responses larger than this are not stored.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* environment variables.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
