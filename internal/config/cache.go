package config

import "time"

// CacheConfig defines settings for the availability cache.  Only the
// coach slot listing is cached; entries are namespaced per coach so that a
// booking, cancellation or reschedule can drop exactly that coach's
// entries.  When Enabled is false or no Redis client is configured,
// caching is disabled.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "slots"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
