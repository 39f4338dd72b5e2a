// Package cache keeps short-lived copies of coach availability listings
// in Redis.  Entries are namespaced per coach so every calendar change can
// drop exactly the affected coach's entries.
package cache

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint used while walking a coach's keys.
const scanBatch = 100

// AvailabilityCache stores encoded availability responses.
type AvailabilityCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewAvailabilityCache returns a cache writing under prefix with the given
// TTL.  A nil client yields a cache whose operations are no-ops.
func NewAvailabilityCache(rdb *redis.Client, prefix string, ttl time.Duration) *AvailabilityCache {
	if prefix == "" {
		prefix = "slots"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &AvailabilityCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Enabled reports whether a Redis client is configured.
func (c *AvailabilityCache) Enabled() bool { return c != nil && c.rdb != nil }

// Key builds the entry key for one coach and one request variant (route
// and query string).  The variant is hashed to keep keys short.
func (c *AvailabilityCache) Key(coachID uint64, variant string) string {
	sum := sha1.Sum([]byte(variant))
	return fmt.Sprintf("%s:coach:%d:%x", c.prefix, coachID, sum[:])
}

func (c *AvailabilityCache) coachPattern(coachID uint64) string {
	return fmt.Sprintf("%s:coach:%d:*", c.prefix, coachID)
}

// Get returns the stored payload.  A miss, or any Redis error, reports
// false.
func (c *AvailabilityCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	bs, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return bs, true
}

// Set stores payload under key with the configured TTL.
func (c *AvailabilityCache) Set(ctx context.Context, key string, payload []byte) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Set(ctx, key, payload, c.ttl).Err()
}

// InvalidateCoach deletes every cached listing for the coach.
func (c *AvailabilityCache) InvalidateCoach(ctx context.Context, coachID uint64) error {
	if !c.Enabled() {
		return nil
	}
	var (
		cursor uint64
		errs   []error
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, c.coachPattern(coachID), scanBatch).Result()
		if err != nil {
			return fmt.Errorf("scan coach %d: %w", coachID, err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				errs = append(errs, err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return errors.Join(errs...)
}
