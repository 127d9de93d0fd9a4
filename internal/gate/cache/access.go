// Package cache provides a redis-backed positive cache for access
// checks. The bot front-end calls the access query on every protected
// request, so a hot grant is worth keeping out of sqlite.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// AccessCache stores only positive access results, each expiring with
// the grant it mirrors. The store stays authoritative: a cache miss
// always falls through to the database, and nothing is ever cached
// beyond the grant's own expiry, so a stale "yes" cannot outlive the
// real window.
type AccessCache struct {
	rdb *redis.Client
}

// Open connects to redis at addr and validates connectivity.
func Open(ctx context.Context, addr string) (*AccessCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &AccessCache{rdb: rdb}, nil
}

func key(subjectID string) string { return "access:" + subjectID }

// HasAccess reports whether a positive entry exists for the subject.
// Errors degrade to a miss.
func (c *AccessCache) HasAccess(ctx context.Context, subjectID string) bool {
	n, err := c.rdb.Exists(ctx, key(subjectID)).Result()
	return err == nil && n > 0
}

// GrantAccess records a positive entry lasting ttl. Non-positive ttls
// are ignored; an expired grant must never be cached.
func (c *AccessCache) GrantAccess(ctx context.Context, subjectID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, key(subjectID), 1, ttl).Err()
}

// Ping verifies the redis connection is alive.
func (c *AccessCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *AccessCache) Close() error { return c.rdb.Close() }
