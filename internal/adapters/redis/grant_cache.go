package redis

// Package redis provides Redis-based adapters for the akredia auth core.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akredia/akredia-api/internal/ports"
)

// DefaultGrantTTL bounds how stale a cached grant set may be. Grants change
// rarely; program checks happen on most coordinator requests.
const DefaultGrantTTL = 5 * time.Minute

// GrantCache wraps a GrantStore with a Redis read-through cache.
// A cache failure falls through to the underlying store: the cache can only
// make lookups faster, never make authorization decisions on its own.
type GrantCache struct {
	client redis.UniversalClient
	next   ports.GrantStore
	prefix string
	ttl    time.Duration
}

// NewGrantCache creates a read-through grant cache in front of next.
func NewGrantCache(client redis.UniversalClient, next ports.GrantStore) *GrantCache {
	return &GrantCache{
		client: client,
		next:   next,
		prefix: "grants:",
		ttl:    DefaultGrantTTL,
	}
}

// NewGrantCacheWithTTL creates a grant cache with a custom TTL.
func NewGrantCacheWithTTL(client redis.UniversalClient, next ports.GrantStore, ttl time.Duration) *GrantCache {
	c := NewGrantCache(client, next)
	if ttl > 0 {
		c.ttl = ttl
	}
	return c
}

// GrantsFor returns the cached grant set for the user, loading and caching it
// from the underlying store on a miss.
func (c *GrantCache) GrantsFor(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return []string{}, nil
	}

	key := c.prefix + userID
	if data, err := c.client.Get(ctx, key).Result(); err == nil {
		var grants []string
		if unmarshalErr := json.Unmarshal([]byte(data), &grants); unmarshalErr == nil {
			return grants, nil
		}
		// Unreadable entry; drop it and reload from the store.
		_ = c.client.Del(ctx, key).Err()
	}

	grants, err := c.next.GrantsFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, marshalErr := json.Marshal(grants); marshalErr == nil {
		if setErr := c.client.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			// Cache write failure is non-fatal; next call reloads.
			_ = setErr
		}
	}
	return grants, nil
}

// Invalidate removes the cached grant set for a user.
func (c *GrantCache) Invalidate(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if err := c.client.Del(ctx, c.prefix+userID).Err(); err != nil {
		return fmt.Errorf("invalidate grants: %w", err)
	}
	return nil
}
