package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// OracleCache implements domain.OracleCache using Redis string values with a
// TTL. Each feed holds at most one reading, the latest one written.
type OracleCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewOracleCache creates an OracleCache. Entries expire after ttl so a stale
// reading cannot outlive the freshness window it was cached under.
func NewOracleCache(c *Client, ttl time.Duration) *OracleCache {
	return &OracleCache{rdb: c.Underlying(), ttl: ttl}
}

func oracleKey(feedID string) string {
	return "oracle:reading:" + feedID
}

// SetReading caches the reading under its feed id, replacing any previous one.
func (oc *OracleCache) SetReading(ctx context.Context, r domain.OracleReading) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("redis: marshal reading %s: %w", r.FeedID, err)
	}
	if err := oc.rdb.Set(ctx, oracleKey(r.FeedID), data, oc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set reading %s: %w", r.FeedID, err)
	}
	return nil
}

// GetReading returns the cached reading for a feed, or domain.ErrNotFound when
// none is cached or the entry has expired.
func (oc *OracleCache) GetReading(ctx context.Context, feedID string) (domain.OracleReading, error) {
	data, err := oc.rdb.Get(ctx, oracleKey(feedID)).Bytes()
	if err == redis.Nil {
		return domain.OracleReading{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.OracleReading{}, fmt.Errorf("redis: get reading %s: %w", feedID, err)
	}

	var r domain.OracleReading
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.OracleReading{}, fmt.Errorf("redis: unmarshal reading %s: %w", feedID, err)
	}
	return r, nil
}

// Compile-time interface check.
var _ domain.OracleCache = (*OracleCache)(nil)
