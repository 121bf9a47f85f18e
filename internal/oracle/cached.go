// Package oracle provides decorators around domain.PriceSource.
package oracle

import (
	"context"
	"errors"
	"time"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// CachedSource wraps a PriceSource with an OracleCache. A cached reading
// still inside the caller's freshness window is served without touching the
// upstream oracle; anything else falls through and refreshes the cache.
type CachedSource struct {
	src   domain.PriceSource
	cache domain.OracleCache
	now   func() time.Time
}

// NewCachedSource creates a CachedSource.
func NewCachedSource(src domain.PriceSource, cache domain.OracleCache) *CachedSource {
	return &CachedSource{src: src, cache: cache, now: time.Now}
}

// GetPrice returns a fresh reading for the feed, from cache when possible.
func (cs *CachedSource) GetPrice(ctx context.Context, feedID string, maxAge time.Duration) (domain.OracleReading, error) {
	r, err := cs.cache.GetReading(ctx, feedID)
	if err == nil && maxAge > 0 && cs.now().Sub(r.PublishedAt) <= maxAge {
		return r, nil
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.OracleReading{}, err
	}

	r, err = cs.src.GetPrice(ctx, feedID, maxAge)
	if err != nil {
		return domain.OracleReading{}, err
	}

	// Best effort; a cache write failure must not fail the resolve.
	_ = cs.cache.SetReading(ctx, r)
	return r, nil
}

// Compile-time interface check.
var _ domain.PriceSource = (*CachedSource)(nil)
