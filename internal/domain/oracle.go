package domain

import (
	"context"
	"time"
)

// OracleReading is a single externally supplied price observation.
type OracleReading struct {
	FeedID string `json:"feed_id"`
	// Price is in the feed's native scale, 10^Expo units.
	Price       int64     `json:"price"`
	Expo        int32     `json:"expo"`
	PublishedAt time.Time `json:"published_at"`
}

// PriceSource exposes the external price oracle as a single synchronous
// query. Staleness and feed mismatch are terminal for one resolve attempt;
// any caller may retry later.
type PriceSource interface {
	GetPrice(ctx context.Context, feedID string, maxAge time.Duration) (OracleReading, error)
}
