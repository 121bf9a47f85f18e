package settlement

import (
	"time"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// DefaultMaxPriceAge is the freshness bound for oracle readings used at
// resolution. A reading published more than this long before the resolve
// attempt is rejected as stale.
const DefaultMaxPriceAge = 120 * time.Second

// ValidateReading checks that an oracle reading may be used to resolve the
// given market: matching feed, well-formed, and fresh at now.
func ValidateReading(m domain.Market, r domain.OracleReading, now time.Time, maxAge time.Duration) error {
	if r.FeedID != m.OracleFeedID {
		return domain.ErrOracleMismatch
	}
	if r.PublishedAt.IsZero() {
		return domain.ErrInvalidOracleData
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxPriceAge
	}
	if now.Sub(r.PublishedAt) > maxAge {
		return domain.ErrStalePrice
	}
	return nil
}

// Outcome determines the winning side from a resolved price. The price is in
// the oracle's native scale, matching TargetPrice by construction.
func Outcome(m domain.Market, price int64) bool {
	if m.TargetAbove {
		return price >= m.TargetPrice
	}
	return price < m.TargetPrice
}
