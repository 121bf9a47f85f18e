package domain

import "time"

// Protocol is the deployment-wide singleton record. It is created exactly
// once by initialize and mutated only by market creation (counter increment)
// and wagering (volume accrual).
type Protocol struct {
	Admin string `json:"admin"`
	// MarketCount is the monotonic counter that assigns each market's id.
	MarketCount uint64 `json:"market_count"`
	// TotalVolume is the cumulative wagered value across all markets.
	TotalVolume   uint64    `json:"total_volume"`
	InitializedAt time.Time `json:"initialized_at"`
}
