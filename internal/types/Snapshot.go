package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// MarketSnapshot captures one market's full accounting state, positions
// included, for persistence.
type MarketSnapshot struct {
	Market    *Market                  `json:"market"`
	Positions map[string]*UserPosition `json:"positions"` // keyed by user address
}

// VaultSnapshot is the full engine state serialized after each harvest cycle
// and on shutdown; the latest snapshot is restored at startup.
type VaultSnapshot struct {
	TakenAt        time.Time        `json:"taken_at"`
	CycleNumber    int              `json:"cycle_number"`
	Markets        []MarketSnapshot `json:"markets"`
	AccumulatedFee sdkmath.Int      `json:"accumulated_fee"`
}
