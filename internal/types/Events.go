package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// EventKind identifies a structured vault event for the audit journal.
type EventKind string

const (
	EventMarketRegistered EventKind = "MARKET_REGISTERED"
	EventDeposit          EventKind = "DEPOSIT"
	EventWithdraw         EventKind = "WITHDRAW"
	EventClaim            EventKind = "CLAIM"
	EventHarvest          EventKind = "HARVEST"
	EventHarvestFailed    EventKind = "HARVEST_FAILED"
	EventFeeAccrued       EventKind = "FEE_ACCRUED"
	EventFeeSwept         EventKind = "FEE_SWEPT"
)

// Event is one structured record emitted by the engine for off-process
// auditing and indexing. Fields that do not apply to a kind are left empty.
type Event struct {
	ID        string    `json:"id"` // uuid, assigned by the engine
	Kind      EventKind `json:"kind"`
	Market    MarketID  `json:"market,omitempty"`
	User      string    `json:"user,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Token/Amount carry single-token movements (deposit, withdraw, fee).
	Token  TokenID     `json:"token,omitempty"`
	Amount sdkmath.Int `json:"amount,omitempty"`

	// Amounts carries per-token movements (harvest deltas, claim payouts).
	Amounts map[TokenID]sdkmath.Int `json:"amounts,omitempty"`

	// RewardTokens is populated on MARKET_REGISTERED.
	RewardTokens []TokenID `json:"reward_tokens,omitempty"`

	// Reason is populated on failure events.
	Reason string `json:"reason,omitempty"`
}
