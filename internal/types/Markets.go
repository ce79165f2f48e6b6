/*

This file contains the types describing an external Pendle market as the vault
tracks it: the reward-token set snapshotted at registration and the global
accrual state shared by every depositor of that market.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// MarketID is the address of an external Pendle market. The market contract
// doubles as the ERC-20 LP token users deposit into the vault.
type MarketID string

// TokenID is the address of an ERC-20 token distributed as a reward.
type TokenID string

// Market holds the per-market accrual state. RewardTokens is fixed at
// registration time and never mutated afterwards, even if the live market
// adds reward tokens later.
type Market struct {
	ID           MarketID  `json:"id"`
	RewardTokens []TokenID `json:"reward_tokens"`

	// TotalDeposited is the sum of all users' deposits in this market.
	TotalDeposited sdkmath.Int `json:"total_deposited"`

	// AccRewardPerShare is the cumulative reward per deposited unit, scaled
	// by RewardPrecision. Non-decreasing for every token.
	AccRewardPerShare map[TokenID]sdkmath.Int `json:"acc_reward_per_share"`

	// UnallocatedRewards holds rewards that arrived while TotalDeposited was
	// zero; folded into the accumulator on the next harvest with depositors.
	UnallocatedRewards map[TokenID]sdkmath.Int `json:"unallocated_rewards"`
}

// NewMarket returns a Market with zeroed accrual state for the given
// reward-token snapshot.
func NewMarket(id MarketID, rewardTokens []TokenID) *Market {
	m := &Market{
		ID:                 id,
		RewardTokens:       append([]TokenID(nil), rewardTokens...),
		TotalDeposited:     sdkmath.ZeroInt(),
		AccRewardPerShare:  make(map[TokenID]sdkmath.Int, len(rewardTokens)),
		UnallocatedRewards: make(map[TokenID]sdkmath.Int, len(rewardTokens)),
	}
	for _, t := range rewardTokens {
		m.AccRewardPerShare[t] = sdkmath.ZeroInt()
		m.UnallocatedRewards[t] = sdkmath.ZeroInt()
	}
	return m
}

// Clone returns a deep copy of the market record.
func (m *Market) Clone() *Market {
	c := &Market{
		ID:                 m.ID,
		RewardTokens:       append([]TokenID(nil), m.RewardTokens...),
		TotalDeposited:     m.TotalDeposited,
		AccRewardPerShare:  make(map[TokenID]sdkmath.Int, len(m.AccRewardPerShare)),
		UnallocatedRewards: make(map[TokenID]sdkmath.Int, len(m.UnallocatedRewards)),
	}
	for t, v := range m.AccRewardPerShare {
		c.AccRewardPerShare[t] = v
	}
	for t, v := range m.UnallocatedRewards {
		c.UnallocatedRewards[t] = v
	}
	return c
}
