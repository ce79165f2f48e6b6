/*

This file contains the per-(market, user) position record. Positions are
created lazily on first deposit and kept after full withdrawal so that a
re-deposit resumes accounting against the same record.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// UserPosition tracks one user's stake in one market.
type UserPosition struct {
	// DepositedAmount is the user's current deposit of the market's LP token.
	DepositedAmount sdkmath.Int `json:"deposited_amount"`

	// RewardDebt is the accumulator baseline per reward token. Immediately
	// after every settlement:
	//   RewardDebt[t] == DepositedAmount * AccRewardPerShare[t] / precision
	RewardDebt map[TokenID]sdkmath.Int `json:"reward_debt"`
}

// NewUserPosition returns an empty position baselined for the given tokens.
func NewUserPosition(rewardTokens []TokenID) *UserPosition {
	p := &UserPosition{
		DepositedAmount: sdkmath.ZeroInt(),
		RewardDebt:      make(map[TokenID]sdkmath.Int, len(rewardTokens)),
	}
	for _, t := range rewardTokens {
		p.RewardDebt[t] = sdkmath.ZeroInt()
	}
	return p
}

// Clone returns a deep copy of the position.
func (p *UserPosition) Clone() *UserPosition {
	c := &UserPosition{
		DepositedAmount: p.DepositedAmount,
		RewardDebt:      make(map[TokenID]sdkmath.Int, len(p.RewardDebt)),
	}
	for t, v := range p.RewardDebt {
		c.RewardDebt[t] = v
	}
	return c
}
