package engine

import (
	"sort"

	sdkmath "cosmossdk.io/math"

	"github.com/pendle-vault/pvm/internal/types"
)

// PendingRewards reports what the user would be paid per reward token as of
// the last harvest. Deliberately read-only: querying state must not have the
// side effects or cost of a fresh reward pull, so rewards sitting unredeemed
// on the external market are not reflected here.
func (e *Engine) PendingRewards(id types.MarketID, user string) (map[types.TokenID]sdkmath.Int, error) {
	ms, err := e.marketFor(id)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	pending := make(map[types.TokenID]sdkmath.Int, len(ms.market.RewardTokens))
	pos, ok := ms.positions[user]
	if !ok || pos.DepositedAmount.IsZero() {
		for _, t := range ms.market.RewardTokens {
			pending[t] = sdkmath.ZeroInt()
		}
		return pending, nil
	}
	for _, t := range ms.market.RewardTokens {
		gross, err := mulDiv(pos.DepositedAmount, orZero(ms.market.AccRewardPerShare[t]), precision)
		if err != nil {
			return nil, err
		}
		debt := orZero(pos.RewardDebt[t])
		if gross.GT(debt) {
			pending[t] = gross.Sub(debt)
		} else {
			pending[t] = sdkmath.ZeroInt()
		}
	}
	return pending, nil
}

// DepositedAmount returns the user's current deposit in the market.
func (e *Engine) DepositedAmount(id types.MarketID, user string) (sdkmath.Int, error) {
	ms, err := e.marketFor(id)
	if err != nil {
		return sdkmath.Int{}, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	pos, ok := ms.positions[user]
	if !ok {
		return sdkmath.ZeroInt(), nil
	}
	return pos.DepositedAmount, nil
}

// TotalDeposited returns the sum of all deposits in the market.
func (e *Engine) TotalDeposited(id types.MarketID) (sdkmath.Int, error) {
	ms, err := e.marketFor(id)
	if err != nil {
		return sdkmath.Int{}, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.market.TotalDeposited, nil
}

// RewardTokens returns the market's reward-token snapshot, in registration
// order.
func (e *Engine) RewardTokens(id types.MarketID) ([]types.TokenID, error) {
	ms, err := e.marketFor(id)
	if err != nil {
		return nil, err
	}
	return append([]types.TokenID(nil), ms.market.RewardTokens...), nil
}

// Markets returns the ids of every registered market, sorted for stable
// iteration by the harvest loop and the API.
func (e *Engine) Markets() []types.MarketID {
	e.mu.RLock()
	ids := make([]types.MarketID, 0, len(e.markets))
	for id := range e.markets {
		ids = append(ids, id)
	}
	e.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MarketView returns a copy of the market's accounting record.
func (e *Engine) MarketView(id types.MarketID) (*types.Market, error) {
	ms, err := e.marketFor(id)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.market.Clone(), nil
}
