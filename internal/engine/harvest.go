package engine

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/pendle-vault/pvm/internal/types"
)

// Harvest pulls newly accrued rewards for the market into the vault and folds
// them into the accumulator. Exposed standalone for the service loop; every
// mutating user operation also runs it first (and swallows its failure, see
// Deposit/Withdraw/Claim).
func (e *Engine) Harvest(ctx context.Context, id types.MarketID) error {
	ms, err := e.marketFor(id)
	if err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return e.harvestLocked(ctx, ms, e.opLogger("harvest", id, ""))
}

// harvestLocked performs one harvest for the market. Caller must hold ms.mu.
//
// The sequence is: snapshot vault balances per reward token, ask the market
// to push its accrued rewards (one external call, not one per token), then
// attribute each balance delta. Deltas that arrive while nobody is deposited
// go to the unallocated carry; otherwise delta plus any carry is folded into
// the accumulator, rounded down. Residual division dust stays undistributed.
//
// A failed external call changes nothing and returns ErrHarvestFailed; a
// successful call that delivered nothing is a distinct, quieter path.
func (e *Engine) harvestLocked(ctx context.Context, ms *marketState, log zerolog.Logger) error {
	m := ms.market
	if len(m.RewardTokens) == 0 {
		return nil
	}

	before := make(map[types.TokenID]sdkmath.Int, len(m.RewardTokens))
	for _, t := range m.RewardTokens {
		bal, err := e.gateway.BalanceOf(ctx, t, e.vaultAddress)
		if err != nil {
			e.reportHarvestFailure(m.ID, fmt.Errorf("balance of %s: %w", t, err), log)
			return fmt.Errorf("%w: %v", ErrHarvestFailed, err)
		}
		before[t] = bal
	}

	if err := e.gateway.RedeemMarketRewards(ctx, m.ID); err != nil {
		e.reportHarvestFailure(m.ID, err, log)
		return fmt.Errorf("%w: %v", ErrHarvestFailed, err)
	}

	deltas := make(map[types.TokenID]sdkmath.Int, len(m.RewardTokens))
	for _, t := range m.RewardTokens {
		after, err := e.gateway.BalanceOf(ctx, t, e.vaultAddress)
		if err != nil {
			e.reportHarvestFailure(m.ID, fmt.Errorf("balance of %s: %w", t, err), log)
			return fmt.Errorf("%w: %v", ErrHarvestFailed, err)
		}
		delta := after.Sub(before[t])
		if delta.IsPositive() {
			deltas[t] = delta
		}
	}

	// Stage the new accumulator and carry values first so an overflow on any
	// token leaves the whole market untouched. A token participates if it
	// delivered a delta, or if it has an unallocated carry that can now be
	// attributed (first harvest after the pool left zero supply).
	newAcc := make(map[types.TokenID]sdkmath.Int, len(deltas))
	newUnallocated := make(map[types.TokenID]sdkmath.Int, len(deltas))
	for _, t := range m.RewardTokens {
		delta, hasDelta := deltas[t]
		carry := orZero(m.UnallocatedRewards[t])
		if !hasDelta {
			if m.TotalDeposited.IsZero() || !carry.IsPositive() {
				continue
			}
			delta = sdkmath.ZeroInt()
		}
		if m.TotalDeposited.IsZero() {
			grown, err := safeAdd(carry, delta)
			if err != nil {
				return fmt.Errorf("unallocated carry for %s: %w", t, err)
			}
			newUnallocated[t] = grown
			continue
		}
		distributable, err := safeAdd(delta, carry)
		if err != nil {
			return fmt.Errorf("distributable for %s: %w", t, err)
		}
		perShare, err := mulDiv(distributable, precision, m.TotalDeposited)
		if err != nil {
			return fmt.Errorf("per-share for %s: %w", t, err)
		}
		acc, err := safeAdd(orZero(m.AccRewardPerShare[t]), perShare)
		if err != nil {
			return fmt.Errorf("accumulator for %s: %w", t, err)
		}
		newAcc[t] = acc
		newUnallocated[t] = sdkmath.ZeroInt()
	}

	if len(newAcc) == 0 && len(newUnallocated) == 0 {
		log.Debug().Str("market", string(m.ID)).Msg("Harvest delivered no new rewards")
		return nil
	}

	for t, v := range newAcc {
		m.AccRewardPerShare[t] = v
	}
	for t, v := range newUnallocated {
		m.UnallocatedRewards[t] = v
	}

	e.record(types.Event{
		Kind:    types.EventHarvest,
		Market:  m.ID,
		Amounts: deltas,
	})
	log.Info().
		Str("market", string(m.ID)).
		Int("tokensWithRewards", len(deltas)).
		Bool("allocated", !m.TotalDeposited.IsZero()).
		Msg("Harvest folded into accumulator")
	return nil
}

// reportHarvestFailure emits the failure record. The triggering operation
// proceeds on the accumulator state of the last successful harvest: blocking
// a withdrawal on a broken reward source is the less safe choice.
func (e *Engine) reportHarvestFailure(id types.MarketID, cause error, log zerolog.Logger) {
	e.record(types.Event{
		Kind:   types.EventHarvestFailed,
		Market: id,
		Reason: cause.Error(),
	})
	log.Warn().Err(cause).Str("market", string(id)).Msg("Harvest failed, continuing on last known accumulator state")
}
