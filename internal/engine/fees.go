package engine

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/pendle-vault/pvm/internal/types"
)

// applyFee splits a gross payout into the user's net amount and the protocol
// fee. Only the primary token is fee-bearing; everything else passes through
// untouched. The fee is floor(gross * feeRateBps / 10000).
func (e *Engine) applyFee(token types.TokenID, gross sdkmath.Int) (net, fee sdkmath.Int) {
	if token != e.primaryToken || e.feeRateBps == 0 {
		return gross, sdkmath.ZeroInt()
	}
	// gross is bounded by the 256-bit amount range and the rate by 10000, so
	// the product check in mulDiv can only trip on corrupted state.
	fee, err := mulDiv(gross, sdkmath.NewIntFromUint64(e.feeRateBps), basisPoints)
	if err != nil {
		e.logger.Error().Err(err).Str("gross", gross.String()).Msg("Fee computation overflow, waiving fee")
		return gross, sdkmath.ZeroInt()
	}
	net = gross.Sub(fee)

	if fee.IsPositive() {
		e.feeMu.Lock()
		e.accumulatedFee = e.accumulatedFee.Add(fee)
		e.feeMu.Unlock()
	}
	return net, fee
}

// unapplyFee backs a fee out of the pool when the payout it was deducted
// from could not be delivered.
func (e *Engine) unapplyFee(fee sdkmath.Int) {
	if !fee.IsPositive() {
		return
	}
	e.feeMu.Lock()
	e.accumulatedFee = e.accumulatedFee.Sub(fee)
	e.feeMu.Unlock()
}

// AccumulatedFee returns the primary-token fee collected but not yet swept.
func (e *Engine) AccumulatedFee() sdkmath.Int {
	e.feeMu.Lock()
	defer e.feeMu.Unlock()
	return e.accumulatedFee
}

// SweepFees transfers the whole accumulated fee pool to the owner address.
// Returns the amount swept; zero with no transfer when the pool is empty.
func (e *Engine) SweepFees(ctx context.Context) (sdkmath.Int, error) {
	e.feeMu.Lock()
	amount := e.accumulatedFee
	if !amount.IsPositive() {
		e.feeMu.Unlock()
		return sdkmath.ZeroInt(), nil
	}
	e.accumulatedFee = sdkmath.ZeroInt()
	e.feeMu.Unlock()

	if err := e.gateway.Transfer(ctx, e.primaryToken, e.ownerAddress, amount); err != nil {
		e.feeMu.Lock()
		e.accumulatedFee = e.accumulatedFee.Add(amount)
		e.feeMu.Unlock()
		return sdkmath.ZeroInt(), fmt.Errorf("%w: sweeping fees: %v", ErrTransferFailed, err)
	}

	e.record(types.Event{
		Kind:   types.EventFeeSwept,
		User:   e.ownerAddress,
		Token:  e.primaryToken,
		Amount: amount,
	})
	e.logger.Info().Str("amount", amount.String()).Str("owner", e.ownerAddress).Msg("Fee pool swept")
	return amount, nil
}
