/*
This file contains common utility functions for converting between the
engine's SDK math amounts and the raw big integers the EVM tooling works in.
*/

package utils

import (
	"errors"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrAmountNil      = errors.New("amount is nil")
	ErrAmountNegative = errors.New("amount is negative")
	ErrAmountTooLarge = errors.New("amount exceeds 256 bits")
)

// BigIntToSDKInt converts a raw chain amount to an SDK Int, rejecting nil,
// negative and oversized values rather than letting sdkmath panic later.
func BigIntToSDKInt(amount *big.Int) (sdkmath.Int, error) {
	if amount == nil {
		return sdkmath.ZeroInt(), ErrAmountNil
	}
	if amount.Sign() < 0 {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s", ErrAmountNegative, amount)
	}
	if amount.BitLen() > 256 {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %d bits", ErrAmountTooLarge, amount.BitLen())
	}
	return sdkmath.NewIntFromBigInt(amount), nil
}

// SDKIntToBigInt converts an SDK Int to the raw big integer an EVM call
// expects. The returned value is a copy; mutating it does not affect the
// source.
func SDKIntToBigInt(amount sdkmath.Int) (*big.Int, error) {
	if amount.IsNil() {
		return nil, ErrAmountNil
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrAmountNegative, amount)
	}
	return amount.BigInt(), nil
}
