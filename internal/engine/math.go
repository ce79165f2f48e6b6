package engine

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// precision is the fixed-point scale of the reward accumulator.
var precision = sdkmath.NewIntWithDecimal(1, 12)

// basisPoints is the denominator of the protocol fee rate.
var basisPoints = sdkmath.NewInt(10_000)

// maxAmountBits caps every amount and accumulator at 256 bits. sdkmath.Int
// panics past this bound; the engine rejects instead. Arithmetic runs on raw
// big.Ints and is converted back only after the bound check.
const maxAmountBits = 256

// orZero normalizes a zero-value Int (nil inner pointer, as produced by a
// missing map key) to an explicit zero.
func orZero(v sdkmath.Int) sdkmath.Int {
	if v.IsNil() {
		return sdkmath.ZeroInt()
	}
	return v
}

// safeAdd returns a+b, or ErrOverflow if the sum would not fit.
func safeAdd(a, b sdkmath.Int) (sdkmath.Int, error) {
	sum := new(big.Int).Add(a.BigInt(), b.BigInt())
	if sum.BitLen() > maxAmountBits {
		return sdkmath.Int{}, ErrOverflow
	}
	return sdkmath.NewIntFromBigInt(sum), nil
}

// mulDiv returns a*b/c rounded down, or ErrOverflow if the result would
// exceed the 256-bit range. c must be positive.
func mulDiv(a, b, c sdkmath.Int) (sdkmath.Int, error) {
	if !c.IsPositive() {
		return sdkmath.Int{}, ErrOverflow
	}
	if a.IsZero() || b.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	prod := new(big.Int).Mul(a.BigInt(), b.BigInt())
	quo := prod.Quo(prod, c.BigInt())
	if quo.BitLen() > maxAmountBits {
		return sdkmath.Int{}, ErrOverflow
	}
	return sdkmath.NewIntFromBigInt(quo), nil
}
