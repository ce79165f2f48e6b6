package utils

import (
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestBigIntToSDKInt(t *testing.T) {
	got, err := BigIntToSDKInt(big.NewInt(1234))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1234), got)

	got, err = BigIntToSDKInt(big.NewInt(0))
	require.NoError(t, err)
	require.True(t, got.IsZero())

	_, err = BigIntToSDKInt(nil)
	require.ErrorIs(t, err, ErrAmountNil)

	_, err = BigIntToSDKInt(big.NewInt(-1))
	require.ErrorIs(t, err, ErrAmountNegative)

	oversized := new(big.Int).Lsh(big.NewInt(1), 256)
	_, err = BigIntToSDKInt(oversized)
	require.ErrorIs(t, err, ErrAmountTooLarge)

	// 2^256 - 1 is the largest accepted value.
	max := new(big.Int).Sub(oversized, big.NewInt(1))
	got, err = BigIntToSDKInt(max)
	require.NoError(t, err)
	require.Equal(t, max.String(), got.String())
}

func TestSDKIntToBigInt(t *testing.T) {
	got, err := SDKIntToBigInt(sdkmath.NewInt(1234))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1234), got)

	_, err = SDKIntToBigInt(sdkmath.Int{})
	require.ErrorIs(t, err, ErrAmountNil)

	_, err = SDKIntToBigInt(sdkmath.NewInt(-1))
	require.ErrorIs(t, err, ErrAmountNegative)
}

func TestSDKIntToBigIntReturnsCopy(t *testing.T) {
	src := sdkmath.NewInt(42)
	raw, err := SDKIntToBigInt(src)
	require.NoError(t, err)

	raw.SetInt64(99)
	require.Equal(t, sdkmath.NewInt(42), src)
}
