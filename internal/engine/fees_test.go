package engine

import (
	"context"
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/pendle-vault/pvm/internal/types"
)

func TestFeeWithheldOnPrimaryTokenOnly(t *testing.T) {
	e, gw, rec := newTestEngine(t, 250)
	registerMarket(t, e, gw, marketA, pendle, tokenA)
	ctx := context.Background()

	deposit(t, e, gw, marketA, alice, 100)
	gw.queueReward(marketA, pendle, 10000)
	gw.queueReward(marketA, tokenA, 10000)

	require.NoError(t, e.Claim(ctx, marketA, alice))

	// 250 bps on the primary token, nothing on the other.
	require.Equal(t, sdkmath.NewInt(9750), gw.balance(pendle, alice))
	require.Equal(t, sdkmath.NewInt(10000), gw.balance(tokenA, alice))
	require.Equal(t, sdkmath.NewInt(250), e.AccumulatedFee())

	fees := rec.ofKind(types.EventFeeAccrued)
	require.Len(t, fees, 1)
	require.Equal(t, pendle, fees[0].Token)
	require.Equal(t, sdkmath.NewInt(250), fees[0].Amount)
}

func TestFeeRoundsDown(t *testing.T) {
	e, gw, _ := newTestEngine(t, 250)
	registerMarket(t, e, gw, marketA, pendle)
	ctx := context.Background()

	deposit(t, e, gw, marketA, alice, 100)
	// 39 * 250 / 10000 floors to 0: small payouts are fee-free rather than
	// over-charged.
	gw.queueReward(marketA, pendle, 39)
	require.NoError(t, e.Claim(ctx, marketA, alice))

	require.Equal(t, sdkmath.NewInt(39), gw.balance(pendle, alice))
	require.True(t, e.AccumulatedFee().IsZero())
}

func TestZeroFeeRatePassesEverythingThrough(t *testing.T) {
	e, gw, rec := newTestEngine(t, 0)
	registerMarket(t, e, gw, marketA, pendle)
	ctx := context.Background()

	deposit(t, e, gw, marketA, alice, 100)
	gw.queueReward(marketA, pendle, 10000)
	require.NoError(t, e.Claim(ctx, marketA, alice))

	require.Equal(t, sdkmath.NewInt(10000), gw.balance(pendle, alice))
	require.True(t, e.AccumulatedFee().IsZero())
	require.Empty(t, rec.ofKind(types.EventFeeAccrued))
}

func TestApplyFeeSplit(t *testing.T) {
	cases := []struct {
		name    string
		bps     uint64
		token   types.TokenID
		gross   int64
		wantNet int64
		wantFee int64
	}{
		{"primary at 250 bps", 250, pendle, 10000, 9750, 250},
		{"primary at max rate", 10000, pendle, 10000, 0, 10000},
		{"primary floors", 250, pendle, 7500, 7313, 187},
		{"non-primary untouched", 250, tokenA, 10000, 10000, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _, _ := newTestEngine(t, tc.bps)
			net, fee := e.applyFee(tc.token, sdkmath.NewInt(tc.gross))
			// Compare numerically: big.Int zero values produced by Sub carry
			// an allocated empty abs slice that reflect.DeepEqual rejects.
			require.True(t, net.Equal(sdkmath.NewInt(tc.wantNet)), "net = %s, want %d", net, tc.wantNet)
			require.Equal(t, sdkmath.NewInt(tc.wantFee), fee)
			require.Equal(t, sdkmath.NewInt(tc.wantFee), e.AccumulatedFee())
		})
	}
}

func TestSweepFeesPaysOwnerAndEmptiesPool(t *testing.T) {
	e, gw, rec := newTestEngine(t, 250)
	registerMarket(t, e, gw, marketA, pendle)
	ctx := context.Background()

	deposit(t, e, gw, marketA, alice, 100)
	gw.queueReward(marketA, pendle, 10000)
	require.NoError(t, e.Claim(ctx, marketA, alice))
	require.Equal(t, sdkmath.NewInt(250), e.AccumulatedFee())

	swept, err := e.SweepFees(ctx)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(250), swept)
	require.Equal(t, sdkmath.NewInt(250), gw.balance(pendle, ownerAddr))
	require.True(t, e.AccumulatedFee().IsZero())
	require.Len(t, rec.ofKind(types.EventFeeSwept), 1)

	// An empty pool sweeps to zero without touching the chain.
	swept, err = e.SweepFees(ctx)
	require.NoError(t, err)
	require.True(t, swept.IsZero())
	require.Equal(t, sdkmath.NewInt(250), gw.balance(pendle, ownerAddr))
}

func TestSweepFeesRestoresPoolOnTransferFailure(t *testing.T) {
	e, gw, _ := newTestEngine(t, 250)
	registerMarket(t, e, gw, marketA, pendle)
	ctx := context.Background()

	deposit(t, e, gw, marketA, alice, 100)
	gw.queueReward(marketA, pendle, 10000)
	require.NoError(t, e.Claim(ctx, marketA, alice))

	gw.transferErr[pendle] = errors.New("token paused")
	_, err := e.SweepFees(ctx)
	require.ErrorIs(t, err, ErrTransferFailed)
	require.Equal(t, sdkmath.NewInt(250), e.AccumulatedFee())

	delete(gw.transferErr, pendle)
	swept, err := e.SweepFees(ctx)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(250), swept)
}

func TestRewardPayoutFailureBacksOutFee(t *testing.T) {
	e, gw, _ := newTestEngine(t, 250)
	registerMarket(t, e, gw, marketA, pendle)
	ctx := context.Background()

	deposit(t, e, gw, marketA, alice, 100)
	gw.queueReward(marketA, pendle, 10000)
	require.NoError(t, e.Harvest(ctx, marketA))

	gw.transferErr[pendle] = errors.New("token paused")
	require.ErrorIs(t, e.Claim(ctx, marketA, alice), ErrTransferFailed)
	require.True(t, e.AccumulatedFee().IsZero())

	delete(gw.transferErr, pendle)
	require.NoError(t, e.Claim(ctx, marketA, alice))
	require.Equal(t, sdkmath.NewInt(9750), gw.balance(pendle, alice))
	require.Equal(t, sdkmath.NewInt(250), e.AccumulatedFee())
}
