package pvm

import (
	"context"
	"errors"
	"sync"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/pendle-vault/pvm/internal/engine"
	"github.com/pendle-vault/pvm/internal/types"
)

// cycleGateway counts redeem calls per market and can fail selected markets.
type cycleGateway struct {
	mu          sync.Mutex
	redeemCalls map[types.MarketID]int
	failing     map[types.MarketID]bool
}

func newCycleGateway() *cycleGateway {
	return &cycleGateway{
		redeemCalls: make(map[types.MarketID]int),
		failing:     make(map[types.MarketID]bool),
	}
}

func (g *cycleGateway) MarketRewardTokens(context.Context, types.MarketID) ([]types.TokenID, error) {
	return []types.TokenID{"0xreward"}, nil
}

func (g *cycleGateway) RedeemMarketRewards(_ context.Context, market types.MarketID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.redeemCalls[market]++
	if g.failing[market] {
		return errors.New("market reverted")
	}
	return nil
}

func (g *cycleGateway) BalanceOf(context.Context, types.TokenID, string) (sdkmath.Int, error) {
	return sdkmath.ZeroInt(), nil
}

func (g *cycleGateway) Transfer(context.Context, types.TokenID, string, sdkmath.Int) error {
	return nil
}

func (g *cycleGateway) TransferFrom(context.Context, types.TokenID, string, string, sdkmath.Int) error {
	return nil
}

func (g *cycleGateway) calls(market types.MarketID) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.redeemCalls[market]
}

func newTestPVM(t *testing.T) (*PVM, *cycleGateway, *engine.Engine) {
	t.Helper()
	gw := newCycleGateway()
	eng, err := engine.New(engine.Config{
		Gateway:      gw,
		VaultAddress: "0x00000000000000000000000000000000000va017",
		PrimaryToken: "0xreward",
	})
	require.NoError(t, err)

	p, err := New(Config{Engine: eng})
	require.NoError(t, err)
	return p, gw, eng
}

func TestNewRequiresEngine(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestRunCycleHarvestsEveryMarket(t *testing.T) {
	p, gw, eng := newTestPVM(t)
	ctx := context.Background()

	require.NoError(t, eng.RegisterMarket(ctx, "0xmarket-1"))
	require.NoError(t, eng.RegisterMarket(ctx, "0xmarket-2"))

	p.RunCycle(ctx)
	require.Equal(t, 1, gw.calls("0xmarket-1"))
	require.Equal(t, 1, gw.calls("0xmarket-2"))

	p.RunCycle(ctx)
	require.Equal(t, 2, gw.calls("0xmarket-1"))
	require.Equal(t, 2, gw.calls("0xmarket-2"))
}

func TestRunCycleContinuesPastFailingMarket(t *testing.T) {
	p, gw, eng := newTestPVM(t)
	ctx := context.Background()

	require.NoError(t, eng.RegisterMarket(ctx, "0xmarket-1"))
	require.NoError(t, eng.RegisterMarket(ctx, "0xmarket-2"))
	gw.failing["0xmarket-1"] = true

	p.RunCycle(ctx)
	require.Equal(t, 1, gw.calls("0xmarket-1"))
	require.Equal(t, 1, gw.calls("0xmarket-2"))
}

func TestRunCycleStopsOnCancelledContext(t *testing.T) {
	p, gw, eng := newTestPVM(t)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, eng.RegisterMarket(context.Background(), "0xmarket-1"))
	require.NoError(t, eng.RegisterMarket(context.Background(), "0xmarket-2"))

	cancel()
	p.RunCycle(ctx)
	// The cycle notices cancellation after the first market and stops
	// before reaching the second.
	require.Equal(t, 1, gw.calls("0xmarket-1"))
	require.Equal(t, 0, gw.calls("0xmarket-2"))
}
