package engine

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/pendle-vault/pvm/internal/types"
)

// Gateway defines the on-chain surface the engine depends on. The live
// implementation talks to Pendle contracts over JSON-RPC; tests substitute a
// scripted fixture. Every call is fallible and must be treated as such.
type Gateway interface {
	// MarketRewardTokens returns the market's current reward-token list, in
	// the market's own order. Only called once per market, at registration.
	MarketRewardTokens(ctx context.Context, market types.MarketID) ([]types.TokenID, error)

	// RedeemMarketRewards asks the market to push the vault's accrued rewards
	// into the vault's custody. One call covers every reward token.
	RedeemMarketRewards(ctx context.Context, market types.MarketID) error

	// BalanceOf returns the holder's balance of the given token.
	BalanceOf(ctx context.Context, token types.TokenID, holder string) (sdkmath.Int, error)

	// Transfer moves tokens out of the vault's custody.
	Transfer(ctx context.Context, token types.TokenID, to string, amount sdkmath.Int) error

	// TransferFrom pulls tokens from a depositor into the vault's custody.
	TransferFrom(ctx context.Context, token types.TokenID, from, to string, amount sdkmath.Int) error
}

// Recorder receives every structured event the engine emits. Recording
// failures are logged by the engine but never fail the triggering operation.
type Recorder interface {
	Record(event types.Event) error
}

// NopRecorder discards events; useful when no journal is wired.
type NopRecorder struct{}

func (NopRecorder) Record(types.Event) error { return nil }
