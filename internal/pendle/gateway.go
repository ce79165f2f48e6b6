package pendle

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/pendle-vault/pvm/internal/logger"
	"github.com/pendle-vault/pvm/internal/types"
	"github.com/pendle-vault/pvm/internal/utils"
)

// Gateway is the live implementation of the engine's chain surface, built on
// hand-declared ABIs over the shared client. Market ids and token ids are
// checksummed hex addresses.
type Gateway struct {
	logger zerolog.Logger
	client *Client

	erc20ABI  abi.ABI
	marketABI abi.ABI
}

// NewGateway parses the embedded ABIs once and binds them lazily per
// contract address.
func NewGateway(client *Client) (*Gateway, error) {
	if client == nil {
		return nil, fmt.Errorf("pendle gateway: client cannot be nil")
	}
	erc20, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("pendle gateway: parsing erc20 abi: %w", err)
	}
	market, err := abi.JSON(strings.NewReader(marketABIJSON))
	if err != nil {
		return nil, fmt.Errorf("pendle gateway: parsing market abi: %w", err)
	}
	return &Gateway{
		logger:    logger.GetForComponent("pendle_gateway"),
		client:    client,
		erc20ABI:  erc20,
		marketABI: market,
	}, nil
}

// parseAddress validates and normalizes a hex contract or account address.
func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	return common.HexToAddress(raw), nil
}

// MarketRewardTokens queries the market's current reward-token list.
func (g *Gateway) MarketRewardTokens(ctx context.Context, market types.MarketID) ([]types.TokenID, error) {
	addr, err := parseAddress(string(market))
	if err != nil {
		return nil, fmt.Errorf("market %s: %w", market, err)
	}

	var out []interface{}
	contract := g.client.bound(addr, g.marketABI)
	if err := g.client.call(ctx, contract, &out, "getRewardTokens"); err != nil {
		return nil, fmt.Errorf("market %s: %w", market, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("market %s: unexpected getRewardTokens output arity %d", market, len(out))
	}
	raw, ok := out[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("market %s: unexpected getRewardTokens output type %T", market, out[0])
	}

	tokens := make([]types.TokenID, 0, len(raw))
	for _, a := range raw {
		tokens = append(tokens, types.TokenID(a.Hex()))
	}
	g.logger.Debug().Str("market", string(market)).Int("tokens", len(tokens)).Msg("Listed market reward tokens")
	return tokens, nil
}

// RedeemMarketRewards asks the market to push the vault's accrued rewards to
// the vault address.
func (g *Gateway) RedeemMarketRewards(ctx context.Context, market types.MarketID) error {
	addr, err := parseAddress(string(market))
	if err != nil {
		return fmt.Errorf("market %s: %w", market, err)
	}
	contract := g.client.bound(addr, g.marketABI)
	if err := g.client.transact(ctx, contract, "redeemRewards", g.client.Address()); err != nil {
		return fmt.Errorf("market %s: %w", market, err)
	}
	return nil
}

// BalanceOf returns the holder's token balance.
func (g *Gateway) BalanceOf(ctx context.Context, token types.TokenID, holder string) (sdkmath.Int, error) {
	tokenAddr, err := parseAddress(string(token))
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("token %s: %w", token, err)
	}
	holderAddr, err := parseAddress(holder)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("holder %s: %w", holder, err)
	}

	var out []interface{}
	contract := g.client.bound(tokenAddr, g.erc20ABI)
	if err := g.client.call(ctx, contract, &out, "balanceOf", holderAddr); err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("token %s: %w", token, err)
	}
	if len(out) != 1 {
		return sdkmath.ZeroInt(), fmt.Errorf("token %s: unexpected balanceOf output arity %d", token, len(out))
	}
	raw, ok := out[0].(*big.Int)
	if !ok {
		return sdkmath.ZeroInt(), fmt.Errorf("token %s: unexpected balanceOf output type %T", token, out[0])
	}
	bal, err := utils.BigIntToSDKInt(raw)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("token %s: %w", token, err)
	}
	return bal, nil
}

// Transfer moves tokens out of the vault's custody.
func (g *Gateway) Transfer(ctx context.Context, token types.TokenID, to string, amount sdkmath.Int) error {
	tokenAddr, err := parseAddress(string(token))
	if err != nil {
		return fmt.Errorf("token %s: %w", token, err)
	}
	toAddr, err := parseAddress(to)
	if err != nil {
		return fmt.Errorf("recipient %s: %w", to, err)
	}
	raw, err := utils.SDKIntToBigInt(amount)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	contract := g.client.bound(tokenAddr, g.erc20ABI)
	return g.client.transact(ctx, contract, "transfer", toAddr, raw)
}

// TransferFrom pulls tokens from a depositor into the vault's custody. The
// depositor must have approved the vault beforehand.
func (g *Gateway) TransferFrom(ctx context.Context, token types.TokenID, from, to string, amount sdkmath.Int) error {
	tokenAddr, err := parseAddress(string(token))
	if err != nil {
		return fmt.Errorf("token %s: %w", token, err)
	}
	fromAddr, err := parseAddress(from)
	if err != nil {
		return fmt.Errorf("sender %s: %w", from, err)
	}
	toAddr, err := parseAddress(to)
	if err != nil {
		return fmt.Errorf("recipient %s: %w", to, err)
	}
	raw, err := utils.SDKIntToBigInt(amount)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	contract := g.client.bound(tokenAddr, g.erc20ABI)
	return g.client.transact(ctx, contract, "transferFrom", fromAddr, toAddr, raw)
}
