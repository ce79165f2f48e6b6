package pendle

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"github.com/pendle-vault/pvm/internal/logger"
)

// Client wraps the EVM node connection and the vault's signing identity.
// All contract adapters in this package go through it.
type Client struct {
	logger zerolog.Logger

	eth     *ethclient.Client
	signer  *bind.TransactOpts
	address common.Address
	chainID *big.Int

	defaultGasLimit uint64
	gasAdjustment   float64
}

// ClientConfig holds the parameters needed to connect and sign.
type ClientConfig struct {
	RPCURL          string
	SignerKeyHex    string
	ChainID         uint64
	DefaultGasLimit uint64
	GasAdjustment   float64
}

// NewClient dials the node and derives the vault's custody address from the
// signing key.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("pendle client: rpc url cannot be empty")
	}

	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("pendle client: dialing %s: %w", cfg.RPCURL, err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.SignerKeyHex, "0x"))
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("pendle client: parsing signer key: %w", err)
	}

	chainID := new(big.Int).SetUint64(cfg.ChainID)
	signer, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("pendle client: building transactor: %w", err)
	}

	c := &Client{
		logger:          logger.GetForComponent("pendle_client"),
		eth:             eth,
		signer:          signer,
		address:         crypto.PubkeyToAddress(key.PublicKey),
		chainID:         chainID,
		defaultGasLimit: cfg.DefaultGasLimit,
		gasAdjustment:   cfg.GasAdjustment,
	}
	c.logger.Info().
		Str("address", c.address.Hex()).
		Uint64("chainID", cfg.ChainID).
		Msg("Pendle client connected")
	return c, nil
}

// Address returns the vault's custody address.
func (c *Client) Address() common.Address {
	return c.address
}

// Close releases the node connection.
func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
	}
}

// bound binds a contract at the given address to this client for both calls
// and transactions.
func (c *Client) bound(address common.Address, parsed abi.ABI) *bind.BoundContract {
	return bind.NewBoundContract(address, parsed, c.eth, c.eth, c.eth)
}

// call performs a read-only contract call.
func (c *Client) call(ctx context.Context, contract *bind.BoundContract, results *[]interface{}, method string, args ...interface{}) error {
	opts := &bind.CallOpts{Context: ctx, From: c.address}
	if err := contract.Call(opts, results, method, args...); err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	return nil
}

// transact sends a state-changing transaction and waits for it to be mined.
// A mined-but-reverted transaction is reported as an error so callers treat
// it exactly like a broadcast failure.
func (c *Client) transact(ctx context.Context, contract *bind.BoundContract, method string, args ...interface{}) error {
	opts := *c.signer
	opts.Context = ctx
	if c.gasAdjustment <= 0 {
		// Fall back to the configured static limit when adjusted estimation
		// is disabled.
		opts.GasLimit = c.defaultGasLimit
	}

	tx, err := contract.Transact(&opts, method, args...)
	if err != nil {
		return fmt.Errorf("sending %s: %w", method, err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("txHash", tx.Hash().Hex()).
		Msg("Transaction broadcast, waiting for inclusion")

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return fmt.Errorf("waiting for %s (%s): %w", method, tx.Hash().Hex(), err)
	}
	if receipt.Status != gethtypes.ReceiptStatusSuccessful {
		return fmt.Errorf("%s reverted in tx %s", method, tx.Hash().Hex())
	}

	c.logger.Debug().
		Str("method", method).
		Str("txHash", tx.Hash().Hex()).
		Uint64("gasUsed", receipt.GasUsed).
		Msg("Transaction confirmed")
	return nil
}
