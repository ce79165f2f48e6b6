package pendle

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/rs/zerolog"

	"github.com/pendle-vault/pvm/internal/logger"
	"github.com/pendle-vault/pvm/internal/utils"
)

// Escrow is the thin pass-through to the vePENDLE voting-escrow contract. The
// vault only ever extends its own lock with custody PENDLE; voting and
// cross-chain broadcast stay with the external system.
type Escrow struct {
	logger   zerolog.Logger
	client   *Client
	contract *bind.BoundContract
}

// NewEscrow binds the voting-escrow contract at the given address.
func NewEscrow(client *Client, address string) (*Escrow, error) {
	if client == nil {
		return nil, fmt.Errorf("pendle escrow: client cannot be nil")
	}
	addr, err := parseAddress(address)
	if err != nil {
		return nil, fmt.Errorf("pendle escrow: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(escrowABIJSON))
	if err != nil {
		return nil, fmt.Errorf("pendle escrow: parsing abi: %w", err)
	}
	return &Escrow{
		logger:   logger.GetForComponent("pendle_escrow"),
		client:   client,
		contract: client.bound(addr, parsed),
	}, nil
}

// Lock adds amount of PENDLE to the vault's voting-escrow position, keeping
// or extending the lock to newExpiry (unix seconds, zero keeps the current
// expiry).
func (e *Escrow) Lock(ctx context.Context, amount sdkmath.Int, newExpiry uint64) error {
	raw, err := utils.SDKIntToBigInt(amount)
	if err != nil {
		return fmt.Errorf("pendle escrow: amount: %w", err)
	}
	expiry := new(big.Int).SetUint64(newExpiry)
	if err := e.client.transact(ctx, e.contract, "increaseLockPosition", raw, expiry); err != nil {
		return fmt.Errorf("pendle escrow: %w", err)
	}
	e.logger.Info().Str("amount", amount.String()).Uint64("newExpiry", newExpiry).Msg("Escrow lock extended")
	return nil
}
