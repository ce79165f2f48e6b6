package engine

import "errors"

var (
	// ErrInvalidAmount rejects zero amounts and withdrawals exceeding the
	// caller's current deposit. No state is changed.
	ErrInvalidAmount = errors.New("vault engine: amount must be positive and within the current deposit")

	// ErrUnknownMarket rejects operations against a market that was never
	// registered.
	ErrUnknownMarket = errors.New("vault engine: market not registered")

	// ErrHarvestFailed reports that the external reward-pull call failed.
	// Mutating operations swallow it so users are never blocked from moving
	// funds by a misbehaving reward source; the standalone Harvest surfaces it.
	ErrHarvestFailed = errors.New("vault engine: external reward harvest failed")

	// ErrTransferFailed aborts the enclosing operation: a failed token
	// transfer means the ledger and actual custody would otherwise diverge.
	ErrTransferFailed = errors.New("vault engine: token transfer failed")

	// ErrOverflow rejects any computation that would exceed the 256-bit
	// amount range. Wrapping would corrupt the accumulator for every user.
	ErrOverflow = errors.New("vault engine: arithmetic overflow")

	// ErrNilGateway and friends guard engine construction.
	ErrNilGateway = errors.New("vault engine: gateway cannot be nil")
)
