package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pendle-vault/pvm/internal/logger"
	"github.com/pendle-vault/pvm/internal/types"
)

// Engine is the multi-market reward accounting core. It registers markets,
// custodies LP deposits, and distributes harvested rewards proportionally to
// deposit size using a per-token cumulative accumulator.
//
// All mutating operations against one market are serialized by that market's
// lock; markets are independent of each other. The totalDeposited and the
// accumulator are shared across every user of a market, so per-user locking
// would be unsound.
type Engine struct {
	logger   zerolog.Logger
	gateway  Gateway
	recorder Recorder

	vaultAddress string
	ownerAddress string
	primaryToken types.TokenID
	feeRateBps   uint64

	mu      sync.RWMutex // guards the markets map, not market contents
	markets map[types.MarketID]*marketState

	feeMu          sync.Mutex
	accumulatedFee sdkmath.Int
}

// marketState pairs a market's accounting record with its positions and the
// lock that serializes every mutating operation against it.
type marketState struct {
	mu        sync.Mutex
	market    *types.Market
	positions map[string]*types.UserPosition
}

// Config holds the dependencies and fixed parameters for a new Engine.
// FeeRateBps is deliberately not adjustable after construction: depositors
// can rely on the rate never changing once they commit funds.
type Config struct {
	Gateway      Gateway
	Recorder     Recorder
	VaultAddress string
	OwnerAddress string
	PrimaryToken types.TokenID
	FeeRateBps   uint64
}

// New creates an Engine with no registered markets.
func New(cfg Config) (*Engine, error) {
	if cfg.Gateway == nil {
		return nil, ErrNilGateway
	}
	if cfg.VaultAddress == "" {
		return nil, fmt.Errorf("vault engine: vault address cannot be empty")
	}
	if cfg.FeeRateBps > 10000 {
		return nil, fmt.Errorf("vault engine: fee rate %d exceeds 10000 bps", cfg.FeeRateBps)
	}
	rec := cfg.Recorder
	if rec == nil {
		rec = NopRecorder{}
	}
	return &Engine{
		logger:         logger.GetForComponent("reward_engine"),
		gateway:        cfg.Gateway,
		recorder:       rec,
		vaultAddress:   cfg.VaultAddress,
		ownerAddress:   cfg.OwnerAddress,
		primaryToken:   cfg.PrimaryToken,
		feeRateBps:     cfg.FeeRateBps,
		markets:        make(map[types.MarketID]*marketState),
		accumulatedFee: sdkmath.ZeroInt(),
	}, nil
}

// RegisterMarket makes a market known to the vault and snapshots its
// reward-token list. Re-registration is a no-op, not an error, so concurrent
// or duplicate registration attempts are harmless.
//
// If the reward-token listing call fails the market is registered anyway
// with an empty list: degraded but non-blocking, and visible to operators
// through the registration event's reason field.
func (e *Engine) RegisterMarket(ctx context.Context, id types.MarketID) error {
	e.mu.RLock()
	_, exists := e.markets[id]
	e.mu.RUnlock()
	if exists {
		e.logger.Debug().Str("market", string(id)).Msg("Market already registered, skipping")
		return nil
	}

	rewardTokens, listErr := e.gateway.MarketRewardTokens(ctx, id)
	if listErr != nil {
		e.logger.Warn().Err(listErr).Str("market", string(id)).
			Msg("Failed to list reward tokens, registering market with empty reward set")
		rewardTokens = nil
	}

	e.mu.Lock()
	if _, exists := e.markets[id]; exists {
		// Lost the race to a concurrent registration; first one wins.
		e.mu.Unlock()
		return nil
	}
	ms := &marketState{
		market:    types.NewMarket(id, rewardTokens),
		positions: make(map[string]*types.UserPosition),
	}
	e.markets[id] = ms
	e.mu.Unlock()

	ev := types.Event{
		Kind:         types.EventMarketRegistered,
		Market:       id,
		RewardTokens: append([]types.TokenID(nil), rewardTokens...),
	}
	if listErr != nil {
		ev.Reason = listErr.Error()
	}
	e.record(ev)

	e.logger.Info().
		Str("market", string(id)).
		Int("rewardTokens", len(rewardTokens)).
		Msg("Market registered")
	return nil
}

// RestoreMarket installs a previously persisted market and its positions,
// used when rebuilding engine state from a snapshot at startup. It never
// overwrites a live market.
func (e *Engine) RestoreMarket(market *types.Market, positions map[string]*types.UserPosition) {
	if market == nil {
		return
	}
	restored := market.Clone()
	pos := make(map[string]*types.UserPosition, len(positions))
	for user, p := range positions {
		pos[user] = p.Clone()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.markets[market.ID]; exists {
		e.logger.Warn().Str("market", string(market.ID)).Msg("Market already live, ignoring restore")
		return
	}
	e.markets[market.ID] = &marketState{market: restored, positions: pos}
	e.logger.Info().
		Str("market", string(market.ID)).
		Int("positions", len(pos)).
		Msg("Market restored from snapshot")
}

// marketFor returns the state for a registered market.
func (e *Engine) marketFor(id types.MarketID) (*marketState, error) {
	e.mu.RLock()
	ms, ok := e.markets[id]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMarket, id)
	}
	return ms, nil
}

// position returns the user's position in the market, creating it lazily.
// Caller must hold ms.mu.
func (ms *marketState) position(user string) *types.UserPosition {
	pos, ok := ms.positions[user]
	if !ok {
		pos = types.NewUserPosition(ms.market.RewardTokens)
		ms.positions[user] = pos
	}
	return pos
}

// opLogger returns a logger tagged with a fresh operation id for tracing one
// top-level operation across harvest, settlement and transfer logs.
func (e *Engine) opLogger(op string, market types.MarketID, user string) zerolog.Logger {
	l := e.logger.With().
		Str("op_id", uuid.New().String()).
		Str("op", op).
		Str("market", string(market))
	if user != "" {
		l = l.Str("user", user)
	}
	return l.Logger()
}

// record assigns the event id and timestamp and hands it to the recorder.
// Journal failures are logged and swallowed: auditing must never block a
// user's funds.
func (e *Engine) record(ev types.Event) {
	ev.ID = uuid.New().String()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if err := e.recorder.Record(ev); err != nil {
		e.logger.Error().Err(err).
			Str("kind", string(ev.Kind)).
			Str("market", string(ev.Market)).
			Msg("Failed to record event")
	}
}
