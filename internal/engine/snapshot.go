package engine

import (
	"time"

	"github.com/pendle-vault/pvm/internal/types"
)

// Snapshot serializes the full engine state: every market, every position,
// and the fee pool. Taken after each harvest cycle and on shutdown; the
// latest snapshot is restored at startup via Restore.
func (e *Engine) Snapshot(cycleNumber int) types.VaultSnapshot {
	snap := types.VaultSnapshot{
		TakenAt:     time.Now().UTC(),
		CycleNumber: cycleNumber,
	}

	for _, id := range e.Markets() {
		e.mu.RLock()
		ms := e.markets[id]
		e.mu.RUnlock()
		if ms == nil {
			continue
		}
		ms.mu.Lock()
		entry := types.MarketSnapshot{
			Market:    ms.market.Clone(),
			Positions: make(map[string]*types.UserPosition, len(ms.positions)),
		}
		for user, pos := range ms.positions {
			entry.Positions[user] = pos.Clone()
		}
		ms.mu.Unlock()
		snap.Markets = append(snap.Markets, entry)
	}

	e.feeMu.Lock()
	snap.AccumulatedFee = e.accumulatedFee
	e.feeMu.Unlock()
	return snap
}

// Restore rebuilds engine state from a snapshot. Intended for startup,
// before the engine starts serving operations; live markets are never
// overwritten.
func (e *Engine) Restore(snap types.VaultSnapshot) {
	for _, entry := range snap.Markets {
		e.RestoreMarket(entry.Market, entry.Positions)
	}
	if !snap.AccumulatedFee.IsNil() {
		e.feeMu.Lock()
		e.accumulatedFee = snap.AccumulatedFee
		e.feeMu.Unlock()
	}
	e.logger.Info().
		Int("markets", len(snap.Markets)).
		Time("takenAt", snap.TakenAt).
		Msg("Engine state restored from snapshot")
}
