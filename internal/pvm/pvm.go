package pvm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pendle-vault/pvm/internal/engine"
	"github.com/pendle-vault/pvm/internal/logger"
	"github.com/pendle-vault/pvm/internal/state"
	"github.com/pendle-vault/pvm/internal/types"
)

// PVM drives the vault's background work: a periodic harvest cycle over every
// registered market followed by a state snapshot. User operations (deposit,
// withdraw, claim) arrive independently through the engine; the loop only
// keeps accrual fresh and state durable.
type PVM struct {
	logger zerolog.Logger
	engine *engine.Engine

	cycleCount int
}

// Config holds the configuration for creating a new PVM instance
type Config struct {
	Engine *engine.Engine
}

// New creates a PVM instance with dependency injection
func New(cfg Config) (*PVM, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	p := &PVM{
		logger: logger.GetForComponent("pvm_core"),
		engine: cfg.Engine,
	}
	p.logger.Info().Msg("PVM instance created successfully with dependency injection")
	return p, nil
}

// RunLoop starts the main harvest loop with the specified interval
func (p *PVM) RunLoop(ctx context.Context, interval time.Duration) {
	p.logger.Info().
		Dur("interval", interval).
		Msg("Starting PVM harvest loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run first cycle immediately
	p.runCycleAndCount(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("PVM loop stopped due to context cancellation")
			// Final snapshot so a restart resumes exactly where we left off.
			p.saveSnapshot()
			return
		case <-ticker.C:
			p.runCycleAndCount(ctx)
		}
	}
}

func (p *PVM) runCycleAndCount(ctx context.Context) {
	p.cycleCount++
	p.logger.Info().Int("cycle", p.cycleCount).Msg("Initiating harvest cycle")
	p.RunCycle(ctx)
	p.logger.Info().Int("cycle", p.cycleCount).Msg("Harvest cycle completed")
}

// RunCycle harvests every registered market once, then persists a snapshot.
// A failing market never stops the cycle; failures are logged and recorded
// by the engine, and the remaining markets still harvest.
func (p *PVM) RunCycle(ctx context.Context) {
	cycleStartTime := time.Now()

	// Unique cycle ID for tracing logs across the entire cycle
	cycleID := uuid.New().String()
	cycleLogger := p.logger.With().Str("cycle_id", cycleID).Logger()

	markets := p.engine.Markets()
	cycleLogger.Info().Int("markets", len(markets)).Msg("--- Starting harvest cycle ---")

	var failed int
	for _, id := range markets {
		if err := p.engine.Harvest(ctx, id); err != nil {
			failed++
			switch {
			case errors.Is(err, engine.ErrHarvestFailed):
				cycleLogger.Warn().Err(err).Str("market", string(id)).Msg("Market harvest failed, continuing cycle")
			default:
				cycleLogger.Error().Err(err).Str("market", string(id)).Msg("Market harvest aborted, continuing cycle")
			}
		}
		if ctx.Err() != nil {
			cycleLogger.Info().Msg("Cycle interrupted by shutdown")
			return
		}
	}

	p.saveSnapshot()

	cycleLogger.Info().
		Int("markets", len(markets)).
		Int("failedHarvests", failed).
		Str("cycleDuration", time.Since(cycleStartTime).String()).
		Msg("--- Harvest cycle completed ---")
}

// RestoreFromState rebuilds the engine from the latest snapshot plus any
// markets registered after it was taken.
func (p *PVM) RestoreFromState() error {
	snap, err := state.LoadLatestVaultSnapshot()
	if err != nil {
		return fmt.Errorf("loading latest snapshot: %w", err)
	}

	known := make(map[types.MarketID]bool)
	if snap != nil {
		p.engine.Restore(*snap)
		p.cycleCount = snap.CycleNumber
		for _, entry := range snap.Markets {
			if entry.Market != nil {
				known[entry.Market.ID] = true
			}
		}
	}

	markets, err := state.LoadMarkets()
	if err != nil {
		return fmt.Errorf("loading registered markets: %w", err)
	}
	for _, m := range markets {
		if known[m.ID] {
			continue
		}
		p.engine.RestoreMarket(m, nil)
	}

	p.logger.Info().
		Int("snapshotMarkets", len(known)).
		Int("registryMarkets", len(markets)).
		Msg("Engine state restored")
	return nil
}

func (p *PVM) saveSnapshot() {
	snap := p.engine.Snapshot(p.cycleCount)
	snapshotID, err := state.SaveVaultSnapshot(snap)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to save vault snapshot to database")
		return
	}
	p.logger.Info().Int64("snapshot_id", snapshotID).Msg("Vault snapshot saved successfully")
}
