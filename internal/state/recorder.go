// ./internal/state/recorder.go
package state

import (
	"github.com/rs/zerolog"

	"github.com/pendle-vault/pvm/internal/logger"
	"github.com/pendle-vault/pvm/internal/types"
)

// JournalRecorder persists engine events to Postgres. It satisfies the
// engine's Recorder interface; registration events additionally seed the
// markets table so the registry survives restarts.
type JournalRecorder struct {
	logger zerolog.Logger
}

// NewJournalRecorder requires InitDB/EnsureSchema to have run.
func NewJournalRecorder() *JournalRecorder {
	return &JournalRecorder{logger: logger.GetForComponent("journal_recorder")}
}

// Record writes the event row and, for registrations, the markets row.
func (r *JournalRecorder) Record(ev types.Event) error {
	if ev.Kind == types.EventMarketRegistered {
		degraded := ev.Reason != ""
		if err := SaveMarketRegistration(ev.Market, ev.RewardTokens, degraded); err != nil {
			// The journal row below still captures the registration; the
			// markets table catches up on the next restart registration.
			r.logger.Error().Err(err).Str("market", string(ev.Market)).Msg("Failed to persist market registration")
		}
	}
	return SaveEvent(ev)
}
