// ./internal/state/snapshot_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pendle-vault/pvm/internal/types"
)

// SaveVaultSnapshot persists the full engine state as JSONB and returns the
// new snapshot id.
func SaveVaultSnapshot(snap types.VaultSnapshot) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal vault snapshot: %w", err)
	}

	stmt := `
        INSERT INTO vault_snapshots (cycle_number, taken_at, state)
        VALUES ($1, $2, $3) RETURNING snapshot_id;`

	var snapshotID int64
	err = DB.QueryRow(stmt, snap.CycleNumber, snap.TakenAt, raw).Scan(&snapshotID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert vault snapshot: %w", err)
	}

	log.Info().
		Int64("snapshot_id", snapshotID).
		Int("cycle", snap.CycleNumber).
		Int("markets", len(snap.Markets)).
		Msg("Saved vault snapshot")
	return snapshotID, nil
}

// LoadLatestVaultSnapshot returns the newest persisted snapshot, or nil if
// none exists yet.
func LoadLatestVaultSnapshot() (*types.VaultSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var raw []byte
	err := DB.QueryRow(`SELECT state FROM vault_snapshots ORDER BY taken_at DESC, snapshot_id DESC LIMIT 1;`).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Info().Msg("No vault snapshot found, starting from empty state")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load latest vault snapshot: %w", err)
	}

	snap := &types.VaultSnapshot{}
	if err := json.Unmarshal(raw, snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vault snapshot: %w", err)
	}

	log.Info().
		Int("cycle", snap.CycleNumber).
		Int("markets", len(snap.Markets)).
		Time("takenAt", snap.TakenAt).
		Msg("Loaded latest vault snapshot")
	return snap, nil
}
