// ./internal/state/event_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/pendle-vault/pvm/internal/types"
)

// SaveEvent appends one engine event to the journal.
func SaveEvent(ev types.Event) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	var amount interface{}
	if !ev.Amount.IsNil() {
		amount = ev.Amount.String()
	}

	var amounts interface{}
	if len(ev.Amounts) > 0 {
		raw, err := json.Marshal(ev.Amounts)
		if err != nil {
			return fmt.Errorf("failed to marshal event amounts: %w", err)
		}
		amounts = raw
	}

	rewardTokens := make([]string, 0, len(ev.RewardTokens))
	for _, t := range ev.RewardTokens {
		rewardTokens = append(rewardTokens, string(t))
	}

	stmt := `
        INSERT INTO vault_events (
            event_id, kind, market, user_addr, token, amount, amounts, reward_tokens, reason, event_timestamp
        ) VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, NULLIF($9, ''), $10);`

	_, err := DB.Exec(stmt,
		ev.ID, string(ev.Kind), string(ev.Market), ev.User, string(ev.Token),
		amount, amounts, pq.Array(rewardTokens), ev.Reason, ev.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %w", ev.ID, err)
	}
	return nil
}

// GetRecentEvents returns up to limit events, newest first, optionally
// filtered by market.
func GetRecentEvents(limit int, market string) ([]types.Event, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
        SELECT event_id, kind, COALESCE(market, ''), COALESCE(user_addr, ''),
               COALESCE(token, ''), amount::TEXT, amounts, reward_tokens,
               COALESCE(reason, ''), event_timestamp
        FROM vault_events
        WHERE ($2 = '' OR market = $2)
        ORDER BY event_timestamp DESC
        LIMIT $1;`

	rows, err := DB.Query(query, limit, market)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []types.Event
	for rows.Next() {
		var (
			ev           types.Event
			kind         string
			marketID     string
			token        string
			amount       sql.NullString
			amounts      []byte
			rewardTokens pq.StringArray
		)
		if err := rows.Scan(&ev.ID, &kind, &marketID, &ev.User, &token,
			&amount, &amounts, &rewardTokens, &ev.Reason, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.Kind = types.EventKind(kind)
		ev.Market = types.MarketID(marketID)
		ev.Token = types.TokenID(token)

		if amount.Valid && amount.String != "" {
			parsed, ok := sdkmath.NewIntFromString(amount.String)
			if !ok {
				return nil, fmt.Errorf("event %s has malformed amount %q", ev.ID, amount.String)
			}
			ev.Amount = parsed
		}
		if len(amounts) > 0 {
			if err := json.Unmarshal(amounts, &ev.Amounts); err != nil {
				return nil, fmt.Errorf("event %s has malformed amounts: %w", ev.ID, err)
			}
		}
		for _, t := range rewardTokens {
			ev.RewardTokens = append(ev.RewardTokens, types.TokenID(t))
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating event rows: %w", err)
	}

	log.Debug().Int("count", len(events)).Str("market", market).Msg("Loaded recent events")
	return events, nil
}
