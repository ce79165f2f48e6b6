// ./internal/state/market_store.go
package state

import (
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/pendle-vault/pvm/internal/types"
)

// SaveMarketRegistration records a market and its reward-token snapshot. The
// first registration wins; conflicts are ignored to match the engine's
// idempotent registration semantics.
func SaveMarketRegistration(id types.MarketID, rewardTokens []types.TokenID, degraded bool) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	tokens := make([]string, 0, len(rewardTokens))
	for _, t := range rewardTokens {
		tokens = append(tokens, string(t))
	}

	stmt := `
        INSERT INTO markets (market_id, reward_tokens, degraded)
        VALUES ($1, $2, $3)
        ON CONFLICT (market_id) DO NOTHING;`

	_, err := DB.Exec(stmt, string(id), pq.Array(tokens), degraded)
	if err != nil {
		return fmt.Errorf("failed to insert market %s: %w", id, err)
	}

	log.Info().
		Str("market", string(id)).
		Int("rewardTokens", len(tokens)).
		Bool("degraded", degraded).
		Msg("Saved market registration")
	return nil
}

// LoadMarkets returns every registered market with zeroed accrual state,
// used to re-seed the registry for markets that registered after the last
// snapshot was taken.
func LoadMarkets() ([]*types.Market, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := DB.Query(`SELECT market_id, reward_tokens FROM markets ORDER BY registered_at;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query markets: %w", err)
	}
	defer rows.Close()

	var markets []*types.Market
	for rows.Next() {
		var (
			id     string
			tokens pq.StringArray
		)
		if err := rows.Scan(&id, &tokens); err != nil {
			return nil, fmt.Errorf("failed to scan market row: %w", err)
		}
		rewardTokens := make([]types.TokenID, 0, len(tokens))
		for _, t := range tokens {
			rewardTokens = append(rewardTokens, types.TokenID(t))
		}
		markets = append(markets, types.NewMarket(types.MarketID(id), rewardTokens))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating market rows: %w", err)
	}

	log.Info().Int("count", len(markets)).Msg("Loaded registered markets")
	return markets, nil
}
