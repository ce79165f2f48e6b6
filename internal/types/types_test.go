package types

import (
	"encoding/json"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestNewMarketZeroesAccrualState(t *testing.T) {
	m := NewMarket("0xmarket", []TokenID{"0xa", "0xb"})

	require.True(t, m.TotalDeposited.IsZero())
	require.Len(t, m.AccRewardPerShare, 2)
	require.Len(t, m.UnallocatedRewards, 2)
	require.True(t, m.AccRewardPerShare["0xa"].IsZero())
	require.True(t, m.UnallocatedRewards["0xb"].IsZero())
}

func TestMarketCloneIsDeep(t *testing.T) {
	m := NewMarket("0xmarket", []TokenID{"0xa"})
	m.TotalDeposited = sdkmath.NewInt(100)
	m.AccRewardPerShare["0xa"] = sdkmath.NewInt(7)

	c := m.Clone()
	c.TotalDeposited = sdkmath.NewInt(999)
	c.AccRewardPerShare["0xa"] = sdkmath.NewInt(999)
	c.RewardTokens[0] = "0xchanged"

	require.Equal(t, sdkmath.NewInt(100), m.TotalDeposited)
	require.Equal(t, sdkmath.NewInt(7), m.AccRewardPerShare["0xa"])
	require.Equal(t, TokenID("0xa"), m.RewardTokens[0])
}

func TestUserPositionCloneIsDeep(t *testing.T) {
	p := NewUserPosition([]TokenID{"0xa"})
	p.DepositedAmount = sdkmath.NewInt(50)
	p.RewardDebt["0xa"] = sdkmath.NewInt(5)

	c := p.Clone()
	c.RewardDebt["0xa"] = sdkmath.NewInt(999)

	require.Equal(t, sdkmath.NewInt(5), p.RewardDebt["0xa"])
}

// The snapshot store persists VaultSnapshot as JSONB, so the round trip has
// to preserve big amounts exactly.
func TestVaultSnapshotJSONRoundTrip(t *testing.T) {
	m := NewMarket("0xmarket", []TokenID{"0xa"})
	m.TotalDeposited, _ = sdkmath.NewIntFromString("123456789012345678901234567890")
	m.AccRewardPerShare["0xa"] = sdkmath.NewInt(42)

	pos := NewUserPosition([]TokenID{"0xa"})
	pos.DepositedAmount = sdkmath.NewInt(100)
	pos.RewardDebt["0xa"] = sdkmath.NewInt(4)

	snap := VaultSnapshot{
		TakenAt:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		CycleNumber:    7,
		Markets:        []MarketSnapshot{{Market: m, Positions: map[string]*UserPosition{"0xalice": pos}}},
		AccumulatedFee: sdkmath.NewInt(250),
	}

	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	var back VaultSnapshot
	require.NoError(t, json.Unmarshal(raw, &back))

	require.Equal(t, snap.CycleNumber, back.CycleNumber)
	require.Equal(t, snap.AccumulatedFee, back.AccumulatedFee)
	require.Len(t, back.Markets, 1)
	require.Equal(t, m.TotalDeposited, back.Markets[0].Market.TotalDeposited)
	require.Equal(t, sdkmath.NewInt(42), back.Markets[0].Market.AccRewardPerShare["0xa"])

	restored := back.Markets[0].Positions["0xalice"]
	require.NotNil(t, restored)
	require.Equal(t, sdkmath.NewInt(100), restored.DepositedAmount)
	require.Equal(t, sdkmath.NewInt(4), restored.RewardDebt["0xa"])
}
