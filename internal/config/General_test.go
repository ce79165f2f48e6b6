package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PVM_VAULT_NAME", "pvm-test")
	t.Setenv("PVM_OWNER_ADDRESS", "0x000000000000000000000000000000000000beef")
	t.Setenv("PVM_PRIMARY_TOKEN", "0x0000000000000000000000000000000000e41dee")
	t.Setenv("PVM_FEE_RATE_BPS", "250")
	t.Setenv("PVM_ESCROW_ADDRESS", "0x0000000000000000000000000000000000e5c404")
	t.Setenv("CHAIN_ID", "1")
	t.Setenv("SIGNER_PRIVATE_KEY", "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	t.Setenv("GAS_DEFAULT_LIMIT", "300000")
	t.Setenv("GAS_ADJUSTMENT", "1.3")
	t.Setenv("PVM_HARVEST_INTERVAL_MINUTES", "30")
	t.Setenv("NODE_RPC", "http://localhost:8545")
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	setRequiredEnv(t)
	require.NoError(t, LoadConfig())

	require.Equal(t, "pvm-test", VaultName)
	require.Equal(t, uint64(250), FeeRateBps)
	require.Equal(t, uint64(1), ChainID)
	require.Equal(t, 1.3, GasAdjustment)
	require.Equal(t, uint64(30), HarvestIntervalMinutes)
	require.Equal(t, "http://localhost:8545", NodeRPC)
}

func TestLoadConfigRejectsMalformedNumbers(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PVM_FEE_RATE_BPS", "not-a-number")
	require.Error(t, LoadConfig())

	setRequiredEnv(t)
	t.Setenv("GAS_ADJUSTMENT", "fast")
	require.Error(t, LoadConfig())
}

func TestLoadConfigRejectsOversizedFeeRate(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PVM_FEE_RATE_BPS", "10001")
	require.Error(t, LoadConfig())
}
