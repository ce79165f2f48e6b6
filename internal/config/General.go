package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// VaultName tags log output and persisted snapshots for this instance.
	VaultName string

	// OwnerAddress receives swept protocol fees.
	OwnerAddress string

	// PrimaryToken is the reward token the protocol fee is taken from (PENDLE).
	PrimaryToken string

	// FeeRateBps is the protocol fee on primary-token payouts, in basis
	// points. Fixed for the lifetime of the process.
	FeeRateBps uint64

	// EscrowAddress is the vePENDLE voting-escrow contract.
	EscrowAddress string

	// ChainID is the chain ID of the target network.
	ChainID uint64

	// SignerKey is the hex-encoded private key of the vault custody account.
	SignerKey string

	// DefaultGasLimit is the fallback gas limit if estimation fails.
	DefaultGasLimit uint64
	// GasAdjustment is the multiplier for estimated gas to ensure inclusion.
	GasAdjustment float64

	// HarvestIntervalMinutes is the period of the background harvest cycle.
	HarvestIntervalMinutes uint64
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// All environment variables are required and must be set.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	VaultName, err = getEnv("PVM_VAULT_NAME")
	if err != nil {
		return err
	}

	OwnerAddress, err = getEnv("PVM_OWNER_ADDRESS")
	if err != nil {
		return err
	}

	PrimaryToken, err = getEnv("PVM_PRIMARY_TOKEN")
	if err != nil {
		return err
	}

	FeeRateBps, err = getEnvAsUint64("PVM_FEE_RATE_BPS")
	if err != nil {
		return err
	}
	if FeeRateBps > 10000 {
		return errors.New("PVM_FEE_RATE_BPS must be at most 10000")
	}

	EscrowAddress, err = getEnv("PVM_ESCROW_ADDRESS")
	if err != nil {
		return err
	}

	ChainID, err = getEnvAsUint64("CHAIN_ID")
	if err != nil {
		return err
	}

	SignerKey, err = getEnv("SIGNER_PRIVATE_KEY")
	if err != nil {
		return err
	}

	DefaultGasLimit, err = getEnvAsUint64("GAS_DEFAULT_LIMIT")
	if err != nil {
		return err
	}

	GasAdjustment, err = getEnvAsFloat64("GAS_ADJUSTMENT")
	if err != nil {
		return err
	}

	HarvestIntervalMinutes, err = getEnvAsUint64("PVM_HARVEST_INTERVAL_MINUTES")
	if err != nil {
		return err
	}

	// Load endpoint configuration
	if err := loadEndpointConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("VaultName", VaultName).
		Uint64("ChainID", ChainID).
		Uint64("FeeRateBps", FeeRateBps).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsFloat64 retrieves an environment variable as a float64. Returns error if not set or invalid.
func getEnvAsFloat64(key string) (float64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid float64, got: " + valueStr)
	}
	return value, nil
}
