package main

import (
	"context"
	"flag"
	"os"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/pendle-vault/pvm/internal/config"
	"github.com/pendle-vault/pvm/internal/logger"
	"github.com/pendle-vault/pvm/internal/pendle"
)

// Operator utility: lock custody PENDLE into the vePENDLE voting escrow.
// Run with:
//
//	go run ./scripts/lock_escrow -amount <base units> [-expiry <unix seconds>]
//
// A zero expiry keeps the current lock end.
func main() {
	amountRaw := flag.String("amount", "", "PENDLE amount to lock, in base units")
	expiry := flag.Uint64("expiry", 0, "new lock expiry as unix seconds, 0 keeps the current one")
	flag.Parse()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Initialize(logLevel)

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	amount, ok := sdkmath.NewIntFromString(*amountRaw)
	if !ok || !amount.IsPositive() {
		log.Fatal().Str("amount", *amountRaw).Msg("-amount must be a positive integer in base units")
	}

	client, err := pendle.NewClient(pendle.ClientConfig{
		RPCURL:          config.NodeRPC,
		SignerKeyHex:    config.SignerKey,
		ChainID:         config.ChainID,
		DefaultGasLimit: config.DefaultGasLimit,
		GasAdjustment:   config.GasAdjustment,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize chain client")
	}
	defer client.Close()

	escrow, err := pendle.NewEscrow(client, config.EscrowAddress)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to bind voting escrow")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := escrow.Lock(ctx, amount, *expiry); err != nil {
		log.Fatal().Err(err).Msg("Escrow lock failed")
	}
	log.Info().Str("amount", amount.String()).Uint64("expiry", *expiry).Msg("Escrow lock confirmed")
}
