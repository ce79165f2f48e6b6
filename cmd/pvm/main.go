package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/pendle-vault/pvm/internal/config"
	"github.com/pendle-vault/pvm/internal/engine"
	"github.com/pendle-vault/pvm/internal/logger"
	"github.com/pendle-vault/pvm/internal/pendle"
	"github.com/pendle-vault/pvm/internal/pvm"
	"github.com/pendle-vault/pvm/internal/state"
	"github.com/pendle-vault/pvm/internal/types"
	"github.com/pendle-vault/pvm/internal/web"
)

// main is the entry point for the PVM system.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Str("vault", config.VaultName).Msg("PVM Core Logic Starting...")

	// Initialize Database Connection
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// --- 2. Chain Client & Gateway ---
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

	gateway, err := pendle.NewGateway(client)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize chain gateway")
	}

	// --- 3. Reward Engine ---
	eng, err := engine.New(engine.Config{
		Gateway:      gateway,
		Recorder:     state.NewJournalRecorder(),
		VaultAddress: client.Address().Hex(),
		OwnerAddress: config.OwnerAddress,
		PrimaryToken: types.TokenID(config.PrimaryToken),
		FeeRateBps:   config.FeeRateBps,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create reward engine")
	}

	pvmInstance, err := pvm.New(pvm.Config{Engine: eng})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create PVM instance")
	}

	// Restore persisted state before serving anything.
	if err := pvmInstance.RestoreFromState(); err != nil {
		log.Fatal().Err(err).Msg("Failed to restore engine state")
	}

	// Register any markets listed in the environment that are not yet known.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	for _, raw := range strings.Split(os.Getenv("PVM_MARKETS"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if err := eng.RegisterMarket(ctx, types.MarketID(raw)); err != nil {
			log.Error().Err(err).Str("market", raw).Msg("Failed to register market")
		}
	}

	// --- 4. Web Dashboard ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}
	webServer := web.NewWebServer(webPort, eng)
	go func() {
		log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting PVM web dashboard")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 5. Harvest Loop ---
	interval := time.Duration(config.HarvestIntervalMinutes) * time.Minute
	log.Info().Str("interval", interval.String()).Msg("Starting PVM harvest loop")
	pvmInstance.RunLoop(ctx, interval)

	log.Info().Msg("PVM shut down cleanly")
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
