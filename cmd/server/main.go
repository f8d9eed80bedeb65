package main

import (
	"context"
	"os/signal"
	"syscall"

	"aura-finance/internal/adapters/cli"
	"aura-finance/internal/config"
	"aura-finance/internal/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatal().Err(err).Msg("logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.RunServer(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}
