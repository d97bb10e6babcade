package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"catalog/internal/app"
	"catalog/internal/config"
	"catalog/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Environment, cfg.LogLevel)

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}

	if cfg.SeedProducts {
		a.SeedProducts(context.Background())
	}

	if err := a.ConsumeProductEvents(); err != nil {
		logger.Error().Err(err).Msg("failed to start product event consumer")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info().Str("addr", cfg.AppPort).Msg("starting server")
		if err := a.Fiber.Listen(cfg.AppPort); err != nil {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-quit
	logger.Info().Msg("shutting down server")

	if err := a.Close(); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
	logger.Info().Msg("server gracefully stopped")
}
