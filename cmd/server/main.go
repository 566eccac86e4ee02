// Package main runs the console headless: the pages refresh in the
// background and the local HTTP gateway serves them.
//
// Startup sequence:
//  1. Load configuration from the environment (.env)
//  2. Wire databases, repositories, the API client, the auth gate and the pages
//  3. Resolve the persisted session
//  4. Start the maintenance scheduler and the gateway
//  5. Wait for SIGINT/SIGTERM and shut down in reverse order
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/volumebot/console/internal/config"
	"github.com/volumebot/console/internal/di"
	"github.com/volumebot/console/internal/server"
	"github.com/volumebot/console/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting VolumeBot console gateway")

	container, _, err := di.Wire(cfg, nil, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pages follow the session from here on
	stopConsole := container.Console.Bind(ctx)
	defer stopConsole()

	state := container.Gate.Start()
	log.Info().Str("state", string(state)).Msg("Session resolved")

	unsubscribe := container.Gate.OnRedirect(func() {
		log.Warn().Msg("Session ended, log in again via POST /api/session/login")
	})
	defer unsubscribe()

	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	container.Scheduler.Stop()
	log.Info().Msg("Scheduler stopped")

	log.Info().Msg("Server stopped")
}
