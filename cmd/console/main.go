// Package main runs the terminal console.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/volumebot/console/internal/config"
	"github.com/volumebot/console/internal/di"
	"github.com/volumebot/console/internal/server"
	"github.com/volumebot/console/internal/tui"
	"github.com/volumebot/console/pkg/logger"
)

func main() {
	withGateway := flag.Bool("gateway", false, "Also serve the local HTTP gateway on GO_PORT")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The screen belongs to bubbletea, so logs go to a file
	log, logFile, err := logger.NewFile(logger.Config{Level: cfg.LogLevel}, cfg.LogPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger.SetGlobalLogger(log)

	if err := run(cfg, *withGateway, log); err != nil {
		log.Error().Err(err).Msg("Console exited with error")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, withGateway bool, log zerolog.Logger) error {
	container, _, err := di.Wire(cfg, nil, log)
	if err != nil {
		return fmt.Errorf("failed to wire dependencies: %w", err)
	}
	defer container.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopConsole := container.Console.Bind(ctx)
	defer stopConsole()

	container.Gate.Start()
	container.Scheduler.Start()
	defer container.Scheduler.Stop()

	if withGateway {
		srv := server.New(server.Config{
			Log:       log,
			Config:    cfg,
			Container: container,
			Port:      cfg.Port,
			DevMode:   cfg.DevMode,
		})
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Gateway stopped")
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Gateway forced to shutdown")
			}
		}()
	}

	m := tui.New(tui.Options{
		Console:   container.Console,
		Gate:      container.Gate,
		Signer:    container.APIClient,
		ExportDir: cfg.ExportDir(),
		Log:       log,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	log.Info().Msg("Console closed")
	return nil
}
