package di

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/volumebot/console/internal/clients/volumebot"
	"github.com/volumebot/console/internal/config"
	"github.com/volumebot/console/internal/dashboard"
	"github.com/volumebot/console/internal/events"
	"github.com/volumebot/console/internal/session"
)

// InitializeServices creates the API client, the event bus, the auth gate and the pages
func InitializeServices(container *Container, cfg *config.Config, clk clock.Clock, log zerolog.Logger) error {
	if container == nil || container.SnapshotRepo == nil || container.SessionRepo == nil {
		return fmt.Errorf("repositories must be initialized first")
	}

	container.APIClient = volumebot.NewClient(cfg.APIURL, cfg.HTTPTimeout, log)

	container.EventBus = events.NewBus(log)
	container.EventManager = events.NewManager(container.EventBus, log)

	container.Gate = session.NewGate(
		container.SessionRepo,
		container.APIClient,
		container.SnapshotRepo,
		container.EventManager,
		session.Config{
			ClearCacheOnLogout:       cfg.ClearCacheOnLogout,
			ClearCacheOnUnauthorized: cfg.ClearCacheOnUnauthorized,
			Clock:                    clk,
		},
		log,
	)

	console, err := dashboard.NewConsole(container.APIClient, container.Gate, dashboard.Deps{
		Store:        container.SnapshotRepo,
		Emitter:      container.EventManager,
		Clock:        clk,
		Log:          log,
		Interval:     cfg.RefreshInterval,
		PageSize:     cfg.PageSize,
		MaxStaleness: cfg.MaxStaleness,
	})
	if err != nil {
		return fmt.Errorf("failed to create console: %w", err)
	}
	container.Console = console

	log.Info().
		Str("api_url", container.APIClient.BaseURL()).
		Dur("refresh_interval", cfg.RefreshInterval).
		Msg("Services initialized")

	return nil
}
