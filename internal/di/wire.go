// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/volumebot/console/internal/config"
)

// Wire initializes all dependencies and returns a fully configured container
// This is the main entry point for dependency injection
// Order of operations:
// 1. Initialize databases
// 2. Initialize repositories
// 3. Initialize services
// 4. Register jobs
// A nil clock means wall time.
func Wire(cfg *config.Config, clk clock.Clock, log zerolog.Logger) (*Container, *JobInstances, error) {
	if clk == nil {
		clk = clock.New()
	}

	// Step 1: Initialize databases
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	// Step 2: Initialize repositories
	if err := InitializeRepositories(container, clk, log); err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	// Step 3: Initialize services
	if err := InitializeServices(container, cfg, clk, log); err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Step 4: Register jobs
	jobs, err := RegisterJobs(container, cfg, log)
	if err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, jobs, nil
}

// Close unmounts every page and closes the databases. The scheduler must be
// stopped by whoever started it.
func (c *Container) Close() {
	if c.Console != nil {
		c.Console.UnmountAll()
	}
	if c.SnapshotsDB != nil {
		c.SnapshotsDB.Close()
	}
	if c.SessionDB != nil {
		c.SessionDB.Close()
	}
}
