package di

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/volumebot/console/internal/config"
	"github.com/volumebot/console/internal/database"
)

// InitializeDatabases opens both databases and applies schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. snapshots.db - Cached API responses, safe to lose
	snapshotsDB, err := database.New(database.Config{
		Path:    cfg.SnapshotsPath(),
		Profile: database.ProfileCache,
		Name:    "snapshots",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshots database: %w", err)
	}
	container.SnapshotsDB = snapshotsDB

	// 2. session.db - The persisted credential
	sessionDB, err := database.New(database.Config{
		Path:    cfg.SessionPath(),
		Profile: database.ProfileStandard,
		Name:    "session",
	})
	if err != nil {
		snapshotsDB.Close()
		return nil, fmt.Errorf("failed to initialize session database: %w", err)
	}
	container.SessionDB = sessionDB

	for _, db := range []*database.DB{snapshotsDB, sessionDB} {
		if err := db.Migrate(); err != nil {
			snapshotsDB.Close()
			sessionDB.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", db.Name(), err)
		}
	}

	log.Info().
		Str("snapshots", snapshotsDB.Path()).
		Str("session", sessionDB.Path()).
		Msg("Databases initialized")

	return container, nil
}
