package di

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/volumebot/console/internal/clientdata"
	"github.com/volumebot/console/internal/session"
)

// InitializeRepositories creates the repositories on top of the databases
func InitializeRepositories(container *Container, clk clock.Clock, log zerolog.Logger) error {
	if container == nil || container.SnapshotsDB == nil || container.SessionDB == nil {
		return fmt.Errorf("databases must be initialized first")
	}

	container.SnapshotRepo = clientdata.NewRepository(container.SnapshotsDB.Conn(), clk)
	container.SessionRepo = session.NewRepository(container.SessionDB.Conn(), log)

	log.Debug().Msg("Repositories initialized")
	return nil
}
