package di

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/volumebot/console/internal/clientdata"
	"github.com/volumebot/console/internal/config"
	"github.com/volumebot/console/internal/scheduler"
)

// Maintenance schedules that are not configurable
const (
	walCheckpointSchedule = "0 */30 * * * *"
	databaseCheckSchedule = "0 0 4 * * *"
)

// RegisterJobs registers the maintenance jobs with the scheduler.
// The scheduler is created but not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	container.Scheduler = scheduler.New(log)
	instances := &JobInstances{}

	// Job 1: Expired snapshot cleanup
	instances.SnapshotCleanup = clientdata.NewCleanupJob(container.SnapshotRepo, log)
	if err := container.Scheduler.AddJob(cfg.CleanupSchedule, instances.SnapshotCleanup); err != nil {
		return nil, fmt.Errorf("failed to register snapshot cleanup job: %w", err)
	}

	// Job 2: WAL growth report
	instances.WALCheckpoints = scheduler.NewCheckWALCheckpointsJob(container.SnapshotsDB, container.SessionDB)
	instances.WALCheckpoints.SetLogger(log.With().Str("job", "check_wal_checkpoints").Logger())
	if err := container.Scheduler.AddJob(walCheckpointSchedule, instances.WALCheckpoints); err != nil {
		return nil, fmt.Errorf("failed to register WAL checkpoint job: %w", err)
	}

	// Job 3: Integrity check
	instances.DatabaseCheck = scheduler.NewCheckDatabasesJob(container.SnapshotsDB, container.SessionDB)
	instances.DatabaseCheck.SetLogger(log.With().Str("job", "check_databases").Logger())
	if err := container.Scheduler.AddJob(databaseCheckSchedule, instances.DatabaseCheck); err != nil {
		return nil, fmt.Errorf("failed to register database check job: %w", err)
	}

	log.Info().Int("jobs", len(container.Scheduler.Jobs())).Msg("Jobs registered")
	return instances, nil
}
