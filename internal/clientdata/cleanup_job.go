package clientdata

import (
	"github.com/rs/zerolog"
)

// CleanupJob removes expired snapshots.
// It is scheduled by the gateway and the console (CLEANUP_SCHEDULE, hourly by default).
type CleanupJob struct {
	repo *Repository
	log  zerolog.Logger
}

// NewCleanupJob creates a new snapshot cleanup job.
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo: repo,
		log:  log.With().Str("job", "snapshot_cleanup").Logger(),
	}
}

// Run executes the cleanup job, removing all expired snapshots.
func (j *CleanupJob) Run() error {
	results, err := j.repo.DeleteExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired snapshots")
		return err
	}

	var totalDeleted int64
	for key, count := range results {
		if count > 0 {
			j.log.Info().
				Str("key", key).
				Int64("deleted", count).
				Msg("Cleaned up expired snapshot")
			totalDeleted += count
		}
	}

	if totalDeleted > 0 {
		j.log.Info().
			Int64("total_deleted", totalDeleted).
			Msg("Snapshot cleanup completed")
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "snapshot_cleanup"
}
