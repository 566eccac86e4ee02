/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the gateway and the terminal UI.
 */
package di

import (
	"github.com/volumebot/console/internal/clientdata"
	"github.com/volumebot/console/internal/clients/volumebot"
	"github.com/volumebot/console/internal/dashboard"
	"github.com/volumebot/console/internal/database"
	"github.com/volumebot/console/internal/events"
	"github.com/volumebot/console/internal/scheduler"
	"github.com/volumebot/console/internal/session"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Databases: snapshots (cache profile) and session (standard profile)
 * - Repositories: snapshot cache and persisted credential
 * - Client: the remote Volume Bot API
 * - Services: event bus, auth gate and the dashboard pages
 * - Scheduler: maintenance jobs (snapshot cleanup, database checks)
 */
type Container struct {
	// Databases
	SnapshotsDB *database.DB // Cached API responses (cache profile)
	SessionDB   *database.DB // Persisted credential (standard profile)

	// Repositories
	SnapshotRepo *clientdata.Repository // Snapshot persistence
	SessionRepo  *session.Repository    // Credential persistence

	// Clients
	APIClient *volumebot.Client // Remote Volume Bot API

	// Services
	EventBus     *events.Bus        // In-process event bus
	EventManager *events.Manager    // Typed event publishing
	Gate         *session.Gate      // Auth state machine
	Console      *dashboard.Console // Page controllers

	// Scheduler
	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered maintenance jobs for manual triggering
type JobInstances struct {
	SnapshotCleanup *clientdata.CleanupJob
	WALCheckpoints  *scheduler.CheckWALCheckpointsJob
	DatabaseCheck   *scheduler.CheckDatabasesJob
}
