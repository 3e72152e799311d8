package jobs

import (
	"log/slog"

	"ctarchive/internal/database"
)

// MaintenanceJob keeps the append-heavy store healthy: it truncates the WAL
// so reads don't pay for an ever-growing log, and refreshes the planner
// statistics the period queries rely on.
type MaintenanceJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
}

func NewMaintenanceJob(dbManager *database.DBManager, logger *slog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		dbManager: dbManager,
		logger:    logger,
	}
}

// Run performs one maintenance pass.
func (j *MaintenanceJob) Run() error {
	if err := j.dbManager.CheckpointWAL("TRUNCATE"); err != nil {
		j.logger.Error("Failed to checkpoint WAL", slog.Any("error", err))
		return err
	}

	db := j.dbManager.GetConnection()
	if err := db.Exec("ANALYZE").Error; err != nil {
		j.logger.Error("Failed to refresh planner statistics", slog.Any("error", err))
		return err
	}

	j.logger.Debug("Store maintenance pass completed")
	return nil
}
