package events

import (
	"fmt"
	"log/slog"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"ctarchive/internal/metrics"
)

// CollectPageView appends one normalized page view to the store. Writes are
// funneled through the sqlite manager's single-writer discipline; readers are
// never blocked thanks to WAL.
func CollectPageView(dbManager cartridge.DBManager, logger *slog.Logger, pv *PageView) error {
	db := dbManager.GetConnection()

	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(pv).Error
	})
	if err != nil {
		logger.Error("Failed to store page view", slog.Any("error", err))
		return fmt.Errorf("failed to store page view: %w", err)
	}

	metrics.PageViewsCollected.Inc()
	return nil
}
