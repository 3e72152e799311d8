package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/karloscodes/cartridge"

	"ctarchive/internal"
	"ctarchive/internal/config"
	"ctarchive/internal/events"
)

// ImportLogCommand bulk-imports a historical request log file.
type ImportLogCommand struct{}

func (c *ImportLogCommand) Name() string { return "import-log" }

func (c *ImportLogCommand) Description() string {
	return "Imports page views from a request log file"
}

func (c *ImportLogCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <logfile>", c.Name())
	}

	logFile := args[0]
	f, err := os.Open(logFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger := cartridge.NewLogger(config.GetConfig(), nil)

	log.Printf("Importing %s ...", logFile)
	result, err := events.ImportLog(app.DBManager, logger, f)
	if err != nil {
		return err
	}

	fmt.Printf("Done: %d imported, %d skipped (blank/unmatched lines)\n",
		result.Imported, result.Skipped)
	return nil
}
