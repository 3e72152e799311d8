package main

import (
	"context"
	"fmt"

	"ctarchive/internal"
	"ctarchive/internal/events"
	"ctarchive/internal/stats"
)

// MigrateCommand runs the database migrations and exits.
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	return app.DBManager.MigrateDatabase()
}

// StatusCommand prints what the store currently holds.
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Prints store row count and date range" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	db := app.DBManager.GetConnection()

	var total int64
	if err := db.Model(&events.PageView{}).Count(&total).Error; err != nil {
		return fmt.Errorf("failed to count page views: %w", err)
	}

	dateRange, err := stats.GlobalDateRange(db)
	if err != nil {
		return err
	}

	fmt.Printf("page views: %d\n", total)
	if dateRange.FirstDate != "" {
		fmt.Printf("date range: %s .. %s\n", dateRange.FirstDate, dateRange.LastDate)
	} else {
		fmt.Println("date range: (empty store)")
	}
	return nil
}
