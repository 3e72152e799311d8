// Package testsupport provides the shared fixtures for package tests:
// an in-memory store, a test DB manager, and a minimal mounted app.
package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ctarchive/internal"
	"ctarchive/internal/config"
	"ctarchive/internal/events"
)

// testDBCache caches test databases by test name to allow multiple calls
// within the same test to share the same database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager with ctarchive's interface
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

// Ensure TestDBManager implements cartridge.DBManager
var _ cartridge.DBManager = (*TestDBManager)(nil)

// SetupTestDB creates a test database with the page-view schema migrated.
// Uses a named in-memory database with cache=shared so multiple connections
// within a test see the same data; cached by root test name.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	if err := db.AutoMigrate(&events.PageView{}); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager plus a quiet logger.
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	t.Helper()

	db := SetupTestDB(t)
	return NewTestDBManager(db), GetLogger()
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// GetTestConfig returns the singleton config forced into the test
// environment.
func GetTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.GetConfig()
	cfg.Environment = config.Test
	return cfg
}

// OverrideAPIKey configures the shared-secret gate for the duration of a
// test, restoring the previous value on cleanup. Call it before
// CreateMinimalTestApp; the route mount reads the key once.
func OverrideAPIKey(t *testing.T, key string) {
	t.Helper()

	cfg := config.GetConfig()
	prev := cfg.APIKey
	cfg.APIKey = key
	t.Cleanup(func() { cfg.APIKey = prev })
}

// CreatePageView inserts one page view directly into the store.
func CreatePageView(t *testing.T, db *gorm.DB, pv events.PageView) events.PageView {
	t.Helper()

	if pv.OccurredAt.IsZero() {
		pv.OccurredAt = time.Now().UTC()
	}
	if pv.Day == "" {
		pv.Day = pv.OccurredAt.UTC().Format(events.DayFormat)
	}
	if pv.RawURL == "" {
		pv.RawURL = "https://example.org/?subreddit=" + pv.Subreddit
	}
	require.NoError(t, db.Create(&pv).Error)
	return pv
}

// CreateVisit inserts a page view for visitorKey on the given day with the
// given subreddit; the remaining fields get plausible defaults.
func CreateVisit(t *testing.T, db *gorm.DB, visitorKey, day, subreddit string) events.PageView {
	t.Helper()

	occurredAt, err := time.Parse(events.DayFormat, day)
	require.NoError(t, err)

	return CreatePageView(t, db, events.PageView{
		OccurredAt: occurredAt.Add(12 * time.Hour),
		Day:        day,
		Subreddit:  subreddit,
		VisitorKey: visitorKey,
	})
}

// CreateMinimalTestApp creates a test Fiber app with all routes mounted.
func CreateMinimalTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	appConfig := GetTestConfig(t)
	dbManager := NewTestDBManager(db)

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = dbManager

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	internal.MountAppRoutes(srv)
	return srv.App()
}
