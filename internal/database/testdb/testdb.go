// Package testdb opens throwaway SQLite databases for repository and service tests.
package testdb

import (
	"path/filepath"
	"testing"

	"melodist/config"
	"melodist/internal/database"
	"melodist/internal/logging"

	"gorm.io/gorm"
)

// Open creates a migrated database in the test's temp dir.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.NewDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "melodist.db") + "?_pragma=busy_timeout(5000)",
		MaxOpenConns: 1,
	}, logging.Discard())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
