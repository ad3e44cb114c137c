package database

import (
	"fmt"
	"strings"

	"github.com/gdg-garage/msp-registration/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dsnParams make every transaction take the write lock at BEGIN and let writers wait
// for each other instead of failing with "database is locked".
const dsnParams = "_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL"

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + dsnParams
	}
	return path + "?" + dsnParams
}

// Open connects to the sqlite file backing the local store and migrates its tables.
// All access goes through a single connection.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.StoreEntry{}, &models.SyncRun{}); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	return db, nil
}
