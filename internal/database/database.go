package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/reportassist/internal/logging"
	"github.com/reportassist/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Initialize opens the sqlite database and migrates the schema.
func Initialize(dbPath string) error {
	var initErr error
	once.Do(func() {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			initErr = fmt.Errorf("failed to create database directory: %w", err)
			return
		}

		var err error
		db, err = Open(dbPath)
		if err != nil {
			initErr = err
			return
		}

		logging.Component("database").Infof("Database initialized at %s", dbPath)
	})

	return initErr
}

// Open opens a sqlite database at path and migrates the schema. Used
// directly by tests; the server goes through Initialize.
func Open(path string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := gdb.AutoMigrate(
		&models.Frequency{},
		&models.Template{},
		&models.ScheduledTask{},
		&models.TaskLog{},
		&models.Report{},
		&models.IntermediateData{},
		&models.EmailConfiguration{},
		&models.EmailSendRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return gdb, nil
}

// GetDB returns the database instance.
func GetDB() *gorm.DB {
	if db == nil {
		panic("Database not initialized. Call Initialize() first")
	}
	return db
}

// Close closes the database connection.
func Close() error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}

	return sqlDB.Close()
}
