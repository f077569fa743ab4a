package database

import (
	"fmt"
	"log/slog"

	"github.com/gdg-garage/events-api/internal/config"
	"github.com/gdg-garage/events-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table managed by AutoMigrate.
var Models = []any{&models.User{}, &models.Event{}, &models.EventAttendee{}}

// Open connects to the configured driver and migrates the schema.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DatabasePath)
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if dialector.Name() == "sqlite" {
		// SQLite serializes writers; one connection avoids SQLITE_BUSY and
		// keeps :memory: databases on a single handle.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	slog.Info("database ready", "driver", dialector.Name())
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// OpenMemory returns a migrated in-memory SQLite database, used by tests.
func OpenMemory() (*gorm.DB, error) {
	return Open(&config.Config{DatabaseDriver: "sqlite", DatabasePath: ":memory:"})
}
