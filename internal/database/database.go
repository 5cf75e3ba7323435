package database

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrUnsupportedDriver = errors.New("unsupported SQL storage driver")

// Open connects to the SQL database selected by cfg.StorageDriver.
func Open(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.StorageDriver {
	case "postgres":
		return OpenDialector(postgres.Open(cfg.DSN()))
	case "sqlite":
		return OpenDialector(sqlite.Open(cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.StorageDriver)
	}
}

// OpenDialector opens any GORM dialector with the shared settings. Errors
// are translated so unique violations become gorm.ErrDuplicatedKey.
func OpenDialector(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected", "dialect", dialector.Name())
	return db, nil
}

// Migrate runs AutoMigrate for every persisted model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Application{},
		&models.Session{},
		&models.SystemLog{},
	)
}
