package database

import (
	"fmt"

	sqlmysql "github.com/go-sql-driver/mysql"
	"github.com/pawlink/core/internal/config"
	"github.com/pawlink/core/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a MySQL connection and optionally runs auto-migration.
func Connect(cfg *config.AppConfig, autoMigrate bool) (*gorm.DB, error) {
	// Surface DSN typos as a config error instead of a cryptic dial failure.
	if _, err := sqlmysql.ParseDSN(cfg.DSN); err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}

	logLevel := logger.Warn
	if cfg.IsDev() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               cfg.DSN,
		DefaultStringSize: 191,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if autoMigrate {
		if err := migrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}
	return db, nil
}

// migrate runs GORM auto-migration for all models.
func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.UserModel{},
		&models.ConversationModel{},
		&models.ConversationMemberModel{},
		&models.MessageModel{},
		&models.ReviewModel{},
	)
}
