package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Ananth-NQI/communitybot/internal/config"
	"github.com/Ananth-NQI/communitybot/internal/logging"
	"github.com/Ananth-NQI/communitybot/internal/models"
)

// For Cloud Run with Cloud SQL
const socketDir = "/cloudsql"

// DSN builds the PostgreSQL connection string for cfg
func DSN(cfg *config.Config) string {
	if cfg.InstanceConnectionName != "" {
		// Production: Connect via Unix socket
		return fmt.Sprintf("host=%s/%s user=%s password=%s dbname=%s sslmode=disable",
			socketDir, cfg.InstanceConnectionName, cfg.DBUser, cfg.DBPass, cfg.DBName)
	}
	// Local development: Connect via TCP
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPass, cfg.DBName, cfg.DBPort)
}

// Connect opens the database and runs migrations
func Connect(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	if cfg.InstanceConnectionName != "" {
		logger.Info("connecting to Cloud SQL via socket", zap.String("instance", cfg.InstanceConnectionName))
	} else {
		logger.Info("connecting to PostgreSQL", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
	}

	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		Logger: logging.NewGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	logger.Info("database ready")
	return db, nil
}

// Migrate creates or updates the tables
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Member{},
		&models.Session{},
		&models.SessionMessage{},
		&models.QueryLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
