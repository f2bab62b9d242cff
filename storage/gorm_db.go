package storage

import (
	"fmt"
	"time"

	"buildtrack/config"
	"buildtrack/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitGormDB opens the Postgres connection and tunes the pool.
func InitGormDB(cfg config.DBConfig, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: NewGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("storage: underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	return db, nil
}

// NewGormLogger routes GORM's slow-query and error output through logrus.
func NewGormLogger(log *logrus.Logger) logger.Interface {
	return logger.New(log, logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Models lists every table in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Project{},
		&models.UserProject{},
		&models.ConstructionPhase{},
		&models.CubeTest{},
		&models.EngineerInspection{},
		&models.PhaseIssue{},
		&models.PhasePhoto{},
		&models.BOQItem{},
		&models.Payment{},
		&models.ActivityLog{},
	}
}

// AutoMigrate creates or updates every table.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("storage: migrate: %w", err)
	}
	return nil
}
