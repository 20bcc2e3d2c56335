// Package database opens the postgres handle used by the action log.
package database

import (
	"fmt"
	"time"

	"foodcourt-dashboard/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects and migrates. The dashboard only owns the action log table;
// orders, menus and kios live behind the REST backend.
func Open(dsn string, log *logrus.Entry) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}

	if err := db.AutoMigrate(&models.ActionLog{}); err != nil {
		return nil, fmt.Errorf("database: migrate: %w", err)
	}
	log.Info("database connected, migration done")
	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
