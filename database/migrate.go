package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yummyfi/yummyfi-backend/models"
)

// AutoMigrate creates or updates every table the service uses.
func AutoMigrate(db *gorm.DB, log logrus.FieldLogger) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderChange{},
	)
	if err != nil {
		return fmt.Errorf("failed to AutoMigrate: %w", err)
	}
	log.Info("AutoMigrate completed.")
	return nil
}

// OpenMemory opens a private in-memory SQLite database under name and
// migrates it. Connections opened with the same name share the data.
func OpenMemory(name string, log logrus.FieldLogger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := AutoMigrate(db, log); err != nil {
		return nil, err
	}
	return db, nil
}
