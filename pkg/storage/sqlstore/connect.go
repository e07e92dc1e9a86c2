package sqlstore

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"moul.io/zapgorm2"

	"droscher.com/BeanJournal/configs"
	"droscher.com/BeanJournal/pkg/model"
)

const (
	maxIdleTime = 5 * time.Minute
	maxLifetime = time.Hour
)

func Open(conf *configs.Config, logger *zap.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		conf.DB.Host, conf.DB.User, conf.DB.Password, conf.DB.Database, conf.DB.Port)

	gormLogger := zapgorm2.New(logger)
	gormLogger.SetAsDefault()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(conf.DB.MaxIdleConnections)
	sqlDB.SetMaxOpenConns(conf.DB.MaxOpenConnections)
	sqlDB.SetConnMaxIdleTime(maxIdleTime)
	sqlDB.SetConnMaxLifetime(maxLifetime)

	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

// AutoMigrate creates or alters every journal table. All lookup kinds share
// the Lookup struct, each in its own table.
func AutoMigrate(db *gorm.DB) error {
	if err := db.Table(model.ProductsTable).AutoMigrate(&model.Product{}); err != nil {
		return err
	}

	if err := db.Table(model.BatchesTable).AutoMigrate(&model.Batch{}); err != nil {
		return err
	}

	if err := db.Table(model.BrewSessionsTable).AutoMigrate(&model.BrewSession{}); err != nil {
		return err
	}

	for _, kind := range model.LookupKinds {
		if err := db.Table(kind.TableName()).AutoMigrate(&model.Lookup{}); err != nil {
			return fmt.Errorf("migrating %s: %w", kind, err)
		}
	}

	return nil
}
