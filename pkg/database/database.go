package database

import (
	"fmt"

	"agritrade/internal/model"
	"agritrade/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// InitDB initializes the database connection with configuration and runs migrations
func InitDB(config *config.Config) error {
	var err error

	// Create DSN string
	dsn := config.DB.GetDSN()

	// Configure Postgres options
	pgConfig := postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // Disables implicit prepared statement usage
	}

	// Open connection
	db, err = gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: logger.Default.LogMode(config.DB.LogLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get generic database object SQL
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	// Set connection pool settings from config
	sqlDB.SetMaxIdleConns(config.DB.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.DB.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.DB.ConnMaxLifetime)

	return Migrate(db)
}

// Migrate runs the schema migrations for all domain models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Company{},
		&model.Requirement{},
		&model.Supply{},
		&model.SupplyBasis{},
		&model.FuturesContract{},
		&model.Deal{},
		&model.Negotiation{},
		&model.Contract{},
		&model.ContractSignature{},
		&model.ContractMilestone{},
		&model.ContractChangeLog{},
		&model.CompanySeal{},
	); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return db
}
