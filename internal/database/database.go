package database

import (
	"fmt"
	"time"

	"github.com/promptacademy/backend/internal/config"
	"github.com/promptacademy/backend/internal/models"
	"github.com/promptacademy/backend/internal/queue"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB initializes the database connection with configuration
func InitDB(dbConfig config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Driver errors become gorm sentinels (gorm.ErrDuplicatedKey), which
		// the idempotent grant paths depend on
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dbConfig.URL), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdle)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Users and referrals
		&models.User{},
		&models.ReferralTransaction{},
		&models.WithdrawalRequest{},

		// Catalog
		&models.Category{},
		&models.Prompt{},
		&models.Course{},
		&models.CourseLesson{},
		&models.PricingPlan{},

		// Purchases and payments
		&models.UserPrompt{},
		&models.UserCourse{},
		&models.Payment{},

		// Background jobs
		&queue.Job{},
	)
}
