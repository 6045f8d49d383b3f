package database

import (
	"fmt"
	"time"

	"maternityCare/domain"
	"maternityCare/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func InitPostgres(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	logLevel := gormlogger.Warn
	if cfg.App.Environment == "development" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// Migrate creates the tables owned by this service. Tables written by other
// systems (interactions, chat, profiles, catalog) are migrated too so a fresh
// environment is usable, but their rows come from elsewhere.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.BehavioralEvent{},
		&domain.SignalSnapshot{},
		&domain.PreferenceWeight{},
		&domain.AlertRecord{},
		&domain.NotificationSettings{},
		&domain.InteractionRecord{},
		&domain.ContentTag{},
		&domain.ContentTagRelation{},
		&domain.ContentItem{},
		&domain.ChatTurn{},
		&domain.Profile{},
	)
}
