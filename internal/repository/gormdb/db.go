// Package gormdb implements the repositories on a relational database
// (PostgreSQL in production, SQLite for development and tests) through gorm.
package gormdb

import (
	"errors"
	"fmt"
	"time"

	"alcyxob/ai-reports/internal/config"
	"alcyxob/ai-reports/internal/logger"
	"alcyxob/ai-reports/internal/repository"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects to the database named by cfg.Driver and cfg.DSN. gorm's own
// output goes to log.
func Open(cfg config.DatabaseConfig, log *logger.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("gormdb: unsupported driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(log),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("gormdb: connect %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		// SQLite pragmas and in-memory databases are per connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates all tables, including the ON DELETE SET NULL
// references from reports to uploads and from history to reports.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userRow{},
		&uploadRow{},
		&reportRow{},
		&historyRow{},
		&revokedCredentialRow{},
	)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewRepositories wires every gorm repository onto db.
func NewRepositories(db *gorm.DB) repository.Repositories {
	return repository.Repositories{
		Users:   NewUserRepository(db),
		Uploads: NewUploadRepository(db),
		Reports: NewReportRepository(db),
		History: NewHistoryRepository(db),
		Revoked: NewRevokedCredentialRepository(db),
	}
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repository.ErrDuplicate
	default:
		return err
	}
}
