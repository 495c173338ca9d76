// Package testutil provides throwaway stores and fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"alcyxob/ai-reports/internal/config"
	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/logger"
	"alcyxob/ai-reports/internal/repository"
	"alcyxob/ai-reports/internal/repository/gormdb"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// DB opens a private in-memory SQLite database with the schema migrated.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gormdb.Open(config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, logger.Nop())
	require.NoError(tb, err)
	require.NoError(tb, gormdb.Migrate(db))
	tb.Cleanup(func() { _ = gormdb.Close(db) })
	return db
}

// Repositories returns gorm repositories on a fresh database.
func Repositories(tb testing.TB) (repository.Repositories, *gorm.DB) {
	tb.Helper()
	db := DB(tb)
	return gormdb.NewRepositories(db), db
}

// User stores a user with a placeholder password hash.
func User(tb testing.TB, users repository.UserRepository, email string) *domain.User {
	tb.Helper()
	u := &domain.User{FullName: "Test " + email, Email: email, PasswordHash: "hash"}
	require.NoError(tb, users.Create(context.Background(), u))
	return u
}
