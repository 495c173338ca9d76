//go:build integration

package gormdb_test

import (
	"context"
	"testing"

	"alcyxob/ai-reports/internal/config"
	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/logger"
	"alcyxob/ai-reports/internal/repository"
	"alcyxob/ai-reports/internal/repository/gormdb"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestPostgresBackend(t *testing.T) {
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("reports"),
		postgres.WithUsername("reports"),
		postgres.WithPassword("reports"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gormdb.Open(config.DatabaseConfig{Driver: "postgres", DSN: dsn}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = gormdb.Close(db) })
	require.NoError(t, gormdb.Migrate(db))
	repos := gormdb.NewRepositories(db)

	owner := &domain.User{FullName: "Ada", Email: "ada@example.com", PasswordHash: "h"}
	require.NoError(t, repos.Users.Create(ctx, owner))
	assert.ErrorIs(t, repos.Users.Create(ctx, &domain.User{FullName: "B", Email: "ada@example.com", PasswordHash: "h"}),
		repository.ErrDuplicate)

	up := &domain.Upload{UserID: owner.ID, FileName: "a.csv", ContentType: "text/csv", Payload: []byte{0x50, 0x4b, 0, 1}, Size: 4}
	require.NoError(t, repos.Uploads.Create(ctx, up))
	rep := &domain.Report{UserID: owner.ID, UploadID: &up.ID, Title: "t", Prompt: "p", Summary: "s"}
	require.NoError(t, repos.Reports.Create(ctx, rep))

	got, err := repos.Uploads.GetByID(ctx, owner.ID, up.ID)
	require.NoError(t, err)
	assert.Equal(t, up.Payload, got.Payload)

	require.NoError(t, repos.Uploads.SoftDelete(ctx, up.ID))
	assert.ErrorIs(t, repos.Uploads.SoftDelete(ctx, up.ID), repository.ErrNotFound)
	_, err = repos.Uploads.GetByID(ctx, owner.ID, up.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, db.Exec("DELETE FROM user_uploads WHERE id = ?", up.ID).Error)
	gotRep, err := repos.Reports.GetByID(ctx, owner.ID, rep.ID)
	require.NoError(t, err)
	assert.Nil(t, gotRep.UploadID)

	_, err = repos.Reports.GetByID(ctx, uuid.New(), rep.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
