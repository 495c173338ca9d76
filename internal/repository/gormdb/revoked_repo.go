package gormdb

import (
	"context"
	"time"

	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type revokedCredentialRepository struct {
	db *gorm.DB
}

func NewRevokedCredentialRepository(db *gorm.DB) repository.RevokedCredentialRepository {
	return &revokedCredentialRepository{db: db}
}

func (r *revokedCredentialRepository) Revoke(ctx context.Context, cred *domain.RevokedCredential) error {
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}
	row := revokedCredentialRow{
		Token:     cred.Token,
		UserID:    cred.UserID,
		ExpiresAt: cred.ExpiresAt.UTC(),
		CreatedAt: cred.CreatedAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

func (r *revokedCredentialRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&revokedCredentialRow{}).Where("token = ?", token).Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *revokedCredentialRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now.UTC()).Delete(&revokedCredentialRow{})
	return res.RowsAffected, res.Error
}
