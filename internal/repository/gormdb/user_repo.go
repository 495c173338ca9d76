package gormdb

import (
	"context"
	"errors"
	"time"

	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&userRow{}).Where("is_deleted = ?", false)
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.Email == "" || user.PasswordHash == "" {
		return errors.New("user email and password hash are required")
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	row := userRow{
		ID:           user.ID,
		FullName:     user.FullName,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return translateError(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var row userRow
	if err := r.live(ctx).Where("email = ?", email).Take(&row).Error; err != nil {
		return nil, translateError(err)
	}
	u := row.toDomain()
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var row userRow
	if err := r.live(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translateError(err)
	}
	u := row.toDomain()
	return &u, nil
}

func (r *userRepository) Update(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (*domain.User, error) {
	fields := map[string]interface{}{}
	if patch.FullName != nil {
		fields["full_name"] = *patch.FullName
	}
	if patch.Email != nil {
		fields["email"] = *patch.Email
	}
	if patch.PasswordHash != nil {
		fields["password_hash"] = *patch.PasswordHash
	}
	if len(fields) > 0 {
		if err := updateLive[userRow](ctx, r.db, id, fields); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *userRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return softDelete[userRow](ctx, r.db, id)
}
