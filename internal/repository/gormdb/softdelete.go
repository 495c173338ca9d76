package gormdb

import (
	"context"
	"time"

	"alcyxob/ai-reports/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// domainRow is a table row that converts into its domain entity.
type domainRow[T any] interface {
	toDomain() T
}

// softDeleteTable implements repository.SoftDeleteRepository for any table
// with id, user_id, created_at, is_deleted and deleted_at columns.
type softDeleteTable[T any, R domainRow[T]] struct {
	db *gorm.DB
	// columns left out of ListByOwner results
	listOmit []string
}

func (t softDeleteTable[T, R]) live(ctx context.Context) *gorm.DB {
	return t.db.WithContext(ctx).Model(new(R)).Where("is_deleted = ?", false)
}

func (t softDeleteTable[T, R]) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*T, error) {
	var row R
	err := t.live(ctx).Where("id = ? AND user_id = ?", id, ownerID).Take(&row).Error
	if err != nil {
		return nil, translateError(err)
	}
	out := row.toDomain()
	return &out, nil
}

func (t softDeleteTable[T, R]) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]T, error) {
	q := t.live(ctx).Where("user_id = ?", ownerID).Order("created_at DESC")
	if len(t.listOmit) > 0 {
		q = q.Omit(t.listOmit...)
	}
	var rows []R
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (t softDeleteTable[T, R]) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return softDelete[R](ctx, t.db, id)
}

// update applies fields to a live row and returns the stored result.
func (t softDeleteTable[T, R]) update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*T, error) {
	if err := updateLive[R](ctx, t.db, id, fields); err != nil {
		return nil, err
	}
	var row R
	if err := t.live(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translateError(err)
	}
	out := row.toDomain()
	return &out, nil
}

// softDelete flags a live row as deleted. A row that is missing or already
// deleted yields repository.ErrNotFound.
func softDelete[R any](ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	return updateLive[R](ctx, db, id, map[string]interface{}{
		"is_deleted": true,
		"deleted_at": time.Now().UTC(),
	})
}

func updateLive[R any](ctx context.Context, db *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	res := db.WithContext(ctx).Model(new(R)).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(fields)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
