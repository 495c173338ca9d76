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

type uploadRepository struct {
	softDeleteTable[domain.Upload, uploadRow]
}

// NewUploadRepository returns the upload store. Listing never reads the
// archive column.
func NewUploadRepository(db *gorm.DB) repository.UploadRepository {
	return &uploadRepository{
		softDeleteTable: softDeleteTable[domain.Upload, uploadRow]{db: db, listOmit: []string{"payload"}},
	}
}

func (r *uploadRepository) Create(ctx context.Context, upload *domain.Upload) error {
	if upload.UserID == uuid.Nil || len(upload.Payload) == 0 {
		return errors.New("upload requires a user id and a non-empty payload")
	}
	if upload.ID == uuid.Nil {
		upload.ID = uuid.New()
	}
	if upload.CreatedAt.IsZero() {
		upload.CreatedAt = time.Now().UTC()
	}
	if upload.ArchiveType == "" {
		upload.ArchiveType = domain.ArchiveContentType
	}
	row := uploadRowFrom(upload)
	return translateError(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *uploadRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, patch domain.UploadPatch) (*domain.Upload, error) {
	fields := map[string]interface{}{}
	if patch.FileName != nil {
		fields["file_name"] = *patch.FileName
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if len(fields) == 0 {
		return nil, repository.ErrUpdateFailed
	}
	return r.update(ctx, id, fields)
}
