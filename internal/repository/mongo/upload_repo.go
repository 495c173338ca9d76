package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongoUploadRepository implements repository.UploadRepository
type mongoUploadRepository struct {
	softDeleteCollection[domain.Upload]
}

// NewMongoUploadRepository creates a new Upload repository backed by MongoDB.
func NewMongoUploadRepository(db *mongo.Database) repository.UploadRepository {
	return &mongoUploadRepository{
		softDeleteCollection: softDeleteCollection[domain.Upload]{
			collection:     db.Collection(uploadCollectionName),
			listProjection: bson.M{"payload": 0},
		},
	}
}

func (r *mongoUploadRepository) Create(ctx context.Context, upload *domain.Upload) error {
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
	return r.insert(ctx, upload)
}

func (r *mongoUploadRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, patch domain.UploadPatch) (*domain.Upload, error) {
	set := bson.M{}
	if patch.FileName != nil {
		set["fileName"] = *patch.FileName
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if len(set) == 0 {
		return nil, repository.ErrUpdateFailed
	}
	return r.update(ctx, id, set)
}
