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

type mongoReportRepository struct {
	softDeleteCollection[domain.Report]
}

func NewMongoReportRepository(db *mongo.Database) repository.ReportRepository {
	return &mongoReportRepository{
		softDeleteCollection: softDeleteCollection[domain.Report]{collection: db.Collection(reportCollectionName)},
	}
}

func (r *mongoReportRepository) Create(ctx context.Context, report *domain.Report) error {
	if report.UserID == uuid.Nil || report.Title == "" {
		return errors.New("report requires a user id and a title")
	}
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now
	return r.insert(ctx, report)
}

func (r *mongoReportRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, patch domain.ReportPatch) (*domain.Report, error) {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Prompt != nil {
		set["prompt"] = *patch.Prompt
	}
	if len(set) == 0 {
		return nil, repository.ErrUpdateFailed
	}
	set["updatedAt"] = time.Now().UTC()
	return r.update(ctx, id, set)
}

func (r *mongoReportRepository) SetPDF(ctx context.Context, id uuid.UUID, pdfKey string) error {
	_, err := r.update(ctx, id, bson.M{"pdfKey": pdfKey, "updatedAt": time.Now().UTC()})
	return err
}
