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

type reportRepository struct {
	softDeleteTable[domain.Report, reportRow]
}

func NewReportRepository(db *gorm.DB) repository.ReportRepository {
	return &reportRepository{
		softDeleteTable: softDeleteTable[domain.Report, reportRow]{db: db},
	}
}

func (r *reportRepository) Create(ctx context.Context, report *domain.Report) error {
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

	row := reportRow{
		ID:        report.ID,
		UserID:    report.UserID,
		UploadID:  report.UploadID,
		Title:     report.Title,
		Prompt:    report.Prompt,
		Summary:   report.Summary,
		PDFKey:    report.PDFKey,
		CreatedAt: report.CreatedAt,
		UpdatedAt: report.UpdatedAt,
	}
	return translateError(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *reportRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, patch domain.ReportPatch) (*domain.Report, error) {
	fields := map[string]interface{}{}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Prompt != nil {
		fields["prompt"] = *patch.Prompt
	}
	if len(fields) == 0 {
		return nil, repository.ErrUpdateFailed
	}
	return r.update(ctx, id, fields)
}

func (r *reportRepository) SetPDF(ctx context.Context, id uuid.UUID, pdfKey string) error {
	return updateLive[reportRow](ctx, r.db, id, map[string]interface{}{"pdf_key": pdfKey})
}
