package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"alcyxob/ai-reports/internal/archive"
	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/logger"
	"alcyxob/ai-reports/internal/pdfreport"
	"alcyxob/ai-reports/internal/preview"
	"alcyxob/ai-reports/internal/repository"
	"alcyxob/ai-reports/internal/storage"

	"github.com/google/uuid"
)

const pdfContentType = "application/pdf"

// PDFRenderer lays out report documents.
type PDFRenderer interface {
	Render(doc pdfreport.Document) ([]byte, error)
}

// ReportPDF is a report document, read from object storage or rendered
// for this download.
type ReportPDF struct {
	FileName    string
	ContentType string
	Data        []byte
	stored      bool
}

// Stored reports whether the document was read from object storage.
func (p *ReportPDF) Stored() bool { return p.stored }

type ReportService interface {
	List(ctx context.Context, userID uuid.UUID) ([]domain.Report, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Report, error)
	Update(ctx context.Context, userID, id uuid.UUID, patch domain.ReportPatch) (*domain.Report, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// DownloadArchive returns the zip of the upload the report was built from.
	DownloadArchive(ctx context.Context, userID, id uuid.UUID) (*Attachment, error)
	PDF(ctx context.Context, userID, id uuid.UUID) (*ReportPDF, error)
}

type reportService struct {
	reportRepo repository.ReportRepository
	uploadRepo repository.UploadRepository
	history    HistoryService
	files      storage.FileStorage
	renderer   PDFRenderer
	codec      archive.Codec
	rows       preview.Extractor
	log        *logger.Logger
}

func NewReportService(
	reportRepo repository.ReportRepository,
	uploadRepo repository.UploadRepository,
	history HistoryService,
	files storage.FileStorage,
	renderer PDFRenderer,
	rows preview.Extractor,
	log *logger.Logger,
) ReportService {
	return &reportService{
		reportRepo: reportRepo,
		uploadRepo: uploadRepo,
		history:    history,
		files:      files,
		renderer:   renderer,
		rows:       rows,
		log:        log,
	}
}

func (s *reportService) List(ctx context.Context, userID uuid.UUID) ([]domain.Report, error) {
	return s.reportRepo.ListByOwner(ctx, userID)
}

func (s *reportService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Report, error) {
	report, err := s.reportRepo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Report not found", err)
		}
		return nil, err
	}
	return report, nil
}

func (s *reportService) Update(ctx context.Context, userID, id uuid.UUID, patch domain.ReportPatch) (*domain.Report, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, validationError("Title cannot be empty")
		}
		patch.Title = &title
	}
	if patch.Empty() {
		return nil, validationError("Nothing to update")
	}
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}

	report, err := s.reportRepo.UpdateMetadata(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("Report not found", err)
		}
		return nil, err
	}
	s.history.Record(ctx, userID, &report.ID, actionUpdatedReport)
	return report, nil
}

func (s *reportService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.reportRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Report not found", err)
		}
		return err
	}
	s.history.Record(ctx, userID, &id, actionDeletedReport)
	return nil
}

func (s *reportService) DownloadArchive(ctx context.Context, userID, id uuid.UUID) (*Attachment, error) {
	report, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if report.UploadID == nil {
		return nil, notFound("File not found", nil)
	}
	upload, err := s.uploadRepo.GetByID(ctx, userID, *report.UploadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("File not found", err)
		}
		return nil, err
	}
	return archiveAttachment(upload), nil
}

func (s *reportService) PDF(ctx context.Context, userID, id uuid.UUID) (*ReportPDF, error) {
	report, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	out := &ReportPDF{
		FileName:    fmt.Sprintf("report_%s.pdf", report.ID),
		ContentType: pdfContentType,
	}

	if report.HasPDF() {
		data, err := s.files.GetObject(ctx, report.PDFKey)
		if err == nil {
			out.Data = data
			out.stored = true
			return out, nil
		}
		if !errors.Is(err, storage.ErrObjectNotFound) {
			return nil, storageError("Could not read report document", err)
		}
		s.log.Warn("stored report pdf missing, rendering on demand", "report_id", report.ID, "pdf_key", report.PDFKey)
	}

	doc := s.document(ctx, userID, report)
	data, err := s.renderer.Render(doc)
	if err != nil {
		return nil, storageError("Could not render report document", err)
	}
	out.Data = data
	s.attach(ctx, report, data)
	return out, nil
}

// attach stores a document rendered on demand so later downloads read it.
// Failures only cost a re-render next time.
func (s *reportService) attach(ctx context.Context, report *domain.Report, data []byte) {
	key := pdfKey(report.UserID, report.ID)
	if err := s.files.PutObject(ctx, key, pdfContentType, data); err != nil {
		s.log.Warn("report pdf store failed", "report_id", report.ID, "error", err)
		return
	}
	if err := s.reportRepo.SetPDF(ctx, report.ID, key); err != nil {
		s.log.Warn("report pdf key not saved", "report_id", report.ID, "pdf_key", key, "error", err)
		if key == report.PDFKey {
			return
		}
		if derr := s.files.DeleteObject(ctx, key); derr != nil {
			s.log.Warn("orphan report pdf not removed", "pdf_key", key, "error", derr)
		}
		return
	}
	report.PDFKey = key
}

// document rebuilds what the pipeline rendered. A deleted or unreadable
// upload yields a document without rows.
func (s *reportService) document(ctx context.Context, userID uuid.UUID, report *domain.Report) pdfreport.Document {
	doc := pdfreport.Document{
		Title:       report.Title,
		Description: report.Prompt,
		Summary:     report.Summary,
		GeneratedAt: report.CreatedAt,
	}
	if report.UploadID == nil {
		return doc
	}
	upload, err := s.uploadRepo.GetByID(ctx, userID, *report.UploadID)
	if err != nil {
		return doc
	}
	_, data, err := s.codec.Decompress(upload.Payload)
	if err != nil {
		s.log.Warn("report upload unreadable", "report_id", report.ID, "error", err)
		return doc
	}
	if p, err := s.rows.Extract(data, upload.ContentType); err == nil && p.Tabular && !p.Empty() {
		doc.Rows = p.Rows
	}
	return doc
}
