package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"alcyxob/ai-reports/internal/archive"
	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/logger"
	"alcyxob/ai-reports/internal/preview"
	"alcyxob/ai-reports/internal/repository"

	"github.com/google/uuid"
)

// UploadDetail is an upload with the preview of its decompressed content.
type UploadDetail struct {
	Upload    *domain.Upload
	EntryName string
	Preview   domain.Preview
}

// Attachment is a file ready to be sent to the client.
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

type UploadService interface {
	List(ctx context.Context, userID uuid.UUID) ([]domain.Upload, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*UploadDetail, error)
	// Download returns the stored archive unchanged.
	Download(ctx context.Context, userID, id uuid.UUID) (*Attachment, error)
	Update(ctx context.Context, userID, id uuid.UUID, patch domain.UploadPatch) (*domain.Upload, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type uploadService struct {
	uploadRepo repository.UploadRepository
	history    HistoryService
	codec      archive.Codec
	extractor  preview.Extractor
	log        *logger.Logger
}

func NewUploadService(uploadRepo repository.UploadRepository, history HistoryService, extractor preview.Extractor, log *logger.Logger) UploadService {
	return &uploadService{
		uploadRepo: uploadRepo,
		history:    history,
		extractor:  extractor,
		log:        log,
	}
}

func (s *uploadService) List(ctx context.Context, userID uuid.UUID) ([]domain.Upload, error) {
	return s.uploadRepo.ListByOwner(ctx, userID)
}

func (s *uploadService) Get(ctx context.Context, userID, id uuid.UUID) (*UploadDetail, error) {
	upload, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	name, data, err := s.codec.Decompress(upload.Payload)
	if err != nil {
		return nil, storageError("Stored file is unreadable", err)
	}
	p, err := s.extractor.Extract(data, upload.ContentType)
	if err != nil {
		return nil, err
	}

	s.history.Record(ctx, userID, nil, actionViewed+upload.FileName)
	upload.Payload = nil
	return &UploadDetail{Upload: upload, EntryName: name, Preview: p}, nil
}

func (s *uploadService) Download(ctx context.Context, userID, id uuid.UUID) (*Attachment, error) {
	upload, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.history.Record(ctx, userID, nil, actionDownloaded+upload.FileName)
	return archiveAttachment(upload), nil
}

func (s *uploadService) Update(ctx context.Context, userID, id uuid.UUID, patch domain.UploadPatch) (*domain.Upload, error) {
	if patch.FileName != nil {
		name := strings.TrimSpace(*patch.FileName)
		if name == "" {
			return nil, validationError("File name cannot be empty")
		}
		patch.FileName = &name
	}
	if patch.Empty() {
		return nil, validationError("Nothing to update")
	}
	if _, err := s.get(ctx, userID, id); err != nil {
		return nil, err
	}

	upload, err := s.uploadRepo.UpdateMetadata(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("File not found", err)
		}
		return nil, err
	}
	s.history.Record(ctx, userID, nil, actionUpdatedFile)
	upload.Payload = nil
	return upload, nil
}

func (s *uploadService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	upload, err := s.get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.uploadRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("File not found or already deleted", err)
		}
		return err
	}
	s.history.Record(ctx, userID, nil, actionDeletedFile+upload.FileName)
	return nil
}

func (s *uploadService) get(ctx context.Context, userID, id uuid.UUID) (*domain.Upload, error) {
	upload, err := s.uploadRepo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("File not found", err)
		}
		return nil, err
	}
	return upload, nil
}

// archiveAttachment names the archive after the upload without its extension.
func archiveAttachment(upload *domain.Upload) *Attachment {
	base := strings.TrimSuffix(upload.FileName, filepath.Ext(upload.FileName))
	if base == "" {
		base = upload.ID.String()
	}
	contentType := upload.ArchiveType
	if contentType == "" {
		contentType = domain.ArchiveContentType
	}
	return &Attachment{
		FileName:    base + ".zip",
		ContentType: contentType,
		Data:        upload.Payload,
	}
}
