package service

import (
	"context"
	"errors"
	"strings"

	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/logger"
	"alcyxob/ai-reports/internal/repository"

	"github.com/google/uuid"
)

// Action texts written by the other services.
const (
	actionUploaded      = "Uploaded "
	actionViewed        = "Viewed "
	actionDownloaded    = "Downloaded "
	actionDeletedFile   = "Deleted file: "
	actionUpdatedFile   = "Updated a file"
	actionCreatedReport = "Created new report"
	actionUpdatedReport = "Updated report"
	actionDeletedReport = "Deleted report"
)

type HistoryService interface {
	// Record appends an entry and never fails the caller; errors are logged.
	Record(ctx context.Context, userID uuid.UUID, reportID *uuid.UUID, action string)
	List(ctx context.Context, userID uuid.UUID) ([]domain.History, error)
	Create(ctx context.Context, userID uuid.UUID, reportID *uuid.UUID, action string) (*domain.History, error)
	Update(ctx context.Context, userID, id uuid.UUID, action string) (*domain.History, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type historyService struct {
	historyRepo repository.HistoryRepository
	reportRepo  repository.ReportRepository
	log         *logger.Logger
}

func NewHistoryService(historyRepo repository.HistoryRepository, reportRepo repository.ReportRepository, log *logger.Logger) HistoryService {
	return &historyService{historyRepo: historyRepo, reportRepo: reportRepo, log: log}
}

func (s *historyService) Record(ctx context.Context, userID uuid.UUID, reportID *uuid.UUID, action string) {
	entry := &domain.History{UserID: userID, ReportID: reportID, Action: action}
	if err := s.historyRepo.Create(ctx, entry); err != nil {
		s.log.Warn("history record failed", "user_id", userID, "action", action, "error", err)
	}
}

func (s *historyService) List(ctx context.Context, userID uuid.UUID) ([]domain.History, error) {
	return s.historyRepo.ListByOwner(ctx, userID)
}

func (s *historyService) Create(ctx context.Context, userID uuid.UUID, reportID *uuid.UUID, action string) (*domain.History, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, validationError("Action is required")
	}
	if reportID != nil {
		if _, err := s.reportRepo.GetByID(ctx, userID, *reportID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFound("Report not found", err)
			}
			return nil, err
		}
	}

	entry := &domain.History{UserID: userID, ReportID: reportID, Action: action}
	if err := s.historyRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *historyService) Update(ctx context.Context, userID, id uuid.UUID, action string) (*domain.History, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, validationError("Action is required")
	}
	if _, err := s.get(ctx, userID, id); err != nil {
		return nil, err
	}
	entry, err := s.historyRepo.UpdateAction(ctx, id, action)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("History entry not found", err)
		}
		return nil, err
	}
	return entry, nil
}

func (s *historyService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.historyRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("History entry not found", err)
		}
		return err
	}
	return nil
}

// get enforces ownership before any id-only repository call.
func (s *historyService) get(ctx context.Context, userID, id uuid.UUID) (*domain.History, error) {
	entry, err := s.historyRepo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("History entry not found", err)
		}
		return nil, err
	}
	return entry, nil
}
