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

type historyRepository struct {
	softDeleteTable[domain.History, historyRow]
}

func NewHistoryRepository(db *gorm.DB) repository.HistoryRepository {
	return &historyRepository{
		softDeleteTable: softDeleteTable[domain.History, historyRow]{db: db},
	}
}

func (r *historyRepository) Create(ctx context.Context, entry *domain.History) error {
	if entry.UserID == uuid.Nil || entry.Action == "" {
		return errors.New("history entry requires a user id and an action")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	row := historyRow{
		ID:        entry.ID,
		UserID:    entry.UserID,
		ReportID:  entry.ReportID,
		Action:    entry.Action,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
	return translateError(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *historyRepository) UpdateAction(ctx context.Context, id uuid.UUID, action string) (*domain.History, error) {
	return r.update(ctx, id, map[string]interface{}{"action_title": action})
}
