package gormdb

import (
	"time"

	"alcyxob/ai-reports/internal/domain"

	"github.com/google/uuid"
)

type userRow struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName     string    `gorm:"not null"`
	Email        string    `gorm:"not null;uniqueIndex"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	IsDeleted    bool `gorm:"not null;default:false"`
	DeletedAt    *time.Time
}

func (userRow) TableName() string { return "users" }

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:              r.ID,
		FullName:        r.FullName,
		Email:           r.Email,
		PasswordHash:    r.PasswordHash,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		SoftDeleteState: domain.SoftDeleteState{IsDeleted: r.IsDeleted, DeletedAt: r.DeletedAt},
	}
}

type uploadRow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_uploads_owner"`
	FileName    string    `gorm:"not null"`
	ContentType string    `gorm:"not null"`
	ArchiveType string    `gorm:"not null"`
	Payload     []byte    `gorm:"not null"`
	Size        int64     `gorm:"not null"`
	Description *string
	CreatedAt   time.Time `gorm:"index:idx_uploads_owner"`
	IsDeleted   bool      `gorm:"not null;default:false"`
	DeletedAt   *time.Time
}

func (uploadRow) TableName() string { return "user_uploads" }

func (r uploadRow) toDomain() domain.Upload {
	return domain.Upload{
		ID:              r.ID,
		UserID:          r.UserID,
		FileName:        r.FileName,
		ContentType:     r.ContentType,
		ArchiveType:     r.ArchiveType,
		Payload:         r.Payload,
		Size:            r.Size,
		Description:     r.Description,
		CreatedAt:       r.CreatedAt,
		SoftDeleteState: domain.SoftDeleteState{IsDeleted: r.IsDeleted, DeletedAt: r.DeletedAt},
	}
}

func uploadRowFrom(u *domain.Upload) uploadRow {
	return uploadRow{
		ID:          u.ID,
		UserID:      u.UserID,
		FileName:    u.FileName,
		ContentType: u.ContentType,
		ArchiveType: u.ArchiveType,
		Payload:     u.Payload,
		Size:        u.Size,
		Description: u.Description,
		CreatedAt:   u.CreatedAt,
	}
}

type reportRow struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_reports_owner"`
	UploadID  *uuid.UUID `gorm:"type:uuid;index"`
	Upload    *uploadRow `gorm:"foreignKey:UploadID;constraint:OnDelete:SET NULL"`
	Title     string     `gorm:"not null"`
	Prompt    string     `gorm:"not null"`
	Summary   string     `gorm:"not null"`
	PDFKey    string     `gorm:"column:pdf_key"`
	CreatedAt time.Time  `gorm:"index:idx_reports_owner"`
	UpdatedAt time.Time
	IsDeleted bool `gorm:"not null;default:false"`
	DeletedAt *time.Time
}

func (reportRow) TableName() string { return "reports" }

func (r reportRow) toDomain() domain.Report {
	return domain.Report{
		ID:              r.ID,
		UserID:          r.UserID,
		UploadID:        r.UploadID,
		Title:           r.Title,
		Prompt:          r.Prompt,
		Summary:         r.Summary,
		PDFKey:          r.PDFKey,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		SoftDeleteState: domain.SoftDeleteState{IsDeleted: r.IsDeleted, DeletedAt: r.DeletedAt},
	}
}

type historyRow struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_history_owner"`
	ReportID  *uuid.UUID `gorm:"type:uuid;index"`
	Report    *reportRow `gorm:"foreignKey:ReportID;constraint:OnDelete:SET NULL"`
	Action    string     `gorm:"column:action_title;not null"`
	CreatedAt time.Time  `gorm:"index:idx_history_owner"`
	UpdatedAt time.Time
	IsDeleted bool `gorm:"not null;default:false"`
	DeletedAt *time.Time
}

func (historyRow) TableName() string { return "history" }

func (r historyRow) toDomain() domain.History {
	return domain.History{
		ID:              r.ID,
		UserID:          r.UserID,
		ReportID:        r.ReportID,
		Action:          r.Action,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		SoftDeleteState: domain.SoftDeleteState{IsDeleted: r.IsDeleted, DeletedAt: r.DeletedAt},
	}
}

type revokedCredentialRow struct {
	Token     string     `gorm:"primaryKey"`
	UserID    *uuid.UUID `gorm:"type:uuid"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	CreatedAt time.Time
}

func (revokedCredentialRow) TableName() string { return "token_blacklist" }
