package repository

import (
	"context"
	"time"

	"alcyxob/ai-reports/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// SoftDeleteRepository is the owner-scoped read and soft-delete capability
// shared by uploads, reports and history. Reads never return deleted rows;
// SoftDelete on a missing or already deleted row returns ErrNotFound.
type SoftDeleteRepository[T any] interface {
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*T, error)
	// ListByOwner returns the owner's live rows, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]T, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// UserRepository defines the interface for interacting with user data.
// Soft-deleted users are invisible to every lookup.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (*domain.User, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// UploadRepository stores archived user files. ListByOwner leaves Payload empty.
type UploadRepository interface {
	SoftDeleteRepository[domain.Upload]
	Create(ctx context.Context, upload *domain.Upload) error
	UpdateMetadata(ctx context.Context, id uuid.UUID, patch domain.UploadPatch) (*domain.Upload, error)
}

type ReportRepository interface {
	SoftDeleteRepository[domain.Report]
	Create(ctx context.Context, report *domain.Report) error
	UpdateMetadata(ctx context.Context, id uuid.UUID, patch domain.ReportPatch) (*domain.Report, error)
	SetPDF(ctx context.Context, id uuid.UUID, pdfKey string) error
}

type HistoryRepository interface {
	SoftDeleteRepository[domain.History]
	Create(ctx context.Context, entry *domain.History) error
	UpdateAction(ctx context.Context, id uuid.UUID, action string) (*domain.History, error)
}

// RevokedCredentialRepository tracks logged-out tokens until they expire.
type RevokedCredentialRepository interface {
	// Revoke is idempotent for the same token.
	Revoke(ctx context.Context, cred *domain.RevokedCredential) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	// DeleteExpired removes entries with ExpiresAt before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Repositories bundles one backend's implementations.
type Repositories struct {
	Users   UserRepository
	Uploads UploadRepository
	Reports ReportRepository
	History HistoryRepository
	Revoked RevokedCredentialRepository
}
