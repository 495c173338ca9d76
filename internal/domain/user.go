package domain

import (
	"time"

	"github.com/google/uuid"
)

// SoftDeleteState is embedded by every entity that is never physically
// removed in normal operation.
type SoftDeleteState struct {
	IsDeleted bool       `bson:"isDeleted" json:"-"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty" json:"-"`
}

// User is an account owning uploads, reports and history entries.
type User struct {
	ID           uuid.UUID `bson:"_id" json:"id"`
	FullName     string    `bson:"fullName" json:"fullName"`
	Email        string    `bson:"email" json:"email"`    // unique
	PasswordHash string    `bson:"passwordHash" json:"-"` // never exposed
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`

	SoftDeleteState `bson:",inline"`
}

// UserPatch carries the optional fields of a profile update.
// PasswordHash is already hashed by the service.
type UserPatch struct {
	FullName     *string
	Email        *string
	PasswordHash *string
}
