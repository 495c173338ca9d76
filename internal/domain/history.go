package domain

import (
	"time"

	"github.com/google/uuid"
)

// History is an audit entry describing one user action.
type History struct {
	ID        uuid.UUID  `bson:"_id" json:"id"`
	UserID    uuid.UUID  `bson:"userId" json:"userId"`
	ReportID  *uuid.UUID `bson:"reportId,omitempty" json:"reportId,omitempty"`
	Action    string     `bson:"action" json:"action"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`

	SoftDeleteState `bson:",inline"`
}

// RevokedCredential blocks a still-unexpired token after logout.
// Rows are removed once ExpiresAt has passed.
type RevokedCredential struct {
	Token     string     `bson:"_id" json:"-"`
	UserID    *uuid.UUID `bson:"userId,omitempty" json:"userId,omitempty"`
	ExpiresAt time.Time  `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
}
