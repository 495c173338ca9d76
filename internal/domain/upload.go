package domain

import (
	"time"

	"github.com/google/uuid"
)

// ArchiveContentType is the type of every stored upload payload.
const ArchiveContentType = "application/zip"

// Upload is a user file kept in the store as a single-entry zip archive.
type Upload struct {
	ID          uuid.UUID `bson:"_id" json:"id"`
	UserID      uuid.UUID `bson:"userId" json:"userId"`
	FileName    string    `bson:"fileName" json:"fileName"`
	ContentType string    `bson:"contentType" json:"contentType"` // as declared by the client
	ArchiveType string    `bson:"archiveType" json:"archiveType"`
	Payload     []byte    `bson:"payload,omitempty" json:"-"` // empty on list results
	Size        int64     `bson:"size" json:"size"`           // length of the original file
	Description *string   `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`

	SoftDeleteState `bson:",inline"`
}

type UploadPatch struct {
	FileName    *string
	Description *string
}

func (p UploadPatch) Empty() bool {
	return p.FileName == nil && p.Description == nil
}
