package domain

import (
	"time"

	"github.com/google/uuid"
)

// Report is an AI summary rendered to PDF. UploadID is cleared, not
// cascaded, when the referenced upload row disappears.
type Report struct {
	ID        uuid.UUID  `bson:"_id" json:"id"`
	UserID    uuid.UUID  `bson:"userId" json:"userId"`
	UploadID  *uuid.UUID `bson:"uploadId,omitempty" json:"uploadId,omitempty"`
	Title     string     `bson:"title" json:"title"`
	Prompt    string     `bson:"prompt" json:"prompt"`
	Summary   string     `bson:"summary" json:"summary"`
	PDFKey    string     `bson:"pdfKey,omitempty" json:"-"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`

	SoftDeleteState `bson:",inline"`
}

// HasPDF reports whether a rendered document was stored for the report.
func (r *Report) HasPDF() bool { return r.PDFKey != "" }

type ReportPatch struct {
	Title  *string
	Prompt *string
}

func (p ReportPatch) Empty() bool {
	return p.Title == nil && p.Prompt == nil
}
