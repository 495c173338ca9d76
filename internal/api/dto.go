package api

import (
	"time"

	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/service"
)

type UploadResponse struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	ArchiveType string    `json:"archiveType"`
	Size        int64     `json:"size"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ReportResponse struct {
	ID        string    `json:"id"`
	UploadID  *string   `json:"uploadId"`
	Title     string    `json:"title"`
	Prompt    string    `json:"prompt"`
	Summary   string    `json:"summary"`
	HasPDF    bool      `json:"hasPdf"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type HistoryResponse struct {
	ID        string    `json:"id"`
	ReportID  *string   `json:"reportId"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PreviewResponse always carries rows for tabular previews, even when empty.
type PreviewResponse struct {
	Tabular  bool         `json:"tabular"`
	Rows     []domain.Row `json:"rows"`
	Text     string       `json:"text,omitempty"`
	Fallback bool         `json:"fallback,omitempty"`
}

type StepResponse struct {
	Step   string `json:"step"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func MapUploadToResponse(u *domain.Upload) UploadResponse {
	return UploadResponse{
		ID:          u.ID.String(),
		FileName:    u.FileName,
		ContentType: u.ContentType,
		ArchiveType: u.ArchiveType,
		Size:        u.Size,
		Description: u.Description,
		CreatedAt:   u.CreatedAt,
	}
}

func MapReportToResponse(r *domain.Report) ReportResponse {
	resp := ReportResponse{
		ID:        r.ID.String(),
		Title:     r.Title,
		Prompt:    r.Prompt,
		Summary:   r.Summary,
		HasPDF:    r.HasPDF(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.UploadID != nil {
		id := r.UploadID.String()
		resp.UploadID = &id
	}
	return resp
}

func MapHistoryToResponse(h *domain.History) HistoryResponse {
	resp := HistoryResponse{
		ID:        h.ID.String(),
		Action:    h.Action,
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
	}
	if h.ReportID != nil {
		id := h.ReportID.String()
		resp.ReportID = &id
	}
	return resp
}

func MapPreviewToResponse(p domain.Preview) PreviewResponse {
	resp := PreviewResponse{Tabular: p.Tabular, Text: p.Text, Fallback: p.Fallback}
	if p.Tabular {
		resp.Rows = p.Rows
		if resp.Rows == nil {
			resp.Rows = []domain.Row{}
		}
	}
	return resp
}

func MapRunToResponse(run service.Run) []StepResponse {
	out := make([]StepResponse, 0, len(run.Steps))
	for _, s := range run.Steps {
		status := "ok"
		if s.Degraded {
			status = "degraded"
		}
		out = append(out, StepResponse{Step: string(s.State), Status: status, Reason: s.Reason})
	}
	return out
}
