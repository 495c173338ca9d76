package api

import (
	"net/http"

	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/logger"
	"alcyxob/ai-reports/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
	pipeline      Pipeline
	maxBytes      int64
	log           *logger.Logger
}

func NewReportHandler(reportService service.ReportService, pipeline Pipeline, maxBytes int64, log *logger.Logger) *ReportHandler {
	return &ReportHandler{reportService: reportService, pipeline: pipeline, maxBytes: maxBytes, log: log}
}

type UpdateReportRequest struct {
	Title  *string `json:"title"`
	Prompt *string `json:"prompt"`
}

// Create godoc
// @Summary Generate a report from an uploaded file
// @Description Summarizes the file with the AI service and renders a PDF.
// @Tags Reports
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV or Excel file"
// @Param prompt formData string false "Instruction for the summary"
// @Success 201 {object} gin.H "report, preview, aiSummary, steps"
// @Failure 400 {object} gin.H "Missing, oversized or unsupported file"
// @Failure 429 {object} gin.H "Rate limited"
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	in, ok := readUpload(c, h.maxBytes, h.log)
	if !ok {
		return
	}
	res, err := h.pipeline.CreateReport(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	body := gin.H{
		"success":   true,
		"message":   "Report generated successfully",
		"file":      MapUploadToResponse(res.Upload),
		"preview":   MapPreviewToResponse(res.Preview),
		"aiSummary": res.Summary,
		"steps":     MapRunToResponse(res.Run),
		"report":    nil,
	}
	if res.Report != nil {
		body["report"] = MapReportToResponse(res.Report)
	} else {
		body["message"] = "File stored, but the report could not be saved"
	}
	c.JSON(http.StatusCreated, body)
}

// List godoc
// @Summary List own reports
// @Tags Reports
// @Security BearerAuth
// @Success 200 {object} gin.H "reports"
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	reports, err := h.reportService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	out := make([]ReportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, MapReportToResponse(&reports[i]))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reports": out})
}

// Get godoc
// @Summary Get a report
// @Tags Reports
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} ReportResponse
// @Failure 404 {object} gin.H "Report not found"
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	userID, id, ok := userAndPathID(c)
	if !ok {
		return
	}
	report, err := h.reportService.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": MapReportToResponse(report)})
}

// DownloadArchive godoc
// @Summary Download the zip of the file a report was built from
// @Tags Reports
// @Produce application/zip
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {file} binary
// @Failure 404 {object} gin.H "Report or file not found"
// @Router /reports/download/{id} [get]
func (h *ReportHandler) DownloadArchive(c *gin.Context) {
	userID, id, ok := userAndPathID(c)
	if !ok {
		return
	}
	att, err := h.reportService.DownloadArchive(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	sendAttachment(c, att)
}

// DownloadPDF godoc
// @Summary Download the rendered report
// @Tags Reports
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {file} binary
// @Failure 404 {object} gin.H "Report not found"
// @Router /reports/download/pdf/{id} [get]
func (h *ReportHandler) DownloadPDF(c *gin.Context) {
	userID, id, ok := userAndPathID(c)
	if !ok {
		return
	}
	pdf, err := h.reportService.PDF(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	sendAttachment(c, &service.Attachment{FileName: pdf.FileName, ContentType: pdf.ContentType, Data: pdf.Data})
}

// Update godoc
// @Summary Update report title or prompt
// @Tags Reports
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param body body UpdateReportRequest true "Fields to change"
// @Success 200 {object} ReportResponse
// @Router /reports/{id} [put]
func (h *ReportHandler) Update(c *gin.Context) {
	userID, id, ok := userAndPathID(c)
	if !ok {
		return
	}
	var req UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	report, err := h.reportService.Update(c.Request.Context(), userID, id, domain.ReportPatch{Title: req.Title, Prompt: req.Prompt})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Report updated successfully", "report": MapReportToResponse(report)})
}

// Delete godoc
// @Summary Soft delete a report
// @Tags Reports
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} gin.H
// @Router /reports/{id} [patch]
func (h *ReportHandler) Delete(c *gin.Context) {
	userID, id, ok := userAndPathID(c)
	if !ok {
		return
	}
	if err := h.reportService.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Report deleted successfully"})
}
