package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/logger"
	"alcyxob/ai-reports/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// multipart framing allowance on top of the file size limit
const multipartOverhead = 1 << 20

// Pipeline runs upload ingestion and report generation.
type Pipeline interface {
	Upload(ctx context.Context, in service.UploadInput) (*service.PipelineResult, error)
	CreateReport(ctx context.Context, in service.UploadInput) (*service.PipelineResult, error)
}

type FileHandler struct {
	uploadService service.UploadService
	pipeline      Pipeline
	maxBytes      int64
	log           *logger.Logger
}

func NewFileHandler(uploadService service.UploadService, pipeline Pipeline, maxBytes int64, log *logger.Logger) *FileHandler {
	return &FileHandler{uploadService: uploadService, pipeline: pipeline, maxBytes: maxBytes, log: log}
}

type UpdateFileRequest struct {
	FileName    *string `json:"fileName"`
	Description *string `json:"description"`
}

// Upload godoc
// @Summary Upload a CSV or Excel file
// @Description Stores the file as a zip archive and returns an AI summary of its preview.
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV or Excel file"
// @Param prompt formData string false "Instruction for the summary"
// @Param description formData string false "File description"
// @Success 201 {object} gin.H "file, aiSummary, steps"
// @Failure 400 {object} gin.H "Missing, oversized or unsupported file"
// @Failure 429 {object} gin.H "Rate limited"
// @Router /files/upload [post]
func (h *FileHandler) Upload(c *gin.Context) {
	in, ok := readUpload(c, h.maxBytes, h.log)
	if !ok {
		return
	}
	res, err := h.pipeline.Upload(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "File uploaded successfully",
		"file":      MapUploadToResponse(res.Upload),
		"aiSummary": res.Summary,
		"steps":     MapRunToResponse(res.Run),
	})
}

// List godoc
// @Summary List own uploads
// @Tags Files
// @Security BearerAuth
// @Success 200 {object} gin.H "files"
// @Router /files [get]
func (h *FileHandler) List(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	uploads, err := h.uploadService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	files := make([]UploadResponse, 0, len(uploads))
	for i := range uploads {
		files = append(files, MapUploadToResponse(&uploads[i]))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "files": files})
}

// Get godoc
// @Summary Upload metadata with a preview of its content
// @Tags Files
// @Security BearerAuth
// @Param id path string true "Upload ID"
// @Success 200 {object} gin.H "file, preview"
// @Failure 404 {object} gin.H "File not found"
// @Router /files/{id} [get]
func (h *FileHandler) Get(c *gin.Context) {
	userID, id, ok := userAndPathID(c)
	if !ok {
		return
	}
	detail, err := h.uploadService.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"file":      MapUploadToResponse(detail.Upload),
		"entryName": detail.EntryName,
		"preview":   MapPreviewToResponse(detail.Preview),
	})
}

// Download godoc
// @Summary Download the stored zip archive
// @Tags Files
// @Produce application/zip
// @Security BearerAuth
// @Param id path string true "Upload ID"
// @Success 200 {file} binary
// @Failure 404 {object} gin.H "File not found"
// @Router /files/download/{id} [get]
func (h *FileHandler) Download(c *gin.Context) {
	userID, id, ok := userAndPathID(c)
	if !ok {
		return
	}
	att, err := h.uploadService.Download(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	sendAttachment(c, att)
}

// Update godoc
// @Summary Rename or describe an upload
// @Tags Files
// @Security BearerAuth
// @Param id path string true "Upload ID"
// @Param body body UpdateFileRequest true "Fields to change"
// @Success 200 {object} UploadResponse
// @Router /files/upload/{id} [put]
func (h *FileHandler) Update(c *gin.Context) {
	userID, id, ok := userAndPathID(c)
	if !ok {
		return
	}
	var req UpdateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	upload, err := h.uploadService.Update(c.Request.Context(), userID, id, domain.UploadPatch{
		FileName:    req.FileName,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "File updated successfully", "file": MapUploadToResponse(upload)})
}

// Delete godoc
// @Summary Soft delete an upload
// @Tags Files
// @Security BearerAuth
// @Param id path string true "Upload ID"
// @Success 200 {object} gin.H
// @Failure 404 {object} gin.H "File not found or already deleted"
// @Router /files/upload/{id}/delete [patch]
func (h *FileHandler) Delete(c *gin.Context) {
	userID, id, ok := userAndPathID(c)
	if !ok {
		return
	}
	if err := h.uploadService.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "File deleted successfully"})
}

// readUpload reads the multipart "file" field and the optional text fields.
// A missing file is passed through so the pipeline reports it.
func readUpload(c *gin.Context, maxBytes int64, log *logger.Logger) (service.UploadInput, bool) {
	userID, ok := mustUserID(c)
	if !ok {
		return service.UploadInput{}, false
	}
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)
	}

	in := service.UploadInput{
		UserID:      userID,
		Prompt:      c.PostForm("prompt"),
		Description: c.PostForm("description"),
	}

	header, err := c.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return in, true
	case err != nil:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, log, err)
		} else {
			abortWithError(c, http.StatusBadRequest, "Invalid multipart form")
		}
		return in, false
	}

	f, err := header.Open()
	if err != nil {
		respondError(c, log, fmt.Errorf("open upload: %w", err))
		return in, false
	}
	defer f.Close()

	limit := header.Size
	if maxBytes > 0 && maxBytes < limit {
		// validation rejects it on the declared size; never buffer it
		limit = 0
	}
	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		respondError(c, log, fmt.Errorf("read upload: %w", err))
		return in, false
	}

	in.FileName = header.Filename
	in.ContentType = header.Header.Get("Content-Type")
	in.Size = header.Size
	in.Data = data
	return in, true
}

func userAndPathID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := mustUserID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, ok := pathID(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}

func sendAttachment(c *gin.Context, att *service.Attachment) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": att.FileName}))
	c.Data(http.StatusOK, att.ContentType, att.Data)
}
