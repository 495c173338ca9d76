package api

import (
	"net/http"

	"alcyxob/ai-reports/internal/logger"
	"alcyxob/ai-reports/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type HistoryHandler struct {
	historyService service.HistoryService
	log            *logger.Logger
}

func NewHistoryHandler(historyService service.HistoryService, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{historyService: historyService, log: log}
}

type CreateHistoryRequest struct {
	ReportID *string `json:"reportId"`
	Action   string  `json:"action"`
}

type UpdateHistoryRequest struct {
	Action string `json:"action"`
}

// List godoc
// @Summary List own history entries, newest first
// @Tags History
// @Security BearerAuth
// @Success 200 {object} gin.H "history"
// @Router /history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	entries, err := h.historyService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	out := make([]HistoryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, MapHistoryToResponse(&entries[i]))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "history": out})
}

// Create godoc
// @Summary Add a history entry
// @Tags History
// @Security BearerAuth
// @Param body body CreateHistoryRequest true "Entry"
// @Success 201 {object} HistoryResponse
// @Router /history [post]
func (h *HistoryHandler) Create(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req CreateHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	var reportID *uuid.UUID
	if req.ReportID != nil && *req.ReportID != "" {
		id, err := uuid.Parse(*req.ReportID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid reportId format")
			return
		}
		reportID = &id
	}

	entry, err := h.historyService.Create(c.Request.Context(), userID, reportID, req.Action)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "History entry created", "entry": MapHistoryToResponse(entry)})
}

// Update godoc
// @Summary Change the action text of an entry
// @Tags History
// @Security BearerAuth
// @Param id path string true "History ID"
// @Param body body UpdateHistoryRequest true "New action"
// @Success 200 {object} HistoryResponse
// @Router /history/{id} [put]
func (h *HistoryHandler) Update(c *gin.Context) {
	userID, id, ok := userAndPathID(c)
	if !ok {
		return
	}
	var req UpdateHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	entry, err := h.historyService.Update(c.Request.Context(), userID, id, req.Action)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "History entry updated", "entry": MapHistoryToResponse(entry)})
}

// Delete godoc
// @Summary Soft delete a history entry
// @Tags History
// @Security BearerAuth
// @Param id path string true "History ID"
// @Success 200 {object} gin.H
// @Router /history/{id} [delete]
func (h *HistoryHandler) Delete(c *gin.Context) {
	userID, id, ok := userAndPathID(c)
	if !ok {
		return
	}
	if err := h.historyService.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "History entry deleted"})
}
