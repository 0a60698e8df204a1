// internal/handlers/checklist/checklist_handler.go
package checklist

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vigilance-service/internal/domain/checklist"
	"vigilance-service/internal/middleware"
	"vigilance-service/internal/pkg/response"
	service "vigilance-service/internal/service/checklist"
)

type ChecklistHandler struct {
	checklistService *service.ChecklistService
	logger           *zap.Logger
}

func NewChecklistHandler(checklistService *service.ChecklistService, logger *zap.Logger) *ChecklistHandler {
	return &ChecklistHandler{
		checklistService: checklistService,
		logger:           logger,
	}
}

// ========== Draft ==========

func (h *ChecklistHandler) GetDraft(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	draft, err := h.checklistService.GetDraft(c.Request.Context(), principal)
	if err != nil {
		response.FromError(c, "failed to load draft", err)
		return
	}

	response.Success(c, http.StatusOK, "draft retrieved", draft)
}

// UpdateDraft merges the sent fields into the draft; absent fields are kept.
func (h *ChecklistHandler) UpdateDraft(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var patch checklist.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	draft, err := h.checklistService.UpdateDraft(c.Request.Context(), principal, patch)
	if err != nil {
		response.FromError(c, "failed to update draft", err)
		return
	}

	response.Success(c, http.StatusOK, "draft updated", draft)
}

func (h *ChecklistHandler) AddPhoto(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req checklist.AddPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	draft, err := h.checklistService.AddPhoto(c.Request.Context(), principal, &req)
	if err != nil {
		response.FromError(c, "failed to add photo", err)
		return
	}

	response.Success(c, http.StatusOK, "photo added", draft)
}

// RemovePhoto handles DELETE /checklists/draft/photos/:slot/:index
func (h *ChecklistHandler) RemovePhoto(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid photo index", err)
		return
	}

	draft, err := h.checklistService.RemovePhoto(c.Request.Context(), principal, checklist.PhotoSlot(c.Param("slot")), index)
	if err != nil {
		response.FromError(c, "failed to remove photo", err)
		return
	}

	response.Success(c, http.StatusOK, "photo removed", draft)
}

func (h *ChecklistHandler) SetSignature(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req checklist.SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	draft, err := h.checklistService.SetSignature(c.Request.Context(), principal, &req)
	if err != nil {
		response.FromError(c, "failed to set signature", err)
		return
	}

	response.Success(c, http.StatusOK, "signature saved", draft)
}

func (h *ChecklistHandler) ResetDraft(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	if err := h.checklistService.ResetDraft(c.Request.Context(), principal); err != nil {
		response.FromError(c, "failed to reset draft", err)
		return
	}

	response.Success(c, http.StatusOK, "draft reset", nil)
}

// Submit saves the draft as a checklist. Missing fields come back as
// data.fields with status 422 and the draft stays untouched.
func (h *ChecklistHandler) Submit(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	result, err := h.checklistService.Submit(c.Request.Context(), principal)
	if err != nil {
		var invalid *checklist.ValidationError
		if errors.As(err, &invalid) {
			response.FromError(c, "checklist incomplete", err, gin.H{"fields": invalid.Fields})
			return
		}
		response.FromError(c, "failed to submit checklist", err)
		return
	}

	response.Success(c, http.StatusCreated, "checklist saved", result)
}

// ========== Records ==========

func (h *ChecklistHandler) GetChecklist(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid checklist ID", err)
		return
	}

	result, err := h.checklistService.Get(c.Request.Context(), principal, id)
	if err != nil {
		response.FromError(c, "checklist not found", err)
		return
	}

	response.Success(c, http.StatusOK, "checklist retrieved", result)
}

// DownloadPDF streams the single-record report.
func (h *ChecklistHandler) DownloadPDF(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid checklist ID", err)
		return
	}

	doc, err := h.checklistService.PDF(c.Request.Context(), principal, id)
	if err != nil {
		h.logger.Warn("checklist report failed", zap.Int64("checklist_id", id), zap.Error(err))
		response.FromError(c, "failed to generate report", err)
		return
	}

	response.Attachment(c, doc.Filename, doc.ContentType, doc.Data)
}

// ListChecklists handles GET /condominiums/:id/checklists
func (h *ChecklistHandler) ListChecklists(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	condoID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid condominium ID", err)
		return
	}

	var filters checklist.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.checklistService.List(c.Request.Context(), principal, condoID, &filters)
	if err != nil {
		response.FromError(c, "failed to list checklists", err)
		return
	}

	response.Success(c, http.StatusOK, "checklists retrieved", result)
}
