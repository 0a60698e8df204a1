// internal/handlers/export/export_handler.go
package export

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vigilance-service/internal/middleware"
	"vigilance-service/internal/pkg/response"
	"vigilance-service/internal/report"
	redisrepo "vigilance-service/internal/repository/redis"
	service "vigilance-service/internal/service/export"
)

// DownloadArchive keeps finished exports available under a token.
type DownloadArchive interface {
	Put(ctx context.Context, d *redisrepo.Download) (string, error)
	Get(ctx context.Context, token string) (*redisrepo.Download, error)
}

type ExportHandler struct {
	exportService *service.ExportService
	archive       DownloadArchive
	baseURL       string
	logger        *zap.Logger
}

func NewExportHandler(exportService *service.ExportService, archive DownloadArchive, baseURL string, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		archive:       archive,
		baseURL:       baseURL,
		logger:        logger,
	}
}

func condominiumID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid condominium ID", err)
		return 0, false
	}
	return id, true
}

// Export streams every checklist of the condominium as one PDF.
func (h *ExportHandler) Export(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)
	condoID, ok := condominiumID(c)
	if !ok {
		return
	}

	sink := service.SinkFunc(func(_ context.Context, doc *report.Document) error {
		response.Attachment(c, doc.Filename, doc.ContentType, doc.Data)
		return nil
	})

	if _, err := h.exportService.ExportOnly(c.Request.Context(), principal, condoID, sink); err != nil {
		h.logger.Warn("export failed", zap.Int64("condominium_id", condoID), zap.Error(err))
		response.FromError(c, "failed to export checklists", err)
		return
	}
}

// DeletePreview returns the set size and the token that confirms deleting it.
func (h *ExportHandler) DeletePreview(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)
	condoID, ok := condominiumID(c)
	if !ok {
		return
	}

	preview, err := h.exportService.Preview(c.Request.Context(), principal, condoID)
	if err != nil {
		response.FromError(c, "failed to preview delete", err)
		return
	}

	response.Success(c, http.StatusOK, "delete preview", preview)
}

// DeleteAll handles DELETE /condominiums/:id/checklists?confirm=<token>
func (h *ExportHandler) DeleteAll(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)
	condoID, ok := condominiumID(c)
	if !ok {
		return
	}

	token := c.Query("confirm")
	if token == "" {
		response.Error(c, http.StatusBadRequest, "confirmation token is required", nil)
		return
	}

	deleted, err := h.exportService.DeleteOnly(c.Request.Context(), principal, condoID, token)
	if err != nil {
		response.FromError(c, "failed to delete checklists", err)
		return
	}

	response.Success(c, http.StatusOK, "checklists deleted", gin.H{"deleted": deleted})
}

// ExportAndDelete archives the export for download, then deletes exactly
// the exported checklists.
func (h *ExportHandler) ExportAndDelete(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)
	condoID, ok := condominiumID(c)
	if !ok {
		return
	}

	var token string
	sink := service.SinkFunc(func(ctx context.Context, doc *report.Document) error {
		var err error
		token, err = h.archive.Put(ctx, &redisrepo.Download{
			Filename:    doc.Filename,
			ContentType: doc.ContentType,
			Data:        doc.Data,
		})
		return err
	})

	result, err := h.exportService.ExportThenDelete(c.Request.Context(), principal, condoID, sink)
	if err != nil && !errors.Is(err, service.ErrDeleteAfterExport) {
		response.FromError(c, "failed to export checklists", err)
		return
	}

	data := gin.H{
		"download_url": h.baseURL + "/api/v1/downloads/" + token,
		"filename":     result.Document.Filename,
		"exported":     len(result.ExportedIDs),
		"deleted":      result.Deleted,
		"delete_error": nil,
	}
	if err != nil {
		data["delete_error"] = result.DeleteErr.Error()
		h.logger.Error("export saved but delete failed",
			zap.Int64("condominium_id", condoID),
			zap.String("download_token", token),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "export saved but checklists were not deleted", err, data)
		return
	}

	response.Success(c, http.StatusOK, "checklists exported and deleted", data)
}

// Download serves an archived export by token until it expires.
func (h *ExportHandler) Download(c *gin.Context) {
	d, err := h.archive.Get(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.FromError(c, "download not found or expired", err)
		return
	}

	c.Header("Last-Modified", d.CreatedAt.UTC().Format(http.TimeFormat))
	response.Attachment(c, d.Filename, d.ContentType, d.Data)
}
