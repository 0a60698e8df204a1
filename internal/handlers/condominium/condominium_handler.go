// internal/handlers/condominium/condominium_handler.go
package condominium

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vigilance-service/internal/domain/condominium"
	"vigilance-service/internal/middleware"
	"vigilance-service/internal/pkg/response"
	service "vigilance-service/internal/service/condominium"
)

type CondominiumHandler struct {
	condoService *service.CondominiumService
}

func NewCondominiumHandler(condoService *service.CondominiumService) *CondominiumHandler {
	return &CondominiumHandler{
		condoService: condoService,
	}
}

func (h *CondominiumHandler) CreateCondominium(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req condominium.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.condoService.Create(c.Request.Context(), principal, &req)
	if err != nil {
		response.FromError(c, "failed to create condominium", err)
		return
	}

	response.Success(c, http.StatusCreated, "condominium created successfully", result)
}

func (h *CondominiumHandler) GetCondominium(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid condominium ID", err)
		return
	}

	result, err := h.condoService.Get(c.Request.Context(), principal, id)
	if err != nil {
		response.FromError(c, "condominium not found", err)
		return
	}

	response.Success(c, http.StatusOK, "condominium retrieved", result)
}

// ListCondominiums returns the caller's condominiums; a guard sees only
// the one they patrol.
func (h *CondominiumHandler) ListCondominiums(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var filters condominium.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.condoService.List(c.Request.Context(), principal, &filters)
	if err != nil {
		response.FromError(c, "failed to list condominiums", err)
		return
	}

	response.Success(c, http.StatusOK, "condominiums retrieved", result)
}

func (h *CondominiumHandler) UpdateCondominium(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid condominium ID", err)
		return
	}

	var req condominium.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.condoService.Update(c.Request.Context(), principal, id, &req)
	if err != nil {
		response.FromError(c, "failed to update condominium", err)
		return
	}

	response.Success(c, http.StatusOK, "condominium updated successfully", result)
}

func (h *CondominiumHandler) DeleteCondominium(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid condominium ID", err)
		return
	}

	if err := h.condoService.Delete(c.Request.Context(), principal, id); err != nil {
		response.FromError(c, "failed to delete condominium", err)
		return
	}

	response.Success(c, http.StatusOK, "condominium deleted successfully", nil)
}
