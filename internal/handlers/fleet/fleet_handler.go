// internal/handlers/fleet/fleet_handler.go
package fleet

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vigilance-service/internal/domain/motorcycle"
	"vigilance-service/internal/domain/vigilante"
	"vigilance-service/internal/middleware"
	"vigilance-service/internal/pkg/response"
	service "vigilance-service/internal/service/fleet"
)

type FleetHandler struct {
	fleetService *service.FleetService
}

func NewFleetHandler(fleetService *service.FleetService) *FleetHandler {
	return &FleetHandler{
		fleetService: fleetService,
	}
}

func paramID(c *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid "+label+" ID", err)
		return 0, false
	}
	return id, true
}

// ========== Vigilantes ==========

func (h *FleetHandler) CreateVigilante(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)
	condoID, ok := paramID(c, "id", "condominium")
	if !ok {
		return
	}

	var req vigilante.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.fleetService.CreateVigilante(c.Request.Context(), principal, condoID, &req)
	if err != nil {
		response.FromError(c, "failed to create vigilante", err)
		return
	}

	response.Success(c, http.StatusCreated, "vigilante created successfully", result)
}

func (h *FleetHandler) GetVigilante(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)
	condoID, ok := paramID(c, "id", "condominium")
	if !ok {
		return
	}
	id, ok := paramID(c, "vid", "vigilante")
	if !ok {
		return
	}

	result, err := h.fleetService.GetVigilante(c.Request.Context(), principal, condoID, id)
	if err != nil {
		response.FromError(c, "vigilante not found", err)
		return
	}

	response.Success(c, http.StatusOK, "vigilante retrieved", result)
}

// ListVigilantes feeds both the admin roster and the guard's selection list.
func (h *FleetHandler) ListVigilantes(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)
	condoID, ok := paramID(c, "id", "condominium")
	if !ok {
		return
	}

	result, err := h.fleetService.ListVigilantes(c.Request.Context(), principal, condoID)
	if err != nil {
		response.FromError(c, "failed to list vigilantes", err)
		return
	}

	response.Success(c, http.StatusOK, "vigilantes retrieved", gin.H{
		"vigilantes": result,
		"count":      len(result),
	})
}

func (h *FleetHandler) UpdateVigilante(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)
	condoID, ok := paramID(c, "id", "condominium")
	if !ok {
		return
	}
	id, ok := paramID(c, "vid", "vigilante")
	if !ok {
		return
	}

	var req vigilante.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.fleetService.UpdateVigilante(c.Request.Context(), principal, condoID, id, &req)
	if err != nil {
		response.FromError(c, "failed to update vigilante", err)
		return
	}

	response.Success(c, http.StatusOK, "vigilante updated successfully", result)
}

func (h *FleetHandler) DeleteVigilante(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)
	condoID, ok := paramID(c, "id", "condominium")
	if !ok {
		return
	}
	id, ok := paramID(c, "vid", "vigilante")
	if !ok {
		return
	}

	if err := h.fleetService.DeleteVigilante(c.Request.Context(), principal, condoID, id); err != nil {
		response.FromError(c, "failed to delete vigilante", err)
		return
	}

	response.Success(c, http.StatusOK, "vigilante deleted successfully", nil)
}

// ========== Motorcycles ==========

func (h *FleetHandler) CreateMotorcycle(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)
	condoID, ok := paramID(c, "id", "condominium")
	if !ok {
		return
	}

	var req motorcycle.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.fleetService.CreateMotorcycle(c.Request.Context(), principal, condoID, &req)
	if err != nil {
		response.FromError(c, "failed to create motorcycle", err)
		return
	}

	response.Success(c, http.StatusCreated, "motorcycle created successfully", result)
}

func (h *FleetHandler) GetMotorcycle(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)
	condoID, ok := paramID(c, "id", "condominium")
	if !ok {
		return
	}
	id, ok := paramID(c, "mid", "motorcycle")
	if !ok {
		return
	}

	result, err := h.fleetService.GetMotorcycle(c.Request.Context(), principal, condoID, id)
	if err != nil {
		response.FromError(c, "motorcycle not found", err)
		return
	}

	response.Success(c, http.StatusOK, "motorcycle retrieved", result)
}

// ListMotorcycles accepts ?status=active|maintenance|inactive.
func (h *FleetHandler) ListMotorcycles(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)
	condoID, ok := paramID(c, "id", "condominium")
	if !ok {
		return
	}

	var status *motorcycle.Status
	if s := c.Query("status"); s != "" {
		st := motorcycle.Status(s)
		switch st {
		case motorcycle.StatusActive, motorcycle.StatusMaintenance, motorcycle.StatusInactive:
			status = &st
		default:
			response.Error(c, http.StatusBadRequest, "invalid motorcycle status", nil)
			return
		}
	}

	result, err := h.fleetService.ListMotorcycles(c.Request.Context(), principal, condoID, status)
	if err != nil {
		response.FromError(c, "failed to list motorcycles", err)
		return
	}

	response.Success(c, http.StatusOK, "motorcycles retrieved", gin.H{
		"motorcycles": result,
		"count":       len(result),
	})
}

func (h *FleetHandler) UpdateMotorcycle(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)
	condoID, ok := paramID(c, "id", "condominium")
	if !ok {
		return
	}
	id, ok := paramID(c, "mid", "motorcycle")
	if !ok {
		return
	}

	var req motorcycle.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.fleetService.UpdateMotorcycle(c.Request.Context(), principal, condoID, id, &req)
	if err != nil {
		response.FromError(c, "failed to update motorcycle", err)
		return
	}

	response.Success(c, http.StatusOK, "motorcycle updated successfully", result)
}

func (h *FleetHandler) DeleteMotorcycle(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)
	condoID, ok := paramID(c, "id", "condominium")
	if !ok {
		return
	}
	id, ok := paramID(c, "mid", "motorcycle")
	if !ok {
		return
	}

	if err := h.fleetService.DeleteMotorcycle(c.Request.Context(), principal, condoID, id); err != nil {
		response.FromError(c, "failed to delete motorcycle", err)
		return
	}

	response.Success(c, http.StatusOK, "motorcycle deleted successfully", nil)
}
