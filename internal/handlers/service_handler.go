package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/httpresp"
	"github.com/BruksfildServices01/agenda-engine/internal/middleware"
	"github.com/BruksfildServices01/agenda-engine/internal/usecase/service"
)

type ServiceHandler struct {
	list   *service.ListServices
	create *service.CreateService
	update *service.UpdateService
	toggle *service.ToggleService
	remove *service.DeleteService
}

func NewServiceHandler(
	list *service.ListServices,
	create *service.CreateService,
	update *service.UpdateService,
	toggle *service.ToggleService,
	remove *service.DeleteService,
) *ServiceHandler {
	return &ServiceHandler{
		list:   list,
		create: create,
		update: update,
		toggle: toggle,
		remove: remove,
	}
}

type ServiceRequest struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
}

func (r ServiceRequest) input() service.Input {
	return service.Input{
		Name:            r.Name,
		Description:     r.Description,
		Price:           r.Price,
		DurationMinutes: r.DurationMinutes,
	}
}

type ServiceStatusRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *ServiceHandler) List(c *gin.Context) {
	out, err := h.list.Execute(c.Request.Context(), middleware.OrganizationID(c))
	if err != nil {
		fail(c, err, "list_services_failed")
		return
	}
	httpresp.List(c, out)
}

func (h *ServiceHandler) Create(c *gin.Context) {
	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	svc, err := h.create.Execute(c.Request.Context(), middleware.OrganizationID(c), req.input())
	if err != nil {
		fail(c, err, "create_service_failed")
		return
	}
	httpresp.Created(c, svc)
}

func (h *ServiceHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, c.Param("id"), "invalid_service_id")
	if !ok {
		return
	}

	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	svc, err := h.update.Execute(c.Request.Context(), middleware.OrganizationID(c), id, req.input())
	if err != nil {
		fail(c, err, "update_service_failed")
		return
	}
	httpresp.OK(c, svc)
}

func (h *ServiceHandler) SetStatus(c *gin.Context) {
	id, ok := parseUUID(c, c.Param("id"), "invalid_service_id")
	if !ok {
		return
	}

	var req ServiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	svc, err := h.toggle.Execute(c.Request.Context(), middleware.OrganizationID(c), id, *req.Active)
	if err != nil {
		fail(c, err, "update_service_status_failed")
		return
	}
	httpresp.OK(c, svc)
}

func (h *ServiceHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, c.Param("id"), "invalid_service_id")
	if !ok {
		return
	}

	if err := h.remove.Execute(c.Request.Context(), middleware.OrganizationID(c), id); err != nil {
		fail(c, err, "delete_service_failed")
		return
	}
	httpresp.NoContent(c)
}
