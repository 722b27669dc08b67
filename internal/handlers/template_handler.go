package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/httpresp"
	"github.com/BruksfildServices01/agenda-engine/internal/middleware"
	"github.com/BruksfildServices01/agenda-engine/internal/usecase/templates"
)

type TemplateHandler struct {
	get   *templates.GetTemplates
	save  *templates.SaveTemplate
	reset *templates.ResetTemplate
}

func NewTemplateHandler(
	get *templates.GetTemplates,
	save *templates.SaveTemplate,
	reset *templates.ResetTemplate,
) *TemplateHandler {
	return &TemplateHandler{get: get, save: save, reset: reset}
}

type TemplateRequest struct {
	Content string `json:"content"`
}

func (h *TemplateHandler) List(c *gin.Context) {
	out, err := h.get.Execute(c.Request.Context(), middleware.OrganizationID(c))
	if err != nil {
		fail(c, err, "list_templates_failed")
		return
	}
	httpresp.List(c, out)
}

func (h *TemplateHandler) Save(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	out, err := h.save.Execute(c.Request.Context(), middleware.OrganizationID(c), c.Param("type"), req.Content)
	if err != nil {
		fail(c, err, "save_template_failed")
		return
	}
	httpresp.OK(c, out)
}

func (h *TemplateHandler) Reset(c *gin.Context) {
	out, err := h.reset.Execute(c.Request.Context(), middleware.OrganizationID(c), c.Param("type"))
	if err != nil {
		fail(c, err, "reset_template_failed")
		return
	}
	httpresp.OK(c, out)
}
