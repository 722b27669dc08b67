package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/httpresp"
	"github.com/BruksfildServices01/agenda-engine/internal/middleware"
	"github.com/BruksfildServices01/agenda-engine/internal/usecase/settings"
)

type SettingsHandler struct {
	getConfig         *settings.GetScheduleConfig
	updateHours       *settings.UpdateWorkingHours
	replaceBreaks     *settings.ReplaceBreaks
	addUnavailable    *settings.AddUnavailableDay
	removeUnavailable *settings.RemoveUnavailableDay
}

func NewSettingsHandler(
	getConfig *settings.GetScheduleConfig,
	updateHours *settings.UpdateWorkingHours,
	replaceBreaks *settings.ReplaceBreaks,
	addUnavailable *settings.AddUnavailableDay,
	removeUnavailable *settings.RemoveUnavailableDay,
) *SettingsHandler {
	return &SettingsHandler{
		getConfig:         getConfig,
		updateHours:       updateHours,
		replaceBreaks:     replaceBreaks,
		addUnavailable:    addUnavailable,
		removeUnavailable: removeUnavailable,
	}
}

type WorkingHoursUpdateRequest struct {
	Days []settings.DayConfig `json:"days" binding:"required,dive"`
}

type BreaksUpdateRequest struct {
	Breaks []settings.BreakConfig `json:"breaks" binding:"dive"`
}

type UnavailableDayRequest struct {
	Date   string `json:"date" binding:"required"` // YYYY-MM-DD
	Reason string `json:"reason"`
}

func (h *SettingsHandler) GetSchedule(c *gin.Context) {
	out, err := h.getConfig.Execute(c.Request.Context(), middleware.OrganizationID(c))
	if err != nil {
		fail(c, err, "get_schedule_failed")
		return
	}
	httpresp.OK(c, out)
}

func (h *SettingsHandler) UpdateWorkingHours(c *gin.Context) {
	var req WorkingHoursUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	out, err := h.updateHours.Execute(c.Request.Context(), middleware.OrganizationID(c), req.Days)
	if err != nil {
		fail(c, err, "update_working_hours_failed")
		return
	}
	httpresp.List(c, out)
}

func (h *SettingsHandler) ReplaceBreaks(c *gin.Context) {
	var req BreaksUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	out, err := h.replaceBreaks.Execute(c.Request.Context(), middleware.OrganizationID(c), req.Breaks)
	if err != nil {
		fail(c, err, "replace_breaks_failed")
		return
	}
	httpresp.List(c, out)
}

func (h *SettingsHandler) AddUnavailableDay(c *gin.Context) {
	var req UnavailableDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	day, err := h.addUnavailable.Execute(c.Request.Context(), middleware.OrganizationID(c), req.Date, req.Reason)
	if err != nil {
		fail(c, err, "add_unavailable_day_failed")
		return
	}
	httpresp.Created(c, day)
}

func (h *SettingsHandler) RemoveUnavailableDay(c *gin.Context) {
	id, ok := parseUUID(c, c.Param("id"), "invalid_unavailable_day_id")
	if !ok {
		return
	}

	if err := h.removeUnavailable.Execute(c.Request.Context(), middleware.OrganizationID(c), id); err != nil {
		fail(c, err, "remove_unavailable_day_failed")
		return
	}
	httpresp.NoContent(c)
}
