package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/agenda-engine/internal/events"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/httpresp"
	"github.com/BruksfildServices01/agenda-engine/internal/middleware"
	"github.com/BruksfildServices01/agenda-engine/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type BookingHandler struct {
	updateStatus *booking.UpdateBookingStatus
	listByDate   *booking.ListBookingsByDate
}

func NewBookingHandler(
	updateStatus *booking.UpdateBookingStatus,
	listByDate *booking.ListBookingsByDate,
) *BookingHandler {
	return &BookingHandler{
		updateStatus: updateStatus,
		listByDate:   listByDate,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ======================================================
// STATUS
// ======================================================

func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	organizationID := middleware.OrganizationID(c)

	bookingID, ok := parseUUID(c, c.Param("id"), "invalid_booking_id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	b, err := h.updateStatus.Execute(c.Request.Context(), organizationID, bookingID, req.Status, events.ActorStaff)
	if err != nil {
		fail(c, err, "update_status_failed")
		return
	}

	httpresp.OK(c, b)
}

// ======================================================
// LIST
// ======================================================

func (h *BookingHandler) ListByDate(c *gin.Context) {
	organizationID := middleware.OrganizationID(c)

	date := c.Query("date")
	if date == "" {
		httperr.BadRequest(c, "missing_date", "date is required (YYYY-MM-DD)")
		return
	}

	out, err := h.listByDate.Execute(c.Request.Context(), organizationID, date)
	if err != nil {
		fail(c, err, "list_bookings_failed")
		return
	}

	httpresp.List(c, out)
}
