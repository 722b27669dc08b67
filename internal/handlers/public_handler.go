package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
	"github.com/BruksfildServices01/agenda-engine/internal/httpresp"
	"github.com/BruksfildServices01/agenda-engine/internal/models"
	"github.com/BruksfildServices01/agenda-engine/internal/usecase/availability"
	"github.com/BruksfildServices01/agenda-engine/internal/usecase/booking"
)

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

type PublicHandler struct {
	orgs   domain.OrganizationReader
	slots  *availability.GetSlotsForDay
	days   *availability.AvailableDays
	create *booking.CreateBooking
}

func NewPublicHandler(
	orgs domain.OrganizationReader,
	slots *availability.GetSlotsForDay,
	days *availability.AvailableDays,
	create *booking.CreateBooking,
) *PublicHandler {
	return &PublicHandler{
		orgs:   orgs,
		slots:  slots,
		days:   days,
		create: create,
	}
}

////////////////////////////////////////////////////////
// DTOs
////////////////////////////////////////////////////////

type PublicCreateBookingRequest struct {
	ServiceID   string `json:"service_id" binding:"required"`
	ClientName  string `json:"client_name" binding:"required"`
	ClientPhone string `json:"client_phone" binding:"required"`
	ClientEmail string `json:"client_email"`
	Notes       string `json:"notes"`
	StartTime   string `json:"start_time" binding:"required"` // RFC 3339
}

type AvailableDaysResponse struct {
	Year  int      `json:"year"`
	Month int      `json:"month"`
	Days  []string `json:"days"`
}

////////////////////////////////////////////////////////
// HELPERS
////////////////////////////////////////////////////////

func (h *PublicHandler) organization(c *gin.Context) (*models.Organization, bool) {
	org, err := h.orgs.GetOrganizationBySlug(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, domain.ErrRecordNotFound) {
		httperr.NotFound(c, "organization_not_found", "Organization not found.")
		return nil, false
	}
	if err != nil {
		fail(c, err, "organization_lookup_failed")
		return nil, false
	}
	return org, true
}

////////////////////////////////////////////////////////
// SERVICES
////////////////////////////////////////////////////////

func (h *PublicHandler) ListServices(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	services, err := h.orgs.ListActiveServices(c.Request.Context(), org.ID)
	if err != nil {
		fail(c, err, "list_services_failed")
		return
	}

	httpresp.List(c, services)
}

////////////////////////////////////////////////////////
// SLOTS
////////////////////////////////////////////////////////

func (h *PublicHandler) Slots(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	serviceID, ok := parseUUID(c, c.Query("service_id"), "invalid_service_id")
	if !ok {
		return
	}

	out, err := h.slots.Execute(c.Request.Context(), org.ID, serviceID, c.Query("date"))
	if err != nil {
		fail(c, err, "slots_failed")
		return
	}

	httpresp.OK(c, out)
}

////////////////////////////////////////////////////////
// MONTH
////////////////////////////////////////////////////////

func (h *PublicHandler) AvailableDays(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	serviceID, ok := parseUUID(c, c.Query("service_id"), "invalid_service_id")
	if !ok {
		return
	}

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		httperr.BadRequest(c, "invalid_year", "year must be a number")
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		httperr.BadRequest(c, "invalid_month", "month must be a number")
		return
	}

	days, err := h.days.Execute(c.Request.Context(), org.ID, serviceID, year, month)
	if err != nil {
		fail(c, err, "available_days_failed")
		return
	}

	out := AvailableDaysResponse{Year: year, Month: month, Days: make([]string, 0, len(days))}
	for _, d := range days {
		out.Days = append(out.Days, d.String())
	}
	httpresp.OK(c, out)
}

////////////////////////////////////////////////////////
// BOOKINGS
////////////////////////////////////////////////////////

func (h *PublicHandler) CreateBooking(c *gin.Context) {
	org, ok := h.organization(c)
	if !ok {
		return
	}

	var req PublicCreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	serviceID, ok := parseUUID(c, req.ServiceID, "invalid_service_id")
	if !ok {
		return
	}

	b, err := h.create.Execute(c.Request.Context(), booking.CreateBookingInput{
		OrganizationID: org.ID,
		ServiceID:      serviceID,
		Client: domain.ClientInfo{
			Name:  req.ClientName,
			Phone: req.ClientPhone,
			Email: req.ClientEmail,
			Notes: req.Notes,
		},
		StartTime: req.StartTime,
	})
	if err != nil {
		fail(c, err, "create_booking_failed")
		return
	}

	httpresp.Created(c, b)
}
