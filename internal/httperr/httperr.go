package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func TooManyRequests(c *gin.Context, code, message string) {
	Write(c, http.StatusTooManyRequests, code, message)
}

var defaultMessages = map[string]string{
	"service_not_found":      "Service not found.",
	"organization_not_found": "Organization not found.",
	"booking_not_found":      "Booking not found.",
	"time_conflict":          "This time is already taken. Please choose another one.",
	"outside_working_hours":  "The requested time is outside working hours.",
	"date_in_past":           "The date is in the past.",
	"already_unavailable":    "This date is already marked as unavailable.",
	"invalid_transition":     "The booking cannot move to this status.",
	"booking_status_changed": "The booking was updated by someone else. Reload and try again.",
	"service_has_bookings":   "This service has bookings. Deactivate it instead of deleting it.",
}

// FromError writes the response matching err's business kind. Errors
// without a kind are reported as internal failures under fallbackCode.
func FromError(c *gin.Context, err error, fallbackCode string) {
	var be BusinessError
	if !errors.As(err, &be) {
		Internal(c, fallbackCode, "Internal error.")
		return
	}

	msg := be.Message
	if msg == "" {
		msg = defaultMessages[be.Code]
	}
	if msg == "" {
		msg = be.Code
	}

	switch be.Kind {
	case KindNotFound:
		Write(c, http.StatusNotFound, be.Code, msg)
	case KindConflict:
		Write(c, http.StatusConflict, be.Code, msg)
	case KindPastDate:
		Write(c, http.StatusUnprocessableEntity, be.Code, msg)
	default:
		Write(c, http.StatusBadRequest, be.Code, msg)
	}
}
