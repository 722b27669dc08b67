package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
)

// fail attaches err to the request for the access log and writes the
// matching error response.
func fail(c *gin.Context, err error, fallbackCode string) {
	_ = c.Error(err)
	httperr.FromError(c, err, fallbackCode)
}

func parseUUID(c *gin.Context, raw, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		httperr.BadRequest(c, code, "Invalid identifier.")
		return uuid.Nil, false
	}
	return id, true
}
