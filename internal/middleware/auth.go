package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/BruksfildServices01/agenda-engine/internal/httperr"
)

const (
	ContextUserID         = "userID"
	ContextOrganizationID = "organizationID"
)

// AuthMiddleware accepts HMAC-signed bearer tokens carrying the user in
// "sub" and the tenant in "organizationId". Tokens are issued elsewhere.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing_authorization_header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "invalid_authorization_header")
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenMalformed
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "invalid_token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "invalid_token_claims")
			return
		}

		userID, ok1 := uuidClaim(claims, "sub")
		organizationID, ok2 := uuidClaim(claims, "organizationId")
		if !ok1 || !ok2 {
			abortUnauthorized(c, "invalid_token_payload")
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextOrganizationID, organizationID)

		c.Next()
	}
}

func uuidClaim(claims jwt.MapClaims, key string) (uuid.UUID, bool) {
	raw, ok := claims[key].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func abortUnauthorized(c *gin.Context, code string) {
	httperr.Unauthorized(c, code, "Unauthorized.")
	c.Abort()
}

// OrganizationID returns the tenant set by AuthMiddleware.
func OrganizationID(c *gin.Context) uuid.UUID {
	return c.MustGet(ContextOrganizationID).(uuid.UUID)
}
