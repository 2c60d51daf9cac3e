package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/thomkungss/expense-bot-setup/internal/domain"
	"github.com/thomkungss/expense-bot-setup/internal/session"
)

const sessionPayloadKey = "sessionPayload"

// Session attaches the verified session payload to the gin context when the
// request carries a valid session cookie. It never rejects the request
// itself; handlers decide whether authentication is required, and an
// expired, tampered, or absent token all look the same to them.
func Session(cookies *session.CookieManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if payload, ok := cookies.Current(c.Request); ok {
			c.Set(sessionPayloadKey, payload)
		}
		c.Next()
	}
}

// GetSessionPayload exposes the authenticated identity to handlers.
func GetSessionPayload(c *gin.Context) (*domain.SessionPayload, bool) {
	value, ok := c.Get(sessionPayloadKey)
	if !ok {
		return nil, false
	}
	payload, ok := value.(*domain.SessionPayload)
	return payload, ok
}
