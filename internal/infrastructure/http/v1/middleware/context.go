package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pharmstock/internal/core/actor"
)

const (
	HeaderRequestID = "X-Request-ID"
	// HeaderActor carries the initials of the pharmacist at the counter.
	// The deployment runs on a trusted LAN; the header feeds logging and
	// the audit trail, not authorization.
	HeaderActor = "X-Actor"
)

// RequestContext assigns a request id and records who is acting. Both land
// in the context so the logger and the audit trail pick them up.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := actor.WithRequestID(c.Request.Context(), requestID)
		if who := c.GetHeader(HeaderActor); who != "" {
			ctx = actor.WithActor(ctx, who)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}
