package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medcenter/hms-vouchers/internal/domain/event"
	"github.com/medcenter/hms-vouchers/pkg/utils"
)

const (
	// HeaderRequestID carries the request id in both directions
	HeaderRequestID = "X-Request-ID"
	// HeaderActor names the person acting; it is recorded in voucher history
	HeaderActor = "X-Actor"

	requestIDKey = "request_id"
)

// requestIDMiddleware reuses the caller's request id or mints one and
// threads it into the request context as the event correlation id
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(event.ContextWithCorrelationID(c.Request.Context(), id))

		c.Next()
	}
}

func loggingMiddleware(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

// authMiddleware requires "Authorization: Bearer <token>" when token is set
func authMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		presented, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Detail: "Not authenticated"})
			return
		}

		c.Next()
	}
}

func actorFrom(c *gin.Context) string {
	return utils.SanitizeString(c.GetHeader(HeaderActor))
}
