package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/velastore/velastore-backend/pkg/logger"
)

const (
	ContextRequestIDKey = "request_id"
	ContextLoggerKey    = "logger"
)

// RequestLogger tags every request with an id, attaches a request-scoped
// logger to the context and logs one line per completed request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(ContextRequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		reqLogger := logger.WithContext(map[string]interface{}{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		c.Set(ContextLoggerKey, reqLogger)

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]interface{}{
			"status":     c.Writer.Status(),
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if userID, ok := GetUserID(c); ok {
			fields["user_id"] = userID
		}

		switch {
		case c.Writer.Status() >= 500:
			reqLogger.Error("Request failed", nil, fields)
		case c.Writer.Status() >= 400:
			reqLogger.Warn("Request rejected", fields)
		default:
			reqLogger.Info("Request completed", fields)
		}
	}
}

// GetLoggerFromContext returns the request-scoped logger, falling back to the
// global one when the middleware did not run (e.g. in handler unit tests).
func GetLoggerFromContext(c *gin.Context) *logger.Logger {
	if value, exists := c.Get(ContextLoggerKey); exists {
		if reqLogger, ok := value.(*logger.Logger); ok {
			return reqLogger
		}
	}
	return logger.Get()
}
