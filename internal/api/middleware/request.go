// internal/api/middleware/request.go
package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDKey = "requestID"
	loggerKey    = "logger"

	RequestIDHeader = "X-Request-ID"
)

// RequestContext tags the request with an id and a logger carrying it.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		logger := slog.Default().With(
			"request_id", requestID,
			"client_ip", c.ClientIP(),
		)
		c.Set(requestIDKey, requestID)
		c.Set(loggerKey, logger)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// Logger returns the request-scoped logger, falling back to the default.
func Logger(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if logger, ok := v.(*slog.Logger); ok {
			return logger
		}
	}
	return slog.Default()
}

func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequestLogger logs every completed request at a level chosen by its status
// class.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if user := CurrentUser(c); user != nil {
			attrs = append(attrs, "user_id", user.ID.Hex())
		}

		logger := Logger(c)
		switch {
		case status >= 500:
			logger.Error("Request completed with server error", attrs...)
		case status >= 400:
			logger.Warn("Request completed with client error", attrs...)
		default:
			logger.Info("Request completed successfully", attrs...)
		}
	}
}
