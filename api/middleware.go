package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"orbid_backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ZapLoggerMiddleware logs every request with its latency and instruments
// the Prometheus request metrics.
func ZapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	requestLogger := logger.Named("HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(latency.Seconds())

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("clientIP", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			requestLogger.Error("Request completed", fields...)
		case status >= http.StatusBadRequest:
			requestLogger.Warn("Request completed", fields...)
		default:
			requestLogger.Debug("Request completed", fields...)
		}
	}
}

// AdminAuth guards admin endpoints with a bearer token. Requests without a
// matching token get 401; a missing server-side secret is a config error.
func AdminAuth(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminToken == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "ADMIN_SECRET not configured"})
			return
		}
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token != adminToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// requestLanguage picks the reply language from the Accept-Language header.
// Spanish is the only non-default translation shipped today.
func requestLanguage(c *gin.Context) string {
	if strings.HasPrefix(c.GetHeader("Accept-Language"), "es") {
		return "es"
	}
	return "en"
}
