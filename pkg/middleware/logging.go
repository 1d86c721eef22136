package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tenessy0570/netrefer-api-interface/pkg/logger"
)

// RequestLogger emits one structured line per request. Paths listed in
// skipPaths (health checks, metrics scrapes) are not logged.
func RequestLogger(log logger.Logger, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if _, ok := skip[path]; ok {
			return
		}

		status := c.Writer.Status()
		fields := []logger.Field{
			{Key: "method", Value: c.Request.Method},
			{Key: "path", Value: path},
			{Key: "status", Value: status},
			{Key: "latency", Value: time.Since(start).String()},
			{Key: "client_ip", Value: c.ClientIP()},
			{Key: "request_id", Value: GetRequestID(c)},
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logger.Field{Key: "error", Value: c.Errors.String()})
		}

		switch {
		case status >= 500:
			log.Error("Request failed", fields...)
		case status >= 400:
			log.Warn("Request rejected", fields...)
		default:
			log.Info("Request completed", fields...)
		}
	}
}
