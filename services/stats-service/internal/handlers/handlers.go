package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tenessy0570/netrefer-api-interface/pkg/logger"
	"github.com/tenessy0570/netrefer-api-interface/pkg/middleware"
	pkgmodels "github.com/tenessy0570/netrefer-api-interface/pkg/models"
	"github.com/tenessy0570/netrefer-api-interface/services/stats-service/internal/models"
	"github.com/tenessy0570/netrefer-api-interface/services/stats-service/internal/service"
)

const serviceName = "stats-service"

type StatisticsService interface {
	GetBtagStatistics(ctx context.Context, req models.BtagStatisticsRequest) (*models.BtagStatistics, error)
}

type Handlers struct {
	stats  StatisticsService
	logger logger.Logger
}

func NewHandlers(stats StatisticsService, log logger.Logger) *Handlers {
	return &Handlers{
		stats:  stats,
		logger: log,
	}
}

func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   serviceName,
	})
}

// Metrics records every served request. Unmatched paths share one label.
func (h *Handlers) Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		service.RecordHTTPRequest(c.Request.Method, path, time.Since(start).Seconds(), c.Writer.Status())
	}
}

func (h *Handlers) BtagStatistics(c *gin.Context) {
	var req models.BtagStatisticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	stats, err := h.stats.GetBtagStatistics(c.Request.Context(), req)
	if err != nil {
		status := statusFor(err)
		log := h.logger.WithContext(c.Request.Context()).WithFields(logger.Fields{
			"btag":       req.Btag,
			"request_id": middleware.GetRequestID(c),
			"status":     status,
		})
		if status >= http.StatusInternalServerError {
			log.Error("Btag statistics failed", logger.Err(err))
		} else {
			log.Warn("Btag statistics rejected", logger.Err(err))
		}

		c.JSON(status, gin.H{"error": publicMessage(status, err)})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handlers) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error": "Not found",
		"path":  c.Request.URL.Path,
	})
}

func (h *Handlers) MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{
		"error":  "Method not allowed",
		"method": c.Request.Method,
	})
}

// publicMessage hides internal detail of server side failures; the full
// error chain is in the log line.
func publicMessage(status int, err error) string {
	switch status {
	case http.StatusBadGateway:
		return "Upstream service error"
	case http.StatusGatewayTimeout:
		return "Upstream service timeout"
	case http.StatusInternalServerError:
		return "Internal server error"
	}
	return err.Error()
}

// statusFor maps service errors to HTTP status codes. Timeouts are
// checked first since they also match ErrUpstream.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pkgmodels.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, pkgmodels.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pkgmodels.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, pkgmodels.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
