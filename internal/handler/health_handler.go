package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courseflow-api/internal/service"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/response"
)

type healthService interface {
	Check(ctx context.Context) (service.HealthReport, bool)
	Simple() service.SimpleHealth
	Database(ctx context.Context) (*service.DatabaseHealth, error)
	Readiness(ctx context.Context) (service.Readiness, bool)
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	service healthService
}

// NewHealthHandler constructs a health handler.
func NewHealthHandler(svc healthService) *HealthHandler {
	return &HealthHandler{service: svc}
}

// Check godoc
// @Summary Full health check
// @Description Database connectivity plus heap and RSS usage against a 150 MiB limit.
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	report, ok := h.service.Check(c.Request.Context())
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	response.JSON(c, status, report, nil)
}

// Simple godoc
// @Summary Process status
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /health/simple [get]
func (h *HealthHandler) Simple(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Simple(), nil)
}

// Database godoc
// @Summary Database latency and table totals
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.ErrorBody
// @Router /health/database [get]
func (h *HealthHandler) Database(c *gin.Context) {
	report, err := h.service.Database(c.Request.Context())
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "database unavailable"))
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Readiness godoc
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /health/readiness [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	readiness, ok := h.service.Readiness(c.Request.Context())
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	response.JSON(c, status, readiness, nil)
}

// Liveness godoc
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /health/liveness [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{"status": "alive", "timestamp": time.Now().UTC()}, nil)
}
