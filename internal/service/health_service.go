package service

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/courseflow-api/internal/repository"
)

const memoryLimitBytes = 150 * 1024 * 1024

type healthProbe interface {
	Ping(ctx context.Context) (time.Duration, error)
	Counts(ctx context.Context) (*repository.TableCounts, error)
}

type cachePinger interface {
	Ping(ctx context.Context) error
	Enabled() bool
}

// ComponentStatus reports one dependency.
type ComponentStatus struct {
	Status  string `json:"status"`
	Used    uint64 `json:"used,omitempty"`
	Limit   uint64 `json:"limit,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthReport is returned by the full health check.
type HealthReport struct {
	Status  string                     `json:"status"`
	Info    map[string]ComponentStatus `json:"info"`
	Metrics MetricsSnapshot            `json:"metrics"`
}

// SimpleHealth describes the running process.
type SimpleHealth struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Uptime      float64   `json:"uptime"`
	Environment string    `json:"environment"`
	Version     string    `json:"version"`
}

// DatabaseHealth carries connectivity latency and table totals.
type DatabaseHealth struct {
	Connected      bool                    `json:"connected"`
	ResponseTimeMs int64                   `json:"responseTime"`
	Tables         *repository.TableCounts `json:"tables"`
}

// Readiness reports whether the service can take traffic.
type Readiness struct {
	Status string          `json:"status"`
	Checks map[string]bool `json:"checks"`
}

// HealthService aggregates liveness and readiness probes.
type HealthService struct {
	db      healthProbe
	cache   cachePinger
	metrics *MetricsService
	logger  *zap.Logger
	env     string
	version string
	started time.Time
}

// NewHealthService creates an instance of HealthService.
func NewHealthService(db healthProbe, cache cachePinger, metrics *MetricsService, env, version string, logger *zap.Logger) *HealthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthService{db: db, cache: cache, metrics: metrics, logger: logger, env: env, version: version, started: time.Now()}
}

// Check pings the database and reports memory usage. ok is false when the database is down.
func (s *HealthService) Check(ctx context.Context) (report HealthReport, ok bool) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	report = HealthReport{
		Status: "ok",
		Info: map[string]ComponentStatus{
			"memory_heap": memoryStatus(mem.HeapAlloc),
			"memory_rss":  memoryStatus(mem.Sys),
		},
		Metrics: s.metrics.Snapshot(),
	}
	if _, err := s.db.Ping(ctx); err != nil {
		s.logger.Warn("health check database ping failed", zap.Error(err))
		report.Status = "error"
		report.Info["database"] = ComponentStatus{Status: "down", Message: err.Error()}
		return report, false
	}
	report.Info["database"] = ComponentStatus{Status: "up"}
	return report, true
}

// Simple reports uptime and build information without touching dependencies.
func (s *HealthService) Simple() SimpleHealth {
	return SimpleHealth{
		Status:      "ok",
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(s.started).Seconds(),
		Environment: s.env,
		Version:     s.version,
	}
}

// Database measures ping latency and counts active rows per table.
func (s *HealthService) Database(ctx context.Context) (*DatabaseHealth, error) {
	latency, err := s.db.Ping(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.db.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &DatabaseHealth{Connected: true, ResponseTimeMs: latency.Milliseconds(), Tables: counts}, nil
}

// Readiness checks the database and, when configured, redis.
func (s *HealthService) Readiness(ctx context.Context) (Readiness, bool) {
	checks := map[string]bool{"database": true, "cache": true}
	if _, err := s.db.Ping(ctx); err != nil {
		s.logger.Warn("readiness database ping failed", zap.Error(err))
		checks["database"] = false
	}
	if s.cache != nil && s.cache.Enabled() {
		if err := s.cache.Ping(ctx); err != nil {
			s.logger.Warn("readiness cache ping failed", zap.Error(err))
			checks["cache"] = false
		}
	}
	ready := checks["database"] && checks["cache"]
	status := "ready"
	if !ready {
		status = "not_ready"
	}
	return Readiness{Status: status, Checks: checks}, ready
}

func memoryStatus(used uint64) ComponentStatus {
	status := "up"
	if used >= memoryLimitBytes {
		status = "down"
	}
	return ComponentStatus{Status: status, Used: used, Limit: memoryLimitBytes}
}
