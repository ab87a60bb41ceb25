package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseflow-api/internal/repository"
)

type stubProbe struct {
	latency time.Duration
	err     error
	counts  *repository.TableCounts
}

func (p stubProbe) Ping(context.Context) (time.Duration, error) { return p.latency, p.err }

func (p stubProbe) Counts(context.Context) (*repository.TableCounts, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.counts, nil
}

type stubPinger struct {
	enabled bool
	err     error
}

func (p stubPinger) Ping(context.Context) error { return p.err }
func (p stubPinger) Enabled() bool              { return p.enabled }

func TestHealthCheckReportsDatabaseAndMemory(t *testing.T) {
	svc := NewHealthService(stubProbe{}, nil, NewMetricsService(), "test", "1.0.0", nil)
	report, ok := svc.Check(context.Background())
	require.True(t, ok)
	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, "up", report.Info["database"].Status)
	assert.Equal(t, uint64(memoryLimitBytes), report.Info["memory_heap"].Limit)
	assert.Contains(t, report.Info, "memory_rss")

	down := NewHealthService(stubProbe{err: errors.New("refused")}, nil, nil, "test", "1.0.0", nil)
	report, ok = down.Check(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "error", report.Status)
	assert.Equal(t, "down", report.Info["database"].Status)
}

func TestHealthDatabaseIncludesCounts(t *testing.T) {
	counts := &repository.TableCounts{Users: 3, Departments: 2, Courses: 5}
	svc := NewHealthService(stubProbe{latency: 4 * time.Millisecond, counts: counts}, nil, nil, "test", "1.0.0", nil)

	db, err := svc.Database(context.Background())
	require.NoError(t, err)
	assert.True(t, db.Connected)
	assert.Equal(t, int64(4), db.ResponseTimeMs)
	assert.Equal(t, 5, db.Tables.Courses)

	failing := NewHealthService(stubProbe{err: errors.New("refused")}, nil, nil, "test", "1.0.0", nil)
	_, err = failing.Database(context.Background())
	assert.Error(t, err)
}

func TestHealthReadiness(t *testing.T) {
	cases := []struct {
		name  string
		db    stubProbe
		cache stubPinger
		ready bool
	}{
		{name: "all up", cache: stubPinger{enabled: true}, ready: true},
		{name: "cache disabled", cache: stubPinger{err: errors.New("ignored")}, ready: true},
		{name: "cache down", cache: stubPinger{enabled: true, err: errors.New("refused")}, ready: false},
		{name: "db down", db: stubProbe{err: errors.New("refused")}, ready: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewHealthService(tc.db, tc.cache, nil, "test", "1.0.0", nil)
			readiness, ok := svc.Readiness(context.Background())
			assert.Equal(t, tc.ready, ok)
			if tc.ready {
				assert.Equal(t, "ready", readiness.Status)
			} else {
				assert.Equal(t, "not_ready", readiness.Status)
			}
		})
	}
}

func TestHealthSimple(t *testing.T) {
	svc := NewHealthService(stubProbe{}, nil, nil, "production", "2.1.0", nil)
	simple := svc.Simple()
	assert.Equal(t, "ok", simple.Status)
	assert.Equal(t, "production", simple.Environment)
	assert.Equal(t, "2.1.0", simple.Version)
}
