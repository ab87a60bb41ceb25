package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
)

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client, "courseflow:"), mr
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	stats := models.DepartmentStats{TotalDepartments: 4, DepartmentsWithCourses: 3, DepartmentsWithoutCourses: 1, AverageCoursesPerDepartment: 2.5}
	require.NoError(t, repo.Set(ctx, "stats:departments", stats, time.Minute))
	assert.True(t, mr.Exists("courseflow:stats:departments"))

	var got models.DepartmentStats
	require.NoError(t, repo.Get(ctx, "stats:departments", &got))
	assert.Equal(t, stats, got)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, repo.Get(ctx, "stats:departments", &got), appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "stats:departments", 1, time.Minute))
	require.NoError(t, repo.Set(ctx, "stats:courses", 2, time.Minute))
	require.NoError(t, repo.Set(ctx, "other", 3, time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "stats:*"))
	assert.False(t, mr.Exists("courseflow:stats:departments"))
	assert.False(t, mr.Exists("courseflow:stats:courses"))
	assert.True(t, mr.Exists("courseflow:other"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "")
	ctx := context.Background()

	var dest int
	assert.ErrorIs(t, repo.Get(ctx, "k", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "k", 1, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "*"))
	assert.NoError(t, repo.Ping(ctx))
	assert.False(t, repo.Enabled())
}
