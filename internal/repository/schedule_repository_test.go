package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseflow-api/internal/models"
)

var scheduleRowColumns = []string{"id", "course_code", "day_of_week", "start_time", "end_time", "start_minute", "end_minute", "venue", "type", "created_at", "updated_at"}

func TestFindConflictReturnsOverlappingSlot(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, nil)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE course_code = $1 AND day_of_week = $2")).
		WithArgs("CS101", models.Monday, 510, 570).
		WillReturnRows(sqlmock.NewRows(scheduleRowColumns).
			AddRow("s-1", "CS101", "MONDAY", "08:00", "09:00", 480, 540, "Hall A", "LECTURE", now, now))

	slot, err := repo.FindConflict(context.Background(), "CS101", models.Monday, 510, 570, "")
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, "s-1", slot.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindConflictExcludesCurrentSlot(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("AND id <> $5 ORDER BY start_minute ASC LIMIT 1")).
		WithArgs("CS101", models.Monday, 480, 540, "s-1").
		WillReturnError(sql.ErrNoRows)

	slot, err := repo.FindConflict(context.Background(), "CS101", models.Monday, 480, 540, "s-1")
	require.NoError(t, err)
	assert.Nil(t, slot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleFilterBuildsConditions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND s.day_of_week = $1 AND s.venue ILIKE $2 AND s.start_minute < $3 AND s.end_minute > $4")).
		WithArgs(models.Friday, "%hall%", 720, 600).
		WillReturnRows(sqlmock.NewRows(scheduleRowColumns))

	slots, err := repo.Filter(context.Background(), models.ScheduleFilter{
		DayOfWeek: models.Friday,
		Venue:     "hall",
		Window:    models.Interval{Start: 600, End: 720},
	})
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleStatsZeroFillsDays(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("GROUP BY day_of_week").
		WillReturnRows(sqlmock.NewRows([]string{"day_of_week", "count"}).AddRow("MONDAY", 2))
	mock.ExpectQuery("GROUP BY type").
		WillReturnRows(sqlmock.NewRows([]string{"type", "count"}).AddRow("LAB", 2))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSchedules)
	assert.Equal(t, 2, stats.SchedulesByDay[models.Monday])
	assert.Equal(t, 0, stats.SchedulesByDay[models.Sunday])
	assert.Equal(t, 2, stats.SchedulesByType[models.ClassLab])
	assert.Len(t, stats.SchedulesByDay, 7)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentCountActiveCourses(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE department_code = $1 AND is_active = TRUE")).
		WithArgs("CS").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountActiveCourses(context.Background(), "CS")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseActiveCodes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT code FROM courses WHERE is_active = TRUE AND code IN (?, ?)")).
		WithArgs("CS101", "MTH201").
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("CS101"))

	found, err := repo.ActiveCodes(context.Background(), []string{"CS101", "MTH201"})
	require.NoError(t, err)
	assert.True(t, found["CS101"])
	assert.False(t, found["MTH201"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationCodeFindByCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVerificationCodeRepository(db, nil)

	now := time.Now()
	maxUsage := 1
	mock.ExpectQuery(regexp.QuoteMeta("FROM verification_codes vc WHERE vc.code = $1 LIMIT 1")).
		WithArgs("ADMIN2024").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "role", "description", "max_usage", "usage_count", "expires_at", "is_active", "created_by", "created_at", "updated_at"}).
			AddRow("vc-1", "ADMIN2024", "ADMIN", nil, maxUsage, 1, nil, true, nil, now, now))

	code, err := repo.FindByCode(context.Background(), "ADMIN2024")
	require.NoError(t, err)
	assert.True(t, code.Exhausted())
	assert.NoError(t, mock.ExpectationsWereMet())
}
