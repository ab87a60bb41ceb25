package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/courseflow-api/internal/models"
)

const dayOrder = `array_position(ARRAY['MONDAY','TUESDAY','WEDNESDAY','THURSDAY','FRIDAY','SATURDAY','SUNDAY']::text[], s.day_of_week)`

var scheduleEntity = Entity{
	Descriptor: models.Descriptor{
		Name:         "schedule",
		Identifier:   "id",
		SoftDelete:   false,
		DefaultSort:  "start_minute",
		DefaultOrder: "ASC",
	},
	Table: "schedules",
	Alias: "s",
	Joins: " JOIN courses c ON c.code = s.course_code JOIN departments d ON d.code = c.department_code",
	Columns: []string{
		"s.id", "s.course_code", "s.day_of_week", "s.start_time", "s.end_time", "s.start_minute", "s.end_minute",
		"s.venue", "s.type", "s.created_at", "s.updated_at",
		`c.code AS "course.code"`, `c.name AS "course.name"`, `c.level AS "course.level"`,
		`c.credits AS "course.credits"`, `c.department_code AS "course.department_code"`,
		`d.code AS "course.department.code"`, `d.name AS "course.department.name"`,
	},
	Sortable: map[string]string{
		"startTime":  "s.start_minute",
		"endTime":    "s.end_minute",
		"dayOfWeek":  dayOrder,
		"courseCode": "s.course_code",
		"venue":      "s.venue",
		"type":       "s.type",
		"createdAt":  "s.created_at",
	},
	InsertSQL: `INSERT INTO schedules (id, course_code, day_of_week, start_time, end_time, start_minute, end_minute, venue, type, created_at, updated_at) VALUES (:id, :course_code, :day_of_week, :start_time, :end_time, :start_minute, :end_minute, :venue, :type, :created_at, :updated_at)`,
	UpdateSQL: `UPDATE schedules SET course_code = :course_code, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, start_minute = :start_minute, end_minute = :end_minute, venue = :venue, type = :type, updated_at = :updated_at WHERE id = :id`,
}

// ScheduleRepository provides database access for timetable slots.
type ScheduleRepository struct {
	*Store[models.Schedule]
}

// NewScheduleRepository creates a new instance of ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB, observer QueryObserver) *ScheduleRepository {
	return &ScheduleRepository{Store: NewStore[models.Schedule](db, scheduleEntity, observer)}
}

// Filter returns schedules matching every non-empty field of filter, in weekly order.
func (r *ScheduleRepository) Filter(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	add := func(format string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	if filter.CourseCode != "" {
		add("s.course_code = $%d", filter.CourseCode)
	}
	if filter.DepartmentCode != "" {
		add("c.department_code = $%d", filter.DepartmentCode)
	}
	if filter.Level != "" {
		add("c.level = $%d", filter.Level)
	}
	if filter.DayOfWeek != "" {
		add("s.day_of_week = $%d", filter.DayOfWeek)
	}
	if filter.Venue != "" {
		add("s.venue ILIKE $%d", "%"+filter.Venue+"%")
	}
	if filter.Type != "" {
		add("s.type = $%d", filter.Type)
	}
	if filter.Window.End > 0 {
		add("s.start_minute < $%d", filter.Window.End)
		add("s.end_minute > $%d", filter.Window.Start)
	}

	return r.Select(ctx, "filter schedules", strings.Join(conditions, " AND "), dayOrder+" ASC, s.start_minute ASC, s.course_code ASC", args...)
}

// FindByCourseCodes returns the slots of the given courses in weekly order.
func (r *ScheduleRepository) FindByCourseCodes(ctx context.Context, codes []string) ([]models.Schedule, error) {
	if len(codes) == 0 {
		return []models.Schedule{}, nil
	}
	return r.Select(ctx, "schedules by courses", "s.course_code = ANY($1)", dayOrder+" ASC, s.start_minute ASC", pq.Array(codes))
}

// FindConflict returns the first slot of the same course and day that overlaps [start, end).
// A slot overlaps when the candidate starts inside it, ends inside it, or contains it.
// excludeID skips the slot being updated.
func (r *ScheduleRepository) FindConflict(ctx context.Context, courseCode string, day models.DayOfWeek, start, end int, excludeID string) (*models.Schedule, error) {
	defer r.observe("find_conflict", time.Now())
	query := `SELECT id, course_code, day_of_week, start_time, end_time, start_minute, end_minute, venue, type, created_at, updated_at
		FROM schedules
		WHERE course_code = $1 AND day_of_week = $2
		AND ((start_minute <= $3 AND end_minute > $3)
			OR (start_minute < $4 AND end_minute >= $4)
			OR (start_minute >= $3 AND end_minute <= $4))`
	args := []interface{}{courseCode, day, start, end}
	if excludeID != "" {
		query += " AND id <> $5"
		args = append(args, excludeID)
	}
	query += " ORDER BY start_minute ASC LIMIT 1"

	var slot models.Schedule
	if err := r.db.GetContext(ctx, &slot, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find schedule conflict: %w", err)
	}
	return &slot, nil
}

// FindByCourseDays returns every slot of the given courses, used to check uploads against stored slots.
func (r *ScheduleRepository) FindByCourseDays(ctx context.Context, codes []string) ([]models.Schedule, error) {
	defer r.observe("find_by_course_days", time.Now())
	if len(codes) == 0 {
		return []models.Schedule{}, nil
	}
	const query = `SELECT id, course_code, day_of_week, start_time, end_time, start_minute, end_minute, venue, type, created_at, updated_at
		FROM schedules WHERE course_code = ANY($1) ORDER BY course_code, day_of_week, start_minute`
	out := make([]models.Schedule, 0)
	if err := r.db.SelectContext(ctx, &out, query, pq.Array(codes)); err != nil {
		return nil, fmt.Errorf("schedules for courses: %w", err)
	}
	return out, nil
}

// Stats aggregates the timetable by day and by class type.
func (r *ScheduleRepository) Stats(ctx context.Context) (*models.ScheduleStats, error) {
	defer r.observe("stats", time.Now())
	stats := &models.ScheduleStats{
		SchedulesByDay:  make(map[models.DayOfWeek]int, len(models.Days)),
		SchedulesByType: make(map[models.ClassType]int, len(models.ClassTypes)),
	}
	for _, day := range models.Days {
		stats.SchedulesByDay[day] = 0
	}
	for _, t := range models.ClassTypes {
		stats.SchedulesByType[t] = 0
	}

	if err := r.db.GetContext(ctx, &stats.TotalSchedules, `SELECT COUNT(*) FROM schedules`); err != nil {
		return nil, fmt.Errorf("count schedules: %w", err)
	}

	var days []struct {
		Day   models.DayOfWeek `db:"day_of_week"`
		Count int              `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &days, `SELECT day_of_week, COUNT(*) AS count FROM schedules GROUP BY day_of_week`); err != nil {
		return nil, fmt.Errorf("schedules by day: %w", err)
	}
	for _, row := range days {
		stats.SchedulesByDay[row.Day] = row.Count
	}

	var types []struct {
		Type  models.ClassType `db:"type"`
		Count int              `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &types, `SELECT type, COUNT(*) AS count FROM schedules GROUP BY type`); err != nil {
		return nil, fmt.Errorf("schedules by type: %w", err)
	}
	for _, row := range types {
		stats.SchedulesByType[row.Type] = row.Count
	}
	return stats, nil
}
