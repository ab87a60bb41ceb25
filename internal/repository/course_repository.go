package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/courseflow-api/internal/models"
)

var courseEntity = Entity{
	Descriptor: models.Descriptor{
		Name:         "course",
		Identifier:   "code",
		Unique:       []models.UniqueField{{Field: "code", Column: "code"}},
		SoftDelete:   true,
		DefaultSort:  "code",
		DefaultOrder: "ASC",
	},
	Table: "courses",
	Alias: "c",
	Joins: " JOIN departments d ON d.code = c.department_code",
	Columns: []string{
		"c.id", "c.code", "c.name", "c.level", "c.credits", "c.department_code", "c.is_active", "c.created_at", "c.updated_at",
		`d.code AS "department.code"`, `d.name AS "department.name"`,
	},
	Sortable: map[string]string{
		"code":           "c.code",
		"name":           "c.name",
		"level":          "c.level",
		"credits":        "c.credits",
		"departmentCode": "c.department_code",
		"createdAt":      "c.created_at",
		"updatedAt":      "c.updated_at",
	},
	InsertSQL: `INSERT INTO courses (id, code, name, level, credits, department_code, is_active, created_at, updated_at) VALUES (:id, :code, :name, :level, :credits, :department_code, :is_active, :created_at, :updated_at)`,
	UpdateSQL: `UPDATE courses SET code = :code, name = :name, level = :level, credits = :credits, department_code = :department_code, is_active = :is_active, updated_at = :updated_at WHERE id = :id`,
}

// CourseRepository provides database access for courses.
type CourseRepository struct {
	*Store[models.Course]
}

// NewCourseRepository creates a new instance of CourseRepository.
func NewCourseRepository(db *sqlx.DB, observer QueryObserver) *CourseRepository {
	return &CourseRepository{Store: NewStore[models.Course](db, courseEntity, observer)}
}

// FindActive returns every active course ordered by level then code.
func (r *CourseRepository) FindActive(ctx context.Context) ([]models.Course, error) {
	return r.Select(ctx, "active courses", "c.is_active = TRUE", "c.level ASC, c.code ASC")
}

// FindByDepartment returns the active courses of a department.
func (r *CourseRepository) FindByDepartment(ctx context.Context, departmentCode string) ([]models.Course, error) {
	return r.Select(ctx, "courses by department", "c.is_active = TRUE AND c.department_code = $1", "c.level ASC, c.code ASC", departmentCode)
}

// FindByLevel returns the active courses of a level.
func (r *CourseRepository) FindByLevel(ctx context.Context, level models.Level) ([]models.Course, error) {
	return r.Select(ctx, "courses by level", "c.is_active = TRUE AND c.level = $1", "c.code ASC", level)
}

// Search returns active courses whose name or code contains term, ignoring case.
func (r *CourseRepository) Search(ctx context.Context, term string) ([]models.Course, error) {
	return r.Select(ctx, "search courses", "c.is_active = TRUE AND (c.name ILIKE $1 OR c.code ILIKE $1)", "c.code ASC", "%"+term+"%")
}

// FindByCreditRange returns active courses with credits in [min, max].
func (r *CourseRepository) FindByCreditRange(ctx context.Context, min, max int) ([]models.Course, error) {
	return r.Select(ctx, "courses by credits", "c.is_active = TRUE AND c.credits BETWEEN $1 AND $2", "c.credits ASC, c.code ASC", min, max)
}

// FindWithoutSchedules returns active courses that have no timetable slot.
func (r *CourseRepository) FindWithoutSchedules(ctx context.Context) ([]models.Course, error) {
	const where = `c.is_active = TRUE AND NOT EXISTS (SELECT 1 FROM schedules s WHERE s.course_code = c.code)`
	return r.Select(ctx, "courses without schedules", where, "c.code ASC")
}

// ActiveCodes returns which of codes belong to active courses.
func (r *CourseRepository) ActiveCodes(ctx context.Context, codes []string) (map[string]bool, error) {
	defer r.observe("active_codes", time.Now())
	found := make(map[string]bool)
	if len(codes) == 0 {
		return found, nil
	}
	query, args, err := sqlx.In(`SELECT code FROM courses WHERE is_active = TRUE AND code IN (?)`, codes)
	if err != nil {
		return nil, fmt.Errorf("build active course lookup: %w", err)
	}
	var rows []string
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("lookup active courses: %w", err)
	}
	for _, code := range rows {
		found[code] = true
	}
	return found, nil
}

// Stats aggregates the course catalogue.
func (r *CourseRepository) Stats(ctx context.Context) (*models.CourseStats, error) {
	defer r.observe("stats", time.Now())
	stats := &models.CourseStats{
		CoursesByLevel:      make(map[models.Level]int, len(models.Levels)),
		CoursesByDepartment: make(map[string]int),
	}
	for _, level := range models.Levels {
		stats.CoursesByLevel[level] = 0
	}

	var totals struct {
		Total   int     `db:"total"`
		Average float64 `db:"average"`
	}
	if err := r.db.GetContext(ctx, &totals, `SELECT COUNT(*) AS total, COALESCE(AVG(credits), 0) AS average FROM courses WHERE is_active = TRUE`); err != nil {
		return nil, fmt.Errorf("course totals: %w", err)
	}
	stats.TotalCourses = totals.Total
	stats.AverageCredits = totals.Average

	var levels []struct {
		Level models.Level `db:"level"`
		Count int          `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &levels, `SELECT level, COUNT(*) AS count FROM courses WHERE is_active = TRUE GROUP BY level`); err != nil {
		return nil, fmt.Errorf("courses by level: %w", err)
	}
	for _, row := range levels {
		stats.CoursesByLevel[row.Level] = row.Count
	}

	var departments []struct {
		Code  string `db:"code"`
		Count int    `db:"count"`
	}
	const byDepartment = `SELECT d.code, COUNT(c.id) AS count FROM departments d
		LEFT JOIN courses c ON c.department_code = d.code AND c.is_active = TRUE
		WHERE d.is_active = TRUE GROUP BY d.code`
	if err := r.db.SelectContext(ctx, &departments, byDepartment); err != nil {
		return nil, fmt.Errorf("courses by department: %w", err)
	}
	for _, row := range departments {
		stats.CoursesByDepartment[row.Code] = row.Count
	}
	return stats, nil
}
