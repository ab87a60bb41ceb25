package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/courseflow-api/internal/models"
)

var departmentEntity = Entity{
	Descriptor: models.Descriptor{
		Name:         "department",
		Identifier:   "code",
		Unique:       []models.UniqueField{{Field: "code", Column: "code"}, {Field: "name", Column: "name"}},
		SoftDelete:   true,
		DefaultSort:  "name",
		DefaultOrder: "ASC",
	},
	Table:   "departments",
	Alias:   "d",
	Columns: []string{"d.id", "d.code", "d.name", "d.is_active", "d.created_at", "d.updated_at"},
	Sortable: map[string]string{
		"code":      "d.code",
		"name":      "d.name",
		"createdAt": "d.created_at",
		"updatedAt": "d.updated_at",
	},
	InsertSQL: `INSERT INTO departments (id, code, name, is_active, created_at, updated_at) VALUES (:id, :code, :name, :is_active, :created_at, :updated_at)`,
	UpdateSQL: `UPDATE departments SET code = :code, name = :name, is_active = :is_active, updated_at = :updated_at WHERE id = :id`,
}

// DepartmentRepository provides database access for departments.
type DepartmentRepository struct {
	*Store[models.Department]
	courses   *CourseRepository
	schedules *ScheduleRepository
}

// NewDepartmentRepository creates a new instance of DepartmentRepository.
func NewDepartmentRepository(db *sqlx.DB, observer QueryObserver) *DepartmentRepository {
	return &DepartmentRepository{
		Store:     NewStore[models.Department](db, departmentEntity, observer),
		courses:   NewCourseRepository(db, observer),
		schedules: NewScheduleRepository(db, observer),
	}
}

// Search returns active departments whose name contains term, ignoring case.
func (r *DepartmentRepository) Search(ctx context.Context, term string) ([]models.Department, error) {
	return r.Select(ctx, "search departments", "d.is_active = TRUE AND d.name ILIKE $1", "d.name ASC", "%"+term+"%")
}

// FindWithoutCourses returns active departments that own no active course.
func (r *DepartmentRepository) FindWithoutCourses(ctx context.Context) ([]models.Department, error) {
	const where = `d.is_active = TRUE AND NOT EXISTS (SELECT 1 FROM courses c WHERE c.department_code = d.code AND c.is_active = TRUE)`
	return r.Select(ctx, "departments without courses", where, "d.name ASC")
}

// FindWithCourseCount returns active departments with their active course totals.
func (r *DepartmentRepository) FindWithCourseCount(ctx context.Context) ([]models.DepartmentWithCount, error) {
	defer r.observe("with_course_count", time.Now())
	const query = `SELECT d.id, d.code, d.name, d.is_active, d.created_at, d.updated_at,
		(SELECT COUNT(*) FROM courses c WHERE c.department_code = d.code AND c.is_active = TRUE) AS course_count
		FROM departments d WHERE d.is_active = TRUE ORDER BY d.name ASC`
	out := make([]models.DepartmentWithCount, 0)
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("departments with course count: %w", err)
	}
	return out, nil
}

// FindWithCourses returns active departments each with their active courses.
func (r *DepartmentRepository) FindWithCourses(ctx context.Context) ([]models.DepartmentWithCourses, error) {
	departments, err := r.FindAll(ctx, models.ListOptions{})
	if err != nil {
		return nil, err
	}
	courses, err := r.courses.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	byDepartment := make(map[string][]models.Course)
	for _, course := range courses {
		byDepartment[course.DepartmentCode] = append(byDepartment[course.DepartmentCode], course)
	}
	out := make([]models.DepartmentWithCourses, 0, len(departments))
	for _, d := range departments {
		owned := byDepartment[d.Code]
		if owned == nil {
			owned = []models.Course{}
		}
		out = append(out, models.DepartmentWithCourses{Department: d, Courses: owned})
	}
	return out, nil
}

// FindFullDetails returns a department with its active courses and their schedules.
func (r *DepartmentRepository) FindFullDetails(ctx context.Context, code string) (*models.DepartmentDetails, error) {
	department, err := r.FindOneAny(ctx, code)
	if err != nil {
		return nil, err
	}
	courses, err := r.courses.FindByDepartment(ctx, code)
	if err != nil {
		return nil, err
	}
	codes := make([]string, len(courses))
	for i, c := range courses {
		codes[i] = c.Code
	}
	schedules, err := r.schedules.FindByCourseCodes(ctx, codes)
	if err != nil {
		return nil, err
	}

	byCourse := make(map[string][]models.Schedule)
	for _, s := range schedules {
		byCourse[s.CourseCode] = append(byCourse[s.CourseCode], s)
	}
	details := &models.DepartmentDetails{Department: *department, Courses: make([]models.CourseWithSchedules, 0, len(courses))}
	for _, c := range courses {
		slots := byCourse[c.Code]
		if slots == nil {
			slots = []models.Schedule{}
		}
		details.Courses = append(details.Courses, models.CourseWithSchedules{Course: c, Schedules: slots})
	}
	return details, nil
}

// CountActiveCourses returns the number of active courses owned by the department.
func (r *DepartmentRepository) CountActiveCourses(ctx context.Context, code string) (int, error) {
	defer r.observe("count_active_courses", time.Now())
	const query = `SELECT COUNT(*) FROM courses WHERE department_code = $1 AND is_active = TRUE`
	var total int
	if err := r.db.GetContext(ctx, &total, query, code); err != nil {
		return 0, fmt.Errorf("count department courses: %w", err)
	}
	return total, nil
}

// IsActive reports whether an active department carries the code.
func (r *DepartmentRepository) IsActive(ctx context.Context, code string) (bool, error) {
	if _, err := r.FindOne(ctx, code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Stats aggregates department coverage.
func (r *DepartmentRepository) Stats(ctx context.Context) (*models.DepartmentStats, error) {
	defer r.observe("stats", time.Now())
	const query = `SELECT
		(SELECT COUNT(*) FROM departments WHERE is_active = TRUE) AS total,
		(SELECT COUNT(*) FROM departments d WHERE d.is_active = TRUE AND EXISTS (
			SELECT 1 FROM courses c WHERE c.department_code = d.code AND c.is_active = TRUE)) AS with_courses,
		(SELECT COUNT(*) FROM courses WHERE is_active = TRUE) AS courses`
	var row struct {
		Total       int `db:"total"`
		WithCourses int `db:"with_courses"`
		Courses     int `db:"courses"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return nil, fmt.Errorf("department stats: %w", err)
	}
	stats := &models.DepartmentStats{
		TotalDepartments:          row.Total,
		DepartmentsWithCourses:    row.WithCourses,
		DepartmentsWithoutCourses: row.Total - row.WithCourses,
	}
	if row.Total > 0 {
		stats.AverageCoursesPerDepartment = float64(row.Courses) / float64(row.Total)
	}
	return stats, nil
}
