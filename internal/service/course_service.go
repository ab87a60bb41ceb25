package service

import (
	"context"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/csvimport"
	"github.com/noah-isme/courseflow-api/pkg/export"
)

type courseRepository interface {
	entityStore[models.Course]
	FindActive(ctx context.Context) ([]models.Course, error)
	FindByDepartment(ctx context.Context, departmentCode string) ([]models.Course, error)
	FindByLevel(ctx context.Context, level models.Level) ([]models.Course, error)
	Search(ctx context.Context, term string) ([]models.Course, error)
	FindByCreditRange(ctx context.Context, min, max int) ([]models.Course, error)
	FindWithoutSchedules(ctx context.Context) ([]models.Course, error)
	Stats(ctx context.Context) (*models.CourseStats, error)
	Existing(ctx context.Context, column string, values []string) (map[string]bool, error)
	InsertAll(ctx context.Context, records []*models.Course) error
}

type departmentLookup interface {
	IsActive(ctx context.Context, code string) (bool, error)
	Existing(ctx context.Context, column string, values []string) (map[string]bool, error)
}

// CourseService manages the course catalogue.
type CourseService struct {
	*CRUDService[models.Course, models.CreateCourseRequest, models.UpdateCourseRequest]
	repo        courseRepository
	departments departmentLookup
	cache       *CacheService
	metrics     *MetricsService
	csv         *export.CSVExporter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService creates an instance of CourseService.
func NewCourseService(repo courseRepository, departments departmentLookup, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CourseService{repo: repo, departments: departments, cache: cache, metrics: metrics, csv: export.NewCSVExporter(), logger: logger}
	s.CRUDService = NewCRUDService[models.Course, models.CreateCourseRequest, models.UpdateCourseRequest](repo, CRUDHooks[models.Course, models.CreateCourseRequest, models.UpdateCourseRequest]{
		Build:      s.build,
		Apply:      s.apply,
		AfterWrite: s.invalidate,
	}, validate, logger)
	s.validator = s.CRUDService.validator
	return s
}

func (s *CourseService) build(ctx context.Context, req models.CreateCourseRequest) (*models.Course, error) {
	if err := s.requireDepartment(ctx, req.DepartmentCode); err != nil {
		return nil, err
	}
	credits := models.DefaultCredits
	if req.Credits != nil {
		credits = *req.Credits
	}
	return &models.Course{
		Code:           req.Code,
		Name:           req.Name,
		Level:          req.Level,
		Credits:        credits,
		DepartmentCode: req.DepartmentCode,
		IsActive:       true,
	}, nil
}

func (s *CourseService) apply(ctx context.Context, course *models.Course, req models.UpdateCourseRequest) error {
	if req.DepartmentCode != nil && *req.DepartmentCode != course.DepartmentCode {
		if err := s.requireDepartment(ctx, *req.DepartmentCode); err != nil {
			return err
		}
		course.DepartmentCode = *req.DepartmentCode
	}
	if req.Code != nil {
		course.Code = *req.Code
	}
	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.Credits != nil {
		course.Credits = *req.Credits
	}
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}
	return nil
}

func (s *CourseService) requireDepartment(ctx context.Context, code string) error {
	active, err := s.departments.IsActive(ctx, code)
	if err != nil {
		return translate(err, "department", "load")
	}
	if !active {
		return appErrors.BadRequest(fmt.Sprintf("Department with code '%s' does not exist or is inactive", code))
	}
	return nil
}

func (s *CourseService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, statsKeyPattern)
}

// Active returns every active course.
func (s *CourseService) Active(ctx context.Context) ([]models.Course, error) {
	return s.wrap(s.repo.FindActive(ctx))
}

// ByDepartment returns the active courses of a department.
func (s *CourseService) ByDepartment(ctx context.Context, departmentCode string) ([]models.Course, error) {
	return s.wrap(s.repo.FindByDepartment(ctx, departmentCode))
}

// ByLevel returns the active courses of a level.
func (s *CourseService) ByLevel(ctx context.Context, level models.Level) ([]models.Course, error) {
	if !level.Valid() {
		return nil, appErrors.BadRequest(fmt.Sprintf("invalid level %q", level))
	}
	return s.wrap(s.repo.FindByLevel(ctx, level))
}

// Search returns courses whose name or code contains term.
func (s *CourseService) Search(ctx context.Context, term string) ([]models.Course, error) {
	return s.wrap(s.repo.Search(ctx, term))
}

// ByCreditRange returns active courses with credits within [min, max].
func (s *CourseService) ByCreditRange(ctx context.Context, min, max int) ([]models.Course, error) {
	if min < 0 || max < min {
		return nil, appErrors.BadRequest("credit range must satisfy 0 <= min <= max")
	}
	return s.wrap(s.repo.FindByCreditRange(ctx, min, max))
}

// WithoutSchedules returns active courses with no timetable slot.
func (s *CourseService) WithoutSchedules(ctx context.Context) ([]models.Course, error) {
	return s.wrap(s.repo.FindWithoutSchedules(ctx))
}

func (s *CourseService) wrap(courses []models.Course, err error) ([]models.Course, error) {
	if err != nil {
		return nil, translate(err, "course", "list")
	}
	return courses, nil
}

// Statistics returns catalogue totals, served from cache when available.
func (s *CourseService) Statistics(ctx context.Context) (*models.CourseStats, error) {
	stats, err := cached(ctx, s.cache, statsCoursesKey, s.repo.Stats)
	if err != nil {
		return nil, translate(err, "course", "compute statistics for")
	}
	return stats, nil
}

// Template returns the CSV template for course uploads.
func (s *CourseService) Template() ([]byte, error) {
	return s.csv.Template(models.CourseCSVHeaders, map[string]string{
		"code":           "CS101",
		"name":           "Introduction to Computer Science",
		"level":          string(models.Level100),
		"credits":        "3",
		"departmentCode": "CS",
	})
}

// BulkCreate imports courses from CSV. Nothing is stored when any row fails.
func (s *CourseService) BulkCreate(ctx context.Context, r io.Reader) (csvimport.BulkResult[models.Course], error) {
	parsed, err := parseUpload[models.CourseCSVRow](r, s.validator, models.CourseCSVHeaders)
	if err != nil {
		return csvimport.BulkResult[models.Course]{}, err
	}

	codes := make([]string, 0, len(parsed.Rows))
	deptCodes := make([]string, 0, len(parsed.Rows))
	for _, row := range parsed.Rows {
		codes = append(codes, row.Record.Code)
		deptCodes = append(deptCodes, row.Record.DepartmentCode)
	}
	taken, err := s.repo.Existing(ctx, "code", codes)
	if err != nil {
		return csvimport.BulkResult[models.Course]{}, translate(err, "course", "import")
	}
	knownDepts, err := s.departments.Existing(ctx, "code", deptCodes)
	if err != nil {
		return csvimport.BulkResult[models.Course]{}, translate(err, "department", "load")
	}

	rowErrors := append([]csvimport.RowError{}, parsed.Errors...)
	pending := make([]pendingRow[models.Course], 0, len(parsed.Rows))
	seen := make(map[string]int)
	for _, row := range parsed.Rows {
		rec := row.Record
		failed := false
		if taken[rec.Code] {
			rowErrors = append(rowErrors, rowError(row.Line, "code", rec.Code, "Course with code '%s' already exists", rec.Code))
			failed = true
		} else if first, dup := seen[rec.Code]; dup {
			rowErrors = append(rowErrors, rowError(row.Line, "code", rec.Code, "Duplicate course code '%s' (first seen on row %d)", rec.Code, first))
			failed = true
		} else {
			seen[rec.Code] = row.Line
		}
		if !knownDepts[rec.DepartmentCode] {
			rowErrors = append(rowErrors, rowError(row.Line, "departmentCode", rec.DepartmentCode, "Department with code '%s' does not exist", rec.DepartmentCode))
			failed = true
		}
		if failed {
			continue
		}
		pending = append(pending, pendingRow[models.Course]{Line: row.Line, Record: &models.Course{
			Code:           rec.Code,
			Name:           rec.Name,
			Level:          rec.Level,
			Credits:        rec.Credits,
			DepartmentCode: rec.DepartmentCode,
			IsActive:       true,
		}})
	}

	result, err := commitImport(ctx, s.repo.InsertAll, "course", pending, rowErrors, parsed.Total, s.metrics)
	if err != nil {
		return result, err
	}
	if result.Success {
		s.invalidate(ctx)
	}
	s.logger.Info("course import finished",
		zap.Int("total_rows", result.Summary.TotalRows),
		zap.Int("created", result.Summary.SuccessCount),
		zap.Int("errors", result.Summary.ErrorCount))
	return result, nil
}
