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

type departmentRepository interface {
	entityStore[models.Department]
	Search(ctx context.Context, term string) ([]models.Department, error)
	FindWithoutCourses(ctx context.Context) ([]models.Department, error)
	FindWithCourseCount(ctx context.Context) ([]models.DepartmentWithCount, error)
	FindWithCourses(ctx context.Context) ([]models.DepartmentWithCourses, error)
	FindFullDetails(ctx context.Context, code string) (*models.DepartmentDetails, error)
	CountActiveCourses(ctx context.Context, code string) (int, error)
	Stats(ctx context.Context) (*models.DepartmentStats, error)
	Existing(ctx context.Context, column string, values []string) (map[string]bool, error)
	InsertAll(ctx context.Context, records []*models.Department) error
}

// DepartmentService manages departments and their bulk uploads.
type DepartmentService struct {
	*CRUDService[models.Department, models.CreateDepartmentRequest, models.UpdateDepartmentRequest]
	repo      departmentRepository
	cache     *CacheService
	metrics   *MetricsService
	csv       *export.CSVExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDepartmentService creates an instance of DepartmentService.
func NewDepartmentService(repo departmentRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *DepartmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &DepartmentService{repo: repo, cache: cache, metrics: metrics, csv: export.NewCSVExporter(), logger: logger}
	s.CRUDService = NewCRUDService[models.Department, models.CreateDepartmentRequest, models.UpdateDepartmentRequest](repo, CRUDHooks[models.Department, models.CreateDepartmentRequest, models.UpdateDepartmentRequest]{
		Build:      s.build,
		Apply:      s.apply,
		AfterWrite: s.invalidate,
	}, validate, logger)
	s.validator = s.CRUDService.validator
	return s
}

func (s *DepartmentService) build(_ context.Context, req models.CreateDepartmentRequest) (*models.Department, error) {
	return &models.Department{Code: req.Code, Name: req.Name, IsActive: true}, nil
}

func (s *DepartmentService) apply(_ context.Context, dept *models.Department, req models.UpdateDepartmentRequest) error {
	if req.Code != nil {
		dept.Code = *req.Code
	}
	if req.Name != nil {
		dept.Name = *req.Name
	}
	if req.IsActive != nil {
		dept.IsActive = *req.IsActive
	}
	return nil
}

func (s *DepartmentService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, statsKeyPattern)
}

// Remove deactivates a department that no longer owns active courses.
func (s *DepartmentService) Remove(ctx context.Context, code string) (*models.Department, error) {
	if _, err := s.Get(ctx, code); err != nil {
		return nil, err
	}
	count, err := s.repo.CountActiveCourses(ctx, code)
	if err != nil {
		return nil, translate(err, "department", "count courses of")
	}
	if count > 0 {
		return nil, appErrors.Conflict(fmt.Sprintf("Cannot delete department. It has %d active courses.", count))
	}
	return s.CRUDService.Remove(ctx, code)
}

// Search returns departments whose name contains term.
func (s *DepartmentService) Search(ctx context.Context, term string) ([]models.Department, error) {
	out, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, translate(err, "department", "search")
	}
	return out, nil
}

// WithoutCourses returns departments with no active course.
func (s *DepartmentService) WithoutCourses(ctx context.Context) ([]models.Department, error) {
	out, err := s.repo.FindWithoutCourses(ctx)
	if err != nil {
		return nil, translate(err, "department", "list")
	}
	return out, nil
}

// WithCourseCount returns departments with their active course totals.
func (s *DepartmentService) WithCourseCount(ctx context.Context) ([]models.DepartmentWithCount, error) {
	out, err := s.repo.FindWithCourseCount(ctx)
	if err != nil {
		return nil, translate(err, "department", "list")
	}
	return out, nil
}

// WithCourses returns departments with their active courses.
func (s *DepartmentService) WithCourses(ctx context.Context) ([]models.DepartmentWithCourses, error) {
	out, err := s.repo.FindWithCourses(ctx)
	if err != nil {
		return nil, translate(err, "department", "list")
	}
	return out, nil
}

// FullDetails returns a department with its courses and their schedules.
func (s *DepartmentService) FullDetails(ctx context.Context, code string) (*models.DepartmentDetails, error) {
	details, err := s.repo.FindFullDetails(ctx, code)
	if err != nil {
		return nil, translate(err, "department", "load")
	}
	return details, nil
}

// Statistics returns department coverage, served from cache when available.
func (s *DepartmentService) Statistics(ctx context.Context) (*models.DepartmentStats, error) {
	stats, err := cached(ctx, s.cache, statsDepartmentsKey, s.repo.Stats)
	if err != nil {
		return nil, translate(err, "department", "compute statistics for")
	}
	return stats, nil
}

// Template returns the CSV template for department uploads.
func (s *DepartmentService) Template() ([]byte, error) {
	return s.csv.Template(models.DepartmentCSVHeaders, map[string]string{"code": "CS", "name": "Computer Science"})
}

// BulkCreate imports departments from CSV. Nothing is stored when any row fails.
func (s *DepartmentService) BulkCreate(ctx context.Context, r io.Reader) (csvimport.BulkResult[models.Department], error) {
	parsed, err := parseUpload[models.DepartmentCSVRow](r, s.validator, models.DepartmentCSVHeaders)
	if err != nil {
		return csvimport.BulkResult[models.Department]{}, err
	}

	codes := make([]string, 0, len(parsed.Rows))
	names := make([]string, 0, len(parsed.Rows))
	for _, row := range parsed.Rows {
		codes = append(codes, row.Record.Code)
		names = append(names, row.Record.Name)
	}
	takenCodes, err := s.repo.Existing(ctx, "code", codes)
	if err != nil {
		return csvimport.BulkResult[models.Department]{}, translate(err, "department", "import")
	}
	takenNames, err := s.repo.Existing(ctx, "name", names)
	if err != nil {
		return csvimport.BulkResult[models.Department]{}, translate(err, "department", "import")
	}

	rowErrors := append([]csvimport.RowError{}, parsed.Errors...)
	pending := make([]pendingRow[models.Department], 0, len(parsed.Rows))
	seenCodes := make(map[string]int)
	seenNames := make(map[string]int)
	for _, row := range parsed.Rows {
		rec := row.Record
		failed := false
		if takenCodes[rec.Code] {
			rowErrors = append(rowErrors, rowError(row.Line, "code", rec.Code, "Department with code '%s' already exists", rec.Code))
			failed = true
		} else if first, dup := seenCodes[rec.Code]; dup {
			rowErrors = append(rowErrors, rowError(row.Line, "code", rec.Code, "Duplicate department code '%s' (first seen on row %d)", rec.Code, first))
			failed = true
		}
		// one error per row: the name is only checked once the code passed
		if !failed {
			if takenNames[rec.Name] {
				rowErrors = append(rowErrors, rowError(row.Line, "name", rec.Name, "Department with name '%s' already exists", rec.Name))
				failed = true
			} else if first, dup := seenNames[rec.Name]; dup {
				rowErrors = append(rowErrors, rowError(row.Line, "name", rec.Name, "Duplicate department name '%s' (first seen on row %d)", rec.Name, first))
				failed = true
			}
		}
		if _, ok := seenCodes[rec.Code]; !ok {
			seenCodes[rec.Code] = row.Line
		}
		if _, ok := seenNames[rec.Name]; !ok {
			seenNames[rec.Name] = row.Line
		}
		if failed {
			continue
		}
		pending = append(pending, pendingRow[models.Department]{Line: row.Line, Record: &models.Department{Code: rec.Code, Name: rec.Name, IsActive: true}})
	}

	result, err := commitImport(ctx, s.repo.InsertAll, "department", pending, rowErrors, parsed.Total, s.metrics)
	if err != nil {
		return result, err
	}
	if result.Success {
		s.invalidate(ctx)
	}
	s.logger.Info("department import finished",
		zap.Int("total_rows", result.Summary.TotalRows),
		zap.Int("created", result.Summary.SuccessCount),
		zap.Int("errors", result.Summary.ErrorCount))
	return result, nil
}
