package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/csvimport"
	"github.com/noah-isme/courseflow-api/pkg/export"
)

// Timetable export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var scheduleExportHeaders = []string{"courseCode", "courseName", "departmentCode", "dayOfWeek", "startTime", "endTime", "venue", "type"}

type scheduleRepository interface {
	entityStore[models.Schedule]
	Filter(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, error)
	FindConflict(ctx context.Context, courseCode string, day models.DayOfWeek, start, end int, excludeID string) (*models.Schedule, error)
	FindByCourseDays(ctx context.Context, codes []string) ([]models.Schedule, error)
	Stats(ctx context.Context) (*models.ScheduleStats, error)
	InsertAll(ctx context.Context, records []*models.Schedule) error
}

type courseLookup interface {
	ActiveCodes(ctx context.Context, codes []string) (map[string]bool, error)
}

// ExportFile is a rendered timetable ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ScheduleService manages timetable slots and guards them against overlaps.
type ScheduleService struct {
	*CRUDService[models.Schedule, models.CreateScheduleRequest, models.UpdateScheduleRequest]
	repo      scheduleRepository
	courses   courseLookup
	cache     *CacheService
	metrics   *MetricsService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService creates an instance of ScheduleService.
func NewScheduleService(repo scheduleRepository, courses courseLookup, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ScheduleService{
		repo:    repo,
		courses: courses,
		cache:   cache,
		metrics: metrics,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
	s.CRUDService = NewCRUDService[models.Schedule, models.CreateScheduleRequest, models.UpdateScheduleRequest](repo, CRUDHooks[models.Schedule, models.CreateScheduleRequest, models.UpdateScheduleRequest]{
		Build:      s.build,
		Apply:      s.apply,
		AfterWrite: s.invalidate,
	}, validate, logger)
	s.validator = s.CRUDService.validator
	return s
}

func (s *ScheduleService) build(ctx context.Context, req models.CreateScheduleRequest) (*models.Schedule, error) {
	slot := &models.Schedule{
		CourseCode: req.CourseCode,
		DayOfWeek:  req.DayOfWeek,
		Venue:      req.Venue,
		Type:       req.Type,
	}
	if slot.Type == "" {
		slot.Type = models.ClassLecture
	}
	if err := slot.SetTimes(req.StartTime, req.EndTime); err != nil {
		return nil, appErrors.BadRequest(capitalize(err.Error()))
	}
	if err := s.requireCourse(ctx, slot.CourseCode); err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *ScheduleService) apply(ctx context.Context, slot *models.Schedule, req models.UpdateScheduleRequest) error {
	if req.CourseCode != nil && *req.CourseCode != slot.CourseCode {
		if err := s.requireCourse(ctx, *req.CourseCode); err != nil {
			return err
		}
		slot.CourseCode = *req.CourseCode
	}
	if req.DayOfWeek != nil {
		slot.DayOfWeek = *req.DayOfWeek
	}
	if req.Venue != nil {
		slot.Venue = *req.Venue
	}
	if req.Type != nil {
		slot.Type = *req.Type
	}
	start, end := slot.StartTime, slot.EndTime
	if req.StartTime != nil {
		start = *req.StartTime
	}
	if req.EndTime != nil {
		end = *req.EndTime
	}
	if err := slot.SetTimes(start, end); err != nil {
		return appErrors.BadRequest(capitalize(err.Error()))
	}
	slot.Course = nil
	return s.checkConflict(ctx, slot)
}

func (s *ScheduleService) requireCourse(ctx context.Context, code string) error {
	active, err := s.courses.ActiveCodes(ctx, []string{code})
	if err != nil {
		return translate(err, "course", "load")
	}
	if !active[code] {
		return appErrors.BadRequest(fmt.Sprintf("Course with code '%s' does not exist or is inactive", code))
	}
	return nil
}

// checkConflict rejects slot when another slot of the same course overlaps it on the same day.
func (s *ScheduleService) checkConflict(ctx context.Context, slot *models.Schedule) error {
	existing, err := s.repo.FindConflict(ctx, slot.CourseCode, slot.DayOfWeek, slot.StartMinute, slot.EndMinute, slot.ID)
	if err != nil {
		return translate(err, "schedule", "check conflicts for")
	}
	if existing == nil {
		return nil
	}
	return appErrors.Clone(appErrors.ErrScheduleConflict, conflictMessage(slot.CourseCode, existing))
}

func conflictMessage(courseCode string, existing *models.Schedule) string {
	return fmt.Sprintf("Schedule conflict: %s already has a class on %s from %s to %s",
		courseCode, existing.DayOfWeek, existing.StartTime, existing.EndTime)
}

func (s *ScheduleService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, statsKeyPattern)
}

// Filter returns the slots matching every non-empty field of filter.
func (s *ScheduleService) Filter(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, error) {
	if filter.Level != "" && !filter.Level.Valid() {
		return nil, appErrors.BadRequest(fmt.Sprintf("invalid level %q", filter.Level))
	}
	if filter.DayOfWeek != "" && !filter.DayOfWeek.Valid() {
		return nil, appErrors.BadRequest(fmt.Sprintf("invalid day of week %q", filter.DayOfWeek))
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, appErrors.BadRequest(fmt.Sprintf("invalid class type %q", filter.Type))
	}
	slots, err := s.repo.Filter(ctx, filter)
	if err != nil {
		return nil, translate(err, "schedule", "list")
	}
	return slots, nil
}

// TimeRange returns the slots overlapping [start, end).
func (s *ScheduleService) TimeRange(ctx context.Context, start, end string) ([]models.Schedule, error) {
	window, err := models.NewInterval(start, end)
	if err != nil {
		return nil, appErrors.BadRequest(capitalize(err.Error()))
	}
	return s.Filter(ctx, models.ScheduleFilter{Window: window})
}

// Statistics returns timetable totals, served from cache when available.
func (s *ScheduleService) Statistics(ctx context.Context) (*models.ScheduleStats, error) {
	stats, err := cached(ctx, s.cache, statsSchedulesKey, s.repo.Stats)
	if err != nil {
		return nil, translate(err, "schedule", "compute statistics for")
	}
	return stats, nil
}

// Template returns the CSV template for schedule uploads.
func (s *ScheduleService) Template() ([]byte, error) {
	return s.csv.Template(models.ScheduleCSVTemplateHeaders, map[string]string{
		"courseCode": "CS101",
		"dayOfWeek":  string(models.Monday),
		"startTime":  "08:00",
		"endTime":    "09:30",
		"venue":      "Room 101",
		"type":       string(models.ClassLecture),
	})
}

// Export renders the filtered timetable as CSV or PDF.
func (s *ScheduleService) Export(ctx context.Context, format string, filter models.ScheduleFilter) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.BadRequest(fmt.Sprintf("unsupported export format %q", format))
	}
	slots, err := s.Filter(ctx, filter)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{Headers: scheduleExportHeaders, Rows: make([]map[string]string, 0, len(slots))}
	for _, slot := range slots {
		row := map[string]string{
			"courseCode": slot.CourseCode,
			"dayOfWeek":  string(slot.DayOfWeek),
			"startTime":  slot.StartTime,
			"endTime":    slot.EndTime,
			"venue":      slot.Venue,
			"type":       string(slot.Type),
		}
		if slot.Course != nil {
			row["courseName"] = slot.Course.Name
			row["departmentCode"] = slot.Course.DepartmentCode
		}
		data.Rows = append(data.Rows, row)
	}

	if format == ExportFormatPDF {
		payload, err := s.pdf.Render(data, "Course timetable", "dayOfWeek")
		if err != nil {
			return nil, appErrors.Internal(err, "failed to render timetable")
		}
		return &ExportFile{Filename: "schedules.pdf", ContentType: "application/pdf", Payload: payload}, nil
	}
	payload, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render timetable")
	}
	return &ExportFile{Filename: "schedules.csv", ContentType: "text/csv", Payload: payload}, nil
}

// BulkCreate imports schedules from CSV. Nothing is stored when any row fails.
// Each row is checked against stored slots and against the earlier rows of the same file.
func (s *ScheduleService) BulkCreate(ctx context.Context, r io.Reader) (csvimport.BulkResult[models.Schedule], error) {
	parsed, err := parseUpload[models.ScheduleCSVRow](r, s.validator, models.ScheduleCSVHeaders)
	if err != nil {
		return csvimport.BulkResult[models.Schedule]{}, err
	}

	codes := make([]string, 0, len(parsed.Rows))
	for _, row := range parsed.Rows {
		codes = append(codes, row.Record.CourseCode)
	}
	activeCourses, err := s.courses.ActiveCodes(ctx, codes)
	if err != nil {
		return csvimport.BulkResult[models.Schedule]{}, translate(err, "course", "load")
	}
	stored, err := s.repo.FindByCourseDays(ctx, codes)
	if err != nil {
		return csvimport.BulkResult[models.Schedule]{}, translate(err, "schedule", "import")
	}
	occupied := make(map[slotKey][]models.Schedule)
	for _, slot := range stored {
		k := slotKey{course: slot.CourseCode, day: slot.DayOfWeek}
		occupied[k] = append(occupied[k], slot)
	}

	rowErrors := append([]csvimport.RowError{}, parsed.Errors...)
	pending := make([]pendingRow[models.Schedule], 0, len(parsed.Rows))
	fileSlots := make(map[slotKey][]pendingRow[models.Schedule])
	for _, row := range parsed.Rows {
		rec := row.Record
		if !activeCourses[rec.CourseCode] {
			rowErrors = append(rowErrors, rowError(row.Line, "courseCode", rec.CourseCode, "Course with code '%s' does not exist", rec.CourseCode))
			continue
		}
		slot := &models.Schedule{CourseCode: rec.CourseCode, DayOfWeek: rec.DayOfWeek, Venue: rec.Venue, Type: rec.Type}
		if slot.Type == "" {
			slot.Type = models.ClassLecture
		}
		if err := slot.SetTimes(rec.StartTime, rec.EndTime); err != nil {
			rowErrors = append(rowErrors, rowError(row.Line, "endTime", rec.EndTime, "End time must be after start time"))
			continue
		}

		k := slotKey{course: slot.CourseCode, day: slot.DayOfWeek}
		if hit := firstOverlap(occupied[k], slot.Interval()); hit != nil {
			rowErrors = append(rowErrors, rowError(row.Line, "startTime", rec.StartTime, "%s", conflictMessage(slot.CourseCode, hit)))
			continue
		}
		if prev := firstPendingOverlap(fileSlots[k], slot.Interval()); prev != nil {
			rowErrors = append(rowErrors, rowError(row.Line, "startTime", rec.StartTime,
				"Schedule conflicts with row %d (%s %s-%s)", prev.Line, prev.Record.DayOfWeek, prev.Record.StartTime, prev.Record.EndTime))
			continue
		}
		p := pendingRow[models.Schedule]{Line: row.Line, Record: slot}
		fileSlots[k] = append(fileSlots[k], p)
		pending = append(pending, p)
	}

	result, err := commitImport(ctx, s.repo.InsertAll, "schedule", pending, rowErrors, parsed.Total, s.metrics)
	if err != nil {
		return result, err
	}
	if result.Success {
		s.invalidate(ctx)
	}
	s.logger.Info("schedule import finished",
		zap.Int("total_rows", result.Summary.TotalRows),
		zap.Int("created", result.Summary.SuccessCount),
		zap.Int("errors", result.Summary.ErrorCount))
	return result, nil
}

type slotKey struct {
	course string
	day    models.DayOfWeek
}

func firstOverlap(slots []models.Schedule, candidate models.Interval) *models.Schedule {
	for i := range slots {
		if models.Overlaps(slots[i].Interval(), candidate) {
			return &slots[i]
		}
	}
	return nil
}

func firstPendingOverlap(rows []pendingRow[models.Schedule], candidate models.Interval) *pendingRow[models.Schedule] {
	for i := range rows {
		if models.Overlaps(rows[i].Record.Interval(), candidate) {
			return &rows[i]
		}
	}
	return nil
}

func capitalize(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
