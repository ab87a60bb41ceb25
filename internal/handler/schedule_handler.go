package handler

import (
	"context"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courseflow-api/internal/models"
	"github.com/noah-isme/courseflow-api/internal/service"
	"github.com/noah-isme/courseflow-api/pkg/csvimport"
	"github.com/noah-isme/courseflow-api/pkg/response"
)

type scheduleService interface {
	crudService[models.Schedule, models.CreateScheduleRequest, models.UpdateScheduleRequest]
	Filter(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, error)
	TimeRange(ctx context.Context, start, end string) ([]models.Schedule, error)
	Statistics(ctx context.Context) (*models.ScheduleStats, error)
	Template() ([]byte, error)
	Export(ctx context.Context, format string, filter models.ScheduleFilter) (*service.ExportFile, error)
	BulkCreate(ctx context.Context, r io.Reader) (csvimport.BulkResult[models.Schedule], error)
}

// ScheduleHandler handles timetable endpoints.
type ScheduleHandler struct {
	*CRUDHandler[models.Schedule, models.CreateScheduleRequest, models.UpdateScheduleRequest]
	service        scheduleService
	maxUploadBytes int64
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(svc scheduleService, maxUploadBytes int64) *ScheduleHandler {
	return &ScheduleHandler{
		CRUDHandler:    NewCRUDHandler[models.Schedule, models.CreateScheduleRequest, models.UpdateScheduleRequest](svc, "id"),
		service:        svc,
		maxUploadBytes: maxUploadBytes,
	}
}

// Create godoc
// @Summary Create schedule slot
// @Description Rejected with 409 when the course already has an overlapping slot that day.
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.ErrorBody
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) { h.CRUDHandler.Create(c) }

// List godoc
// @Summary List schedules
// @Tags Schedules
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param orderBy query string false "Sort column"
// @Param orderDirection query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) { h.CRUDHandler.List(c) }

// Get godoc
// @Summary Get schedule by id
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) { h.CRUDHandler.Get(c) }

// Update godoc
// @Summary Update schedule slot
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Param payload body models.UpdateScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.ErrorBody
// @Router /schedules/{id} [patch]
func (h *ScheduleHandler) Update(c *gin.Context) { h.CRUDHandler.Update(c) }

// Remove godoc
// @Summary Delete schedule slot
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Remove(c *gin.Context) { h.CRUDHandler.Remove(c) }

// ByCourse godoc
// @Summary Slots of a course
// @Tags Schedules
// @Produce json
// @Param courseCode path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /schedules/course/{courseCode} [get]
func (h *ScheduleHandler) ByCourse(c *gin.Context) {
	h.filter(c, models.ScheduleFilter{CourseCode: c.Param("courseCode")})
}

// ByDepartment godoc
// @Summary Slots of a department's courses
// @Tags Schedules
// @Produce json
// @Param departmentCode path string true "Department code"
// @Success 200 {object} response.Envelope
// @Router /schedules/department/{departmentCode} [get]
func (h *ScheduleHandler) ByDepartment(c *gin.Context) {
	h.filter(c, models.ScheduleFilter{DepartmentCode: c.Param("departmentCode")})
}

// ByLevel godoc
// @Summary Slots of courses at a level
// @Tags Schedules
// @Produce json
// @Param level path string true "LEVEL_100 to LEVEL_500"
// @Success 200 {object} response.Envelope
// @Router /schedules/level/{level} [get]
func (h *ScheduleHandler) ByLevel(c *gin.Context) {
	h.filter(c, models.ScheduleFilter{Level: models.Level(strings.ToUpper(c.Param("level")))})
}

// ByDay godoc
// @Summary Slots on a weekday
// @Tags Schedules
// @Produce json
// @Param dayOfWeek path string true "MONDAY to SUNDAY"
// @Success 200 {object} response.Envelope
// @Router /schedules/day/{dayOfWeek} [get]
func (h *ScheduleHandler) ByDay(c *gin.Context) {
	h.filter(c, models.ScheduleFilter{DayOfWeek: models.DayOfWeek(strings.ToUpper(c.Param("dayOfWeek")))})
}

// ByVenue godoc
// @Summary Slots whose venue contains the given text
// @Tags Schedules
// @Produce json
// @Param venue path string true "Venue"
// @Success 200 {object} response.Envelope
// @Router /schedules/venue/{venue} [get]
func (h *ScheduleHandler) ByVenue(c *gin.Context) {
	h.filter(c, models.ScheduleFilter{Venue: c.Param("venue")})
}

// ByType godoc
// @Summary Slots of a class type
// @Tags Schedules
// @Produce json
// @Param type path string true "LECTURE, SEMINAR, LAB or TUTORIAL"
// @Success 200 {object} response.Envelope
// @Router /schedules/type/{type} [get]
func (h *ScheduleHandler) ByType(c *gin.Context) {
	h.filter(c, models.ScheduleFilter{Type: models.ClassType(strings.ToUpper(c.Param("type")))})
}

// TimeRange godoc
// @Summary Slots overlapping a time window
// @Tags Schedules
// @Produce json
// @Param start query string true "HH:MM"
// @Param end query string true "HH:MM"
// @Success 200 {object} response.Envelope
// @Router /schedules/time-range [get]
func (h *ScheduleHandler) TimeRange(c *gin.Context) {
	respond(c)(h.service.TimeRange(c.Request.Context(), c.Query("start"), c.Query("end")))
}

// Statistics godoc
// @Summary Timetable statistics
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedules/statistics [get]
func (h *ScheduleHandler) Statistics(c *gin.Context) {
	respond(c)(h.service.Statistics(c.Request.Context()))
}

// Export godoc
// @Summary Export the timetable
// @Tags Schedules
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param courseCode query string false "Course code"
// @Param departmentCode query string false "Department code"
// @Param dayOfWeek query string false "Weekday"
// @Success 200 {file} file
// @Router /schedules/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	filter := models.ScheduleFilter{
		CourseCode:     c.Query("courseCode"),
		DepartmentCode: c.Query("departmentCode"),
		Level:          models.Level(strings.ToUpper(c.Query("level"))),
		DayOfWeek:      models.DayOfWeek(strings.ToUpper(c.Query("dayOfWeek"))),
		Venue:          c.Query("venue"),
		Type:           models.ClassType(strings.ToUpper(c.Query("type"))),
	}
	file, err := h.service.Export(c.Request.Context(), c.Query("format"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

// BulkUpload godoc
// @Summary Bulk create schedules from CSV
// @Description Columns: courseCode, dayOfWeek, startTime, endTime, venue, type. Conflicts with stored slots or earlier rows are reported per row and nothing is created.
// @Tags Schedules
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV file"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedules/bulk/upload [post]
func (h *ScheduleHandler) BulkUpload(c *gin.Context) {
	bulkUpload(c, h.maxUploadBytes, h.service.BulkCreate)
}

// Template godoc
// @Summary Download the schedule CSV template
// @Tags Schedules
// @Produce text/csv
// @Success 200 {file} file
// @Router /schedules/bulk/template [get]
func (h *ScheduleHandler) Template(c *gin.Context) {
	sendTemplate(c, "schedules-template.csv", h.service.Template)
}

func (h *ScheduleHandler) filter(c *gin.Context, filter models.ScheduleFilter) {
	respond(c)(h.service.Filter(c.Request.Context(), filter))
}
