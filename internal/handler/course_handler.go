package handler

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courseflow-api/internal/models"
	"github.com/noah-isme/courseflow-api/pkg/csvimport"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/response"
)

type courseService interface {
	crudService[models.Course, models.CreateCourseRequest, models.UpdateCourseRequest]
	ByDepartment(ctx context.Context, departmentCode string) ([]models.Course, error)
	ByLevel(ctx context.Context, level models.Level) ([]models.Course, error)
	Search(ctx context.Context, term string) ([]models.Course, error)
	ByCreditRange(ctx context.Context, min, max int) ([]models.Course, error)
	WithoutSchedules(ctx context.Context) ([]models.Course, error)
	Statistics(ctx context.Context) (*models.CourseStats, error)
	Template() ([]byte, error)
	BulkCreate(ctx context.Context, r io.Reader) (csvimport.BulkResult[models.Course], error)
}

// CourseHandler handles course endpoints.
type CourseHandler struct {
	*CRUDHandler[models.Course, models.CreateCourseRequest, models.UpdateCourseRequest]
	service        courseService
	maxUploadBytes int64
}

// NewCourseHandler constructs a course handler.
func NewCourseHandler(svc courseService, maxUploadBytes int64) *CourseHandler {
	return &CourseHandler{
		CRUDHandler:    NewCRUDHandler[models.Course, models.CreateCourseRequest, models.UpdateCourseRequest](svc, "code"),
		service:        svc,
		maxUploadBytes: maxUploadBytes,
	}
}

// Create godoc
// @Summary Create course
// @Description The department must exist and be active.
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) { h.CRUDHandler.Create(c) }

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param orderBy query string false "Sort column"
// @Param orderDirection query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) { h.CRUDHandler.List(c) }

// Get godoc
// @Summary Get course by code
// @Tags Courses
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorBody
// @Router /courses/{code} [get]
func (h *CourseHandler) Get(c *gin.Context) { h.CRUDHandler.Get(c) }

// Update godoc
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Course code"
// @Param payload body models.UpdateCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{code} [patch]
func (h *CourseHandler) Update(c *gin.Context) { h.CRUDHandler.Update(c) }

// Remove godoc
// @Summary Deactivate course
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /courses/{code} [delete]
func (h *CourseHandler) Remove(c *gin.Context) { h.CRUDHandler.Remove(c) }

// ByDepartment godoc
// @Summary Courses of a department
// @Tags Courses
// @Produce json
// @Param departmentCode path string true "Department code"
// @Success 200 {object} response.Envelope
// @Router /courses/department/{departmentCode} [get]
func (h *CourseHandler) ByDepartment(c *gin.Context) {
	respond(c)(h.service.ByDepartment(c.Request.Context(), c.Param("departmentCode")))
}

// ByLevel godoc
// @Summary Courses of a level
// @Tags Courses
// @Produce json
// @Param level path string true "LEVEL_100 to LEVEL_500"
// @Success 200 {object} response.Envelope
// @Router /courses/level/{level} [get]
func (h *CourseHandler) ByLevel(c *gin.Context) {
	level := models.Level(strings.ToUpper(c.Param("level")))
	respond(c)(h.service.ByLevel(c.Request.Context(), level))
}

// Search godoc
// @Summary Search courses by code or name
// @Tags Courses
// @Produce json
// @Param term path string true "Search term"
// @Success 200 {object} response.Envelope
// @Router /courses/search/{term} [get]
func (h *CourseHandler) Search(c *gin.Context) {
	term := strings.TrimSpace(c.Param("term"))
	if term == "" {
		response.Error(c, appErrors.BadRequest("search term is required"))
		return
	}
	respond(c)(h.service.Search(c.Request.Context(), term))
}

// ByCreditRange godoc
// @Summary Courses within a credit range
// @Tags Courses
// @Produce json
// @Param min path int true "Minimum credits"
// @Param max path int true "Maximum credits"
// @Success 200 {object} response.Envelope
// @Router /courses/credits/{min}/{max} [get]
func (h *CourseHandler) ByCreditRange(c *gin.Context) {
	minCredits, errMin := strconv.Atoi(c.Param("min"))
	maxCredits, errMax := strconv.Atoi(c.Param("max"))
	if errMin != nil || errMax != nil {
		response.Error(c, appErrors.BadRequest("credit bounds must be integers"))
		return
	}
	respond(c)(h.service.ByCreditRange(c.Request.Context(), minCredits, maxCredits))
}

// WithoutSchedules godoc
// @Summary Active courses with no timetable slot
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses/without-schedules [get]
func (h *CourseHandler) WithoutSchedules(c *gin.Context) {
	respond(c)(h.service.WithoutSchedules(c.Request.Context()))
}

// Statistics godoc
// @Summary Course statistics
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses/statistics [get]
func (h *CourseHandler) Statistics(c *gin.Context) {
	respond(c)(h.service.Statistics(c.Request.Context()))
}

// BulkUpload godoc
// @Summary Bulk create courses from CSV
// @Description Columns: code, name, level, credits, departmentCode. Nothing is created when any row fails.
// @Tags Courses
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV file"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /courses/bulk/upload [post]
func (h *CourseHandler) BulkUpload(c *gin.Context) {
	bulkUpload(c, h.maxUploadBytes, h.service.BulkCreate)
}

// Template godoc
// @Summary Download the course CSV template
// @Tags Courses
// @Produce text/csv
// @Success 200 {file} file
// @Router /courses/bulk/template [get]
func (h *CourseHandler) Template(c *gin.Context) {
	sendTemplate(c, "courses-template.csv", h.service.Template)
}
