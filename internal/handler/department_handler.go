package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courseflow-api/internal/models"
	"github.com/noah-isme/courseflow-api/pkg/csvimport"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/response"
)

type departmentService interface {
	crudService[models.Department, models.CreateDepartmentRequest, models.UpdateDepartmentRequest]
	Search(ctx context.Context, term string) ([]models.Department, error)
	WithoutCourses(ctx context.Context) ([]models.Department, error)
	WithCourseCount(ctx context.Context) ([]models.DepartmentWithCount, error)
	WithCourses(ctx context.Context) ([]models.DepartmentWithCourses, error)
	FullDetails(ctx context.Context, code string) (*models.DepartmentDetails, error)
	Statistics(ctx context.Context) (*models.DepartmentStats, error)
	Template() ([]byte, error)
	BulkCreate(ctx context.Context, r io.Reader) (csvimport.BulkResult[models.Department], error)
}

// DepartmentHandler handles department endpoints.
type DepartmentHandler struct {
	*CRUDHandler[models.Department, models.CreateDepartmentRequest, models.UpdateDepartmentRequest]
	service        departmentService
	maxUploadBytes int64
}

// NewDepartmentHandler constructs a department handler.
func NewDepartmentHandler(svc departmentService, maxUploadBytes int64) *DepartmentHandler {
	return &DepartmentHandler{
		CRUDHandler:    NewCRUDHandler[models.Department, models.CreateDepartmentRequest, models.UpdateDepartmentRequest](svc, "code"),
		service:        svc,
		maxUploadBytes: maxUploadBytes,
	}
}

// Create godoc
// @Summary Create department
// @Tags Departments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateDepartmentRequest true "Department payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.ErrorBody
// @Router /departments [post]
func (h *DepartmentHandler) Create(c *gin.Context) { h.CRUDHandler.Create(c) }

// List godoc
// @Summary List departments
// @Tags Departments
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param orderBy query string false "Sort column"
// @Param orderDirection query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *DepartmentHandler) List(c *gin.Context) { h.CRUDHandler.List(c) }

// Get godoc
// @Summary Get department by code
// @Tags Departments
// @Produce json
// @Param code path string true "Department code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorBody
// @Router /departments/{code} [get]
func (h *DepartmentHandler) Get(c *gin.Context) { h.CRUDHandler.Get(c) }

// Update godoc
// @Summary Update department
// @Tags Departments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Department code"
// @Param payload body models.UpdateDepartmentRequest true "Department payload"
// @Success 200 {object} response.Envelope
// @Router /departments/{code} [patch]
func (h *DepartmentHandler) Update(c *gin.Context) { h.CRUDHandler.Update(c) }

// Remove godoc
// @Summary Deactivate department
// @Description Refused while the department still has active courses.
// @Tags Departments
// @Produce json
// @Security BearerAuth
// @Param code path string true "Department code"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.ErrorBody
// @Router /departments/{code} [delete]
func (h *DepartmentHandler) Remove(c *gin.Context) { h.CRUDHandler.Remove(c) }

// Search godoc
// @Summary Search departments by code or name
// @Tags Departments
// @Produce json
// @Param term path string true "Search term"
// @Success 200 {object} response.Envelope
// @Router /departments/search/{term} [get]
func (h *DepartmentHandler) Search(c *gin.Context) {
	term := strings.TrimSpace(c.Param("term"))
	if term == "" {
		response.Error(c, appErrors.BadRequest("search term is required"))
		return
	}
	respond(c)(h.service.Search(c.Request.Context(), term))
}

// WithCourses godoc
// @Summary Departments with their active courses
// @Tags Departments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments/with-courses [get]
func (h *DepartmentHandler) WithCourses(c *gin.Context) {
	respond(c)(h.service.WithCourses(c.Request.Context()))
}

// WithoutCourses godoc
// @Summary Departments without active courses
// @Tags Departments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments/without-courses [get]
func (h *DepartmentHandler) WithoutCourses(c *gin.Context) {
	respond(c)(h.service.WithoutCourses(c.Request.Context()))
}

// WithCourseCount godoc
// @Summary Departments with their active course count
// @Tags Departments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments/with-course-count [get]
func (h *DepartmentHandler) WithCourseCount(c *gin.Context) {
	respond(c)(h.service.WithCourseCount(c.Request.Context()))
}

// FullDetails godoc
// @Summary Department with courses and their schedules
// @Tags Departments
// @Produce json
// @Param code path string true "Department code"
// @Success 200 {object} response.Envelope
// @Router /departments/{code}/full-details [get]
func (h *DepartmentHandler) FullDetails(c *gin.Context) {
	respond(c)(h.service.FullDetails(c.Request.Context(), c.Param("code")))
}

// Statistics godoc
// @Summary Department statistics
// @Tags Departments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments/statistics [get]
func (h *DepartmentHandler) Statistics(c *gin.Context) {
	respond(c)(h.service.Statistics(c.Request.Context()))
}

// BulkUpload godoc
// @Summary Bulk create departments from CSV
// @Description Columns: code, name. Nothing is created when any row fails.
// @Tags Departments
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV file"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /departments/bulk/upload [post]
func (h *DepartmentHandler) BulkUpload(c *gin.Context) {
	bulkUpload(c, h.maxUploadBytes, h.service.BulkCreate)
}

// Template godoc
// @Summary Download the department CSV template
// @Tags Departments
// @Produce text/csv
// @Success 200 {file} file
// @Router /departments/bulk/template [get]
func (h *DepartmentHandler) Template(c *gin.Context) {
	sendTemplate(c, "departments-template.csv", h.service.Template)
}

// respond writes a 200 envelope for a value/error pair.
func respond(c *gin.Context) func(interface{}, error) {
	return func(data interface{}, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, data, nil)
	}
}
