package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseflow-api/internal/middleware"
	"github.com/noah-isme/courseflow-api/internal/models"
	"github.com/noah-isme/courseflow-api/pkg/csvimport"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
)

type responseEnvelope struct {
	Success    bool               `json:"success"`
	Data       json.RawMessage    `json:"data"`
	Pagination *models.Pagination `json:"pagination"`
}

type errorEnvelope struct {
	Success    bool     `json:"success"`
	StatusCode int      `json:"statusCode"`
	ErrorCode  string   `json:"errorCode"`
	Path       string   `json:"path"`
	Method     string   `json:"method"`
	Message    []string `json:"message"`
}

type fakeDepartmentService struct {
	rows       []models.Department
	lastOpts   models.ListOptions
	createErr  error
	bulkResult csvimport.BulkResult[models.Department]
	uploaded   string
}

func (f *fakeDepartmentService) Create(_ context.Context, req models.CreateDepartmentRequest) (*models.Department, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	dept := models.Department{Base: models.Base{ID: "d1"}, Code: req.Code, Name: req.Name, IsActive: true}
	f.rows = append(f.rows, dept)
	return &dept, nil
}

func (f *fakeDepartmentService) List(_ context.Context, opts models.ListOptions) ([]models.Department, *models.Pagination, error) {
	f.lastOpts = opts
	if opts.Paginated() {
		page := models.NewPage(f.rows, len(f.rows), opts.Page, opts.Limit)
		return page.Data, page.Meta(), nil
	}
	return f.rows, nil, nil
}

func (f *fakeDepartmentService) Get(_ context.Context, code string) (*models.Department, error) {
	for _, d := range f.rows {
		if d.Code == code {
			return &d, nil
		}
	}
	return nil, appErrors.NotFound("department not found")
}

func (f *fakeDepartmentService) Update(ctx context.Context, code string, req models.UpdateDepartmentRequest) (*models.Department, error) {
	dept, err := f.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		dept.Name = *req.Name
	}
	return dept, nil
}

func (f *fakeDepartmentService) Remove(ctx context.Context, code string) (*models.Department, error) {
	dept, err := f.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	dept.IsActive = false
	return dept, nil
}

func (f *fakeDepartmentService) Search(context.Context, string) ([]models.Department, error) {
	return f.rows, nil
}

func (f *fakeDepartmentService) WithoutCourses(context.Context) ([]models.Department, error) {
	return nil, nil
}

func (f *fakeDepartmentService) WithCourseCount(context.Context) ([]models.DepartmentWithCount, error) {
	return nil, nil
}

func (f *fakeDepartmentService) WithCourses(context.Context) ([]models.DepartmentWithCourses, error) {
	return nil, nil
}

func (f *fakeDepartmentService) FullDetails(context.Context, string) (*models.DepartmentDetails, error) {
	return nil, appErrors.NotFound("department not found")
}

func (f *fakeDepartmentService) Statistics(context.Context) (*models.DepartmentStats, error) {
	return &models.DepartmentStats{}, nil
}

func (f *fakeDepartmentService) Template() ([]byte, error) {
	return []byte("code,name\nCS,Computer Science\n"), nil
}

func (f *fakeDepartmentService) BulkCreate(_ context.Context, r io.Reader) (csvimport.BulkResult[models.Department], error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return csvimport.BulkResult[models.Department]{}, err
	}
	f.uploaded = string(payload)
	return f.bulkResult, nil
}

func newDepartmentRouter(svc *fakeDepartmentService, maxUpload int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewDepartmentHandler(svc, maxUpload)
	r := gin.New()
	r.POST("/departments", h.Create)
	r.GET("/departments", h.List)
	r.GET("/departments/:code", h.Get)
	r.PATCH("/departments/:code", h.Update)
	r.DELETE("/departments/:code", h.Remove)
	r.POST("/departments/bulk/upload", h.BulkUpload)
	r.GET("/departments/bulk/template", h.Template)
	r.GET("/departments/search/:term", h.Search)
	return r
}

func performRequest(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestCRUDHandlerCreateReturns201(t *testing.T) {
	svc := &fakeDepartmentService{}
	router := newDepartmentRouter(svc, 0)

	req := httptest.NewRequest(http.MethodPost, "/departments", strings.NewReader(`{"code":"CS","name":"Computer Science"}`))
	req.Header.Set("Content-Type", "application/json")
	w := performRequest(router, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"code":"CS"`)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestCRUDHandlerRejectsMalformedJSON(t *testing.T) {
	router := newDepartmentRouter(&fakeDepartmentService{}, 0)

	req := httptest.NewRequest(http.MethodPost, "/departments", strings.NewReader(`{"code":`))
	req.Header.Set("Content-Type", "application/json")
	w := performRequest(router, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "VALIDATION_ERROR", env.ErrorCode)
	assert.Equal(t, "/departments", env.Path)
	assert.Equal(t, http.MethodPost, env.Method)
}

func TestCRUDHandlerConflictEnvelope(t *testing.T) {
	router := newDepartmentRouter(&fakeDepartmentService{createErr: appErrors.Conflict("code already exists")}, 0)

	req := httptest.NewRequest(http.MethodPost, "/departments", strings.NewReader(`{"code":"CS","name":"Computer Science"}`))
	req.Header.Set("Content-Type", "application/json")
	w := performRequest(router, req)

	require.Equal(t, http.StatusConflict, w.Code)
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, http.StatusConflict, env.StatusCode)
	assert.Equal(t, []string{"code already exists"}, env.Message)
}

func TestCRUDHandlerListBindsPagination(t *testing.T) {
	svc := &fakeDepartmentService{rows: []models.Department{{Code: "CS"}, {Code: "EE"}, {Code: "ME"}}}
	router := newDepartmentRouter(svc, 0)

	w := performRequest(router, httptest.NewRequest(http.MethodGet, "/departments?page=2&limit=2&orderBy=name&orderDirection=desc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ListOptions{Page: 2, Limit: 2, OrderBy: "name", OrderDirection: "desc"}, svc.lastOpts)

	var env responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.TotalPages)

	w = performRequest(router, httptest.NewRequest(http.MethodGet, "/departments", nil))
	require.Equal(t, http.StatusOK, w.Code)
	env = responseEnvelope{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Nil(t, env.Pagination)

	w = performRequest(router, httptest.NewRequest(http.MethodGet, "/departments?page=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCRUDHandlerGetNotFound(t *testing.T) {
	router := newDepartmentRouter(&fakeDepartmentService{}, 0)
	w := performRequest(router, httptest.NewRequest(http.MethodGet, "/departments/ZZ", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, []string{"department not found"}, env.Message)
}

func TestBulkUploadStatuses(t *testing.T) {
	csvBody := "code,name\nCS,Computer Science\n"

	ok := &fakeDepartmentService{bulkResult: csvimport.NewBulkResult([]models.Department{{Code: "CS"}}, nil, 1)}
	body, contentType := multipartUpload(t, "departments.csv", csvBody)
	req := httptest.NewRequest(http.MethodPost, "/departments/bulk/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := performRequest(newDepartmentRouter(ok, 0), req)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, csvBody, ok.uploaded)

	failed := &fakeDepartmentService{bulkResult: csvimport.NewBulkResult[models.Department](nil, []csvimport.RowError{{Row: 2, Field: "code", Message: "code is required"}}, 1)}
	body, contentType = multipartUpload(t, "departments.csv", csvBody)
	req = httptest.NewRequest(http.MethodPost, "/departments/bulk/upload", body)
	req.Header.Set("Content-Type", contentType)
	w = performRequest(newDepartmentRouter(failed, 0), req)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Contains(t, string(env.Data), `"errorCount":1`)
}

func TestBulkUploadRejectsBadFiles(t *testing.T) {
	router := newDepartmentRouter(&fakeDepartmentService{}, 0)

	body, contentType := multipartUpload(t, "departments.txt", "code,name\n")
	req := httptest.NewRequest(http.MethodPost, "/departments/bulk/upload", body)
	req.Header.Set("Content-Type", contentType)
	assert.Equal(t, http.StatusBadRequest, performRequest(router, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/departments/bulk/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=none")
	assert.Equal(t, http.StatusBadRequest, performRequest(router, req).Code)

	body, contentType = multipartUpload(t, "departments.csv", strings.Repeat("x", 1024))
	req = httptest.NewRequest(http.MethodPost, "/departments/bulk/upload", body)
	req.Header.Set("Content-Type", contentType)
	assert.Equal(t, http.StatusRequestEntityTooLarge, performRequest(newDepartmentRouter(&fakeDepartmentService{}, 64), req).Code)
}

func TestTemplateIsAttachment(t *testing.T) {
	router := newDepartmentRouter(&fakeDepartmentService{}, 0)
	w := performRequest(router, httptest.NewRequest(http.MethodGet, "/departments/bulk/template", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="departments-template.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
	assert.Equal(t, "code,name\nCS,Computer Science\n", w.Body.String())
}

type fakeComplaintService struct {
	created models.CreateComplaintRequest
	updated models.UpdateComplaintRequest
	forUser string
}

func (f *fakeComplaintService) Create(_ context.Context, req models.CreateComplaintRequest) (*models.Complaint, error) {
	f.created = req
	return &models.Complaint{Base: models.Base{ID: "cp1"}, Subject: req.Subject, Status: models.ComplaintPending}, nil
}

func (f *fakeComplaintService) List(context.Context, models.ListOptions) ([]models.Complaint, *models.Pagination, error) {
	return nil, nil, nil
}

func (f *fakeComplaintService) Get(context.Context, string) (*models.Complaint, error) {
	return &models.Complaint{Base: models.Base{ID: "cp1"}}, nil
}

func (f *fakeComplaintService) Update(_ context.Context, id string, req models.UpdateComplaintRequest) (*models.Complaint, error) {
	f.updated = req
	return &models.Complaint{Base: models.Base{ID: id}, Status: req.Status}, nil
}

func (f *fakeComplaintService) Remove(context.Context, string) (*models.Complaint, error) {
	return &models.Complaint{}, nil
}

func (f *fakeComplaintService) ForUser(_ context.Context, userID string) ([]models.Complaint, error) {
	f.forUser = userID
	return []models.Complaint{}, nil
}

func (f *fakeComplaintService) Pending(context.Context) ([]models.Complaint, error) {
	return []models.Complaint{}, nil
}

func (f *fakeComplaintService) Resolved(context.Context) ([]models.Complaint, error) {
	return []models.Complaint{}, nil
}

func withClaims(userID, email string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &models.JWTClaims{Email: email, Role: role}
		claims.Subject = userID
		c.Set(middleware.ContextUserKey, claims)
		c.Next()
	}
}

func TestComplaintHandlerStampsCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeComplaintService{}
	h := NewComplaintHandler(svc)
	r := gin.New()
	r.Use(withClaims("user-7", "admin@courseflow.edu", models.RoleAdmin))
	r.POST("/complaints", h.Create)
	r.PATCH("/complaints/:id", h.Update)
	r.GET("/complaints/my-complaints", h.Mine)

	req := httptest.NewRequest(http.MethodPost, "/complaints", strings.NewReader(`{"name":"Ada","email":"ada@example.edu","department":"CS","subject":"Noise","message":"Too loud in the library"}`))
	req.Header.Set("Content-Type", "application/json")
	require.Equal(t, http.StatusCreated, performRequest(r, req).Code)
	assert.Equal(t, "user-7", svc.created.UserID)

	req = httptest.NewRequest(http.MethodPatch, "/complaints/cp1", strings.NewReader(`{"status":"RESOLVED"}`))
	req.Header.Set("Content-Type", "application/json")
	require.Equal(t, http.StatusOK, performRequest(r, req).Code)
	assert.Equal(t, "admin@courseflow.edu", svc.updated.ActorEmail)

	require.Equal(t, http.StatusOK, performRequest(r, httptest.NewRequest(http.MethodGet, "/complaints/my-complaints", nil)).Code)
	assert.Equal(t, "user-7", svc.forUser)
}

type fakeAuthService struct {
	registered models.RegisterRequest
	meID       string
}

func (f *fakeAuthService) Register(_ context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	f.registered = req
	return &models.AuthResponse{AccessToken: "token", TokenType: "Bearer"}, nil
}

func (f *fakeAuthService) Login(context.Context, models.LoginRequest) (*models.AuthResponse, error) {
	return nil, appErrors.ErrInvalidCredentials
}

func (f *fakeAuthService) Me(_ context.Context, userID string) (*models.UserInfo, error) {
	f.meID = userID
	return &models.UserInfo{ID: userID}, nil
}

func (f *fakeAuthService) ForgotPassword(context.Context, models.ForgotPasswordRequest) (*models.MessageResponse, error) {
	return &models.MessageResponse{Message: "sent"}, nil
}

func (f *fakeAuthService) ResetPassword(context.Context, models.ResetPasswordRequest) (*models.MessageResponse, error) {
	return nil, appErrors.BadRequest("Invalid or expired reset token")
}

func TestAuthHandlerFlows(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeAuthService{}
	h := NewAuthHandler(svc, nil)
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/reset-password", h.ResetPassword)
	r.GET("/auth/me", withClaims("user-1", "stu@example.edu", models.RoleStudent), h.Me)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"matricNO":"STU1","email":"stu@example.edu","password":"secret123"}`))
	req.Header.Set("Content-Type", "application/json")
	require.Equal(t, http.StatusCreated, performRequest(r, req).Code)
	assert.Equal(t, "STU1", svc.registered.MatricNO)

	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"stu@example.edu","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	w := performRequest(r, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, []string{"Invalid credentials"}, env.Message)

	req = httptest.NewRequest(http.MethodPost, "/auth/reset-password", strings.NewReader(`{"token":"x","newPassword":"secret123"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, performRequest(r, req).Code)

	require.Equal(t, http.StatusOK, performRequest(r, httptest.NewRequest(http.MethodGet, "/auth/me", nil)).Code)
	assert.Equal(t, "user-1", svc.meID)
}
