package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
)

func newContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, w
}

func TestErrorEnvelope(t *testing.T) {
	IncludeStack(false)
	c, w := newContext(http.MethodPost, "/api/departments")

	Error(c, appErrors.Conflict("code already exists"))

	require.Equal(t, http.StatusConflict, w.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, http.StatusConflict, body.StatusCode)
	assert.Equal(t, "CONFLICT", body.ErrorCode)
	assert.Equal(t, "/api/departments", body.Path)
	assert.Equal(t, http.MethodPost, body.Method)
	assert.Equal(t, []string{"code already exists"}, body.Message)
	assert.NotEmpty(t, body.Timestamp)
	assert.Empty(t, body.Stack)
	assert.Len(t, c.Errors, 1)
}

func TestErrorEnvelopeIncludesStackWhenEnabled(t *testing.T) {
	IncludeStack(true)
	defer IncludeStack(false)
	c, w := newContext(http.MethodGet, "/api/courses")

	Error(c, errors.New("boom"))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusInternalServerError, body.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", body.ErrorCode)
	assert.GreaterOrEqual(t, len(body.Stack), 2)
}

func TestJSONWithPagination(t *testing.T) {
	c, w := newContext(http.MethodGet, "/api/courses")

	JSON(c, http.StatusOK, []string{"a"}, &models.Pagination{Page: 1, Limit: 10, Total: 1, TotalPages: 1})

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["totalPages"])
}
