package response

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
)

var includeStack atomic.Bool

// IncludeStack toggles the cause chain in error bodies. Enable outside production only.
func IncludeStack(enabled bool) {
	includeStack.Store(enabled)
}

// Envelope represents the common success contract.
type Envelope struct {
	Success    bool                   `json:"success"`
	Data       interface{}            `json:"data,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// ErrorBody is the payload returned for every failed request.
type ErrorBody struct {
	Success    bool     `json:"success"`
	StatusCode int      `json:"statusCode"`
	ErrorCode  string   `json:"errorCode"`
	Timestamp  string   `json:"timestamp"`
	Path       string   `json:"path"`
	Method     string   `json:"method"`
	Message    []string `json:"message"`
	Stack      []string `json:"stack,omitempty"`
}

// JSON sends a response envelope with optional pagination metadata. Success mirrors the status class.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Success: status < http.StatusBadRequest, Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error translates err into the error envelope and records it on the gin context.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Build(c, appErr))
}

// Abort writes the error envelope and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// Build renders the error body for the current request.
func Build(c *gin.Context, appErr *appErrors.Error) ErrorBody {
	body := ErrorBody{
		Success:    false,
		StatusCode: appErr.Status,
		ErrorCode:  appErr.Code,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Path:       c.Request.URL.Path,
		Method:     c.Request.Method,
		Message:    appErr.Messages(),
	}
	if includeStack.Load() {
		body.Stack = causeChain(appErr)
	}
	return body
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Attachment streams a downloadable file.
func Attachment(c *gin.Context, filename, contentType string, payload []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}

func causeChain(err error) []string {
	var chain []string
	for current := err; current != nil; {
		chain = append(chain, current.Error())
		unwrapper, ok := current.(interface{ Unwrap() error })
		if !ok {
			break
		}
		current = unwrapper.Unwrap()
	}
	return chain
}
