package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courseflow-api/pkg/csvimport"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/response"
)

const (
	csvContentType = "text/csv"
	uploadField    = "file"

	// DefaultMaxUploadBytes caps CSV uploads when no limit is configured.
	DefaultMaxUploadBytes int64 = 5 << 20
)

// bulkUpload reads the multipart "file" field and runs the import. A result with row
// errors is returned with 422 and nothing committed; a clean import answers 201.
func bulkUpload[T any](c *gin.Context, maxBytes int64, importer func(context.Context, io.Reader) (csvimport.BulkResult[T], error)) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		response.Error(c, uploadError(err))
		return
	}
	defer file.Close()

	if !isCSV(header) {
		response.Error(c, appErrors.BadRequest("File must be a CSV"))
		return
	}

	result, err := importer(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusCreated
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	response.JSON(c, status, result, nil)
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return appErrors.Clone(appErrors.ErrPayloadTooLarge, "CSV file exceeds the upload limit")
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return appErrors.BadRequest("No file uploaded")
	default:
		return appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "invalid multipart upload")
	}
}

func isCSV(header *multipart.FileHeader) bool {
	if strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		return true
	}
	contentType := header.Header.Get("Content-Type")
	return strings.HasPrefix(strings.ToLower(contentType), csvContentType)
}

// sendTemplate streams a CSV template as an attachment.
func sendTemplate(c *gin.Context, filename string, build func() ([]byte, error)) {
	payload, err := build()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, csvContentType, payload)
}
