package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/courseflow-api/internal/repository"
	"github.com/noah-isme/courseflow-api/pkg/csvimport"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
)

// pendingRow is a validated upload row waiting for the commit.
type pendingRow[T any] struct {
	Line   int
	Record *T
}

// parseUpload decodes the upload and turns structural failures into 400 errors.
func parseUpload[R any](r io.Reader, validate *validator.Validate, headers []string) (*csvimport.Result[R], error) {
	result, err := csvimport.Parse[R](r, validate, headers)
	if err == nil {
		return result, nil
	}
	var missing *csvimport.MissingHeadersError
	switch {
	case errors.As(err, &missing):
		return nil, appErrors.BadRequest(missing.Error())
	case errors.Is(err, csvimport.ErrEmptyFile):
		return nil, appErrors.BadRequest(err.Error())
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, err.Error())
	}
}

// commitImport inserts every pending row in one transaction when no row failed.
// Any row error, found before or during the insert, leaves the upload uncommitted.
func commitImport[T any](ctx context.Context, insertAll func(context.Context, []*T) error, entity string, pending []pendingRow[T], rowErrors []csvimport.RowError, total int, metrics *MetricsService) (csvimport.BulkResult[T], error) {
	sortRowErrors(rowErrors)
	if len(rowErrors) > 0 || len(pending) == 0 {
		metrics.RecordImport(entity, 0, total)
		return csvimport.NewBulkResult[T](nil, rowErrors, total), nil
	}

	records := make([]*T, len(pending))
	for i, p := range pending {
		records[i] = p.Record
	}
	if err := insertAll(ctx, records); err != nil {
		var bulkErr *repository.BulkInsertError
		if !errors.As(err, &bulkErr) || bulkErr.Index >= len(pending) {
			return csvimport.BulkResult[T]{}, translate(err, entity, "import")
		}
		message := appErrors.FromError(bulkErr.Err).Message
		rowErrors = append(rowErrors, csvimport.RowError{
			Row:     pending[bulkErr.Index].Line,
			Field:   "general",
			Value:   *pending[bulkErr.Index].Record,
			Message: fmt.Sprintf("Failed to create %s: %s", entity, message),
		})
		metrics.RecordImport(entity, 0, total)
		return csvimport.NewBulkResult[T](nil, rowErrors, total), nil
	}

	created := make([]T, len(records))
	for i, record := range records {
		created[i] = *record
	}
	metrics.RecordImport(entity, len(created), 0)
	return csvimport.NewBulkResult(created, nil, total), nil
}

func sortRowErrors(rowErrors []csvimport.RowError) {
	sort.SliceStable(rowErrors, func(i, j int) bool {
		return rowErrors[i].Row < rowErrors[j].Row
	})
}

func rowError(line int, field string, value interface{}, format string, args ...interface{}) csvimport.RowError {
	return csvimport.RowError{Row: line, Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}
