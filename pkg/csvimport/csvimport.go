package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/courseflow-api/pkg/validation"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RowError describes one failed constraint on one data row. Row 1 is the header.
type RowError struct {
	Row     int         `json:"row"`
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Message string      `json:"message"`
}

// Row is a decoded and validated data row.
type Row[T any] struct {
	Line   int
	Record T
}

// Result holds validated rows alongside the problems found in the others.
type Result[T any] struct {
	Rows   []Row[T]
	Errors []RowError
	Total  int
}

// Summary counts the outcome of a bulk import.
type Summary struct {
	TotalRows    int `json:"totalRows"`
	SuccessCount int `json:"successCount"`
	ErrorCount   int `json:"errorCount"`
}

// BulkResult is returned to clients after a bulk upload.
type BulkResult[T any] struct {
	Success bool       `json:"success"`
	Created []T        `json:"created"`
	Errors  []RowError `json:"errors"`
	Summary Summary    `json:"summary"`
}

// NewBulkResult assembles the response for an import of totalRows data rows.
func NewBulkResult[T any](created []T, rowErrors []RowError, totalRows int) BulkResult[T] {
	if created == nil {
		created = []T{}
	}
	if rowErrors == nil {
		rowErrors = []RowError{}
	}
	return BulkResult[T]{
		Success: len(rowErrors) == 0,
		Created: created,
		Errors:  rowErrors,
		Summary: Summary{TotalRows: totalRows, SuccessCount: len(created), ErrorCount: len(rowErrors)},
	}
}

// MissingHeadersError is returned when the header row lacks required columns.
type MissingHeadersError struct {
	Missing []string
}

func (e *MissingHeadersError) Error() string {
	return "Missing required CSV headers: " + strings.Join(e.Missing, ", ")
}

// ErrEmptyFile is returned when the upload has no header row.
var ErrEmptyFile = errors.New("CSV file is empty")

// Parse decodes every data row of r into T using `csv` struct tags and validates it.
// Structural problems (unreadable input, missing headers) fail the whole parse.
// Row level problems are collected and the row is left out of Rows.
func Parse[T any](r io.Reader, validate *validator.Validate, requiredHeaders []string) (*Result[T], error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("CSV parsing error: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	if missing := missingHeaders(headers, requiredHeaders); len(missing) > 0 {
		return nil, &MissingHeadersError{Missing: missing}
	}

	fields, err := fieldIndex(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}

	result := &Result[T]{}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV parsing error: %w", err)
		}
		line++
		if blank(record) {
			continue
		}
		result.Total++

		values := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(record) {
				values[header] = strings.TrimSpace(record[i])
			}
		}

		var row T
		rowErrors := decode(&row, fields, values, line)
		if len(rowErrors) == 0 && validate != nil {
			if err := validate.Struct(row); err != nil {
				for _, fe := range validation.Fields(err) {
					rowErrors = append(rowErrors, RowError{Row: line, Field: fe.Field, Value: fe.Value, Message: fe.Message})
				}
				if len(rowErrors) == 0 {
					return nil, fmt.Errorf("validate row %d: %w", line, err)
				}
			}
		}
		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			continue
		}
		result.Rows = append(result.Rows, Row[T]{Line: line, Record: row})
	}
	return result, nil
}

type column struct {
	name  string
	index int
}

func fieldIndex(t reflect.Type) ([]column, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("csvimport: %s is not a struct", t)
	}
	cols := make([]column, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := strings.SplitN(t.Field(i).Tag.Get("csv"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		cols = append(cols, column{name: name, index: i})
	}
	return cols, nil
}

func decode(dst interface{}, cols []column, values map[string]string, line int) []RowError {
	v := reflect.ValueOf(dst).Elem()
	var out []RowError
	for _, col := range cols {
		raw, ok := values[col.name]
		if !ok || raw == "" {
			continue
		}
		field := v.Field(col.index)
		switch field.Kind() {
		case reflect.String:
			field.SetString(raw)
		case reflect.Int, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				out = append(out, RowError{Row: line, Field: col.name, Value: raw, Message: col.name + " must be an integer"})
				continue
			}
			field.SetInt(n)
		case reflect.Bool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				out = append(out, RowError{Row: line, Field: col.name, Value: raw, Message: col.name + " must be a boolean"})
				continue
			}
			field.SetBool(b)
		}
	}
	return out
}

func missingHeaders(headers, required []string) []string {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}
	var missing []string
	for _, h := range required {
		if _, ok := present[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
