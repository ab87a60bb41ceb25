package csvimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseflow-api/pkg/validation"
)

type departmentRow struct {
	Code string `csv:"code" validate:"required,deptcode"`
	Name string `csv:"name" validate:"required"`
}

type courseRow struct {
	Code    string `csv:"code" validate:"required"`
	Credits int    `csv:"credits" validate:"gte=1,lte=6"`
}

func TestParseCollectsValidRowsAndErrors(t *testing.T) {
	input := "code,name\nCS,Computer Science\ncs,Lowercase\n\nMTH,Mathematics\n"
	res, err := Parse[departmentRow](strings.NewReader(input), validation.New(), []string{"code", "name"})
	require.NoError(t, err)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, 2, res.Rows[0].Line)
	assert.Equal(t, "MTH", res.Rows[1].Record.Code)
	assert.Equal(t, 3, res.Total)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Row)
	assert.Equal(t, "code", res.Errors[0].Field)
	assert.Equal(t, "cs", res.Errors[0].Value)
	assert.Equal(t, "code must be 2-4 uppercase letters", res.Errors[0].Message)
}

func TestParseMissingHeaders(t *testing.T) {
	_, err := Parse[departmentRow](strings.NewReader("code\nCS\n"), validation.New(), []string{"code", "name"})
	var missing *MissingHeadersError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Missing required CSV headers: name", err.Error())
}

func TestParseStripsBOMAndTrimsHeaders(t *testing.T) {
	input := "\xEF\xBB\xBF code , name\nCS,Computer Science\n"
	res, err := Parse[departmentRow](strings.NewReader(input), validation.New(), []string{"code", "name"})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Computer Science", res.Rows[0].Record.Name)
}

func TestParseReportsNonIntegerValues(t *testing.T) {
	input := "code,credits\nCS101,three\nCS102,9\n"
	res, err := Parse[courseRow](strings.NewReader(input), validation.New(), []string{"code", "credits"})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "credits must be an integer", res.Errors[0].Message)
	assert.Equal(t, 3, res.Errors[1].Row)
	assert.Equal(t, "credits cannot exceed 6", res.Errors[1].Message)
}

func TestParseEmptyFile(t *testing.T) {
	_, err := Parse[departmentRow](strings.NewReader(""), validation.New(), []string{"code"})
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestNewBulkResult(t *testing.T) {
	res := NewBulkResult[string](nil, []RowError{{Row: 2, Message: "bad"}}, 3)
	assert.False(t, res.Success)
	assert.Empty(t, res.Created)
	assert.Equal(t, Summary{TotalRows: 3, SuccessCount: 0, ErrorCount: 1}, res.Summary)

	ok := NewBulkResult([]string{"a"}, nil, 1)
	assert.True(t, ok.Success)
	assert.NotNil(t, ok.Errors)
}
