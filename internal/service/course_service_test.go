package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/validation"
)

func newCourseServiceForTest(courses ...models.Course) (*CourseService, *fakeCourseRepo) {
	departments := newFakeDepartmentRepo(
		models.Department{Base: models.Base{ID: "d1"}, Code: "CS", Name: "Computer Science", IsActive: true},
		models.Department{Base: models.Base{ID: "d2"}, Code: "OLD", Name: "Closed", IsActive: false},
	)
	repo := newFakeCourseRepo(courses...)
	return NewCourseService(repo, departments, nil, nil, validation.New(), nil), repo
}

func TestCourseCreateDefaultsCredits(t *testing.T) {
	svc, _ := newCourseServiceForTest()
	course, err := svc.Create(context.Background(), models.CreateCourseRequest{Code: "CS101", Name: "Intro", Level: models.Level100, DepartmentCode: "CS"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCredits, course.Credits)
	assert.True(t, course.IsActive)
}

func TestCourseCreateRequiresActiveDepartment(t *testing.T) {
	svc, repo := newCourseServiceForTest()
	for _, dept := range []string{"OLD", "ZZZ"} {
		_, err := svc.Create(context.Background(), models.CreateCourseRequest{Code: "CS101", Name: "Intro", Level: models.Level100, DepartmentCode: dept})
		requireAppError(t, err, appErrors.ErrBadRequest.Code)
	}
	assert.Empty(t, repo.rows)
}

func TestCourseUpdateChecksNewDepartment(t *testing.T) {
	svc, _ := newCourseServiceForTest(models.Course{Base: models.Base{ID: "c1"}, Code: "CS101", Name: "Intro", Level: models.Level100, Credits: 3, DepartmentCode: "CS", IsActive: true})
	_, err := svc.Update(context.Background(), "CS101", models.UpdateCourseRequest{DepartmentCode: strPtr("OLD")})
	requireAppError(t, err, appErrors.ErrBadRequest.Code)

	credits := 4
	updated, err := svc.Update(context.Background(), "CS101", models.UpdateCourseRequest{Credits: &credits})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Credits)
}

func TestCourseCreditRangeValidation(t *testing.T) {
	svc, _ := newCourseServiceForTest(
		models.Course{Base: models.Base{ID: "c1"}, Code: "CS101", Credits: 2, DepartmentCode: "CS", IsActive: true},
		models.Course{Base: models.Base{ID: "c2"}, Code: "CS201", Credits: 4, DepartmentCode: "CS", IsActive: true},
	)
	courses, err := svc.ByCreditRange(context.Background(), 3, 6)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "CS201", courses[0].Code)

	_, err = svc.ByCreditRange(context.Background(), 5, 2)
	requireAppError(t, err, appErrors.ErrBadRequest.Code)

	_, err = svc.ByLevel(context.Background(), models.Level("LEVEL_900"))
	requireAppError(t, err, appErrors.ErrBadRequest.Code)
}

func TestCourseBulkCreateChecksDepartmentsAndDuplicates(t *testing.T) {
	svc, repo := newCourseServiceForTest(models.Course{Base: models.Base{ID: "c1"}, Code: "CS101", DepartmentCode: "CS", IsActive: true})
	csv := strings.Join([]string{
		"code,name,level,credits,departmentCode",
		"CS101,Intro,LEVEL_100,3,CS",
		"CS201,Data,LEVEL_200,3,MTH",
		"CS301,Systems,LEVEL_300,3,CS",
	}, "\n")

	result, err := svc.BulkCreate(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "Course with code 'CS101' already exists", result.Errors[0].Message)
	assert.Equal(t, "departmentCode", result.Errors[1].Field)
	assert.Equal(t, "Department with code 'MTH' does not exist", result.Errors[1].Message)
	assert.Empty(t, result.Created)
	assert.Len(t, repo.rows, 1)
}

func TestCourseTemplateHasSampleRow(t *testing.T) {
	svc, _ := newCourseServiceForTest()
	payload, err := svc.Template()
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "code,name,level,credits,departmentCode", lines[0])
}
