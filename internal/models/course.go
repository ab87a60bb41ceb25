package models

// Course belongs to a department and owns zero or more schedules.
type Course struct {
	Base
	Code           string             `db:"code" json:"code"`
	Name           string             `db:"name" json:"name"`
	Level          Level              `db:"level" json:"level"`
	Credits        int                `db:"credits" json:"credits"`
	DepartmentCode string             `db:"department_code" json:"departmentCode"`
	IsActive       bool               `db:"is_active" json:"isActive"`
	Department     *DepartmentSummary `db:"department" json:"department,omitempty"`
}

// Key returns the course code.
func (c Course) Key() string { return c.Code }

// CourseSummary is the joined projection embedded in schedules.
type CourseSummary struct {
	Code           string             `db:"code" json:"code"`
	Name           string             `db:"name" json:"name"`
	Level          Level              `db:"level" json:"level"`
	Credits        int                `db:"credits" json:"credits"`
	DepartmentCode string             `db:"department_code" json:"departmentCode"`
	Department     *DepartmentSummary `db:"department" json:"department,omitempty"`
}

// CourseWithSchedules nests a course's timetable.
type CourseWithSchedules struct {
	Course
	Schedules []Schedule `json:"schedules"`
}

// CourseStats summarises the course catalogue.
type CourseStats struct {
	TotalCourses        int            `json:"totalCourses"`
	CoursesByLevel      map[Level]int  `json:"coursesByLevel"`
	CoursesByDepartment map[string]int `json:"coursesByDepartment"`
	AverageCredits      float64        `json:"averageCredits"`
}

// CreateCourseRequest is the payload for creating a course.
type CreateCourseRequest struct {
	Code           string `json:"code" validate:"required,coursecode"`
	Name           string `json:"name" validate:"required,max=150"`
	Level          Level  `json:"level" validate:"required,oneof=LEVEL_100 LEVEL_200 LEVEL_300 LEVEL_400 LEVEL_500"`
	Credits        *int   `json:"credits" validate:"omitempty,gte=1,lte=6"`
	DepartmentCode string `json:"departmentCode" validate:"required,deptcode"`
}

// UniqueValues implements UniqueSource.
func (r CreateCourseRequest) UniqueValues() map[string]string {
	return map[string]string{"code": r.Code}
}

// UpdateCourseRequest applies a partial change to a course.
type UpdateCourseRequest struct {
	Code           *string `json:"code" validate:"omitempty,coursecode"`
	Name           *string `json:"name" validate:"omitempty,min=1,max=150"`
	Level          *Level  `json:"level" validate:"omitempty,oneof=LEVEL_100 LEVEL_200 LEVEL_300 LEVEL_400 LEVEL_500"`
	Credits        *int    `json:"credits" validate:"omitempty,gte=1,lte=6"`
	DepartmentCode *string `json:"departmentCode" validate:"omitempty,deptcode"`
	IsActive       *bool   `json:"isActive"`
}

// UniqueValues implements UniqueSource.
func (r UpdateCourseRequest) UniqueValues() map[string]string {
	return map[string]string{"code": deref(r.Code)}
}

// CourseCSVRow is one line of a course bulk upload.
type CourseCSVRow struct {
	Code           string `csv:"code" validate:"required,coursecode"`
	Name           string `csv:"name" validate:"required,max=150"`
	Level          Level  `csv:"level" validate:"required,oneof=LEVEL_100 LEVEL_200 LEVEL_300 LEVEL_400 LEVEL_500"`
	Credits        int    `csv:"credits" validate:"required,gte=1,lte=6"`
	DepartmentCode string `csv:"departmentCode" validate:"required,deptcode"`
}

// CourseCSVHeaders are the columns a course upload must provide.
var CourseCSVHeaders = []string{"code", "name", "level", "credits", "departmentCode"}

// DefaultCredits applies when a course is created without credits.
const DefaultCredits = 3
