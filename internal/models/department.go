package models

// Department owns zero or more courses.
type Department struct {
	Base
	Code     string `db:"code" json:"code"`
	Name     string `db:"name" json:"name"`
	IsActive bool   `db:"is_active" json:"isActive"`
}

// Key returns the department code.
func (d Department) Key() string { return d.Code }

// DepartmentSummary is the joined projection embedded in courses.
type DepartmentSummary struct {
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// DepartmentWithCount adds the number of active courses.
type DepartmentWithCount struct {
	Department
	CourseCount int `db:"course_count" json:"courseCount"`
}

// DepartmentWithCourses lists a department and its active courses.
type DepartmentWithCourses struct {
	Department
	Courses []Course `json:"courses"`
}

// DepartmentDetails nests courses together with their schedules.
type DepartmentDetails struct {
	Department
	Courses []CourseWithSchedules `json:"courses"`
}

// DepartmentStats summarises department coverage.
type DepartmentStats struct {
	TotalDepartments            int     `json:"totalDepartments"`
	DepartmentsWithCourses      int     `json:"departmentsWithCourses"`
	DepartmentsWithoutCourses   int     `json:"departmentsWithoutCourses"`
	AverageCoursesPerDepartment float64 `json:"averageCoursesPerDepartment"`
}

// CreateDepartmentRequest is the payload for creating a department.
type CreateDepartmentRequest struct {
	Code string `json:"code" validate:"required,deptcode"`
	Name string `json:"name" validate:"required,max=100"`
}

// UniqueValues implements UniqueSource.
func (r CreateDepartmentRequest) UniqueValues() map[string]string {
	return map[string]string{"code": r.Code, "name": r.Name}
}

// UpdateDepartmentRequest applies a partial change to a department.
type UpdateDepartmentRequest struct {
	Code     *string `json:"code" validate:"omitempty,deptcode"`
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	IsActive *bool   `json:"isActive"`
}

// UniqueValues implements UniqueSource.
func (r UpdateDepartmentRequest) UniqueValues() map[string]string {
	return map[string]string{"code": deref(r.Code), "name": deref(r.Name)}
}

// DepartmentCSVRow is one line of a department bulk upload.
type DepartmentCSVRow struct {
	Code string `csv:"code" validate:"required,deptcode"`
	Name string `csv:"name" validate:"required,max=100"`
}

// DepartmentCSVHeaders are the columns a department upload must provide.
var DepartmentCSVHeaders = []string{"code", "name"}
