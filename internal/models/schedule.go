package models

// Schedule is one weekly timetable slot of a course.
type Schedule struct {
	Base
	CourseCode  string         `db:"course_code" json:"courseCode"`
	DayOfWeek   DayOfWeek      `db:"day_of_week" json:"dayOfWeek"`
	StartTime   string         `db:"start_time" json:"startTime"`
	EndTime     string         `db:"end_time" json:"endTime"`
	StartMinute int            `db:"start_minute" json:"-"`
	EndMinute   int            `db:"end_minute" json:"-"`
	Venue       string         `db:"venue" json:"venue"`
	Type        ClassType      `db:"type" json:"type"`
	Course      *CourseSummary `db:"course" json:"course,omitempty"`
}

// Key returns the schedule id.
func (s Schedule) Key() string { return s.ID }

// Interval returns the slot as minutes since midnight.
func (s Schedule) Interval() Interval {
	return Interval{Start: s.StartMinute, End: s.EndMinute}
}

// SetTimes normalises start and end to HH:MM and records their minute values.
func (s *Schedule) SetTimes(start, end string) error {
	span, err := NewInterval(start, end)
	if err != nil {
		return err
	}
	s.StartMinute, s.EndMinute = span.Start, span.End
	s.StartTime, s.EndTime = FormatClock(span.Start), FormatClock(span.End)
	return nil
}

// ScheduleStats summarises the timetable.
type ScheduleStats struct {
	TotalSchedules  int               `json:"totalSchedules"`
	SchedulesByDay  map[DayOfWeek]int `json:"schedulesByDay"`
	SchedulesByType map[ClassType]int `json:"schedulesByType"`
}

// ScheduleFilter narrows schedule listings. Empty fields are ignored.
type ScheduleFilter struct {
	CourseCode     string
	DepartmentCode string
	Level          Level
	DayOfWeek      DayOfWeek
	Venue          string
	Type           ClassType
	// Window selects slots overlapping [Start, End) when End > 0.
	Window Interval
}

// CreateScheduleRequest is the payload for creating a schedule.
type CreateScheduleRequest struct {
	CourseCode string    `json:"courseCode" validate:"required,coursecode"`
	DayOfWeek  DayOfWeek `json:"dayOfWeek" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	StartTime  string    `json:"startTime" validate:"required,clock"`
	EndTime    string    `json:"endTime" validate:"required,clock"`
	Venue      string    `json:"venue" validate:"required,max=100"`
	Type       ClassType `json:"type" validate:"omitempty,oneof=LECTURE SEMINAR LAB TUTORIAL"`
}

// UniqueValues implements UniqueSource. Schedules have no unique columns.
func (r CreateScheduleRequest) UniqueValues() map[string]string { return nil }

// UpdateScheduleRequest applies a partial change to a schedule.
type UpdateScheduleRequest struct {
	CourseCode *string    `json:"courseCode" validate:"omitempty,coursecode"`
	DayOfWeek  *DayOfWeek `json:"dayOfWeek" validate:"omitempty,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	StartTime  *string    `json:"startTime" validate:"omitempty,clock"`
	EndTime    *string    `json:"endTime" validate:"omitempty,clock"`
	Venue      *string    `json:"venue" validate:"omitempty,min=1,max=100"`
	Type       *ClassType `json:"type" validate:"omitempty,oneof=LECTURE SEMINAR LAB TUTORIAL"`
}

// UniqueValues implements UniqueSource.
func (r UpdateScheduleRequest) UniqueValues() map[string]string { return nil }

// ScheduleCSVRow is one line of a schedule bulk upload.
type ScheduleCSVRow struct {
	CourseCode string    `csv:"courseCode" validate:"required,coursecode"`
	DayOfWeek  DayOfWeek `csv:"dayOfWeek" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	StartTime  string    `csv:"startTime" validate:"required,clock"`
	EndTime    string    `csv:"endTime" validate:"required,clock"`
	Venue      string    `csv:"venue" validate:"required,max=100"`
	Type       ClassType `csv:"type" validate:"omitempty,oneof=LECTURE SEMINAR LAB TUTORIAL"`
}

// ScheduleCSVHeaders are the columns a schedule upload must provide. type is optional.
var ScheduleCSVHeaders = []string{"courseCode", "dayOfWeek", "startTime", "endTime", "venue"}

// ScheduleCSVTemplateHeaders are the columns written to the downloadable template.
var ScheduleCSVTemplateHeaders = []string{"courseCode", "dayOfWeek", "startTime", "endTime", "venue", "type"}
