package models

// Role represents the available roles for access control.
type Role string

const (
	RoleStudent  Role = "STUDENT"
	RoleLecturer Role = "LECTURER"
	RoleAdmin    Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleLecturer, RoleAdmin:
		return true
	}
	return false
}

// RequiresVerification reports whether registering with r needs a verification code.
func (r Role) RequiresVerification() bool {
	return r == RoleAdmin || r == RoleLecturer
}

// Level is the academic band of a course.
type Level string

const (
	Level100 Level = "LEVEL_100"
	Level200 Level = "LEVEL_200"
	Level300 Level = "LEVEL_300"
	Level400 Level = "LEVEL_400"
	Level500 Level = "LEVEL_500"
)

// Levels lists every level in ascending order.
var Levels = []Level{Level100, Level200, Level300, Level400, Level500}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	for _, candidate := range Levels {
		if l == candidate {
			return true
		}
	}
	return false
}

// DayOfWeek names a teaching day.
type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
	Sunday    DayOfWeek = "SUNDAY"
)

// Days lists the week starting on Monday.
var Days = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Valid reports whether d is a known day.
func (d DayOfWeek) Valid() bool {
	for _, candidate := range Days {
		if d == candidate {
			return true
		}
	}
	return false
}

// Ordinal returns the position of d in the week, Monday being 0.
func (d DayOfWeek) Ordinal() int {
	for i, candidate := range Days {
		if d == candidate {
			return i
		}
	}
	return len(Days)
}

// ClassType is the teaching format of a schedule slot.
type ClassType string

const (
	ClassLecture  ClassType = "LECTURE"
	ClassSeminar  ClassType = "SEMINAR"
	ClassLab      ClassType = "LAB"
	ClassTutorial ClassType = "TUTORIAL"
)

// ClassTypes lists every class type.
var ClassTypes = []ClassType{ClassLecture, ClassSeminar, ClassLab, ClassTutorial}

// Valid reports whether t is a known class type.
func (t ClassType) Valid() bool {
	for _, candidate := range ClassTypes {
		if t == candidate {
			return true
		}
	}
	return false
}

// ComplaintStatus tracks complaint handling.
type ComplaintStatus string

const (
	ComplaintPending    ComplaintStatus = "PENDING"
	ComplaintInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintResolved   ComplaintStatus = "RESOLVED"
	ComplaintClosed     ComplaintStatus = "CLOSED"
)
