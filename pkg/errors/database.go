package errors

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
	pqNotNullViolation    = "23502"
	pqExclusionViolation  = "23P01"
)

// FromDatabase translates driver level failures into the domain taxonomy.
// It returns nil when err does not originate from the database.
func FromDatabase(err error) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return Wrap(err, ErrRecordNotFound.Code, ErrRecordNotFound.Status, ErrRecordNotFound.Message)
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch string(pqErr.Code) {
	case pqUniqueViolation:
		message := ErrRecordExists.Message
		if pqErr.Constraint != "" {
			message = fmt.Sprintf("record already exists (%s)", pqErr.Constraint)
		}
		return Wrap(err, ErrRecordExists.Code, ErrRecordExists.Status, message)
	case pqForeignKeyViolation:
		return Wrap(err, ErrForeignKey.Code, ErrForeignKey.Status, ErrForeignKey.Message)
	case pqExclusionViolation:
		return Wrap(err, ErrScheduleConflict.Code, ErrScheduleConflict.Status, ErrScheduleConflict.Message)
	case pqCheckViolation, pqNotNullViolation:
		return Wrap(err, ErrValidation.Code, ErrValidation.Status, "value violates a database constraint")
	default:
		return Wrap(err, ErrDatabase.Code, ErrDatabase.Status, ErrDatabase.Message)
	}
}

// IsUniqueViolation reports whether err is a postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	return hasPQCode(err, pqUniqueViolation)
}

// IsExclusionViolation reports whether err is a postgres exclusion constraint failure.
func IsExclusionViolation(err error) bool {
	return hasPQCode(err, pqExclusionViolation)
}

// IsForeignKeyViolation reports whether err is a postgres foreign key failure.
func IsForeignKeyViolation(err error) bool {
	return hasPQCode(err, pqForeignKeyViolation)
}

func hasPQCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}
