package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	clockPattern      = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)
	courseCodePattern = regexp.MustCompile(`^[A-Z]{2,4}\d{3}$`)
	deptCodePattern   = regexp.MustCompile(`^[A-Z]{2,4}$`)
)

// FieldError describes a single failed constraint.
type FieldError struct {
	Field   string
	Value   interface{}
	Message string
}

// New returns a validator that reports json (or csv) field names and knows the
// clock, course code and department code formats.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "csv", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	_ = v.RegisterValidation("clock", matchString(clockPattern))
	_ = v.RegisterValidation("coursecode", matchString(courseCodePattern))
	_ = v.RegisterValidation("deptcode", matchString(deptCodePattern))
	return v
}

func matchString(pattern *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	}
}

// Fields flattens validator errors into field level messages. Other errors yield nil.
func Fields(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Value: fe.Value(), Message: Message(fe)})
	}
	return out
}

// Messages returns one human readable message per failed constraint.
func Messages(err error) []string {
	fields := Fields(err)
	if fields == nil {
		return nil
	}
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Message
	}
	return out
}

// Message renders a readable sentence for one failed constraint.
func Message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s cannot exceed %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s cannot exceed %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "clock":
		return fmt.Sprintf("%s must be in HH:MM format (24-hour)", field)
	case "coursecode":
		return fmt.Sprintf("%s must follow format: 2-4 letters followed by 3 digits (e.g., CS101)", field)
	case "deptcode":
		return fmt.Sprintf("%s must be 2-4 uppercase letters", field)
	case "datetime":
		return fmt.Sprintf("%s must be a valid ISO 8601 date", field)
	case "numeric", "number":
		return fmt.Sprintf("%s must be an integer", field)
	default:
		return fmt.Sprintf("%s failed on %s", field, fe.Tag())
	}
}
