package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Code      string `json:"code" validate:"required,deptcode"`
	Course    string `json:"courseCode" validate:"omitempty,coursecode"`
	StartTime string `json:"startTime" validate:"omitempty,clock"`
	Credits   int    `json:"credits" validate:"gte=1,lte=6"`
	Venue     string `csv:"venue" validate:"max=5"`
}

func TestCustomTags(t *testing.T) {
	v := New()

	require.NoError(t, v.Struct(sample{Code: "CS", Course: "CS101", StartTime: "8:05", Credits: 3}))

	err := v.Struct(sample{Code: "cs1", Course: "C101", StartTime: "24:00", Credits: 9, Venue: "Main Hall"})
	require.Error(t, err)

	fields := Fields(err)
	byField := map[string]string{}
	for _, f := range fields {
		byField[f.Field] = f.Message
	}
	assert.Equal(t, "code must be 2-4 uppercase letters", byField["code"])
	assert.Contains(t, byField["courseCode"], "2-4 letters followed by 3 digits")
	assert.Equal(t, "startTime must be in HH:MM format (24-hour)", byField["startTime"])
	assert.Equal(t, "credits cannot exceed 6", byField["credits"])
	assert.Equal(t, "venue cannot exceed 5 characters", byField["venue"])
}

func TestMessagesIgnoresForeignErrors(t *testing.T) {
	assert.Nil(t, Messages(errors.New("boom")))
}
