package main

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/validation"
)

func TestDefaultCodesAreValid(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	codes := defaultCodes(now)
	require.Len(t, codes, 3)

	validate := validation.New()
	for _, code := range codes {
		require.NoError(t, validate.Struct(code), code.Code)
	}

	assert.Equal(t, "ADMIN-2026-MASTER", codes[0].Code)
	assert.Equal(t, models.RoleAdmin, codes[0].Role)
	assert.Nil(t, codes[0].MaxUsage)
	assert.Nil(t, codes[0].ExpiresAt)

	for _, code := range codes[1:] {
		assert.Equal(t, models.RoleLecturer, code.Role)
		require.NotNil(t, code.ExpiresAt)
		assert.True(t, code.ExpiresAt.After(now))
	}
	assert.Equal(t, 10, *codes[1].MaxUsage)
	assert.Equal(t, 5, *codes[2].MaxUsage)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(sql.ErrNoRows))
	assert.True(t, isNotFound(appErrors.NotFound("user not found")))
	assert.False(t, isNotFound(errors.New("connection refused")))
}
