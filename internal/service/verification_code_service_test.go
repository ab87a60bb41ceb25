package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/validation"
)

func TestVerificationCodeCreateRecordsActor(t *testing.T) {
	store := newFakeVerificationCodeStore()
	svc := NewVerificationCodeService(store, validation.New(), nil)

	code, err := svc.Create(WithActor(context.Background(), "admin-id"), models.CreateVerificationCodeRequest{Code: "LECT2026", Role: models.RoleLecturer})
	require.NoError(t, err)
	assert.True(t, code.IsActive)
	require.NotNil(t, code.CreatedBy)
	assert.Equal(t, "admin-id", *code.CreatedBy)
}

func TestVerificationCodeDuplicateConflict(t *testing.T) {
	store := newFakeVerificationCodeStore(
		models.VerificationCode{Base: models.Base{ID: "v1"}, Code: "ADMIN2026", Role: models.RoleAdmin, IsActive: true},
		models.VerificationCode{Base: models.Base{ID: "v2"}, Code: "LECT2026", Role: models.RoleLecturer, IsActive: true},
	)
	svc := NewVerificationCodeService(store, validation.New(), nil)

	_, err := svc.Create(context.Background(), models.CreateVerificationCodeRequest{Code: "ADMIN2026", Role: models.RoleAdmin})
	appErr := requireAppError(t, err, appErrors.ErrConflict.Code)
	assert.Equal(t, "Verification code already exists", appErr.Message)

	_, err = svc.Update(context.Background(), "v2", models.UpdateVerificationCodeRequest{Code: strPtr("ADMIN2026")})
	appErr = requireAppError(t, err, appErrors.ErrConflict.Code)
	assert.Equal(t, "Verification code already exists", appErr.Message)

	updated, err := svc.Update(context.Background(), "v2", models.UpdateVerificationCodeRequest{Code: strPtr("LECT2026")})
	require.NoError(t, err)
	assert.Equal(t, "LECT2026", updated.Code)
}

func TestVerificationCodeRemoveIsHardDelete(t *testing.T) {
	store := newFakeVerificationCodeStore(models.VerificationCode{Base: models.Base{ID: "v1"}, Code: "ADMIN2026", Role: models.RoleAdmin, IsActive: true})
	svc := NewVerificationCodeService(store, validation.New(), nil)

	_, err := svc.Remove(context.Background(), "v1")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "v1")
	appErr := requireAppError(t, err, appErrors.ErrNotFound.Code)
	assert.Equal(t, "verification code not found", appErr.Message)
}
