package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/validation"
)

func TestUserCreateHashesPassword(t *testing.T) {
	store := newFakeUserStore()
	svc := NewUserService(store, validation.New(), nil)

	user, err := svc.Create(context.Background(), models.CreateUserRequest{MatricNO: "STU001", Email: "stu@example.edu", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))

	fetched, err := svc.Get(context.Background(), "STU001")
	require.NoError(t, err)
	assert.Equal(t, user.ID, fetched.ID)
}

func TestUserCreateRejectsDuplicateEmail(t *testing.T) {
	store := newFakeUserStore(models.User{Base: models.Base{ID: "u1"}, MatricNO: "STU001", Email: "stu@example.edu", IsActive: true})
	svc := NewUserService(store, validation.New(), nil)

	_, err := svc.Create(context.Background(), models.CreateUserRequest{MatricNO: "STU002", Email: "stu@example.edu", Password: "secret123"})
	appErr := requireAppError(t, err, appErrors.ErrConflict.Code)
	assert.Equal(t, "email already exists", appErr.Message)
}

func TestUserUpdateRehashesPassword(t *testing.T) {
	store := newFakeUserStore(models.User{Base: models.Base{ID: "u1"}, MatricNO: "STU001", Email: "stu@example.edu", PasswordHash: "old", IsActive: true})
	svc := NewUserService(store, validation.New(), nil)

	updated, err := svc.Update(context.Background(), "STU001", models.UpdateUserRequest{Password: strPtr("newsecret")})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newsecret")))
}

func TestUserRemoveDeactivates(t *testing.T) {
	store := newFakeUserStore(models.User{Base: models.Base{ID: "u1"}, MatricNO: "STU001", Email: "stu@example.edu", IsActive: true})
	svc := NewUserService(store, validation.New(), nil)

	removed, err := svc.Remove(context.Background(), "STU001")
	require.NoError(t, err)
	assert.False(t, removed.IsActive)

	_, err = svc.Get(context.Background(), "STU001")
	appErr := requireAppError(t, err, appErrors.ErrNotFound.Code)
	assert.Equal(t, "user not found", appErr.Message)
}
