package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
)

type userStore interface {
	entityStore[models.User]
}

// UserService handles admin user management.
type UserService struct {
	*CRUDService[models.User, models.CreateUserRequest, models.UpdateUserRequest]
	logger *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userStore, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &UserService{logger: logger}
	s.CRUDService = NewCRUDService[models.User, models.CreateUserRequest, models.UpdateUserRequest](repo, CRUDHooks[models.User, models.CreateUserRequest, models.UpdateUserRequest]{
		Build: s.build,
		Apply: s.apply,
	}, validate, logger)
	return s
}

func (s *UserService) build(_ context.Context, req models.CreateUserRequest) (*models.User, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}
	return &models.User{
		MatricNO:     req.MatricNO,
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         role,
		IsActive:     true,
	}, nil
}

func (s *UserService) apply(_ context.Context, user *models.User, req models.UpdateUserRequest) error {
	if req.MatricNO != nil {
		user.MatricNO = *req.MatricNO
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = req.Name
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", appErrors.Internal(err, "failed to hash password")
	}
	return string(hash), nil
}
