package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
)

type verificationCodeStore interface {
	entityStore[models.VerificationCode]
}

// VerificationCodeService lets administrators provision signup codes for elevated roles.
type VerificationCodeService struct {
	crud   *CRUDService[models.VerificationCode, models.CreateVerificationCodeRequest, models.UpdateVerificationCodeRequest]
	logger *zap.Logger
}

// NewVerificationCodeService creates an instance of VerificationCodeService.
func NewVerificationCodeService(repo verificationCodeStore, validate *validator.Validate, logger *zap.Logger) *VerificationCodeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &VerificationCodeService{logger: logger}
	s.crud = NewCRUDService[models.VerificationCode, models.CreateVerificationCodeRequest, models.UpdateVerificationCodeRequest](repo, CRUDHooks[models.VerificationCode, models.CreateVerificationCodeRequest, models.UpdateVerificationCodeRequest]{
		Build: s.build,
		Apply: s.apply,
	}, validate, logger)
	return s
}

func (s *VerificationCodeService) build(ctx context.Context, req models.CreateVerificationCodeRequest) (*models.VerificationCode, error) {
	code := &models.VerificationCode{
		Code:        req.Code,
		Role:        req.Role,
		Description: req.Description,
		MaxUsage:    req.MaxUsage,
		ExpiresAt:   req.ExpiresAt,
		IsActive:    true,
	}
	if actor := actorFrom(ctx); actor != "" {
		code.CreatedBy = &actor
	}
	return code, nil
}

func (s *VerificationCodeService) apply(_ context.Context, code *models.VerificationCode, req models.UpdateVerificationCodeRequest) error {
	if req.Code != nil {
		code.Code = *req.Code
	}
	if req.Role != nil {
		code.Role = *req.Role
	}
	if req.Description != nil {
		code.Description = req.Description
	}
	if req.MaxUsage != nil {
		code.MaxUsage = req.MaxUsage
	}
	if req.ExpiresAt != nil {
		code.ExpiresAt = req.ExpiresAt
	}
	if req.IsActive != nil {
		code.IsActive = *req.IsActive
	}
	return nil
}

// Create provisions a code. The actor carried by ctx is recorded as its creator.
func (s *VerificationCodeService) Create(ctx context.Context, req models.CreateVerificationCodeRequest) (*models.VerificationCode, error) {
	code, err := s.crud.Create(ctx, req)
	return code, duplicateCode(err)
}

// List returns every code, or one page.
func (s *VerificationCodeService) List(ctx context.Context, opts models.ListOptions) ([]models.VerificationCode, *models.Pagination, error) {
	return s.crud.List(ctx, opts)
}

// Get returns one code by id.
func (s *VerificationCodeService) Get(ctx context.Context, id string) (*models.VerificationCode, error) {
	return s.crud.Get(ctx, id)
}

// Update changes a code, re-checking that its value stays unique.
func (s *VerificationCodeService) Update(ctx context.Context, id string, req models.UpdateVerificationCodeRequest) (*models.VerificationCode, error) {
	code, err := s.crud.Update(ctx, id, req)
	return code, duplicateCode(err)
}

// Remove deletes a code.
func (s *VerificationCodeService) Remove(ctx context.Context, id string) (*models.VerificationCode, error) {
	return s.crud.Remove(ctx, id)
}

func duplicateCode(err error) error {
	if err == nil {
		return nil
	}
	if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrConflict.Code || appErr.Code == appErrors.ErrRecordExists.Code {
		return appErrors.Conflict("Verification code already exists")
	}
	return err
}

type actorKey struct{}

// WithActor attaches the id of the acting user to ctx.
func WithActor(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, userID)
}

func actorFrom(ctx context.Context) string {
	userID, _ := ctx.Value(actorKey{}).(string)
	return userID
}
