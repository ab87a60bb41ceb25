package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courseflow-api/internal/models"
	"github.com/noah-isme/courseflow-api/internal/service"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/response"
)

type authService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Me(ctx context.Context, userID string) (*models.UserInfo, error)
	ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) (*models.MessageResponse, error)
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (*models.MessageResponse, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	codes   *CRUDHandler[models.VerificationCode, models.CreateVerificationCodeRequest, models.UpdateVerificationCodeRequest]
}

// NewAuthHandler creates a new handler. Verification codes record the calling admin as creator.
func NewAuthHandler(svc authService, codes crudService[models.VerificationCode, models.CreateVerificationCodeRequest, models.UpdateVerificationCodeRequest]) *AuthHandler {
	crud := NewCRUDHandler[models.VerificationCode, models.CreateVerificationCodeRequest, models.UpdateVerificationCodeRequest](codes, "id")
	crud.Context = func(c *gin.Context) context.Context {
		ctx := c.Request.Context()
		if claims := claimsFromContext(c); claims != nil {
			ctx = service.WithActor(ctx, claims.UserID())
		}
		return ctx
	}
	return &AuthHandler{service: svc, codes: crud}
}

// Register godoc
// @Summary Register an account
// @Description ADMIN and LECTURER registrations require a matching verification code.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Register payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid register payload"))
		return
	}
	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Me godoc
// @Summary Current user profile
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.ErrorBody
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	respond(c)(h.service.Me(c.Request.Context(), claims.UserID()))
}

// ForgotPassword godoc
// @Summary Request a password reset email
// @Description The response is the same whether or not the account exists.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ForgotPasswordRequest true "Email"
// @Success 200 {object} response.Envelope
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid forgot password payload"))
		return
	}
	respond(c)(h.service.ForgotPassword(c.Request.Context(), req))
}

// ResetPassword godoc
// @Summary Reset a password with an emailed token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ResetPasswordRequest true "Token and new password"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reset password payload"))
		return
	}
	respond(c)(h.service.ResetPassword(c.Request.Context(), req))
}

// CreateVerificationCode godoc
// @Summary Create a verification code
// @Tags Verification Codes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateVerificationCodeRequest true "Code payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.ErrorBody
// @Router /auth/verification-codes [post]
func (h *AuthHandler) CreateVerificationCode(c *gin.Context) { h.codes.Create(c) }

// ListVerificationCodes godoc
// @Summary List verification codes
// @Tags Verification Codes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /auth/verification-codes [get]
func (h *AuthHandler) ListVerificationCodes(c *gin.Context) { h.codes.List(c) }

// GetVerificationCode godoc
// @Summary Get a verification code
// @Tags Verification Codes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Code ID"
// @Success 200 {object} response.Envelope
// @Router /auth/verification-codes/{id} [get]
func (h *AuthHandler) GetVerificationCode(c *gin.Context) { h.codes.Get(c) }

// UpdateVerificationCode godoc
// @Summary Update a verification code
// @Tags Verification Codes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Code ID"
// @Param payload body models.UpdateVerificationCodeRequest true "Code payload"
// @Success 200 {object} response.Envelope
// @Router /auth/verification-codes/{id} [patch]
func (h *AuthHandler) UpdateVerificationCode(c *gin.Context) { h.codes.Update(c) }

// DeleteVerificationCode godoc
// @Summary Delete a verification code
// @Tags Verification Codes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Code ID"
// @Success 200 {object} response.Envelope
// @Router /auth/verification-codes/{id} [delete]
func (h *AuthHandler) DeleteVerificationCode(c *gin.Context) { h.codes.Remove(c) }
