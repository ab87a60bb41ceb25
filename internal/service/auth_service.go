package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/courseflow-api/internal/models"
	"github.com/noah-isme/courseflow-api/internal/repository"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/jobs"
	"github.com/noah-isme/courseflow-api/pkg/mailer"
	"github.com/noah-isme/courseflow-api/pkg/validation"
)

const (
	defaultResetTokenTTL = 15 * time.Minute
	resetTokenBytes      = 32
	tokenTypeBearer      = "Bearer"

	// ForgotPasswordMessage is returned whether or not the account exists.
	ForgotPasswordMessage = "If an account with that email exists, a password reset link has been sent."
	// ResetPasswordMessage acknowledges a completed reset.
	ResetPasswordMessage = "Password has been reset successfully"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByResetToken(ctx context.Context, token string) (*models.User, error)
	FindByEmailOrMatric(ctx context.Context, email, matricNO string) (*models.User, error)
	CreateWithVerificationCode(ctx context.Context, user *models.User, codeID string) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	SetResetToken(ctx context.Context, id, token string, expiry time.Time) error
	ResetPassword(ctx context.Context, id, passwordHash string) error
}

type verificationCodeLookup interface {
	FindByCode(ctx context.Context, code string) (*models.VerificationCode, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	ResetTokenTTL     time.Duration
	ResetURLBase      string
	// ExposeResetToken returns the raw reset token in the response. Development only.
	ExposeResetToken bool
}

// AuthService provides authentication use cases.
type AuthService struct {
	repo      authUserRepository
	codes     verificationCodeLookup
	mail      jobEnqueuer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, codes verificationCodeLookup, mail jobEnqueuer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	if config.ResetTokenTTL <= 0 {
		config.ResetTokenTTL = defaultResetTokenTTL
	}
	return &AuthService{
		repo:      repo,
		codes:     codes,
		mail:      mail,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Register creates an account. ADMIN and LECTURER signups must present a matching verification code,
// which is consumed in the same transaction that inserts the user.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (resp *models.AuthResponse, err error) {
	defer func() { s.metrics.RecordAuthEvent("register", err == nil) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid register payload")
	}

	existing, err := s.repo.FindByEmailOrMatric(ctx, req.Email, req.MatricNO)
	switch {
	case err == nil && existing.Email == req.Email:
		return nil, appErrors.Conflict("User with this email already exists")
	case err == nil:
		return nil, appErrors.Conflict("User with this matric number already exists")
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Internal(err, "failed to check existing users")
	}

	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}

	codeID := ""
	if role.RequiresVerification() {
		code, err := s.checkVerificationCode(ctx, req.VerificationCode, role)
		if err != nil {
			return nil, err
		}
		codeID = code.ID
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		MatricNO:     req.MatricNO,
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         role,
		IsActive:     true,
	}
	if err := s.repo.CreateWithVerificationCode(ctx, user, codeID); err != nil {
		if errors.Is(err, repository.ErrVerificationCodeUnavailable) {
			return nil, appErrors.BadRequest("Verification code usage limit exceeded")
		}
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Conflict("User with this email or matric number already exists")
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return s.issue(user)
}

// checkVerificationCode reports the first reason code cannot grant role.
func (s *AuthService) checkVerificationCode(ctx context.Context, value string, role models.Role) (*models.VerificationCode, error) {
	if value == "" {
		return nil, appErrors.BadRequest(fmt.Sprintf("Verification code is required for %s role", role))
	}
	code, err := s.codes.FindByCode(ctx, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.BadRequest("Invalid verification code")
		}
		return nil, appErrors.Internal(err, "failed to load verification code")
	}
	switch {
	case !code.IsActive:
		return nil, appErrors.BadRequest("Verification code is inactive")
	case code.Role != role:
		return nil, appErrors.BadRequest(fmt.Sprintf("Verification code is not valid for %s role", role))
	case code.Expired(s.now()):
		return nil, appErrors.BadRequest("Verification code has expired")
	case code.Exhausted():
		return nil, appErrors.BadRequest("Verification code usage limit exceeded")
	}
	return code, nil
}

// Login authenticates a user and returns an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (resp *models.AuthResponse, err error) {
	defer func() { s.metrics.RecordAuthEvent("login", err == nil) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	if !user.IsActive {
		return nil, appErrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}
	return s.issue(user)
}

// Me returns the account behind a validated token.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	info := user.Info()
	return &info, nil
}

// ForgotPassword stores a short lived reset token and queues the email carrying it.
// The response does not reveal whether the account exists.
func (s *AuthService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) (resp *models.MessageResponse, err error) {
	defer func() { s.metrics.RecordAuthEvent("forgot_password", err == nil) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid forgot password payload")
	}
	resp = &models.MessageResponse{Message: ForgotPasswordMessage}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info("password reset requested for unknown email")
			return resp, nil
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	if !user.IsActive {
		return resp, nil
	}

	token, err := newResetToken()
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create reset token")
	}
	expiry := s.now().UTC().Add(s.config.ResetTokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, token, expiry); err != nil {
		return nil, appErrors.Internal(err, "failed to store reset token")
	}

	if s.mail != nil {
		job := jobs.Job{Type: MailJobPasswordReset, Payload: resetEmail(user.Email, s.resetLink(token), s.config.ResetTokenTTL)}
		if err := s.mail.Enqueue(job); err != nil {
			s.logger.Warn("failed to queue password reset email", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	if s.config.ExposeResetToken {
		resp.ResetToken = token
	}
	return resp, nil
}

// ResetPassword replaces the password of the account holding token and clears the token.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (resp *models.MessageResponse, err error) {
	defer func() { s.metrics.RecordAuthEvent("reset_password", err == nil) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid reset password payload")
	}
	user, err := s.repo.FindByResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.BadRequest("Invalid or expired reset token")
		}
		return nil, appErrors.Internal(err, "failed to load reset token")
	}
	if user.ResetTokenExpiry == nil || !user.ResetTokenExpiry.After(s.now()) {
		return nil, appErrors.BadRequest("Reset token has expired")
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ResetPassword(ctx, user.ID, hash); err != nil {
		return nil, appErrors.Internal(err, "failed to update password")
	}
	s.logger.Info("password reset completed", zap.String("user_id", user.ID))
	return &models.MessageResponse{Message: ResetPasswordMessage}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) issue(user *models.User) (*models.AuthResponse, error) {
	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}
	return &models.AuthResponse{
		User:        user.Info(),
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	issuedAt := s.now().UTC()
	claims := &models.JWTClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}

func (s *AuthService) resetLink(token string) string {
	if s.config.ResetURLBase == "" {
		return token
	}
	return s.config.ResetURLBase + "?token=" + token
}

func newResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func resetEmail(to, link string, ttl time.Duration) mailer.Message {
	minutes := int(ttl.Minutes())
	return mailer.Message{
		To:      to,
		Subject: "Reset your password",
		Text:    fmt.Sprintf("Use the link below to reset your password. It expires in %d minutes.\n\n%s\n", minutes, link),
		HTML:    fmt.Sprintf("<p>Use the link below to reset your password. It expires in %d minutes.</p><p><a href=%q>%s</a></p>", minutes, link, link),
	}
}
