package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest is the public signup payload.
type RegisterRequest struct {
	MatricNO         string  `json:"matricNO" validate:"required,max=50"`
	Email            string  `json:"email" validate:"required,email"`
	Password         string  `json:"password" validate:"required,min=6"`
	Name             *string `json:"name" validate:"omitempty,max=100"`
	Role             Role    `json:"role" validate:"omitempty,oneof=STUDENT LECTURER ADMIN"`
	VerificationCode string  `json:"verificationCode" validate:"omitempty,max=50"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest starts the reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the reset flow.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// AuthResponse returns the issued token and the account it belongs to.
type AuthResponse struct {
	User        UserInfo `json:"user"`
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int64    `json:"expires_in"`
}

// JWTClaims represents the JWT payload for access tokens. Subject holds the user id.
type JWTClaims struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c *JWTClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}

// VerificationCode is an admin issued token granting an elevated role at signup.
type VerificationCode struct {
	Base
	Code        string     `db:"code" json:"code"`
	Role        Role       `db:"role" json:"role"`
	Description *string    `db:"description" json:"description"`
	MaxUsage    *int       `db:"max_usage" json:"maxUsage"`
	UsageCount  int        `db:"usage_count" json:"usageCount"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expiresAt"`
	IsActive    bool       `db:"is_active" json:"isActive"`
	CreatedBy   *string    `db:"created_by" json:"createdBy"`
}

// Key returns the identifier used in routes.
func (v VerificationCode) Key() string { return v.ID }

// Expired reports whether the code has an expiry at or before now.
func (v VerificationCode) Expired(now time.Time) bool {
	return v.ExpiresAt != nil && !v.ExpiresAt.After(now)
}

// Exhausted reports whether the usage cap has been reached.
func (v VerificationCode) Exhausted() bool {
	return v.MaxUsage != nil && v.UsageCount >= *v.MaxUsage
}

// CreateVerificationCodeRequest provisions a new code.
type CreateVerificationCodeRequest struct {
	Code        string     `json:"code" validate:"required,max=50"`
	Role        Role       `json:"role" validate:"required,oneof=STUDENT LECTURER ADMIN"`
	Description *string    `json:"description" validate:"omitempty,max=200"`
	MaxUsage    *int       `json:"maxUsage" validate:"omitempty,gte=1"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

// UniqueValues implements UniqueSource.
func (r CreateVerificationCodeRequest) UniqueValues() map[string]string {
	return map[string]string{"code": r.Code}
}

// UpdateVerificationCodeRequest applies a partial change to a code.
type UpdateVerificationCodeRequest struct {
	Code        *string    `json:"code" validate:"omitempty,min=1,max=50"`
	Role        *Role      `json:"role" validate:"omitempty,oneof=STUDENT LECTURER ADMIN"`
	Description *string    `json:"description" validate:"omitempty,max=200"`
	MaxUsage    *int       `json:"maxUsage" validate:"omitempty,gte=1"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	IsActive    *bool      `json:"isActive"`
}

// UniqueValues implements UniqueSource.
func (r UpdateVerificationCodeRequest) UniqueValues() map[string]string {
	return map[string]string{"code": deref(r.Code)}
}
