package models

import "time"

// User represents an application user stored in the users table.
type User struct {
	Base
	MatricNO         string     `db:"matric_no" json:"matricNO"`
	Email            string     `db:"email" json:"email"`
	PasswordHash     string     `db:"password_hash" json:"-"`
	Name             *string    `db:"name" json:"name"`
	Role             Role       `db:"role" json:"role"`
	IsActive         bool       `db:"is_active" json:"isActive"`
	LastLoginAt      *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	ResetToken       *string    `db:"reset_token" json:"-"`
	ResetTokenExpiry *time.Time `db:"reset_token_expiry" json:"-"`
}

// Key returns the public identifier of the user.
func (u User) Key() string { return u.MatricNO }

// Info returns the token-safe projection of the user.
func (u User) Info() UserInfo {
	return UserInfo{ID: u.ID, MatricNO: u.MatricNO, Email: u.Email, Name: u.Name, Role: u.Role, CreatedAt: u.CreatedAt}
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID        string    `json:"id"`
	MatricNO  string    `json:"matricNO"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateUserRequest is the admin payload for creating accounts.
type CreateUserRequest struct {
	MatricNO string  `json:"matricNO" validate:"required,max=50"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Role     Role    `json:"role" validate:"omitempty,oneof=STUDENT LECTURER ADMIN"`
}

// UniqueValues implements UniqueSource.
func (r CreateUserRequest) UniqueValues() map[string]string {
	return map[string]string{"matricNO": r.MatricNO, "email": r.Email}
}

// UpdateUserRequest applies a partial change to a user.
type UpdateUserRequest struct {
	MatricNO *string `json:"matricNO" validate:"omitempty,min=1,max=50"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Role     *Role   `json:"role" validate:"omitempty,oneof=STUDENT LECTURER ADMIN"`
	IsActive *bool   `json:"isActive"`
}

// UniqueValues implements UniqueSource.
func (r UpdateUserRequest) UniqueValues() map[string]string {
	return map[string]string{"matricNO": deref(r.MatricNO), "email": deref(r.Email)}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
