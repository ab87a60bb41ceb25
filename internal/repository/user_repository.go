package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/courseflow-api/internal/models"
	"github.com/noah-isme/courseflow-api/pkg/database"
)

// ErrVerificationCodeUnavailable is returned when a code could not be redeemed at insert time.
var ErrVerificationCodeUnavailable = errors.New("verification code no longer redeemable")

const userColumns = "u.id, u.matric_no, u.email, u.password_hash, u.name, u.role, u.is_active, u.last_login_at, u.reset_token, u.reset_token_expiry, u.created_at, u.updated_at"

var userEntity = Entity{
	Descriptor: models.Descriptor{
		Name:         "user",
		Identifier:   "matric_no",
		Unique:       []models.UniqueField{{Field: "matricNO", Column: "matric_no"}, {Field: "email", Column: "email"}},
		SoftDelete:   true,
		DefaultSort:  "created_at",
		DefaultOrder: "DESC",
	},
	Table:   "users",
	Alias:   "u",
	Columns: []string{userColumns},
	Sortable: map[string]string{
		"matricNO":  "u.matric_no",
		"email":     "u.email",
		"name":      "u.name",
		"role":      "u.role",
		"createdAt": "u.created_at",
		"updatedAt": "u.updated_at",
	},
	InsertSQL: `INSERT INTO users (id, matric_no, email, password_hash, name, role, is_active, created_at, updated_at) VALUES (:id, :matric_no, :email, :password_hash, :name, :role, :is_active, :created_at, :updated_at)`,
	UpdateSQL: `UPDATE users SET matric_no = :matric_no, email = :email, password_hash = :password_hash, name = :name, role = :role, is_active = :is_active, updated_at = :updated_at WHERE id = :id`,
}

// UserRepository provides database access for user management.
type UserRepository struct {
	*Store[models.User]
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB, observer QueryObserver) *UserRepository {
	return &UserRepository{Store: NewStore[models.User](db, userEntity, observer)}
}

// FindByEmail returns a user by email address, active or not.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findBy(ctx, "find_by_email", "u.email = $1", email)
}

// FindByID returns a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findBy(ctx, "find_by_id", "u.id = $1", id)
}

// FindByResetToken returns the active user holding the reset token.
func (r *UserRepository) FindByResetToken(ctx context.Context, token string) (*models.User, error) {
	return r.findBy(ctx, "find_by_reset_token", "u.reset_token = $1 AND u.is_active = TRUE", token)
}

// FindByEmailOrMatric returns any user colliding with either value.
func (r *UserRepository) FindByEmailOrMatric(ctx context.Context, email, matricNO string) (*models.User, error) {
	return r.findBy(ctx, "find_by_email_or_matric", "(u.email = $1 OR u.matric_no = $2) ORDER BY (u.email = $1) DESC", email, matricNO)
}

func (r *UserRepository) findBy(ctx context.Context, label, where string, args ...interface{}) (*models.User, error) {
	defer r.observe(label, time.Now())
	query := fmt.Sprintf("SELECT %s FROM users u WHERE %s LIMIT 1", userColumns, where)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// CreateWithVerificationCode redeems codeID and inserts the user in one transaction.
// An empty codeID inserts the user alone.
func (r *UserRepository) CreateWithVerificationCode(ctx context.Context, user *models.User, codeID string) error {
	defer r.observe("create_with_code", time.Now())
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if codeID != "" {
			ok, err := consumeVerificationCode(ctx, tx, codeID, time.Now().UTC())
			if err != nil {
				return err
			}
			if !ok {
				return ErrVerificationCodeUnavailable
			}
		}
		return r.InsertWith(ctx, tx, user)
	})
}

// UpdateLastLogin updates the last_login_at timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	defer r.observe("update_last_login", time.Now())
	const query = `UPDATE users SET last_login_at = $2, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// SetResetToken stores a password reset token and its expiry.
func (r *UserRepository) SetResetToken(ctx context.Context, id, token string, expiry time.Time) error {
	defer r.observe("set_reset_token", time.Now())
	const query = `UPDATE users SET reset_token = $2, reset_token_expiry = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, token, expiry, time.Now().UTC()); err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	return nil
}

// ResetPassword stores the new hash and clears the reset token.
func (r *UserRepository) ResetPassword(ctx context.Context, id, passwordHash string) error {
	defer r.observe("reset_password", time.Now())
	const query = `UPDATE users SET password_hash = $2, reset_token = NULL, reset_token_expiry = NULL, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}
