package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/courseflow-api/internal/models"
)

var verificationCodeEntity = Entity{
	Descriptor: models.Descriptor{
		Name:         "verification code",
		Identifier:   "id",
		Unique:       []models.UniqueField{{Field: "code", Column: "code"}},
		DefaultSort:  "created_at",
		DefaultOrder: "DESC",
	},
	Table: "verification_codes",
	Alias: "vc",
	Columns: []string{
		"vc.id", "vc.code", "vc.role", "vc.description", "vc.max_usage", "vc.usage_count",
		"vc.expires_at", "vc.is_active", "vc.created_by", "vc.created_at", "vc.updated_at",
	},
	Sortable: map[string]string{
		"code":      "vc.code",
		"role":      "vc.role",
		"expiresAt": "vc.expires_at",
		"createdAt": "vc.created_at",
	},
	InsertSQL: `INSERT INTO verification_codes (id, code, role, description, max_usage, usage_count, expires_at, is_active, created_by, created_at, updated_at) VALUES (:id, :code, :role, :description, :max_usage, :usage_count, :expires_at, :is_active, :created_by, :created_at, :updated_at)`,
	UpdateSQL: `UPDATE verification_codes SET code = :code, role = :role, description = :description, max_usage = :max_usage, expires_at = :expires_at, is_active = :is_active, updated_at = :updated_at WHERE id = :id`,
}

// consumeCodeSQL increments usage only while the code is active, unexpired and under its cap.
const consumeCodeSQL = `UPDATE verification_codes SET usage_count = usage_count + 1, updated_at = $2
	WHERE id = $1 AND is_active = TRUE
	AND (max_usage IS NULL OR usage_count < max_usage)
	AND (expires_at IS NULL OR expires_at > $2)`

// VerificationCodeRepository provides database access for verification codes.
type VerificationCodeRepository struct {
	*Store[models.VerificationCode]
}

// NewVerificationCodeRepository creates a new instance of VerificationCodeRepository.
func NewVerificationCodeRepository(db *sqlx.DB, observer QueryObserver) *VerificationCodeRepository {
	return &VerificationCodeRepository{Store: NewStore[models.VerificationCode](db, verificationCodeEntity, observer)}
}

// FindByCode returns the verification code with the given value.
func (r *VerificationCodeRepository) FindByCode(ctx context.Context, code string) (*models.VerificationCode, error) {
	defer r.observe("find_by_code", time.Now())
	query := r.SelectFrom() + " WHERE vc.code = $1 LIMIT 1"
	var vc models.VerificationCode
	if err := r.db.GetContext(ctx, &vc, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find verification code: %w", err)
	}
	return &vc, nil
}

// consumeVerificationCode redeems one use of the code through exec. It reports false when the code was no longer redeemable.
func consumeVerificationCode(ctx context.Context, exec sqlx.ExecerContext, id string, now time.Time) (bool, error) {
	res, err := exec.ExecContext(ctx, consumeCodeSQL, id, now)
	if err != nil {
		return false, fmt.Errorf("consume verification code: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume verification code: %w", err)
	}
	return affected == 1, nil
}
