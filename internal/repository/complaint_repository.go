package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/courseflow-api/internal/models"
)

var complaintEntity = Entity{
	Descriptor: models.Descriptor{
		Name:         "complaint",
		Identifier:   "id",
		DefaultSort:  "created_at",
		DefaultOrder: "DESC",
	},
	Table: "complaints",
	Alias: "cp",
	Columns: []string{
		"cp.id", "cp.name", "cp.email", "cp.department", "cp.subject", "cp.message", "cp.status",
		"cp.resolved_by", "cp.resolved_at", "cp.user_id", "cp.created_at", "cp.updated_at",
	},
	Sortable: map[string]string{
		"createdAt":  "cp.created_at",
		"updatedAt":  "cp.updated_at",
		"status":     "cp.status",
		"resolvedAt": "cp.resolved_at",
		"subject":    "cp.subject",
	},
	InsertSQL: `INSERT INTO complaints (id, name, email, department, subject, message, status, resolved_by, resolved_at, user_id, created_at, updated_at) VALUES (:id, :name, :email, :department, :subject, :message, :status, :resolved_by, :resolved_at, :user_id, :created_at, :updated_at)`,
	UpdateSQL: `UPDATE complaints SET status = :status, resolved_by = :resolved_by, resolved_at = :resolved_at, updated_at = :updated_at WHERE id = :id`,
}

// ComplaintRepository provides database access for complaints.
type ComplaintRepository struct {
	*Store[models.Complaint]
}

// NewComplaintRepository creates a new instance of ComplaintRepository.
func NewComplaintRepository(db *sqlx.DB, observer QueryObserver) *ComplaintRepository {
	return &ComplaintRepository{Store: NewStore[models.Complaint](db, complaintEntity, observer)}
}

// FindByUser returns the complaints submitted by a user, newest first.
func (r *ComplaintRepository) FindByUser(ctx context.Context, userID string) ([]models.Complaint, error) {
	return r.Select(ctx, "complaints by user", "cp.user_id = $1", "cp.created_at DESC", userID)
}

// FindByStatus returns complaints in the given status. Resolved complaints are ordered by resolution time.
func (r *ComplaintRepository) FindByStatus(ctx context.Context, status models.ComplaintStatus) ([]models.Complaint, error) {
	order := "cp.created_at DESC"
	if status == models.ComplaintResolved {
		order = "cp.resolved_at DESC NULLS LAST"
	}
	return r.Select(ctx, "complaints by status", "cp.status = $1", order, status)
}
